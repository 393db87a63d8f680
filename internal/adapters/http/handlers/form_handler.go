package handlers

import (
	"errors"
	"strconv"

	"ems-backend/internal/core/domain"
	"ems-backend/internal/core/services"
	"ems-backend/internal/pkg/pagination"
	"ems-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// FormHandler handles multi-step form endpoints
type FormHandler struct {
	formService *services.FormService
}

// NewFormHandler creates a new form handler
func NewFormHandler(formService *services.FormService) *FormHandler {
	return &FormHandler{formService: formService}
}

// CreateForm handles root form creation
// @Summary Create a root form
// @Description Create a root form with its initial personal details step
// @Tags Forms
// @Accept json
// @Produce json
// @Param body body services.RootFormInput true "Form data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Security BearerAuth
// @Router /forms [post]
func (h *FormHandler) CreateForm(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.RootFormInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	form, err := h.formService.CreateRootForm(c.Context(), userID, req.PersonalDetails)
	if err != nil {
		return h.formError(c, err, "Failed to create form")
	}

	return response.Created(c, "Form created successfully", form)
}

// GetForm handles root form retrieval
// @Summary Get a root form
// @Description Get a root form with both steps and exam records
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path int true "Form ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /forms/{id} [get]
func (h *FormHandler) GetForm(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid form ID")
	}

	form, err := h.formService.GetRootForm(c.Context(), id)
	if err != nil {
		return h.formError(c, err, "Failed to get form")
	}

	return response.Success(c, "Form retrieved successfully", form)
}

// ListForms handles root form listing
// @Summary List root forms
// @Description List root forms, newest first, optionally filtered by status
// @Tags Forms
// @Accept json
// @Produce json
// @Param status query []string false "Status filter (repeatable)"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /forms [get]
func (h *FormHandler) ListForms(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	statuses := statusFilter(c)

	forms, total, err := h.formService.ListRootForms(c.Context(), statuses, params.Offset, params.Limit)
	if err != nil {
		return h.formError(c, err, "Failed to list forms")
	}

	return response.Success(c, "Forms retrieved successfully", pagination.NewResponse(forms, params, total))
}

// UpdateForm handles nested root form updates
// @Summary Update a root form
// @Description Patch a root form through nested step payloads
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path int true "Form ID"
// @Param body body services.RootFormInput true "Step payloads"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /forms/{id} [patch]
func (h *FormHandler) UpdateForm(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid form ID")
	}

	var req services.RootFormInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	form, err := h.formService.UpdateRootForm(c.Context(), userID, id, &req)
	if err != nil {
		return h.formError(c, err, "Failed to update form")
	}

	return response.Success(c, "Form updated successfully", form)
}

// CreatePersonalDetails handles personal details step creation
// @Summary Submit personal details
// @Description Create the personal details step for an existing form
// @Tags Forms
// @Accept json
// @Produce json
// @Param body body services.PersonalDetailsInput true "Personal details"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Security BearerAuth
// @Router /personal-details [post]
func (h *FormHandler) CreatePersonalDetails(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.PersonalDetailsInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	step, err := h.formService.SubmitPersonalDetails(c.Context(), userID, &req)
	if err != nil {
		return h.formError(c, err, "Failed to submit personal details")
	}

	return response.Created(c, "Personal details submitted successfully", step)
}

// UpdatePersonalDetails handles personal details step updates
// @Summary Update personal details
// @Description Patch an existing personal details step
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path int true "Step ID"
// @Param body body services.PersonalDetailsInput true "Personal details"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /personal-details/{id} [patch]
func (h *FormHandler) UpdatePersonalDetails(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid step ID")
	}

	var req services.PersonalDetailsInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	step, err := h.formService.UpdatePersonalDetails(c.Context(), userID, id, &req)
	if err != nil {
		return h.formError(c, err, "Failed to update personal details")
	}

	return response.Success(c, "Personal details updated successfully", step)
}

// CreateServiceDetails handles service details step creation
// @Summary Submit service details
// @Description Create the service details step, replacing any previous one
// @Tags Forms
// @Accept json
// @Produce json
// @Param body body services.ServiceDetailsInput true "Service details"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /service-details [post]
func (h *FormHandler) CreateServiceDetails(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.ServiceDetailsInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	step, err := h.formService.SubmitServiceDetails(c.Context(), userID, &req)
	if err != nil {
		return h.formError(c, err, "Failed to submit service details")
	}

	return response.Created(c, "Service details submitted successfully", step)
}

// UpdateServiceDetails handles service details step updates
// @Summary Update service details
// @Description Patch an existing service details step, replacing its exam set
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path int true "Step ID"
// @Param body body services.ServiceDetailsInput true "Service details"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /service-details/{id} [patch]
func (h *FormHandler) UpdateServiceDetails(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid step ID")
	}

	var req services.ServiceDetailsInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	step, err := h.formService.UpdateServiceDetails(c.Context(), userID, id, &req)
	if err != nil {
		return h.formError(c, err, "Failed to update service details")
	}

	return response.Success(c, "Service details updated successfully", step)
}

// formError maps service errors onto HTTP responses
func (h *FormHandler) formError(c *fiber.Ctx, err error, fallback string) error {
	if ve, ok := domain.AsValidationError(err); ok {
		return response.ValidationFailed(c, "Validation failed", ve.Fields)
	}

	switch {
	case errors.Is(err, domain.ErrFormNotFound):
		return response.NotFound(c, "Form not found")
	case errors.Is(err, domain.ErrStepNotFound):
		return response.NotFound(c, "Form step not found")
	case errors.Is(err, domain.ErrStepAlreadyExists):
		return response.Conflict(c, "Step already exists for this form")
	case errors.Is(err, domain.ErrDuplicateFormNumber):
		return response.Conflict(c, "Form number conflict, please retry")
	default:
		return response.InternalServerError(c, fallback)
	}
}

// statusFilter collects repeated status query values, "status" and "status[]"
func statusFilter(c *fiber.Ctx) []string {
	var statuses []string
	args := c.Context().QueryArgs()
	for _, key := range []string{"status", "status[]"} {
		for _, v := range args.PeekMulti(key) {
			if len(v) > 0 {
				statuses = append(statuses, string(v))
			}
		}
	}
	return statuses
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
