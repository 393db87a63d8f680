package services

import (
	"context"
	"errors"
	"log"
	"time"

	"ems-backend/internal/adapters/persistence/models"
	"ems-backend/internal/adapters/persistence/repositories"
	"ems-backend/internal/core/domain"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// attempt_count bounds for exam records
const (
	minAttemptCount = 1
	maxAttemptCount = 5
)

// FormService orchestrates the multi-step form: root form creation, step
// submission and the progression bookkeeping that follows each submission.
type FormService struct {
	formRepo     *repositories.RootFormRepository
	personalRepo *repositories.PersonalDetailsRepository
	serviceRepo  *repositories.ServiceDetailsRepository
	txManager    *repositories.TxManager
}

// NewFormService creates a new form service
func NewFormService(
	formRepo *repositories.RootFormRepository,
	personalRepo *repositories.PersonalDetailsRepository,
	serviceRepo *repositories.ServiceDetailsRepository,
	txManager *repositories.TxManager,
) *FormService {
	return &FormService{
		formRepo:     formRepo,
		personalRepo: personalRepo,
		serviceRepo:  serviceRepo,
		txManager:    txManager,
	}
}

// PersonalDetailsInput represents a personal details payload. Pointer fields
// distinguish "absent" from "empty" so partial updates leave fields untouched.
type PersonalDetailsInput struct {
	RootFormID      *uint   `json:"root_form_id"`
	Email           *string `json:"email"`
	FirstName       *string `json:"first_name"`
	MiddleName      *string `json:"middle_name"`
	LastName        *string `json:"last_name"`
	Gender          *string `json:"gender"`
	MobileNumber    *string `json:"mobile_number"`
	PANNumber       *string `json:"pan_number"`
	VoterID         *string `json:"voter_id"`
	IsStepCompleted *bool   `json:"is_step_completed"`
}

// ExamInput represents one exam record in a service details payload
type ExamInput struct {
	ExamType     string  `json:"exam_type"`
	PassingDate  *string `json:"passing_date"`
	AttemptCount *int    `json:"attempt_count"`
}

// ServiceDetailsInput represents a service details payload. The exam set is
// always taken as a whole: whatever is sent replaces whatever is stored.
type ServiceDetailsInput struct {
	RootFormID             *uint       `json:"root_form_id"`
	JoiningAppointmentDate *string     `json:"joining_appointment_date"`
	RegularAppointmentDate *string     `json:"regular_appointment_date"`
	PostAtAppointment      *string     `json:"post_at_appointment"`
	PPAN                   *string     `json:"ppan"`
	PRAN                   *string     `json:"pran"`
	IsStepCompleted        *bool       `json:"is_step_completed"`
	Exams                  []ExamInput `json:"exams"`
}

// RootFormInput represents the nested payload for creating or patching a root
// form together with its steps.
type RootFormInput struct {
	PersonalDetails *PersonalDetailsInput `json:"personal_details"`
	ServiceDetails  *ServiceDetailsInput  `json:"service_details"`
}

// CreateRootForm creates a root form with its initial personal details step in
// one transaction. Number generation races with concurrent creators; the
// unique index decides the loser, which retries once with a fresh number.
func (s *FormService) CreateRootForm(ctx context.Context, userID uint, input *PersonalDetailsInput) (*models.RootForm, error) {
	if input == nil {
		input = &PersonalDetailsInput{}
	}
	if err := validatePersonalDetails(input, true); err != nil {
		return nil, err
	}

	var formID uint
	attempt := func() error {
		return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			number, err := s.formRepo.NextFormNumber(txCtx, time.Now())
			if err != nil {
				return err
			}

			form := &models.RootForm{
				FormNumber:    number,
				Status:        models.FormStatusInProgress,
				CurrentStep:   models.StepStarted,
				StepCompleted: models.StepList{},
				UserID:        &userID,
			}
			form.CreatedBy = &userID
			if err := s.formRepo.Create(txCtx, form); err != nil {
				return err
			}

			step := buildPersonalDetails(form.ID, userID, input)
			if err := s.personalRepo.Create(txCtx, step); err != nil {
				return err
			}

			if err := s.applyStepSubmission(txCtx, form, models.StepPersonalDetails, step.IsStepCompleted, userID); err != nil {
				return err
			}

			formID = form.ID
			return nil
		})
	}

	err := attempt()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		log.Printf("⚠️ Form number collision, retrying with a fresh number")
		err = attempt()
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateFormNumber
		}
		return nil, err
	}

	form, err := s.formRepo.GetDetailByID(ctx, formID)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Root form created: %s", form.FormNumber)
	return form, nil
}

// GetRootForm gets a root form with its steps and exam records
func (s *FormService) GetRootForm(ctx context.Context, id uint) (*models.RootForm, error) {
	form, err := s.formRepo.GetDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFormNotFound
		}
		return nil, err
	}
	return form, nil
}

// ListRootForms lists root forms, optionally filtered by status
func (s *FormService) ListRootForms(ctx context.Context, statuses []string, offset, limit int) ([]*models.RootForm, int64, error) {
	for _, status := range statuses {
		if !models.ValidFormStatus(status) {
			return nil, 0, domain.FieldError("status", "invalid status: "+status)
		}
	}
	return s.formRepo.List(ctx, statuses, offset, limit)
}

// UpdateRootForm patches a root form through its nested step payloads. A
// payload for a step that does not exist yet creates it; otherwise the
// existing step is updated in place. Both run in one transaction.
func (s *FormService) UpdateRootForm(ctx context.Context, userID, formID uint, input *RootFormInput) (*models.RootForm, error) {
	if input == nil || (input.PersonalDetails == nil && input.ServiceDetails == nil) {
		return nil, domain.FieldError("body", "at least one step payload is required")
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		form, err := s.formRepo.GetByID(txCtx, formID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrFormNotFound
			}
			return err
		}

		if input.PersonalDetails != nil {
			existing, err := s.personalRepo.GetByRootFormID(txCtx, form.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				if err := s.createPersonalStep(txCtx, form, userID, input.PersonalDetails); err != nil {
					return err
				}
			} else if err := s.updatePersonalStep(txCtx, form, existing, userID, input.PersonalDetails); err != nil {
				return err
			}
		}

		if input.ServiceDetails != nil {
			existing, err := s.serviceRepo.GetByRootFormID(txCtx, form.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				if err := s.createServiceStep(txCtx, form, userID, input.ServiceDetails); err != nil {
					return err
				}
			} else if err := s.updateServiceStep(txCtx, form, existing, userID, input.ServiceDetails); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRootForm(ctx, formID)
}

// SubmitPersonalDetails creates the personal details step for an existing form
func (s *FormService) SubmitPersonalDetails(ctx context.Context, userID uint, input *PersonalDetailsInput) (*models.PersonalDetails, error) {
	if input == nil || input.RootFormID == nil {
		return nil, domain.FieldError("root_form_id", "this field is required")
	}
	if err := validatePersonalDetails(input, true); err != nil {
		return nil, err
	}

	var step *models.PersonalDetails
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		form, err := s.formRepo.GetByID(txCtx, *input.RootFormID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrFormNotFound
			}
			return err
		}

		existing, err := s.personalRepo.GetByRootFormID(txCtx, form.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrStepAlreadyExists
		}

		step = buildPersonalDetails(form.ID, userID, input)
		if err := s.personalRepo.Create(txCtx, step); err != nil {
			return err
		}

		return s.applyStepSubmission(txCtx, form, models.StepPersonalDetails, step.IsStepCompleted, userID)
	})
	if err != nil {
		return nil, err
	}
	return step, nil
}

// UpdatePersonalDetails patches an existing personal details step by ID.
// Required-field checks apply only at creation; a partial patch may leave the
// step incomplete.
func (s *FormService) UpdatePersonalDetails(ctx context.Context, userID, stepID uint, input *PersonalDetailsInput) (*models.PersonalDetails, error) {
	var step *models.PersonalDetails
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		step, err = s.personalRepo.GetByID(txCtx, stepID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrStepNotFound
			}
			return err
		}

		form, err := s.formRepo.GetByID(txCtx, step.RootFormID)
		if err != nil {
			return err
		}

		return s.updatePersonalStep(txCtx, form, step, userID, input)
	})
	if err != nil {
		return nil, err
	}
	return step, nil
}

// SubmitServiceDetails creates the service details step for an existing form.
// Any previous step for the form, soft-deleted included, is purged first
// together with its exam records.
func (s *FormService) SubmitServiceDetails(ctx context.Context, userID uint, input *ServiceDetailsInput) (*models.ServiceDetails, error) {
	if input == nil || input.RootFormID == nil {
		return nil, domain.FieldError("root_form_id", "this field is required")
	}
	if err := validateServiceDetails(input, true); err != nil {
		return nil, err
	}

	var stepID uint
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		form, err := s.formRepo.GetByID(txCtx, *input.RootFormID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrFormNotFound
			}
			return err
		}

		if err := s.serviceRepo.PurgeByRootFormID(txCtx, form.ID); err != nil {
			return err
		}

		return s.createServiceStepAfterPurge(txCtx, form, userID, input, &stepID)
	})
	if err != nil {
		return nil, err
	}

	return s.getServiceStepWithExams(ctx, stepID)
}

// UpdateServiceDetails patches an existing service details step by ID. The
// exam set is replaced wholesale with whatever the payload carries, an empty
// payload included.
func (s *FormService) UpdateServiceDetails(ctx context.Context, userID, stepID uint, input *ServiceDetailsInput) (*models.ServiceDetails, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		step, err := s.serviceRepo.GetByID(txCtx, stepID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrStepNotFound
			}
			return err
		}

		form, err := s.formRepo.GetByID(txCtx, step.RootFormID)
		if err != nil {
			return err
		}

		return s.updateServiceStep(txCtx, form, step, userID, input)
	})
	if err != nil {
		return nil, err
	}

	return s.getServiceStepWithExams(ctx, stepID)
}

// createPersonalStep validates and creates the step, then advances the form
func (s *FormService) createPersonalStep(ctx context.Context, form *models.RootForm, userID uint, input *PersonalDetailsInput) error {
	if err := validatePersonalDetails(input, true); err != nil {
		return err
	}

	step := buildPersonalDetails(form.ID, userID, input)
	if err := s.personalRepo.Create(ctx, step); err != nil {
		return err
	}
	return s.applyStepSubmission(ctx, form, models.StepPersonalDetails, step.IsStepCompleted, userID)
}

// updatePersonalStep validates the payload, applies the non-nil fields and
// advances the form
func (s *FormService) updatePersonalStep(ctx context.Context, form *models.RootForm, step *models.PersonalDetails, userID uint, input *PersonalDetailsInput) error {
	if err := validatePersonalDetails(input, false); err != nil {
		return err
	}

	if input.Email != nil {
		step.Email = *input.Email
	}
	if input.FirstName != nil {
		step.FirstName = *input.FirstName
	}
	if input.MiddleName != nil {
		step.MiddleName = *input.MiddleName
	}
	if input.LastName != nil {
		step.LastName = *input.LastName
	}
	if input.Gender != nil {
		step.Gender = *input.Gender
	}
	if input.MobileNumber != nil {
		step.MobileNumber = *input.MobileNumber
	}
	if input.PANNumber != nil {
		step.PANNumber = *input.PANNumber
	}
	if input.VoterID != nil {
		step.VoterID = input.VoterID
	}
	if input.IsStepCompleted != nil {
		step.IsStepCompleted = *input.IsStepCompleted
	}
	step.UpdatedBy = &userID

	if err := s.personalRepo.Save(ctx, step); err != nil {
		return err
	}
	return s.applyStepSubmission(ctx, form, models.StepPersonalDetails, step.IsStepCompleted, userID)
}

// createServiceStep purges any leftover step first, then creates the new one
func (s *FormService) createServiceStep(ctx context.Context, form *models.RootForm, userID uint, input *ServiceDetailsInput) error {
	if err := validateServiceDetails(input, true); err != nil {
		return err
	}
	if err := s.serviceRepo.PurgeByRootFormID(ctx, form.ID); err != nil {
		return err
	}
	var stepID uint
	return s.createServiceStepAfterPurge(ctx, form, userID, input, &stepID)
}

func (s *FormService) createServiceStepAfterPurge(ctx context.Context, form *models.RootForm, userID uint, input *ServiceDetailsInput, stepID *uint) error {
	step, err := buildServiceDetails(form.ID, userID, input)
	if err != nil {
		return err
	}
	if err := s.serviceRepo.Create(ctx, step); err != nil {
		return err
	}

	exams, err := buildExamRecords(input.Exams, userID)
	if err != nil {
		return err
	}
	if err := s.serviceRepo.ReplaceExams(ctx, step.ID, exams); err != nil {
		return err
	}

	*stepID = step.ID
	return s.applyStepSubmission(ctx, form, models.StepServiceDetails, step.IsStepCompleted, userID)
}

// updateServiceStep validates the payload, applies the non-nil fields,
// replaces the exam set and advances the form
func (s *FormService) updateServiceStep(ctx context.Context, form *models.RootForm, step *models.ServiceDetails, userID uint, input *ServiceDetailsInput) error {
	if err := validateServiceDetails(input, false); err != nil {
		return err
	}

	if input.JoiningAppointmentDate != nil {
		t, err := parseDate("joining_appointment_date", *input.JoiningAppointmentDate)
		if err != nil {
			return err
		}
		step.JoiningAppointmentDate = t
	}
	if input.RegularAppointmentDate != nil {
		t, err := parseDate("regular_appointment_date", *input.RegularAppointmentDate)
		if err != nil {
			return err
		}
		step.RegularAppointmentDate = &t
	}
	if input.PostAtAppointment != nil {
		step.PostAtAppointment = *input.PostAtAppointment
	}
	if input.PPAN != nil {
		step.PPAN = input.PPAN
	}
	if input.PRAN != nil {
		step.PRAN = input.PRAN
	}
	if input.IsStepCompleted != nil {
		step.IsStepCompleted = *input.IsStepCompleted
	}
	step.UpdatedBy = &userID

	if err := s.serviceRepo.Save(ctx, step); err != nil {
		return err
	}

	exams, err := buildExamRecords(input.Exams, userID)
	if err != nil {
		return err
	}
	if err := s.serviceRepo.ReplaceExams(ctx, step.ID, exams); err != nil {
		return err
	}

	return s.applyStepSubmission(ctx, form, models.StepServiceDetails, step.IsStepCompleted, userID)
}

// applyStepSubmission advances the form after any step write. current_step
// never decreases, a service details write marks the form completed, and
// completed_at is stamped only the first time. A completed step joins
// step_completed exactly once.
func (s *FormService) applyStepSubmission(ctx context.Context, form *models.RootForm, step models.FormStep, stepCompleted bool, userID uint) error {
	if step > form.CurrentStep {
		form.CurrentStep = step
	}

	if step == models.StepServiceDetails {
		form.Status = models.FormStatusCompleted
		if form.CompletedAt == nil {
			now := time.Now()
			form.CompletedAt = &now
		}
	} else if form.Status == models.FormStatusPending {
		form.Status = models.FormStatusInProgress
	}

	if stepCompleted && !form.StepCompleted.Contains(step) {
		form.StepCompleted = append(form.StepCompleted, step)
	}

	form.UpdatedBy = &userID
	return s.formRepo.Save(ctx, form)
}

func (s *FormService) getServiceStepWithExams(ctx context.Context, stepID uint) (*models.ServiceDetails, error) {
	step, err := s.serviceRepo.GetByID(ctx, stepID)
	if err != nil {
		return nil, err
	}
	exams, err := s.serviceRepo.GetExams(ctx, stepID)
	if err != nil {
		return nil, err
	}
	step.Exams = exams
	return step, nil
}

func buildPersonalDetails(rootFormID, userID uint, input *PersonalDetailsInput) *models.PersonalDetails {
	step := &models.PersonalDetails{RootFormID: rootFormID}
	step.CreatedBy = &userID

	if input.Email != nil {
		step.Email = *input.Email
	}
	if input.FirstName != nil {
		step.FirstName = *input.FirstName
	}
	if input.MiddleName != nil {
		step.MiddleName = *input.MiddleName
	}
	if input.LastName != nil {
		step.LastName = *input.LastName
	}
	if input.Gender != nil {
		step.Gender = *input.Gender
	}
	if input.MobileNumber != nil {
		step.MobileNumber = *input.MobileNumber
	}
	if input.PANNumber != nil {
		step.PANNumber = *input.PANNumber
	}
	step.VoterID = input.VoterID
	if input.IsStepCompleted != nil {
		step.IsStepCompleted = *input.IsStepCompleted
	}
	return step
}

func buildServiceDetails(rootFormID, userID uint, input *ServiceDetailsInput) (*models.ServiceDetails, error) {
	step := &models.ServiceDetails{RootFormID: rootFormID}
	step.CreatedBy = &userID

	if input.JoiningAppointmentDate != nil {
		t, err := parseDate("joining_appointment_date", *input.JoiningAppointmentDate)
		if err != nil {
			return nil, err
		}
		step.JoiningAppointmentDate = t
	}
	if input.RegularAppointmentDate != nil {
		t, err := parseDate("regular_appointment_date", *input.RegularAppointmentDate)
		if err != nil {
			return nil, err
		}
		step.RegularAppointmentDate = &t
	}
	if input.PostAtAppointment != nil {
		step.PostAtAppointment = *input.PostAtAppointment
	}
	step.PPAN = input.PPAN
	step.PRAN = input.PRAN
	if input.IsStepCompleted != nil {
		step.IsStepCompleted = *input.IsStepCompleted
	}
	return step, nil
}

func buildExamRecords(inputs []ExamInput, userID uint) ([]models.ExamDetail, error) {
	exams := make([]models.ExamDetail, 0, len(inputs))
	for _, in := range inputs {
		exam := models.ExamDetail{
			ExamType:     in.ExamType,
			AttemptCount: in.AttemptCount,
		}
		exam.CreatedBy = &userID
		if in.PassingDate != nil {
			t, err := parseDate("passing_date", *in.PassingDate)
			if err != nil {
				return nil, err
			}
			exam.PassingDate = &t
		}
		exams = append(exams, exam)
	}
	return exams, nil
}

// validatePersonalDetails enforces enum choices always, and required fields
// only when the payload both creates the step and declares it completed.
func validatePersonalDetails(input *PersonalDetailsInput, creating bool) error {
	if input == nil {
		return nil
	}
	fields := map[string]string{}

	if input.Gender != nil && *input.Gender != "" && !models.ValidGender(*input.Gender) {
		fields["gender"] = "invalid choice: " + *input.Gender
	}

	completing := input.IsStepCompleted != nil && *input.IsStepCompleted
	if creating && completing {
		required := map[string]*string{
			"email":         input.Email,
			"first_name":    input.FirstName,
			"middle_name":   input.MiddleName,
			"last_name":     input.LastName,
			"gender":        input.Gender,
			"mobile_number": input.MobileNumber,
			"pan_number":    input.PANNumber,
		}
		for name, value := range required {
			if value == nil || *value == "" {
				fields[name] = "this field is required to complete the step"
			}
		}
	}

	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}

// validateServiceDetails enforces enum choices and exam record constraints
func validateServiceDetails(input *ServiceDetailsInput, creating bool) error {
	if input == nil {
		return nil
	}
	fields := map[string]string{}

	if creating && input.JoiningAppointmentDate == nil {
		fields["joining_appointment_date"] = "this field is required"
	}
	if input.PostAtAppointment != nil && *input.PostAtAppointment != "" && !models.ValidPost(*input.PostAtAppointment) {
		fields["post_at_appointment"] = "invalid choice: " + *input.PostAtAppointment
	}

	for _, exam := range input.Exams {
		if exam.ExamType == "" {
			fields["exam_type"] = "this field is required"
		} else if !models.ValidExamType(exam.ExamType) {
			fields["exam_type"] = "invalid choice: " + exam.ExamType
		}
		if exam.AttemptCount != nil && (*exam.AttemptCount < minAttemptCount || *exam.AttemptCount > maxAttemptCount) {
			fields["attempt_count"] = "must be between 1 and 5"
		}
	}

	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, domain.FieldError(field, "expected YYYY-MM-DD")
	}
	return t, nil
}
