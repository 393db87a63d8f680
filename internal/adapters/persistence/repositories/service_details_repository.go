package repositories

import (
	"context"
	"errors"

	"ems-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ServiceDetailsRepository handles service_details and exam_details persistence
type ServiceDetailsRepository struct {
	db *gorm.DB
}

// NewServiceDetailsRepository creates a new service details repository
func NewServiceDetailsRepository(db *gorm.DB) *ServiceDetailsRepository {
	return &ServiceDetailsRepository{db: db}
}

// Create creates a new service details step
func (r *ServiceDetailsRepository) Create(ctx context.Context, step *models.ServiceDetails) error {
	return dbFrom(ctx, r.db).Create(step).Error
}

// Save persists in-place changes to a service details step
func (r *ServiceDetailsRepository) Save(ctx context.Context, step *models.ServiceDetails) error {
	return dbFrom(ctx, r.db).Save(step).Error
}

// GetByID gets a service details step by ID
func (r *ServiceDetailsRepository) GetByID(ctx context.Context, id uint) (*models.ServiceDetails, error) {
	var step models.ServiceDetails
	err := dbFrom(ctx, r.db).Where("id = ?", id).First(&step).Error
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// GetByRootFormID gets the live service details step for a root form, nil if absent
func (r *ServiceDetailsRepository) GetByRootFormID(ctx context.Context, rootFormID uint) (*models.ServiceDetails, error) {
	var step models.ServiceDetails
	err := dbFrom(ctx, r.db).Where("root_form_id = ?", rootFormID).First(&step).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// PurgeByRootFormID hard-deletes any service details step for the root form,
// including previously soft-deleted rows, together with its exam records.
func (r *ServiceDetailsRepository) PurgeByRootFormID(ctx context.Context, rootFormID uint) error {
	db := dbFrom(ctx, r.db)

	var steps []models.ServiceDetails
	if err := db.Unscoped().Where("root_form_id = ?", rootFormID).Find(&steps).Error; err != nil {
		return err
	}
	if len(steps) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(steps))
	for _, step := range steps {
		ids = append(ids, step.ID)
	}

	if err := db.Unscoped().Where("service_details_id IN ?", ids).Delete(&models.ExamDetail{}).Error; err != nil {
		return err
	}
	return db.Unscoped().Where("root_form_id = ?", rootFormID).Delete(&models.ServiceDetails{}).Error
}

// ReplaceExams hard-deletes the current exam set of a step and bulk-inserts
// the replacement. Partial patches to individual exams are not supported.
func (r *ServiceDetailsRepository) ReplaceExams(ctx context.Context, serviceDetailsID uint, exams []models.ExamDetail) error {
	db := dbFrom(ctx, r.db)

	if err := db.Unscoped().Where("service_details_id = ?", serviceDetailsID).Delete(&models.ExamDetail{}).Error; err != nil {
		return err
	}
	if len(exams) == 0 {
		return nil
	}

	for i := range exams {
		exams[i].ServiceDetailsID = serviceDetailsID
	}
	return db.Create(&exams).Error
}

// GetExams lists the exam records of a step
func (r *ServiceDetailsRepository) GetExams(ctx context.Context, serviceDetailsID uint) ([]models.ExamDetail, error) {
	var exams []models.ExamDetail
	err := dbFrom(ctx, r.db).Where("service_details_id = ?", serviceDetailsID).Find(&exams).Error
	return exams, err
}
