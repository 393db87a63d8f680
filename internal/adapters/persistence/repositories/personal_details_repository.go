package repositories

import (
	"context"
	"errors"

	"ems-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// PersonalDetailsRepository handles personal_details persistence
type PersonalDetailsRepository struct {
	db *gorm.DB
}

// NewPersonalDetailsRepository creates a new personal details repository
func NewPersonalDetailsRepository(db *gorm.DB) *PersonalDetailsRepository {
	return &PersonalDetailsRepository{db: db}
}

// Create creates a new personal details step
func (r *PersonalDetailsRepository) Create(ctx context.Context, step *models.PersonalDetails) error {
	return dbFrom(ctx, r.db).Create(step).Error
}

// Save persists in-place changes to a personal details step
func (r *PersonalDetailsRepository) Save(ctx context.Context, step *models.PersonalDetails) error {
	return dbFrom(ctx, r.db).Save(step).Error
}

// GetByID gets a personal details step by ID
func (r *PersonalDetailsRepository) GetByID(ctx context.Context, id uint) (*models.PersonalDetails, error) {
	var step models.PersonalDetails
	err := dbFrom(ctx, r.db).Where("id = ?", id).First(&step).Error
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// GetByRootFormID gets the personal details step for a root form, nil if absent
func (r *PersonalDetailsRepository) GetByRootFormID(ctx context.Context, rootFormID uint) (*models.PersonalDetails, error) {
	var step models.PersonalDetails
	err := dbFrom(ctx, r.db).Where("root_form_id = ?", rootFormID).First(&step).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &step, nil
}
