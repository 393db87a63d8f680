package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ems-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// formNumberDateLayout renders YYYYDDMM (year, day, month).
const formNumberDateLayout = "20060201"

// RootFormRepository handles root_form persistence
type RootFormRepository struct {
	db *gorm.DB
}

// NewRootFormRepository creates a new root form repository
func NewRootFormRepository(db *gorm.DB) *RootFormRepository {
	return &RootFormRepository{db: db}
}

// Create creates a new root form
func (r *RootFormRepository) Create(ctx context.Context, form *models.RootForm) error {
	return dbFrom(ctx, r.db).Create(form).Error
}

// Save persists in-place changes to a root form
func (r *RootFormRepository) Save(ctx context.Context, form *models.RootForm) error {
	return dbFrom(ctx, r.db).Save(form).Error
}

// GetByID gets a root form by ID
func (r *RootFormRepository) GetByID(ctx context.Context, id uint) (*models.RootForm, error) {
	var form models.RootForm
	err := dbFrom(ctx, r.db).Where("id = ?", id).First(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// GetDetailByID gets a root form with both steps and exams preloaded
func (r *RootFormRepository) GetDetailByID(ctx context.Context, id uint) (*models.RootForm, error) {
	var form models.RootForm
	err := dbFrom(ctx, r.db).
		Preload("PersonalDetails").
		Preload("ServiceDetails").
		Preload("ServiceDetails.Exams").
		Where("id = ?", id).
		First(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// List lists root forms, optionally filtered by status, newest first
func (r *RootFormRepository) List(ctx context.Context, statuses []string, offset, limit int) ([]*models.RootForm, int64, error) {
	var forms []*models.RootForm
	var total int64

	query := dbFrom(ctx, r.db).Model(&models.RootForm{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&forms).Error
	if err != nil {
		return nil, 0, err
	}

	return forms, total, nil
}

// NextFormNumber computes the next number for the day: FN-<YYYYDDMM>-<seq>.
// The scan includes soft-deleted forms so a purged form never frees its
// number. Callers must hold this inside the creation transaction; the unique
// index on form_number is the final arbiter under concurrency.
func (r *RootFormRepository) NextFormNumber(ctx context.Context, at time.Time) (string, error) {
	prefix := "FN-" + at.Format(formNumberDateLayout)

	var numbers []string
	err := dbFrom(ctx, r.db).
		Unscoped().
		Model(&models.RootForm{}).
		Where("form_number LIKE ?", prefix+"-%").
		Pluck("form_number", &numbers).Error
	if err != nil {
		return "", err
	}

	var maxSeq int64
	for _, number := range numbers {
		suffix := strings.TrimPrefix(number, prefix+"-")
		seq, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}

	return fmt.Sprintf("%s-%d", prefix, maxSeq+1), nil
}
