package repositories

import (
	"context"
	"testing"

	"ems-backend/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeByRootFormID_IncludesSoftDeleted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewServiceDetailsRepository(db)
	formRepo := NewRootFormRepository(db)
	ctx := context.Background()

	form := &models.RootForm{FormNumber: "FN-20250703-1"}
	require.NoError(t, formRepo.Create(ctx, form))

	step := &models.ServiceDetails{RootFormID: form.ID}
	require.NoError(t, repo.Create(ctx, step))
	require.NoError(t, repo.ReplaceExams(ctx, step.ID, []models.ExamDetail{
		{ExamType: models.ExamCCC},
		{ExamType: models.ExamLRQ},
	}))

	// Soft delete the step; the row still occupies the unique root_form_id slot.
	require.NoError(t, db.Delete(step).Error)

	require.NoError(t, repo.PurgeByRootFormID(ctx, form.ID))

	var steps, exams int64
	require.NoError(t, db.Unscoped().Model(&models.ServiceDetails{}).Count(&steps).Error)
	require.NoError(t, db.Unscoped().Model(&models.ExamDetail{}).Count(&exams).Error)
	assert.Equal(t, int64(0), steps)
	assert.Equal(t, int64(0), exams)

	// A fresh step for the same form must now be creatable.
	require.NoError(t, repo.Create(ctx, &models.ServiceDetails{RootFormID: form.ID}))
}

func TestPurgeByRootFormID_NoStep(t *testing.T) {
	db := setupTestDB(t)
	repo := NewServiceDetailsRepository(db)

	require.NoError(t, repo.PurgeByRootFormID(context.Background(), 42))
}

func TestReplaceExams_FullReplacement(t *testing.T) {
	db := setupTestDB(t)
	repo := NewServiceDetailsRepository(db)
	formRepo := NewRootFormRepository(db)
	ctx := context.Background()

	form := &models.RootForm{FormNumber: "FN-20250703-1"}
	require.NoError(t, formRepo.Create(ctx, form))

	step := &models.ServiceDetails{RootFormID: form.ID}
	require.NoError(t, repo.Create(ctx, step))

	require.NoError(t, repo.ReplaceExams(ctx, step.ID, []models.ExamDetail{
		{ExamType: models.ExamPreService},
		{ExamType: models.ExamCCC},
	}))

	require.NoError(t, repo.ReplaceExams(ctx, step.ID, []models.ExamDetail{
		{ExamType: models.ExamHRQ},
	}))

	exams, err := repo.GetExams(ctx, step.ID)
	require.NoError(t, err)
	require.Len(t, exams, 1)
	assert.Equal(t, models.ExamHRQ, exams[0].ExamType)
}

func TestReplaceExams_EmptySetClears(t *testing.T) {
	db := setupTestDB(t)
	repo := NewServiceDetailsRepository(db)
	formRepo := NewRootFormRepository(db)
	ctx := context.Background()

	form := &models.RootForm{FormNumber: "FN-20250703-1"}
	require.NoError(t, formRepo.Create(ctx, form))

	step := &models.ServiceDetails{RootFormID: form.ID}
	require.NoError(t, repo.Create(ctx, step))
	require.NoError(t, repo.ReplaceExams(ctx, step.ID, []models.ExamDetail{
		{ExamType: models.ExamCCC},
	}))

	require.NoError(t, repo.ReplaceExams(ctx, step.ID, nil))

	exams, err := repo.GetExams(ctx, step.ID)
	require.NoError(t, err)
	assert.Empty(t, exams)
}
