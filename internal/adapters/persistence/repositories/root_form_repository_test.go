package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ems-backend/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNextFormNumber_FirstOfDay(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRootFormRepository(db)

	at := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)
	number, err := repo.NextFormNumber(context.Background(), at)
	require.NoError(t, err)

	// Date segment is year, day, month.
	assert.Equal(t, "FN-20250703-1", number)
}

func TestNextFormNumber_Increments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRootFormRepository(db)
	ctx := context.Background()

	at := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)
	prefix := "FN-20250703"

	require.NoError(t, repo.Create(ctx, &models.RootForm{FormNumber: prefix + "-7"}))
	require.NoError(t, repo.Create(ctx, &models.RootForm{FormNumber: prefix + "-2"}))

	number, err := repo.NextFormNumber(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, prefix+"-8", number)
}

func TestNextFormNumber_IncludesSoftDeleted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRootFormRepository(db)
	ctx := context.Background()

	at := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)
	prefix := "FN-20250703"

	form := &models.RootForm{FormNumber: prefix + "-3"}
	require.NoError(t, repo.Create(ctx, form))
	require.NoError(t, db.Delete(form).Error)

	// A purged form never frees its number.
	number, err := repo.NextFormNumber(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, prefix+"-4", number)
}

func TestNextFormNumber_IgnoresOtherDays(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRootFormRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.RootForm{FormNumber: "FN-20250603-9"}))

	at := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)
	number, err := repo.NextFormNumber(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, "FN-20250703-1", number)
}

func TestCreate_DuplicateFormNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRootFormRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.RootForm{FormNumber: "FN-20250703-1"}))

	err := repo.Create(ctx, &models.RootForm{FormNumber: "FN-20250703-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestList_StatusFilterAndOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRootFormRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		status := models.FormStatusInProgress
		if i == 2 {
			status = models.FormStatusCompleted
		}
		require.NoError(t, repo.Create(ctx, &models.RootForm{
			FormNumber: fmt.Sprintf("FN-20250703-%d", i+1),
			Status:     status,
		}))
	}

	forms, total, err := repo.List(ctx, []string{models.FormStatusInProgress}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, forms, 2)

	forms, total, err = repo.List(ctx, nil, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, forms, 3)

	forms, total, err = repo.List(ctx, nil, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, forms, 2)
}

func TestGetDetailByID_PreloadsSteps(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRootFormRepository(db)
	serviceRepo := NewServiceDetailsRepository(db)
	personalRepo := NewPersonalDetailsRepository(db)
	ctx := context.Background()

	form := &models.RootForm{FormNumber: "FN-20250703-1"}
	require.NoError(t, repo.Create(ctx, form))

	require.NoError(t, personalRepo.Create(ctx, &models.PersonalDetails{
		RootFormID: form.ID,
		FirstName:  "Asha",
	}))

	step := &models.ServiceDetails{
		RootFormID:        form.ID,
		PostAtAppointment: models.PostRevenueClerk,
	}
	require.NoError(t, serviceRepo.Create(ctx, step))
	require.NoError(t, serviceRepo.ReplaceExams(ctx, step.ID, []models.ExamDetail{
		{ExamType: models.ExamCCC},
	}))

	got, err := repo.GetDetailByID(ctx, form.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PersonalDetails)
	require.NotNil(t, got.ServiceDetails)
	assert.Equal(t, "Asha", got.PersonalDetails.FirstName)
	assert.Len(t, got.ServiceDetails.Exams, 1)
}
