package repositories

import (
	"context"
	"errors"
	"testing"

	"ems-backend/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInTx_Commit(t *testing.T) {
	db := setupTestDB(t)
	txm := NewTxManager(db)
	formRepo := NewRootFormRepository(db)
	personalRepo := NewPersonalDetailsRepository(db)

	err := txm.RunInTx(context.Background(), func(txCtx context.Context) error {
		form := &models.RootForm{FormNumber: "FN-20250703-1"}
		if err := formRepo.Create(txCtx, form); err != nil {
			return err
		}
		return personalRepo.Create(txCtx, &models.PersonalDetails{RootFormID: form.ID})
	})
	require.NoError(t, err)

	var forms, steps int64
	require.NoError(t, db.Model(&models.RootForm{}).Count(&forms).Error)
	require.NoError(t, db.Model(&models.PersonalDetails{}).Count(&steps).Error)
	assert.Equal(t, int64(1), forms)
	assert.Equal(t, int64(1), steps)
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	txm := NewTxManager(db)
	formRepo := NewRootFormRepository(db)

	sentinel := errors.New("boom")
	err := txm.RunInTx(context.Background(), func(txCtx context.Context) error {
		if err := formRepo.Create(txCtx, &models.RootForm{FormNumber: "FN-20250703-1"}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// The write inside the failed transaction must not be visible.
	var forms int64
	require.NoError(t, db.Model(&models.RootForm{}).Count(&forms).Error)
	assert.Equal(t, int64(0), forms)
}
