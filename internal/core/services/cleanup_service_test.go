package services

import (
	"context"
	"testing"
	"time"

	"ems-backend/internal/adapters/persistence/models"
	"ems-backend/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPurgeExpiredTokens(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	user := &models.User{Email: "asha@ems.local", Password: "hashed", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	repo := repositories.NewRefreshTokenRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.RefreshToken{
		UserID:    user.ID,
		JTI:       "jti-old",
		TokenHash: "hash-old",
		ExpiresAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{
		UserID:    user.ID,
		JTI:       "jti-live",
		TokenHash: "hash-live",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}))

	svc := NewCleanupService(repo)
	deleted, err := svc.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}
