package repositories

import (
	"context"
	"time"

	"ems-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// refreshTokenRepository implements RefreshTokenRepository interface
type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create creates a new outstanding token row
func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return dbFrom(ctx, r.db).Create(token).Error
}

// GetByTokenHash gets an active refresh token by its hash
func (r *refreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := dbFrom(ctx, r.db).
		Where("token_hash = ?", tokenHash).
		Where("revoked_at IS NULL").
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// RevokeActiveByTokenHash revokes the token in a single guarded update.
// The revoked_at IS NULL predicate makes concurrent replays of the same
// token race on one row: exactly one caller sees rows affected.
func (r *refreshTokenRepository) RevokeActiveByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	now := time.Now()
	res := dbFrom(ctx, r.db).
		Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Where("revoked_at IS NULL").
		Update("revoked_at", &now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RevokeAllByUserID revokes all outstanding tokens for a user
func (r *refreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID uint) error {
	now := time.Now()
	return dbFrom(ctx, r.db).
		Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Update("revoked_at", &now).Error
}

// DeleteExpired deletes all expired tokens (cleanup job)
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := dbFrom(ctx, r.db).
		Where("expires_at < ?", time.Now()).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
