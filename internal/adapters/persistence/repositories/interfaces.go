package repositories

import (
	"context"
	"time"

	"ems-backend/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines the outstanding-token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	// RevokeActiveByTokenHash marks the token revoked only if it is still
	// active, returning whether this call won the race.
	RevokeActiveByTokenHash(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// DenylistRepository defines the revoked access-token store interface.
// Entries are keyed by a one-way hash of the token identifier and expire
// automatically after the retention window.
type DenylistRepository interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}
