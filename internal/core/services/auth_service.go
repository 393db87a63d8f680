package services

import (
	"context"
	"errors"
	"log"
	"time"

	"ems-backend/internal/adapters/persistence/models"
	"ems-backend/internal/adapters/persistence/repositories"
	"ems-backend/internal/config"
	"ems-backend/internal/core/domain"
	"ems-backend/internal/pkg/jwt"
	"ems-backend/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DenylistTTL is the retention window for revoked access-token identifiers,
// independent of the token's own remaining lifetime.
const DenylistTTL = 24 * time.Hour

// AuthService handles the token lifecycle: issue, rotate, revoke, validate
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	denylistRepo     repositories.DenylistRepository
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	denylistRepo repositories.DenylistRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		denylistRepo:     denylistRepo,
		cfg:              cfg,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Login authenticates a user and issues a fresh token pair
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Email)

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// RefreshToken rotates the presented refresh token for a new pair.
// The presented token is consumed first via a compare-and-set revocation, so
// concurrent replays of the same token yield exactly one success.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	tokenHash := password.HashToken(refreshToken)
	rotated, err := s.refreshTokenRepo.RevokeActiveByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if !rotated {
		// Unknown or already rotated/revoked token.
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for user: %s", user.Email)

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Logout revokes the outstanding refresh token and denylists the access
// token's identifier for the retention window, cutting the access token off
// before its natural expiry.
func (s *AuthService) Logout(ctx context.Context, accessJTI, refreshToken string) error {
	if refreshToken != "" {
		tokenHash := password.HashToken(refreshToken)
		if _, err := s.refreshTokenRepo.RevokeActiveByTokenHash(ctx, tokenHash); err != nil {
			return err
		}
	}

	if accessJTI != "" {
		if err := s.denylistRepo.Add(ctx, accessJTI, DenylistTTL); err != nil {
			return err
		}
	}

	log.Printf("✅ User logged out")
	return nil
}

// LogoutAll revokes all outstanding refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	log.Printf("✅ All sessions revoked for user ID: %d", userID)
	return nil
}

// CheckAccessToken validates signature and expiry, then consults the denylist
// by the token's identifier. A denylisted token is rejected even while it is
// still cryptographically valid.
func (s *AuthService) CheckAccessToken(ctx context.Context, accessToken string) (*jwt.Claims, error) {
	claims, err := jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	denylisted, err := s.denylistRepo.Contains(ctx, claims.JTI())
	if err != nil {
		return nil, err
	}
	if denylisted {
		log.Printf("⚠️ Denylisted access token presented (jti: %s)", claims.JTI())
		return nil, domain.ErrTokenRevoked
	}

	return claims, nil
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// issueTokenPair generates a signed pair and records the outstanding refresh token
func (s *AuthService) issueTokenPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessJTI := uuid.New().String()
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		user.Email,
		user.Role,
		accessJTI,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	refreshJTI := uuid.New().String()
	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		refreshJTI,
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	token := &models.RefreshToken{
		UserID:    user.ID,
		JTI:       refreshJTI,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	if err := s.refreshTokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
