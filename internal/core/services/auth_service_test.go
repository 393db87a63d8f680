package services

import (
	"context"
	"testing"
	"time"

	"ems-backend/internal/adapters/persistence/models"
	"ems-backend/internal/adapters/persistence/repositories"
	"ems-backend/internal/config"
	"ems-backend/internal/core/domain"
	"ems-backend/internal/pkg/jwt"
	"ems-backend/internal/pkg/password"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type authFixture struct {
	svc *AuthService
	db  *gorm.DB
	mr  *miniredis.Miniredis
	cfg *config.Config
}

func setupAuthService(t *testing.T) *authFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}

	svc := NewAuthService(
		repositories.NewUserRepository(db),
		repositories.NewRefreshTokenRepository(db),
		repositories.NewDenylistRepository(rdb),
		cfg,
	)

	return &authFixture{svc: svc, db: db, mr: mr, cfg: cfg}
}

func (f *authFixture) createUser(t *testing.T, email, plain string, active bool) *models.User {
	t.Helper()

	hashed, err := password.Hash(plain)
	require.NoError(t, err)

	user := &models.User{
		Email:    email,
		Password: hashed,
		Role:     models.RoleUser,
		IsActive: active,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func TestLogin(t *testing.T) {
	f := setupAuthService(t)
	f.createUser(t, "asha@ems.local", "secret-pass", true)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, &LoginInput{Email: "asha@ems.local", Password: "secret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "asha@ems.local", result.User.Email)

	claims, err := f.svc.CheckAccessToken(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.NotEmpty(t, claims.JTI())
}

func TestLogin_WrongPassword(t *testing.T) {
	f := setupAuthService(t)
	f.createUser(t, "asha@ems.local", "secret-pass", true)

	_, err := f.svc.Login(context.Background(), &LoginInput{Email: "asha@ems.local", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := setupAuthService(t)

	_, err := f.svc.Login(context.Background(), &LoginInput{Email: "ghost@ems.local", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	f := setupAuthService(t)
	f.createUser(t, "asha@ems.local", "secret-pass", false)

	_, err := f.svc.Login(context.Background(), &LoginInput{Email: "asha@ems.local", Password: "secret-pass"})
	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestRefreshToken_RotatesExactlyOnce(t *testing.T) {
	f := setupAuthService(t)
	f.createUser(t, "asha@ems.local", "secret-pass", true)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, &LoginInput{Email: "asha@ems.local", Password: "secret-pass"})
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// Replaying the consumed token must fail.
	_, err = f.svc.RefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	// The rotated-in token still works.
	_, err = f.svc.RefreshToken(ctx, refreshed.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshToken_Garbage(t *testing.T) {
	f := setupAuthService(t)

	_, err := f.svc.RefreshToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestLogout_DenylistsAccessToken(t *testing.T) {
	f := setupAuthService(t)
	f.createUser(t, "asha@ems.local", "secret-pass", true)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, &LoginInput{Email: "asha@ems.local", Password: "secret-pass"})
	require.NoError(t, err)

	claims, err := jwt.ValidateAccessToken(login.AccessToken, f.cfg.JWT.Secret)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims.JTI(), login.RefreshToken))

	// The access token is cryptographically valid but denylisted.
	_, err = f.svc.CheckAccessToken(ctx, login.AccessToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	// The refresh token was revoked as well.
	_, err = f.svc.RefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestLogout_DenylistEntryExpires(t *testing.T) {
	f := setupAuthService(t)
	f.createUser(t, "asha@ems.local", "secret-pass", true)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, &LoginInput{Email: "asha@ems.local", Password: "secret-pass"})
	require.NoError(t, err)

	claims, err := jwt.ValidateAccessToken(login.AccessToken, f.cfg.JWT.Secret)
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, claims.JTI(), ""))

	// After the retention window only the token's own expiry matters.
	f.mr.FastForward(DenylistTTL + time.Hour)

	_, err = f.svc.CheckAccessToken(ctx, login.AccessToken)
	assert.NoError(t, err)
}

func TestLogoutAll(t *testing.T) {
	f := setupAuthService(t)
	user := f.createUser(t, "asha@ems.local", "secret-pass", true)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, &LoginInput{Email: "asha@ems.local", Password: "secret-pass"})
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, &LoginInput{Email: "asha@ems.local", Password: "secret-pass"})
	require.NoError(t, err)

	require.NoError(t, f.svc.LogoutAll(ctx, user.ID))

	_, err = f.svc.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	_, err = f.svc.RefreshToken(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestCheckAccessToken_Garbage(t *testing.T) {
	f := setupAuthService(t)

	_, err := f.svc.CheckAccessToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestRefreshToken_InactiveUserConsumesToken(t *testing.T) {
	f := setupAuthService(t)
	user := f.createUser(t, "asha@ems.local", "secret-pass", true)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, &LoginInput{Email: "asha@ems.local", Password: "secret-pass"})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(user).Update("is_active", false).Error)

	_, err = f.svc.RefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUserInactive)

	// Rotation happens before the user check, so the token is spent.
	require.NoError(t, f.db.Model(user).Update("is_active", true).Error)
	_, err = f.svc.RefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
