package services

import (
	"context"
	"log"
	"time"

	"ems-backend/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// CleanupService purges expired refresh tokens on a nightly schedule. Expired
// tokens are already unusable; this only keeps the table from growing without
// bound.
type CleanupService struct {
	refreshTokenRepo repositories.RefreshTokenRepository
	cron             *cron.Cron
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(refreshTokenRepo repositories.RefreshTokenRepository) *CleanupService {
	return &CleanupService{
		refreshTokenRepo: refreshTokenRepo,
		cron:             cron.New(),
	}
}

// Start registers the schedule and starts the scheduler
func (s *CleanupService) Start() error {
	if _, err := s.cron.AddFunc("30 3 * * *", s.purgeExpiredTokens); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("✅ Token cleanup scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CleanupService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Printf("🛑 Token cleanup scheduler stopped")
}

// PurgeExpiredTokens deletes refresh tokens past their expiry
func (s *CleanupService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx)
}

func (s *CleanupService) purgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	deleted, err := s.PurgeExpiredTokens(ctx)
	if err != nil {
		log.Printf("❌ Token cleanup failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("✅ Token cleanup removed %d expired tokens", deleted)
	}
}
