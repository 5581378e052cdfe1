package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edforge/lms-api/internal/repository"
)

// TokenCleanupWorker periodically purges expired reset and verification
// tokens so the table stays small.
type TokenCleanupWorker struct {
	repo     repository.TokenRepository
	interval time.Duration
}

func NewTokenCleanupWorker(repo repository.TokenRepository, interval time.Duration) *TokenCleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TokenCleanupWorker{repo: repo, interval: interval}
}

func (w *TokenCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := w.repo.DeleteExpired(ctx, time.Now())
			if err != nil {
				log.Error().Err(err).Msg("token cleanup failed")
				continue
			}
			if deleted > 0 {
				log.Info().Int64("deleted", deleted).Msg("purged expired tokens")
			}
		}
	}
}
