package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// UsageResetter zeroes the monthly counters of organizations past their reset date.
type UsageResetter interface {
	ResetExpired(ctx context.Context) (int64, error)
}

// ResetMonthlyUsage runs one reset sweep. Lazy resets on read cover
// organizations that are active; the sweep keeps idle ones consistent.
func ResetMonthlyUsage(ctx context.Context, resetter UsageResetter) error {
	n, err := resetter.ResetExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int64("organizations", n).Msg("monthly usage reset")
	}
	return nil
}

// Every runs job immediately and then on each tick until ctx is done.
// Errors are logged and do not stop the loop.
func Every(ctx context.Context, name string, interval time.Duration, job func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := job(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Str("worker", name).Msg("worker run failed")
		}

		select {
		case <-ctx.Done():
			log.Info().Str("worker", name).Msg("worker stopped")
			return
		case <-ticker.C:
		}
	}
}
