package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunExpirySweeper runs a background goroutine that purges expired mode
// records and idle sessions every minute until ctx is done. Call from main or
// app lifecycle. Expiry is otherwise lazy (checked at read time), so the
// sweep only reclaims storage.
func RunExpirySweeper(ctx context.Context, store *Storage, retention time.Duration) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			modes, sessions, err := store.PurgeExpired(ctx, retention)
			if err != nil {
				log.Warn().Err(err).Msg("expiry sweep failed")
				continue
			}
			if modes > 0 || sessions > 0 {
				log.Debug().Int64("modes", modes).Int64("sessions", sessions).Msg("expiry sweep")
			}
		}
	}
}
