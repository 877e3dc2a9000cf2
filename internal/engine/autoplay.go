package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Autoplay advances the session a fixed number of weeks, one per
// interval, playing the user's match automatically. It stops early when
// ctx is cancelled. Returns the number of weeks played.
func Autoplay(ctx context.Context, s *Session, weeks int, interval time.Duration) (int, error) {
	slog.Info("autoplay started", "weeks", weeks, "interval", interval)
	played := 0
	for played < weeks {
		start := time.Now()
		if _, err := s.Advance(ctx, nil); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			return played, err
		}
		played++

		// Sleep for the remainder of the interval.
		if elapsed := time.Since(start); elapsed < interval && played < weeks {
			select {
			case <-ctx.Done():
				return played, nil
			case <-time.After(interval - elapsed):
			}
		}
	}
	slog.Info("autoplay stopped", "weeks", played)
	return played, nil
}
