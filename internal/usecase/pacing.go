package usecase

import (
	"context"
	"time"
)

// Pacing holds the pauses the pipeline takes between source requests.
// A zero value disables every pause.
type Pacing struct {
	Search          time.Duration
	Detail          time.Duration
	HTML            time.Duration
	ThrottleBackoff time.Duration
	ErrorBackoff    time.Duration
	HTMLRetry       time.Duration
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
