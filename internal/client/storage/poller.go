package storage

import (
	"context"
	"fmt"
	"time"
)

// StartPolling refreshes keys from the backend every interval until ctx is
// done. It is the change feed for backends without file notifications, such
// as the SQL repository. The returned channel is closed once the loop exits.
// A non-positive interval is rejected before anything starts.
func StartPolling(ctx context.Context, s *Store, interval time.Duration, keys ...string) (<-chan struct{}, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, key := range keys {
					s.Refresh(ctx, key)
				}
			}
		}
	}()
	return done, nil
}
