package tunnel

import (
	"context"
	"time"
)

// pollUntil invokes fn every interval until it reports success or the
// timeout (or the context) expires. It is the single waiting loop shared
// by the readiness and log-scrape paths, instead of ad hoc sleep loops in
// every provider.
func pollUntil(ctx context.Context, interval, timeout time.Duration, fn func() (string, bool)) (string, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", false
		case <-deadline.C:
			return "", false
		case <-tick.C:
			if v, ok := fn(); ok {
				return v, true
			}
		}
	}
}
