package tunnel

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Coordinator walks the provider chain in strict priority order, one
// attempt at a time, and stops at the first public URL. Providers are
// never raced in parallel: sequential attempts bound resource usage and
// keep "which tunnel is live" unambiguous.
type Coordinator struct {
	providers []Provider
}

// NewCoordinator builds a coordinator over the given providers, tried in
// argument order.
func NewCoordinator(providers ...Provider) *Coordinator {
	return &Coordinator{providers: providers}
}

// DefaultChain is the production provider order: two SSH backends with no
// browser interstitial first, then the cloudflared quick tunnel. A
// non-zero budgetOverride replaces every provider's default time budget.
func DefaultChain(logDir, cloudflaredPath string, budgetOverride time.Duration) *Coordinator {
	providers := []Provider{
		NewLocalhostRun(logDir),
		NewServeo(logDir),
		NewCloudflared(cloudflaredPath, logDir),
	}
	if budgetOverride > 0 {
		for _, p := range providers {
			if lp, ok := p.(*logProvider); ok {
				lp.budget = budgetOverride
			}
		}
	}
	return NewCoordinator(providers...)
}

// AcquirePublicURL returns the first public URL any provider produces, or
// ("", false) once the chain is exhausted. Exhaustion is not an error: the
// caller keeps serving on the local port and reports the degraded state.
func (c *Coordinator) AcquirePublicURL(ctx context.Context, localPort int) (string, bool) {
	for _, p := range c.providers {
		log.Info().Str("provider", p.Name()).Msg("trying tunnel provider")
		if url, ok := p.Acquire(ctx, localPort); ok {
			return url, true
		}
		log.Info().Str("provider", p.Name()).Msg("provider unavailable, trying next")
	}
	log.Warn().Msg("all tunnel providers failed, no public URL")
	return "", false
}
