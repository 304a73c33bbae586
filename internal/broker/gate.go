package broker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// The broker bans accounts that exceed 100 REST calls a minute. Spacing
// calls at one per 600ms keeps a safe margin under that limit even when
// the dashboard gets busy.
const minCallInterval = 600 * time.Millisecond

// maxPending bounds how many calls may queue behind the gate before new
// ones are rejected instead of piling up.
const maxPending = 50

// Gate serializes every outgoing broker REST call through a token bucket.
// All API implementations route their calls through Do, so no code path
// can bypass the spacing.
type Gate struct {
	lim *rate.Limiter

	mu      sync.Mutex
	calls   []time.Time
	pending int
}

// NewGate returns a gate spaced at one call per 600ms.
func NewGate() *Gate {
	return &Gate{
		lim: rate.NewLimiter(rate.Every(minCallInterval), 1),
	}
}

// Do waits for a call slot and runs fn. Returns the context error if the
// caller gives up first, or ErrQueueFull when too many calls are already
// waiting.
func (g *Gate) Do(ctx context.Context, fn func() (*Response, error)) (*Response, error) {
	g.mu.Lock()
	if g.pending >= maxPending {
		g.mu.Unlock()
		log.Warn().Int("pending", maxPending).Msg("broker call queue full, rejecting call")
		return nil, ErrQueueFull
	}
	g.pending++
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.pending--
		g.mu.Unlock()
	}()

	if err := g.lim.Wait(ctx); err != nil {
		return nil, err
	}
	g.record()
	return fn()
}

func (g *Gate) record() {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	g.calls = append(g.calls, now)
	// Keep only the trailing minute.
	cutoff := now.Add(-time.Minute)
	for len(g.calls) > 0 && g.calls[0].Before(cutoff) {
		g.calls = g.calls[1:]
	}
}

// CallsLastMinute reports how many broker calls went out in the trailing
// minute. Surfaced on /health and /api/ratelimit.
func (g *Gate) CallsLastMinute() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	cutoff := time.Now().Add(-time.Minute)
	n := 0
	for _, t := range g.calls {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

// QueueDepth reports how many calls are currently waiting at the gate.
func (g *Gate) QueueDepth() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}
