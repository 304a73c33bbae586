package trading

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ksred/breeze-gateway/internal/broker"
	"github.com/ksred/breeze-gateway/internal/types"
)

// ErrNoLegs is returned for an empty batch.
var ErrNoLegs = errors.New("no legs provided")

// DefaultLegTimeout bounds how long the engine waits for a single leg
// before recording it as a timeout failure.
const DefaultLegTimeout = 60 * time.Second

// OrderPlacer is the slice of the broker API the engine depends on.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, leg types.OrderLeg) (*broker.Response, error)
}

// Engine submits order batches to the broker, one concurrent worker per
// leg. Legs are independent: a failed or timed-out leg never cancels its
// siblings, and partial fills across legs are surfaced per-leg. A
// single-leg order is just a one-element batch through the same path.
type Engine struct {
	api        OrderPlacer
	store      *broker.SessionStore
	journal    *Journal
	legTimeout time.Duration
}

// NewEngine builds an engine. journal may be nil to disable journalling.
func NewEngine(api OrderPlacer, store *broker.SessionStore, journal *Journal) *Engine {
	return &Engine{
		api:        api,
		store:      store,
		journal:    journal,
		legTimeout: DefaultLegTimeout,
	}
}

// Submit places every leg concurrently and returns exactly one result per
// leg, sorted by leg index regardless of completion order, so callers can
// zip results back against their leg list positionally.
func (e *Engine) Submit(ctx context.Context, legs []types.OrderLeg) ([]types.LegResult, error) {
	if !e.store.Authenticated() {
		return nil, broker.ErrNotConnected
	}
	if len(legs) == 0 {
		return nil, ErrNoLegs
	}

	batchID := uuid.New().String()
	logger := log.With().Str("batch_id", batchID).Int("legs", len(legs)).Logger()
	logger.Info().Msg("submitting order batch")

	// Leg index comes from batch position; the input legs are not mutated.
	batch := make([]types.OrderLeg, len(legs))
	for i, leg := range legs {
		leg.LegIndex = i
		batch[i] = leg
	}

	results := make(chan types.LegResult, len(batch))
	for _, leg := range batch {
		go func(leg types.OrderLeg) {
			results <- e.placeLeg(ctx, leg)
		}(leg)
	}

	out := make([]types.LegResult, 0, len(batch))
	for range batch {
		out = append(out, <-results)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LegIndex < out[j].LegIndex })

	succeeded := 0
	for _, r := range out {
		if r.Success {
			succeeded++
		}
	}
	logger.Info().Int("succeeded", succeeded).Int("failed", len(out)-succeeded).Msg("order batch complete")

	e.journal.RecordBatch(batchID, batch, out)
	return out, nil
}

// placeLeg runs one broker call under the per-leg timeout. A worker that
// exceeds the bound is not killed; the underlying HTTP call may still land
// at the broker, which is surfaced to the operator via the timeout error
// rather than silently hidden.
func (e *Engine) placeLeg(ctx context.Context, leg types.OrderLeg) types.LegResult {
	type outcome struct {
		resp *broker.Response
		err  error
	}

	cctx, cancel := context.WithTimeout(ctx, e.legTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		resp, err := e.api.PlaceOrder(cctx, leg)
		done <- outcome{resp: resp, err: err}
	}()

	select {
	case <-cctx.Done():
		// The caller walking away is not a broker timeout; the journal and
		// dashboard report the two differently.
		if ctx.Err() != nil {
			log.Info().
				Int("leg_index", leg.LegIndex).
				Str("stock_code", leg.StockCode).
				Msg("leg abandoned, request cancelled")
			return types.LegResult{LegIndex: leg.LegIndex, Error: "cancelled"}
		}
		log.Warn().
			Int("leg_index", leg.LegIndex).
			Str("stock_code", leg.StockCode).
			Msg("leg timed out, order may still reach the broker")
		return types.LegResult{LegIndex: leg.LegIndex, Error: "timeout"}
	case o := <-done:
		if o.err != nil {
			return types.LegResult{LegIndex: leg.LegIndex, Error: o.err.Error()}
		}
		if !o.resp.OK() {
			msg := o.resp.Error
			if msg == "" {
				msg = "order rejected"
			}
			return types.LegResult{LegIndex: leg.LegIndex, Error: msg}
		}
		return types.LegResult{LegIndex: leg.LegIndex, Success: true, OrderID: o.resp.OrderID()}
	}
}
