package trading

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksred/breeze-gateway/internal/broker"
	"github.com/ksred/breeze-gateway/internal/types"
)

// fakePlacer scripts per-leg outcomes keyed on leg index and records every
// leg it was handed.
type fakePlacer struct {
	mu     sync.Mutex
	placed []types.OrderLeg

	// fn decides the outcome for one leg. Defaults to success.
	fn func(leg types.OrderLeg) (*broker.Response, error)
}

func (f *fakePlacer) PlaceOrder(ctx context.Context, leg types.OrderLeg) (*broker.Response, error) {
	f.mu.Lock()
	f.placed = append(f.placed, leg)
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(leg)
	}
	return &broker.Response{Status: 200, Success: map[string]interface{}{
		"order_id": fmt.Sprintf("OID-%d", leg.LegIndex),
	}}, nil
}

func (f *fakePlacer) legs() []types.OrderLeg {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.OrderLeg, len(f.placed))
	copy(out, f.placed)
	return out
}

func connectedStore() *broker.SessionStore {
	store := broker.NewSessionStore()
	store.Replace(&broker.Session{APIKey: "k", SessionToken: "t", ConnectedAt: time.Now()})
	return store
}

func testLegs(n int) []types.OrderLeg {
	legs := make([]types.OrderLeg, n)
	for i := range legs {
		legs[i] = types.OrderLeg{
			StockCode:    "NIFTY",
			ExchangeCode: "NFO",
			Action:       types.ActionSell,
			Quantity:     75,
			StrikePrice:  24500 + float64(i)*50,
		}
	}
	return legs
}

func TestEngineSubmit(t *testing.T) {
	t.Run("returns one result per leg sorted by index", func(t *testing.T) {
		placer := &fakePlacer{fn: func(leg types.OrderLeg) (*broker.Response, error) {
			// Stagger completions in reverse so arrival order differs
			// from leg order.
			time.Sleep(time.Duration(5-leg.LegIndex) * 10 * time.Millisecond)
			return &broker.Response{Status: 200, Success: map[string]interface{}{
				"order_id": fmt.Sprintf("OID-%d", leg.LegIndex),
			}}, nil
		}}
		engine := NewEngine(placer, connectedStore(), NewJournal(nil))

		results, err := engine.Submit(context.Background(), testLegs(5))
		require.NoError(t, err)
		require.Len(t, results, 5)

		for i, r := range results {
			assert.Equal(t, i, r.LegIndex)
			assert.True(t, r.Success)
			assert.Equal(t, fmt.Sprintf("OID-%d", i), r.OrderID)
		}
	})

	t.Run("failed leg does not affect siblings", func(t *testing.T) {
		placer := &fakePlacer{fn: func(leg types.OrderLeg) (*broker.Response, error) {
			if leg.LegIndex == 1 {
				return &broker.Response{Status: 500, Error: "margin shortfall"}, nil
			}
			return &broker.Response{Status: 200, Success: map[string]interface{}{
				"order_id": fmt.Sprintf("OID-%d", leg.LegIndex),
			}}, nil
		}}
		engine := NewEngine(placer, connectedStore(), NewJournal(nil))

		results, err := engine.Submit(context.Background(), testLegs(3))
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.True(t, results[0].Success)
		assert.False(t, results[1].Success)
		assert.Equal(t, "margin shortfall", results[1].Error)
		assert.True(t, results[2].Success)
	})

	t.Run("slow leg times out while siblings succeed", func(t *testing.T) {
		placer := &fakePlacer{fn: func(leg types.OrderLeg) (*broker.Response, error) {
			if leg.LegIndex == 1 {
				time.Sleep(500 * time.Millisecond)
			}
			return &broker.Response{Status: 200, Success: map[string]interface{}{
				"order_id": fmt.Sprintf("OID-%d", leg.LegIndex),
			}}, nil
		}}
		engine := NewEngine(placer, connectedStore(), NewJournal(nil))
		engine.legTimeout = 100 * time.Millisecond

		results, err := engine.Submit(context.Background(), testLegs(3))
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.True(t, results[0].Success)
		assert.False(t, results[1].Success)
		assert.Equal(t, "timeout", results[1].Error)
		assert.True(t, results[2].Success)
	})

	t.Run("caller cancellation is not reported as a timeout", func(t *testing.T) {
		placer := &fakePlacer{fn: func(leg types.OrderLeg) (*broker.Response, error) {
			time.Sleep(time.Second)
			return &broker.Response{Status: 200}, nil
		}}
		engine := NewEngine(placer, connectedStore(), NewJournal(nil))

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		results, err := engine.Submit(ctx, testLegs(2))
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.False(t, r.Success)
			assert.Equal(t, "cancelled", r.Error)
		}
	})

	t.Run("transport error becomes leg failure", func(t *testing.T) {
		placer := &fakePlacer{fn: func(leg types.OrderLeg) (*broker.Response, error) {
			return nil, errors.New("connection refused")
		}}
		engine := NewEngine(placer, connectedStore(), NewJournal(nil))

		results, err := engine.Submit(context.Background(), testLegs(1))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.False(t, results[0].Success)
		assert.Equal(t, "connection refused", results[0].Error)
	})

	t.Run("single leg goes through the batch path", func(t *testing.T) {
		placer := &fakePlacer{}
		engine := NewEngine(placer, connectedStore(), NewJournal(nil))

		results, err := engine.Submit(context.Background(), testLegs(1))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Success)
		assert.Equal(t, 0, results[0].LegIndex)
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		engine := NewEngine(&fakePlacer{}, connectedStore(), NewJournal(nil))
		_, err := engine.Submit(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNoLegs)
	})

	t.Run("rejects when not connected", func(t *testing.T) {
		engine := NewEngine(&fakePlacer{}, broker.NewSessionStore(), NewJournal(nil))
		_, err := engine.Submit(context.Background(), testLegs(2))
		assert.ErrorIs(t, err, broker.ErrNotConnected)
	})

	t.Run("does not mutate caller legs", func(t *testing.T) {
		placer := &fakePlacer{}
		engine := NewEngine(placer, connectedStore(), NewJournal(nil))

		legs := testLegs(3)
		_, err := engine.Submit(context.Background(), legs)
		require.NoError(t, err)
		for _, leg := range legs {
			assert.Equal(t, 0, leg.LegIndex)
		}
	})
}
