package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksred/breeze-gateway/internal/types"
)

func paperForTest() (*Paper, *SessionStore) {
	store := NewSessionStore()
	p := NewPaper(store, NewGate())
	p.MinLatency = 0
	p.MaxLatency = time.Millisecond
	p.SuccessRate = 1.0
	return p, store
}

func TestPaperBroker(t *testing.T) {
	creds := types.Credentials{APIKey: "k", APISecret: "s", SessionToken: "t"}

	t.Run("authenticate installs a session", func(t *testing.T) {
		p, store := paperForTest()
		sess, err := p.Authenticate(context.Background(), creds)
		require.NoError(t, err)
		assert.Equal(t, "paper-t", sess.SessionToken)
		assert.True(t, store.Authenticated())
	})

	t.Run("authenticate rejects missing credentials with a hint", func(t *testing.T) {
		p, _ := paperForTest()
		_, err := p.Authenticate(context.Background(), types.Credentials{APIKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hint")
	})

	t.Run("calls before connect fail", func(t *testing.T) {
		p, _ := paperForTest()
		_, err := p.PlaceOrder(context.Background(), types.OrderLeg{StockCode: "NIFTY"})
		assert.ErrorIs(t, err, ErrNotConnected)
	})

	t.Run("place order returns the broker envelope", func(t *testing.T) {
		p, _ := paperForTest()
		_, err := p.Authenticate(context.Background(), creds)
		require.NoError(t, err)

		resp, err := p.PlaceOrder(context.Background(), types.OrderLeg{
			StockCode: "NIFTY",
			Action:    types.ActionSell,
			Quantity:  75,
		})
		require.NoError(t, err)
		assert.True(t, resp.OK())
		assert.NotEmpty(t, resp.OrderID())
	})

	t.Run("zero success rate rejects every order", func(t *testing.T) {
		p, _ := paperForTest()
		p.SuccessRate = 0
		_, err := p.Authenticate(context.Background(), creds)
		require.NoError(t, err)

		resp, err := p.PlaceOrder(context.Background(), types.OrderLeg{StockCode: "NIFTY"})
		require.NoError(t, err)
		assert.False(t, resp.OK())
		assert.Equal(t, "order rejected by exchange", resp.Error)
	})

	t.Run("option chain spans strikes around the spot", func(t *testing.T) {
		p, _ := paperForTest()
		_, err := p.Authenticate(context.Background(), creds)
		require.NoError(t, err)

		resp, err := p.OptionChain(context.Background(), ChainQuery{
			StockCode:  "NIFTY",
			ExpiryDate: "26-Aug-2025",
			Right:      "call",
		})
		require.NoError(t, err)
		rows := resp.Rows()
		require.Len(t, rows, 21)
		assert.Equal(t, 24000.0, rows[0]["strike_price"])
		assert.Equal(t, 25000.0, rows[20]["strike_price"])
	})
}
