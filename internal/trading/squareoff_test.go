package trading

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksred/breeze-gateway/internal/broker"
	"github.com/ksred/breeze-gateway/internal/types"
)

func TestOppositeAction(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"buy", "sell"},
		{"sell", "buy"},
		{"BUY", "sell"},
		{"Sell", "buy"},
		{"", "sell"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q", tc.in), func(t *testing.T) {
			assert.Equal(t, tc.want, OppositeAction(tc.in))
		})
	}
}

func TestSquareOff(t *testing.T) {
	t.Run("flips action and nothing else", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		actions := []string{types.ActionBuy, types.ActionSell}
		rights := []string{types.RightCall, types.RightPut}

		for i := 0; i < 100; i++ {
			entry := types.OrderLeg{
				StockCode:    fmt.Sprintf("STOCK%d", rng.Intn(50)),
				ExchangeCode: "NFO",
				Product:      "options",
				Action:       actions[rng.Intn(2)],
				OrderType:    "market",
				Quantity:     (rng.Intn(20) + 1) * 15,
				Price:        float64(rng.Intn(50000)) / 100,
				Stoploss:     float64(rng.Intn(10000)) / 100,
				ExpiryDate:   "26-Aug-2025",
				Right:        rights[rng.Intn(2)],
				StrikePrice:  24000 + float64(rng.Intn(30))*50,
				UserRemark:   fmt.Sprintf("remark-%d", i),
			}

			placer := &fakePlacer{}
			engine := NewEngine(placer, connectedStore(), NewJournal(nil))

			result, exitAction, err := engine.SquareOff(context.Background(), entry)
			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, OppositeAction(entry.Action), exitAction)

			placed := placer.legs()
			require.Len(t, placed, 1)

			// The placed exit must match the entry on every field except
			// the flipped action and the engine-assigned leg index.
			want := entry
			want.Action = OppositeAction(entry.Action)
			want.LegIndex = placed[0].LegIndex
			assert.Equal(t, want, placed[0])
		}
	})

	t.Run("propagates submit failure", func(t *testing.T) {
		engine := NewEngine(&fakePlacer{}, broker.NewSessionStore(), NewJournal(nil))
		_, exitAction, err := engine.SquareOff(context.Background(), types.OrderLeg{Action: types.ActionSell})
		assert.ErrorIs(t, err, broker.ErrNotConnected)
		assert.Equal(t, types.ActionBuy, exitAction)
	})
}
