package broker

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ksred/breeze-gateway/internal/types"
)

// Paper is a simulated broker for credential-free end-to-end runs. It
// mimics the live broker's envelope, latency and failure modes so the
// whole gateway, tunnel included, can be exercised without touching a
// real account. Selected with GATEWAY_PAPER=true.
type Paper struct {
	store *SessionStore
	gate  *Gate

	MinLatency  time.Duration
	MaxLatency  time.Duration
	SuccessRate float64 // 0-1, probability a placed order is accepted
}

// NewPaper returns a paper broker with mildly hostile defaults: real
// network latency jitter and the occasional rejection.
func NewPaper(store *SessionStore, gate *Gate) *Paper {
	return &Paper{
		store:       store,
		gate:        gate,
		MinLatency:  5 * time.Millisecond,
		MaxLatency:  60 * time.Millisecond,
		SuccessRate: 0.95,
	}
}

// Authenticate accepts any non-empty credential triple.
func (p *Paper) Authenticate(ctx context.Context, creds types.Credentials) (*Session, error) {
	if creds.APIKey == "" || creds.APISecret == "" || creds.SessionToken == "" {
		return nil, fmt.Errorf("%s", AuthHint("paper broker: null credential"))
	}
	sess := &Session{
		APIKey:       creds.APIKey,
		SessionToken: "paper-" + creds.SessionToken,
		CustomerName: "Paper Trader",
		ConnectedAt:  time.Now(),
		apiSecret:    creds.APISecret,
	}
	p.store.Replace(sess)
	log.Info().Msg("paper broker session established")
	return sess, nil
}

// PlaceOrder simulates an order placement with latency and a success-rate
// threshold, like a real venue on a bad day.
func (p *Paper) PlaceOrder(ctx context.Context, leg types.OrderLeg) (*Response, error) {
	return p.do(ctx, func() *Response {
		if rand.Float64() > p.SuccessRate {
			return &Response{Status: 500, Error: "order rejected by exchange"}
		}
		id := fmt.Sprintf("PAPER-%d", rand.Int63())
		log.Info().
			Str("order_id", id).
			Str("stock_code", leg.StockCode).
			Str("action", leg.Action).
			Int("quantity", leg.Quantity).
			Float64("strike_price", leg.StrikePrice).
			Msg("paper order placed")
		return &Response{Status: 200, Success: map[string]interface{}{"order_id": id}}
	})
}

// CancelOrder always succeeds for known-looking ids.
func (p *Paper) CancelOrder(ctx context.Context, orderID, exchangeCode string) (*Response, error) {
	return p.do(ctx, func() *Response {
		if orderID == "" {
			return &Response{Status: 500, Error: "order not found"}
		}
		return &Response{Status: 200, Success: map[string]interface{}{"order_id": orderID}}
	})
}

// ModifyOrder mirrors CancelOrder.
func (p *Paper) ModifyOrder(ctx context.Context, req types.ModifyRequest) (*Response, error) {
	return p.do(ctx, func() *Response {
		if req.OrderID == "" {
			return &Response{Status: 500, Error: "order not found"}
		}
		return &Response{Status: 200, Success: map[string]interface{}{"order_id": req.OrderID}}
	})
}

// OptionChain synthesizes a chain of strikes around a made-up spot.
func (p *Paper) OptionChain(ctx context.Context, q ChainQuery) (*Response, error) {
	return p.do(ctx, func() *Response {
		spot := paperSpot(q.StockCode)
		step := 50.0
		rows := make([]interface{}, 0, 21)
		for i := -10; i <= 10; i++ {
			strike := spot + float64(i)*step
			intrinsic := spot - strike
			if strings.EqualFold(NormalizeRight(q.Right), "Put") {
				intrinsic = -intrinsic
			}
			ltp := intrinsic + 80 + rand.Float64()*20
			if ltp < 0.05 {
				ltp = 0.05 + rand.Float64()*5
			}
			rows = append(rows, map[string]interface{}{
				"stock_code":            q.StockCode,
				"expiry_date":           q.ExpiryDate,
				"right":                 NormalizeRight(q.Right),
				"strike_price":          strike,
				"ltp":                   ltp,
				"best_bid_price":        ltp - 0.3,
				"best_offer_price":      ltp + 0.3,
				"open_interest":         float64(rand.Intn(500000)),
				"total_quantity_traded": float64(rand.Intn(100000)),
			})
		}
		return &Response{Status: 200, Success: rows}
	})
}

// Quote returns a single synthetic quote; with no expiry it behaves like a
// cash-market index quote so the spot endpoint works in paper mode.
func (p *Paper) Quote(ctx context.Context, q ChainQuery) (*Response, error) {
	return p.do(ctx, func() *Response {
		return &Response{Status: 200, Success: []interface{}{
			map[string]interface{}{
				"stock_code": q.StockCode,
				"ltp":        paperSpot(q.StockCode) + rand.Float64()*10,
			},
		}}
	})
}

// Historical returns an empty candle set.
func (p *Paper) Historical(ctx context.Context, q HistoricalQuery) (*Response, error) {
	return p.do(ctx, func() *Response {
		return &Response{Status: 200, Success: []interface{}{}}
	})
}

// OrderList returns an empty order book.
func (p *Paper) OrderList(ctx context.Context, from, to time.Time) (*Response, error) {
	return p.emptyList(ctx)
}

// TradeList returns an empty trade book.
func (p *Paper) TradeList(ctx context.Context, from, to time.Time) (*Response, error) {
	return p.emptyList(ctx)
}

// Positions returns an empty positions list.
func (p *Paper) Positions(ctx context.Context) (*Response, error) {
	return p.emptyList(ctx)
}

// Holdings returns an empty holdings list.
func (p *Paper) Holdings(ctx context.Context) (*Response, error) {
	return p.emptyList(ctx)
}

// Funds reports a fixed paper balance.
func (p *Paper) Funds(ctx context.Context) (*Response, error) {
	return p.do(ctx, func() *Response {
		return &Response{Status: 200, Success: map[string]interface{}{
			"total_bank_balance":     1000000.0,
			"allocated_fno":          500000.0,
			"unallocated_balance":    500000.0,
			"block_by_trade_balance": 0.0,
		}}
	})
}

func (p *Paper) emptyList(ctx context.Context) (*Response, error) {
	return p.do(ctx, func() *Response {
		return &Response{Status: 200, Success: []interface{}{}}
	})
}

// do applies the session check, the rate gate and simulated latency, the
// same path every live call takes.
func (p *Paper) do(ctx context.Context, fn func() *Response) (*Response, error) {
	if !p.store.Authenticated() {
		return nil, ErrNotConnected
	}
	return p.gate.Do(ctx, func() (*Response, error) {
		latency := p.MinLatency
		if p.MaxLatency > p.MinLatency {
			latency += time.Duration(rand.Int63n(int64(p.MaxLatency - p.MinLatency)))
		}
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return fn(), nil
	})
}

func paperSpot(stockCode string) float64 {
	if strings.Contains(strings.ToUpper(stockCode), "SENSEX") {
		return 81000
	}
	return 24500
}
