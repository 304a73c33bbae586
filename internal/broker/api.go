package broker

import (
	"context"
	"errors"
	"time"

	"github.com/ksred/breeze-gateway/internal/types"
)

// ErrNotConnected is returned by any broker operation attempted before a
// successful /connect.
var ErrNotConnected = errors.New("not connected")

// ErrQueueFull is returned when too many calls are already waiting at the
// rate gate.
var ErrQueueFull = errors.New("broker call queue full")

// Response is the broker's wire envelope: a numeric status, a Success
// payload (object or array depending on the call) and an Error string.
// The gateway treats the payload as opaque and only digs out the handful
// of fields it reports back to the dashboard.
type Response struct {
	Status  int         `json:"Status"`
	Success interface{} `json:"Success"`
	Error   string      `json:"Error"`
}

// OK reports whether the broker accepted the call.
func (r *Response) OK() bool {
	return r != nil && r.Status == 200
}

// OrderID extracts the order id from a successful order placement.
func (r *Response) OrderID() string {
	obj, ok := r.Success.(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := obj["order_id"].(string)
	return id
}

// Rows returns the Success payload as a row list. Single-object payloads
// come back as a one-element list.
func (r *Response) Rows() []map[string]interface{} {
	switch v := r.Success.(type) {
	case []interface{}:
		rows := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				rows = append(rows, m)
			}
		}
		return rows
	case map[string]interface{}:
		return []map[string]interface{}{v}
	default:
		return nil
	}
}

// Object returns the Success payload as a single object, or an empty map.
func (r *Response) Object() map[string]interface{} {
	if m, ok := r.Success.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

// ChainQuery identifies an option chain or quote lookup.
type ChainQuery struct {
	StockCode    string
	ExchangeCode string
	ExpiryDate   string
	Right        string
	StrikePrice  string
	ProductType  string
}

// HistoricalQuery identifies an OHLCV candle request.
type HistoricalQuery struct {
	StockCode    string
	ExchangeCode string
	Interval     string
	FromDate     string
	ToDate       string
	ExpiryDate   string
	Right        string
	StrikePrice  string
}

// API is the opaque broker surface the gateway wraps. The gateway never
// reimplements the broker protocol; it marshals requests in, envelopes out.
// Two implementations exist: the live REST client and the paper broker.
type API interface {
	// Authenticate performs the one-shot credential exchange and, on
	// success, replaces the current session wholesale.
	Authenticate(ctx context.Context, creds types.Credentials) (*Session, error)

	PlaceOrder(ctx context.Context, leg types.OrderLeg) (*Response, error)
	CancelOrder(ctx context.Context, orderID, exchangeCode string) (*Response, error)
	ModifyOrder(ctx context.Context, req types.ModifyRequest) (*Response, error)

	OptionChain(ctx context.Context, q ChainQuery) (*Response, error)
	Quote(ctx context.Context, q ChainQuery) (*Response, error)
	Historical(ctx context.Context, q HistoricalQuery) (*Response, error)

	OrderList(ctx context.Context, from, to time.Time) (*Response, error)
	TradeList(ctx context.Context, from, to time.Time) (*Response, error)
	Positions(ctx context.Context) (*Response, error)
	Holdings(ctx context.Context) (*Response, error)
	Funds(ctx context.Context) (*Response, error)
}
