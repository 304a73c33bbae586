package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ksred/breeze-gateway/internal/broker"
)

// spotFields are the field names, in preference order, under which the
// broker has been observed to report a last traded price. The set varies
// by endpoint and SDK generation.
var spotFields = []string{"ltp", "last_traded_price", "close", "last_price", "LastPrice"}

// spotSanityFloor rejects obviously bogus index values. NIFTY trades well
// above 1000, SENSEX above 10000.
const spotSanityFloor = 1000.0

// Service wraps the broker's market data calls: chain snapshots, quotes,
// index spot and historical candles.
type Service struct {
	api   broker.API
	store *broker.SessionStore
}

// NewService creates a market data service over the broker API.
func NewService(api broker.API, store *broker.SessionStore) *Service {
	return &Service{api: api, store: store}
}

// OptionChain fetches a chain snapshot. The dashboard calls this once per
// expiry change, never in a polling loop: the broker's call budget cannot
// sustain chain polling.
func (s *Service) OptionChain(ctx context.Context, q broker.ChainQuery) ([]map[string]interface{}, error) {
	if !s.store.Authenticated() {
		return nil, broker.ErrNotConnected
	}

	log.Info().
		Str("stock_code", q.StockCode).
		Str("expiry_date", q.ExpiryDate).
		Str("right", q.Right).
		Msg("fetching option chain")

	resp, err := s.api.OptionChain(ctx, q)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, brokerErr(resp, "option chain fetch failed")
	}
	return resp.Rows(), nil
}

// Quote fetches a single instrument quote.
func (s *Service) Quote(ctx context.Context, q broker.ChainQuery) ([]map[string]interface{}, error) {
	if !s.store.Authenticated() {
		return nil, broker.ErrNotConnected
	}

	resp, err := s.api.Quote(ctx, q)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, brokerErr(resp, "quote fetch failed")
	}
	return resp.Rows(), nil
}

// Spot fetches the live index spot via a cash-market quote and scans the
// known price field spellings for a sane value.
func (s *Service) Spot(ctx context.Context, stockCode, exchangeCode string) (float64, error) {
	if !s.store.Authenticated() {
		return 0, broker.ErrNotConnected
	}

	resp, err := s.api.Quote(ctx, broker.ChainQuery{
		StockCode:    stockCode,
		ExchangeCode: exchangeCode,
	})
	if err != nil {
		return 0, err
	}
	if !resp.OK() {
		return 0, brokerErr(resp, "spot quote failed")
	}

	for _, row := range resp.Rows() {
		if ltp := scanPrice(row); ltp > spotSanityFloor {
			return ltp, nil
		}
	}
	return 0, fmt.Errorf("no spot price returned for %s/%s", stockCode, exchangeCode)
}

// Historical fetches OHLCV candles.
func (s *Service) Historical(ctx context.Context, q broker.HistoricalQuery) ([]map[string]interface{}, error) {
	if !s.store.Authenticated() {
		return nil, broker.ErrNotConnected
	}

	resp, err := s.api.Historical(ctx, q)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, brokerErr(resp, "historical fetch failed")
	}
	return resp.Rows(), nil
}

// scanPrice digs a price out of a quote row, trying each known field name
// until one parses to a positive number.
func scanPrice(row map[string]interface{}) float64 {
	for _, field := range spotFields {
		v, ok := row[field]
		if !ok {
			continue
		}
		if f, ok := v.(float64); ok && f > 0 {
			return f
		}
	}
	return 0
}

func brokerErr(resp *broker.Response, fallback string) error {
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	return errors.New(fallback)
}
