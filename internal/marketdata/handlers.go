package marketdata

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ksred/breeze-gateway/internal/broker"
	"github.com/ksred/breeze-gateway/pkg/response"
)

// GinHandlers contains the HTTP handlers for market data endpoints.
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates the market data endpoint handlers.
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// OptionChainHandler handles GET /optionchain.
func (h *GinHandlers) OptionChainHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		q := broker.ChainQuery{
			StockCode:    c.DefaultQuery("stock_code", "NIFTY"),
			ExchangeCode: c.DefaultQuery("exchange_code", "NFO"),
			ExpiryDate:   c.Query("expiry_date"),
			Right:        c.DefaultQuery("right", "call"),
			StrikePrice:  c.Query("strike_price"),
		}
		if q.ExpiryDate == "" {
			response.BadRequest(c, "expiry_date required")
			return
		}

		rows, err := h.service.OptionChain(c.Request.Context(), q)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.OK(c, response.Payload{"data": rows, "count": len(rows)})
	}
}

// QuoteHandler handles GET /quote.
func (h *GinHandlers) QuoteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		q := broker.ChainQuery{
			StockCode:    c.Query("stock_code"),
			ExchangeCode: c.Query("exchange_code"),
			ExpiryDate:   c.Query("expiry_date"),
			Right:        c.Query("right"),
			StrikePrice:  c.Query("strike_price"),
		}
		if q.StockCode == "" || q.ExchangeCode == "" {
			response.BadRequest(c, "stock_code and exchange_code required")
			return
		}

		rows, err := h.service.Quote(c.Request.Context(), q)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.Data(c, rows)
	}
}

// SpotHandler handles GET /spot: the live index value, read from the cash
// market rather than derived from put-call parity on the frontend.
func (h *GinHandlers) SpotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stockCode := c.DefaultQuery("stock_code", "NIFTY")
		exchangeCode := c.DefaultQuery("exchange_code", "NSE")

		spot, err := h.service.Spot(c.Request.Context(), stockCode, exchangeCode)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.OK(c, response.Payload{
			"spot":          spot,
			"source":        "rest_quote",
			"stock_code":    stockCode,
			"exchange_code": exchangeCode,
		})
	}
}

// ExpiriesHandler handles GET /expiries: upcoming weekly expiry dates.
// Computed locally, costs no broker call.
func (h *GinHandlers) ExpiriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stockCode := c.DefaultQuery("stock_code", "NIFTY")
		expiries := WeeklyExpiries(stockCode, 5, time.Now())
		response.OK(c, response.Payload{
			"stock_code": stockCode,
			"expiries":   expiries,
		})
	}
}

// HistoricalHandler handles GET /historical.
func (h *GinHandlers) HistoricalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		q := broker.HistoricalQuery{
			StockCode:    c.Query("stock_code"),
			ExchangeCode: c.Query("exchange_code"),
			Interval:     c.DefaultQuery("interval", "1day"),
			FromDate:     c.Query("from_date"),
			ToDate:       c.Query("to_date"),
			ExpiryDate:   c.Query("expiry_date"),
			Right:        c.Query("right"),
			StrikePrice:  c.Query("strike_price"),
		}
		if q.StockCode == "" || q.ExchangeCode == "" || q.FromDate == "" || q.ToDate == "" {
			response.BadRequest(c, "stock_code, exchange_code, from_date and to_date required")
			return
		}

		rows, err := h.service.Historical(c.Request.Context(), q)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.Data(c, rows)
	}
}

func handleServiceError(c *gin.Context, err error) {
	if errors.Is(err, broker.ErrNotConnected) {
		response.NotConnected(c)
		return
	}
	response.BrokerError(c, err)
}
