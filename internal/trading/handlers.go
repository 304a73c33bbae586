package trading

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ksred/breeze-gateway/internal/broker"
	"github.com/ksred/breeze-gateway/internal/types"
	"github.com/ksred/breeze-gateway/pkg/response"
)

// GinHandlers contains the HTTP handlers for order placement, square-off,
// cancel/modify and the books.
type GinHandlers struct {
	engine *Engine
	api    broker.API
	store  *broker.SessionStore
}

// NewGinHandlers creates the trading endpoint handlers.
func NewGinHandlers(engine *Engine, api broker.API, store *broker.SessionStore) *GinHandlers {
	return &GinHandlers{
		engine: engine,
		api:    api,
		store:  store,
	}
}

// OrderHandler handles POST /order: a single leg through the batch engine,
// so single and multi-leg placement can never diverge in behavior.
func (h *GinHandlers) OrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var leg types.OrderLeg
		if err := c.ShouldBindJSON(&leg); err != nil {
			response.BadRequest(c, "invalid JSON")
			return
		}

		results, err := h.engine.Submit(c.Request.Context(), []types.OrderLeg{leg})
		if err != nil {
			handleEngineError(c, err)
			return
		}

		r := results[0]
		c.JSON(http.StatusOK, gin.H{
			"success":  r.Success,
			"order_id": r.OrderID,
			"error":    r.Error,
		})
	}
}

// StrategyExecuteHandler handles POST /strategy/execute: the multi-leg
// entry point. The top-level success flag is true only when every leg
// succeeded; per-leg outcomes are always included.
func (h *GinHandlers) StrategyExecuteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Legs []types.OrderLeg `json:"legs"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid JSON")
			return
		}
		if len(req.Legs) == 0 {
			response.BadRequest(c, "no legs provided")
			return
		}

		results, err := h.engine.Submit(c.Request.Context(), req.Legs)
		if err != nil {
			handleEngineError(c, err)
			return
		}

		all := true
		for _, r := range results {
			if !r.Success {
				all = false
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": all, "results": results})
	}
}

// SquareOffHandler handles POST /squareoff: body is the original entry
// leg; the engine derives and submits the reversed exit order.
func (h *GinHandlers) SquareOffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var leg types.OrderLeg
		if err := c.ShouldBindJSON(&leg); err != nil {
			response.BadRequest(c, "invalid JSON")
			return
		}

		result, exitAction, err := h.engine.SquareOff(c.Request.Context(), leg)
		if err != nil {
			handleEngineError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":     result.Success,
			"order_id":    result.OrderID,
			"error":       result.Error,
			"exit_action": exitAction,
		})
	}
}

// CancelOrderHandler handles POST /order/cancel.
func (h *GinHandlers) CancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.store.Authenticated() {
			response.NotConnected(c)
			return
		}

		var req types.CancelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid JSON")
			return
		}
		if req.OrderID == "" {
			response.BadRequest(c, "order_id required")
			return
		}

		resp, err := h.api.CancelOrder(c.Request.Context(), req.OrderID, req.ExchangeCode)
		if err != nil {
			response.BrokerError(c, err)
			return
		}
		if !resp.OK() {
			response.BrokerErrorMsg(c, resp.Error)
			return
		}
		response.OK(c, nil)
	}
}

// ModifyOrderHandler handles PATCH /order/modify.
func (h *GinHandlers) ModifyOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.store.Authenticated() {
			response.NotConnected(c)
			return
		}

		var req types.ModifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid JSON")
			return
		}
		if req.OrderID == "" {
			response.BadRequest(c, "order_id required")
			return
		}

		resp, err := h.api.ModifyOrder(c.Request.Context(), req)
		if err != nil {
			response.BrokerError(c, err)
			return
		}
		if !resp.OK() {
			response.BrokerErrorMsg(c, resp.Error)
			return
		}
		response.OK(c, nil)
	}
}

// OrderBookHandler handles GET /orders: today's order book.
func (h *GinHandlers) OrderBookHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.book(c, h.api.OrderList)
	}
}

// TradeBookHandler handles GET /trades: today's trade book.
func (h *GinHandlers) TradeBookHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.book(c, h.api.TradeList)
	}
}

// PositionsHandler handles GET /positions: open positions plus holdings.
func (h *GinHandlers) PositionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.store.Authenticated() {
			response.NotConnected(c)
			return
		}

		ctx := c.Request.Context()
		pos, err := h.api.Positions(ctx)
		if err != nil {
			response.BrokerError(c, err)
			return
		}
		hld, err := h.api.Holdings(ctx)
		if err != nil {
			response.BrokerError(c, err)
			return
		}
		response.Data(c, gin.H{
			"positions": pos.Rows(),
			"holdings":  hld.Rows(),
		})
	}
}

// FundsHandler handles GET /funds: available margin.
func (h *GinHandlers) FundsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.store.Authenticated() {
			response.NotConnected(c)
			return
		}

		resp, err := h.api.Funds(c.Request.Context())
		if err != nil {
			response.BrokerError(c, err)
			return
		}
		if !resp.OK() {
			response.BrokerErrorMsg(c, resp.Error)
			return
		}
		response.Data(c, resp.Object())
	}
}

func (h *GinHandlers) book(c *gin.Context, fetch func(ctx context.Context, from, to time.Time) (*broker.Response, error)) {
	if !h.store.Authenticated() {
		response.NotConnected(c)
		return
	}

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.Add(24*time.Hour - time.Second)

	resp, err := fetch(c.Request.Context(), from, to)
	if err != nil {
		response.BrokerError(c, err)
		return
	}
	if !resp.OK() {
		response.BrokerErrorMsg(c, resp.Error)
		return
	}
	response.Data(c, resp.Rows())
}

func handleEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, broker.ErrNotConnected):
		response.NotConnected(c)
	case errors.Is(err, ErrNoLegs):
		response.BadRequest(c, err.Error())
	default:
		response.BrokerError(c, err)
	}
}
