package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ksred/breeze-gateway/internal/auth"
	"github.com/ksred/breeze-gateway/internal/broker"
	"github.com/ksred/breeze-gateway/internal/config"
	"github.com/ksred/breeze-gateway/internal/marketdata"
	"github.com/ksred/breeze-gateway/internal/trading"
	"github.com/ksred/breeze-gateway/pkg/middleware"
)

// Deps are the wired services the HTTP surface exposes.
type Deps struct {
	Config      *config.Config
	Store       *broker.SessionStore
	Gate        *broker.Gate
	AuthService *auth.Service

	AuthHandlers       *auth.GinHandlers
	BrokerHandlers     *broker.GinHandlers
	TradingHandlers    *trading.GinHandlers
	MarketDataHandlers *marketdata.GinHandlers
}

// Server is the gateway HTTP server plus its bootstrap status.
type Server struct {
	srv    *http.Server
	status *Status
	deps   Deps
}

// New builds the router and server. The server is not listening yet; call
// Start once a port is allocated.
func New(deps Deps, status *Status) *Server {
	s := &Server{status: status, deps: deps}

	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit())

	s.setupRoutes(router)

	s.srv = &http.Server{Handler: router}
	return s
}

// setupRoutes configures all API endpoints:
// - Status routes: open, never touch the broker
// - Auth routes: open, exchange the operator secret for a JWT
// - API routes: everything that talks to the broker, behind gateway auth
//   when a secret is configured
func (s *Server) setupRoutes(router *gin.Engine) {
	// Status routes
	router.GET("/", s.healthHandler())
	router.GET("/health", s.healthHandler())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Auth routes
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/token", s.deps.AuthHandlers.GenerateTokenHandler())
	}

	// Broker-facing routes
	api := router.Group("/")
	api.Use(middleware.GatewayAuth(s.deps.AuthService))
	{
		api.POST("/connect", s.deps.BrokerHandlers.ConnectHandler())
		api.POST("/disconnect", s.deps.BrokerHandlers.DisconnectHandler())
		api.GET("/api/ratelimit", s.deps.BrokerHandlers.RatelimitHandler())
		api.POST("/checksum", s.deps.BrokerHandlers.ChecksumHandler())

		api.POST("/order", s.deps.TradingHandlers.OrderHandler())
		api.POST("/strategy/execute", s.deps.TradingHandlers.StrategyExecuteHandler())
		api.POST("/squareoff", s.deps.TradingHandlers.SquareOffHandler())
		api.POST("/order/cancel", s.deps.TradingHandlers.CancelOrderHandler())
		api.PATCH("/order/modify", s.deps.TradingHandlers.ModifyOrderHandler())
		api.GET("/orders", s.deps.TradingHandlers.OrderBookHandler())
		api.GET("/trades", s.deps.TradingHandlers.TradeBookHandler())
		api.GET("/positions", s.deps.TradingHandlers.PositionsHandler())
		api.GET("/funds", s.deps.TradingHandlers.FundsHandler())

		api.GET("/optionchain", s.deps.MarketDataHandlers.OptionChainHandler())
		api.GET("/quote", s.deps.MarketDataHandlers.QuoteHandler())
		api.GET("/spot", s.deps.MarketDataHandlers.SpotHandler())
		api.GET("/expiries", s.deps.MarketDataHandlers.ExpiriesHandler())
		api.GET("/historical", s.deps.MarketDataHandlers.HistoricalHandler())
	}
}

// healthHandler reports the gateway's full status in one call: bootstrap
// state, tunnel URL, broker connection and call budget. The dashboard
// polls this to drive its connection banner.
func (s *Server) healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := s.deps.Store.Current()

		payload := gin.H{
			"status":         "online",
			"state":          s.status.State(),
			"version":        config.Version,
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
			"connected":      sess != nil,
			"tunnel":         s.status.PublicURL(),
			"port":           s.status.Port(),
			"rest_calls_min": s.deps.Gate.CallsLastMinute(),
			"queue_depth":    s.deps.Gate.QueueDepth(),
			"auth_enabled":   s.deps.AuthService.Enabled(),
			"paper":          s.deps.Config.Paper,
		}
		if sess != nil {
			payload["customer_name"] = sess.CustomerName
			payload["connected_at"] = sess.ConnectedAt.UTC().Format(time.RFC3339)
		}
		c.JSON(http.StatusOK, payload)
	}
}

// Start begins listening on the port without blocking. Listen errors after
// startup are logged, not fatal: the bootstrap keeps going so the operator
// sees what happened.
func (s *Server) Start(port int) {
	s.srv.Addr = fmt.Sprintf("127.0.0.1:%d", port)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Int("port", port).Msg("server stopped")
		}
	}()
}

// Shutdown drains the server, giving in-flight requests a grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
