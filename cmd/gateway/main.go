package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ksred/breeze-gateway/internal/auth"
	"github.com/ksred/breeze-gateway/internal/broker"
	"github.com/ksred/breeze-gateway/internal/config"
	"github.com/ksred/breeze-gateway/internal/database"
	"github.com/ksred/breeze-gateway/internal/heartbeat"
	"github.com/ksred/breeze-gateway/internal/marketdata"
	"github.com/ksred/breeze-gateway/internal/server"
	"github.com/ksred/breeze-gateway/internal/trading"
	"github.com/ksred/breeze-gateway/internal/tunnel"
)

// readyTimeout bounds how long bootstrap waits for the local listener
// before moving on to tunnel acquisition anyway.
const readyTimeout = 15 * time.Second

// init configures logging. Development gets pretty console output; DEBUG
// turns on debug level.
func init() {
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main runs the gateway bootstrap: allocate a port, start the HTTP server,
// acquire a public tunnel URL, then serve until interrupted. Every stage is
// logged and no stage aborts the process; a gateway with no tunnel is still
// useful on localhost.
func main() {
	cfg := config.Load()

	// Initialize order journal
	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		zlog.Warn().Err(err).Msg("order journal disabled")
		db = nil
	}

	// Initialize services and handlers
	store := broker.NewSessionStore()
	gate := broker.NewGate()

	var api broker.API
	if cfg.Paper {
		zlog.Info().Msg("paper trading mode, orders never reach the broker")
		api = broker.NewPaper(store, gate)
	} else {
		api = broker.NewClient(store, gate)
	}

	authService := auth.NewService(cfg.AuthSecret)
	authHandlers := auth.NewGinHandlers(authService)

	journal := trading.NewJournal(db)
	engine := trading.NewEngine(api, store, journal)
	tradingHandlers := trading.NewGinHandlers(engine, api, store)

	mdService := marketdata.NewService(api, store)
	mdHandlers := marketdata.NewGinHandlers(mdService)

	brokerHandlers := broker.NewGinHandlers(api, store, gate)

	status := server.NewStatus()
	srv := server.New(server.Deps{
		Config:             cfg,
		Store:              store,
		Gate:               gate,
		AuthService:        authService,
		AuthHandlers:       authHandlers,
		BrokerHandlers:     brokerHandlers,
		TradingHandlers:    tradingHandlers,
		MarketDataHandlers: mdHandlers,
	}, status)

	// Stage 1: port
	status.SetState(server.StateAllocatingPort)
	port := server.AllocatePort(cfg.PreferredPort)
	status.SetPort(port)
	zlog.Info().Int("port", port).Msg("port allocated")

	// Stage 2: local server
	status.SetState(server.StateStartingServer)
	srv.Start(port)

	if server.WaitReady(port, readyTimeout) {
		status.SetState(server.StateReady)
		zlog.Info().Int("port", port).Msg("local server ready")
	} else {
		status.SetState(server.StateNotReady)
		zlog.Warn().Int("port", port).Msg("local server not confirmed ready, continuing anyway")
	}

	// Stage 3: tunnel
	status.SetState(server.StateAcquiringTunnel)
	chain := tunnel.DefaultChain(cfg.LogDir, cfg.CloudflaredPath, cfg.ProviderBudget)
	if url, ok := chain.AcquirePublicURL(context.Background(), port); ok {
		status.SetPublicURL(url)
		status.SetState(server.StateTunnelLive)
		zlog.Info().Str("url", url).Msg("tunnel live")
		printBanner(url)
	} else {
		status.SetState(server.StateTunnelUnavailable)
		zlog.Warn().Int("port", port).Msg("no tunnel, gateway reachable on localhost only")
	}

	status.SetState(server.StateServing)

	// Heartbeat
	hbCtx, hbCancel := context.WithCancel(context.Background())
	defer hbCancel()
	monitor := heartbeat.NewMonitor(store, gate, status)
	go monitor.Start(hbCtx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("shutting down gateway")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("forced shutdown")
	}

	zlog.Info().Msg("gateway exiting")
}

// printBanner writes the public URL to stdout in a shape that is easy to
// spot in a scrolled notebook cell and easy to copy into the dashboard.
func printBanner(url string) {
	fmt.Println()
	fmt.Println("============================================================")
	fmt.Printf("  GATEWAY URL: %s\n", url)
	fmt.Printf("  version %s\n", config.Version)
	fmt.Println("============================================================")
	fmt.Println()
}
