package heartbeat

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ksred/breeze-gateway/internal/broker"
	"github.com/ksred/breeze-gateway/internal/server"
)

// Monitor periodically logs a liveness line with the gateway's vitals. On
// a headless throwaway host the log stream is the only way to tell the
// process is still up and whether the broker session survived.
type Monitor struct {
	store    *broker.SessionStore
	gate     *broker.Gate
	status   *server.Status
	interval time.Duration
}

// NewMonitor creates a heartbeat monitor with the default 30s interval.
func NewMonitor(store *broker.SessionStore, gate *broker.Gate, status *server.Status) *Monitor {
	return &Monitor{
		store:    store,
		gate:     gate,
		status:   status,
		interval: 30 * time.Second,
	}
}

// Start begins the heartbeat loop. Blocks until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	logger := log.With().Str("component", "heartbeat").Logger()
	logger.Info().Dur("interval", m.interval).Msg("starting heartbeat")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("stopping heartbeat")
			return
		case <-ticker.C:
			m.beat(logger)
		}
	}
}

// beat samples local state only. It never calls the broker: a heartbeat
// that burns call budget would starve the order path.
func (m *Monitor) beat(logger zerolog.Logger) {
	sess := m.store.Current()

	ev := logger.Info().
		Str("state", string(m.status.State())).
		Bool("connected", sess != nil).
		Int("calls_last_minute", m.gate.CallsLastMinute()).
		Int("queue_depth", m.gate.QueueDepth())

	if url := m.status.PublicURL(); url != "" {
		ev = ev.Str("tunnel", url)
	}
	if sess != nil {
		ev = ev.Str("customer", sess.CustomerName)
	}
	ev.Msg("heartbeat")
}
