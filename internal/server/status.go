package server

import "sync"

// State is a bootstrap lifecycle stage. The gateway reports every stage it
// passes through and keeps serving on whatever it reached: a dead tunnel
// still leaves a working local API.
type State string

const (
	StateAllocatingPort    State = "ALLOCATING_PORT"
	StateStartingServer    State = "STARTING_SERVER"
	StateReady             State = "READY"
	StateNotReady          State = "NOT_READY"
	StateAcquiringTunnel   State = "ACQUIRING_TUNNEL"
	StateTunnelLive        State = "TUNNEL_LIVE"
	StateTunnelUnavailable State = "TUNNEL_UNAVAILABLE"
	StateServing           State = "SERVING"
)

// Status holds the gateway's bootstrap state and tunnel URL for the health
// endpoint. Written by the bootstrap goroutine, read by request handlers.
type Status struct {
	mu        sync.RWMutex
	state     State
	publicURL string
	port      int
}

// NewStatus creates a Status in the initial bootstrap state.
func NewStatus() *Status {
	return &Status{state: StateAllocatingPort}
}

// SetState records a bootstrap stage transition.
func (s *Status) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// SetPort records the port the server bound.
func (s *Status) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port = port
}

// SetPublicURL records the acquired tunnel URL.
func (s *Status) SetPublicURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publicURL = url
}

// State returns the current bootstrap stage.
func (s *Status) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Port returns the bound port, 0 before allocation.
func (s *Status) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

// PublicURL returns the tunnel URL, empty when no tunnel is live.
func (s *Status) PublicURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publicURL
}
