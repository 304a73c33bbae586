package broker

import (
	"strings"
	"sync/atomic"
	"time"
)

// Session is one successful credential exchange with the broker. Sessions
// are immutable: re-authentication builds a fresh Session and swaps it in
// wholesale, so a reader can never observe a half-replaced mixture of old
// and new fields.
type Session struct {
	APIKey       string
	SessionToken string
	CustomerName string
	Email        string
	ConnectedAt  time.Time

	// apiSecret signs outgoing broker requests. Unexported so it can never
	// leak through JSON marshalling or reflection-based logging.
	apiSecret string
}

// Secret returns the signing secret for request checksums.
func (s *Session) Secret() string { return s.apiSecret }

// SessionStore holds the process-wide current broker session with
// replace-only semantics. Concurrent authentications are not serialized;
// the last replace wins, which is acceptable with a single human operator.
type SessionStore struct {
	cur atomic.Pointer[Session]
}

// NewSessionStore returns an empty store (not authenticated).
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Current returns the active session, or nil before the first connect.
// The returned session is a complete snapshot; callers must not retain it
// across operations that should observe re-authentication.
func (st *SessionStore) Current() *Session {
	return st.cur.Load()
}

// Replace installs a fully-formed session atomically.
func (st *SessionStore) Replace(s *Session) {
	st.cur.Store(s)
}

// Clear drops the session on /disconnect.
func (st *SessionStore) Clear() {
	st.cur.Store(nil)
}

// Authenticated reports whether a broker session is live.
func (st *SessionStore) Authenticated() bool {
	return st.cur.Load() != nil
}

// AuthHint appends a human-actionable hint to a broker auth failure based
// on known message fragments: a "null" response almost always means the
// day's session token has gone stale, a key complaint means the API
// key/secret pair is wrong. The underlying message is kept verbatim.
func AuthHint(msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "null"):
		return msg + " (hint: session token stale, generate a fresh one for today)"
	case strings.Contains(lower, "key"):
		return msg + " (hint: check API key/secret)"
	default:
		return msg
	}
}
