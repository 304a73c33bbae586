package broker

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ksred/breeze-gateway/internal/types"
	"github.com/ksred/breeze-gateway/pkg/response"
)

// GinHandlers contains the HTTP handlers for the broker session lifecycle
// and the rate limiter status surface.
type GinHandlers struct {
	api   API
	store *SessionStore
	gate  *Gate
}

// NewGinHandlers creates the broker endpoint handlers.
func NewGinHandlers(api API, store *SessionStore, gate *Gate) *GinHandlers {
	return &GinHandlers{api: api, store: store, gate: gate}
}

// ConnectHandler handles POST /connect. Credentials are read from the JSON
// body with query parameters as a fallback ("apisession" is accepted as an
// alias for session_token, matching the broker's login redirect). An auth
// failure is an HTTP 200 with success=false so the dashboard renders the
// hint instead of a fetch error.
func (h *GinHandlers) ConnectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds types.Credentials
		// Body may be absent when everything arrives as query params.
		_ = c.ShouldBindJSON(&creds)

		if creds.APIKey == "" {
			creds.APIKey = c.Query("api_key")
		}
		if creds.APISecret == "" {
			creds.APISecret = c.Query("api_secret")
		}
		if creds.SessionToken == "" {
			creds.SessionToken = c.Query("session_token")
		}
		if creds.SessionToken == "" {
			creds.SessionToken = c.Query("apisession")
		}

		if creds.APIKey == "" || creds.APISecret == "" || creds.SessionToken == "" {
			response.BadRequest(c, "missing: api_key, api_secret, session_token")
			return
		}

		sess, err := h.api.Authenticate(c.Request.Context(), creds)
		if err != nil {
			response.BrokerError(c, err)
			return
		}

		response.OK(c, response.Payload{
			"session_token": sess.SessionToken,
			"message":       "connected",
			"name":          sess.CustomerName,
			"email":         sess.Email,
		})
	}
}

// DisconnectHandler handles POST /disconnect: drops the current session.
func (h *GinHandlers) DisconnectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.store.Clear()
		response.OK(c, response.Payload{"message": "disconnected"})
	}
}

// RatelimitHandler handles GET /api/ratelimit: rate gate introspection for
// the dashboard's call budget display.
func (h *GinHandlers) RatelimitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"calls_last_minute": h.gate.CallsLastMinute(),
			"max_per_minute":    100,
			"min_interval_ms":   minCallInterval.Milliseconds(),
			"queue_depth":       h.gate.QueueDepth(),
		})
	}
}

// ChecksumHandler handles POST /checksum: computes the broker's request
// signature for a payload, used by the dashboard when it talks to the
// broker directly.
func (h *GinHandlers) ChecksumHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Timestamp string                 `json:"timestamp"`
			Payload   map[string]interface{} `json:"payload"`
			Secret    string                 `json:"secret"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid JSON")
			return
		}

		if req.Timestamp == "" {
			req.Timestamp = time.Now().UTC().Format(timestampFmt)
		}
		if req.Payload == nil {
			req.Payload = map[string]interface{}{}
		}

		sum, err := Checksum(req.Timestamp, req.Payload, req.Secret)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"checksum": sum, "timestamp": req.Timestamp})
	}
}
