package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The dashboard renders whatever JSON it receives, so every endpoint must
// reply with a machine-readable body. Broker-level failures travel as HTTP
// 200 with success=false (the request reached the gateway fine, the broker
// said no); transport-level failures (bad JSON, missing fields) get a 4xx
// with the same envelope.

// Payload is a flat response body. Extra fields are merged alongside the
// success flag so endpoint shapes stay flat, e.g.
// {"success":true,"order_id":"..."}.
type Payload map[string]interface{}

// OK sends a 200 with success=true plus any extra fields.
func OK(c *gin.Context, extra Payload) {
	body := gin.H{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Data sends a 200 with success=true and the payload under "data".
func Data(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// BrokerError reports a broker-side failure. Always HTTP 200 so the
// dashboard can render the error instead of treating it as a dead backend.
func BrokerError(c *gin.Context, err error) {
	c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
}

// BrokerErrorMsg is BrokerError for errors that arrive as plain strings
// from the broker response payload.
func BrokerErrorMsg(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "error": msg})
}

// BadRequest sends a 400 response.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

// TooManyRequests sends a 429 response.
func TooManyRequests(c *gin.Context, msg string) {
	c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": msg})
}

// Unauthorized sends a 401 response.
func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": msg})
}

// NotConnected sends the canonical 401 for endpoints that need a broker
// session before use.
func NotConnected(c *gin.Context) {
	Unauthorized(c, "not connected: POST /connect first")
}

// InternalError sends a 500 response. Still a JSON body, never a bare 500.
func InternalError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msg})
}
