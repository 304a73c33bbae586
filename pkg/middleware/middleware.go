package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ksred/breeze-gateway/internal/auth"
	"github.com/ksred/breeze-gateway/pkg/response"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.Mutex

	// Per-endpoint limits. Order placement is kept well under the broker
	// gate so a runaway dashboard cannot fill the call queue; status
	// endpoints are effectively free since they never touch the broker.
	connectLimit = rate.Limit(10.0 / 60.0)   // 10 requests per minute
	orderLimit   = rate.Limit(60.0 / 60.0)   // 60 requests per minute
	statusLimit  = rate.Limit(1000.0 / 60.0) // 1000 requests per minute
)

func init() {
	go cleanupVisitors()
}

func getLimiter(path, clientIP string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	key := clientIP + ":" + path
	v, exists := visitors[key]

	if !exists {
		var limit rate.Limit
		switch {
		case strings.HasPrefix(path, "/connect"), strings.HasPrefix(path, "/auth"):
			limit = connectLimit
		case strings.HasPrefix(path, "/order"), strings.HasPrefix(path, "/strategy"), strings.HasPrefix(path, "/squareoff"):
			limit = orderLimit
		case strings.HasPrefix(path, "/health"), strings.HasPrefix(path, "/ping"), strings.HasPrefix(path, "/api/ratelimit"):
			limit = statusLimit
		default:
			limit = rate.Inf
		}

		v = &visitor{
			limiter:  rate.NewLimiter(limit, 5),
			lastSeen: time.Now(),
		}
		visitors[key] = v
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		mu.Lock()
		for key, v := range visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(visitors, key)
			}
		}
		mu.Unlock()
	}
}

// RateLimit throttles per client IP and path category. This is the HTTP
// edge limit; the broker call gate is enforced separately and deeper.
func RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := getLimiter(c.FullPath(), c.ClientIP())
		if !limiter.Allow() {
			response.TooManyRequests(c, "rate limit exceeded, try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CORS allows any origin. The gateway is fronted by a throwaway tunnel URL
// and the dashboard runs on a different host every session, so origin
// pinning is not possible.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// GatewayAuth requires a valid bearer token on API routes when gateway
// auth is configured. With no secret configured it is a no-op and the
// unguessable tunnel URL is the only access control.
func GatewayAuth(service *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !service.Enabled() {
			c.Next()
			return
		}

		bearerToken := strings.Split(c.GetHeader("Authorization"), " ")
		if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "bearer") {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}

		claims, err := service.ValidateToken(bearerToken[1])
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set("role", claims.Role)
		c.Next()
	}
}
