package auth

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ksred/breeze-gateway/pkg/response"
)

var (
	ErrInvalidSecret   = errors.New("invalid gateway auth secret")
	ErrTokenGeneration = errors.New("failed to generate token")
)

// tokenTTL is how long an issued dashboard token stays valid. One trading
// day with margin.
const tokenTTL = 24 * time.Hour

// Claims is the JWT claims structure for dashboard tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenResponse carries an issued JWT back to the dashboard.
type TokenResponse struct {
	Token      string    `json:"jwt_token"`
	Expiration time.Time `json:"expiration"`
}

// Service guards the gateway with a single operator secret. Auth is
// optional: when no secret is configured the tunnel URL itself is the only
// secret, which is the default for throwaway hosted sessions. When a
// secret is set, /auth/token exchanges it for a JWT and the API routes
// require that token.
type Service struct {
	secret []byte
}

// NewService creates an auth service around the operator secret. An empty
// secret disables gateway auth entirely.
func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Enabled reports whether gateway auth is configured.
func (s *Service) Enabled() bool {
	return len(s.secret) > 0
}

// GenerateToken exchanges the operator secret for a signed JWT.
func (s *Service) GenerateToken(presented string) (*TokenResponse, error) {
	if !s.Enabled() || presented != string(s.secret) {
		return nil, ErrInvalidSecret
	}

	expiration := time.Now().Add(tokenTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
		Role: "operator",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	return &TokenResponse{Token: signed, Expiration: expiration}, nil
}

// ValidateToken verifies a dashboard JWT's signature and expiry.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GinHandlers contains the HTTP handlers for authentication endpoints.
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates the authentication endpoint handlers.
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// GenerateTokenHandler handles POST /auth/token.
func (h *GinHandlers) GenerateTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			AuthSecret string `json:"auth_secret"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid JSON")
			return
		}

		token, err := h.service.GenerateToken(req.AuthSecret)
		if errors.Is(err, ErrInvalidSecret) {
			response.Unauthorized(c, err.Error())
			return
		}
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		response.Data(c, token)
	}
}
