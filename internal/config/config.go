package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Version is reported by /health and the heartbeat banner.
const Version = "7.0"

// Config carries every environment input the gateway reads. All values have
// working defaults so a bare `gateway` run on a throwaway host needs no
// setup at all.
type Config struct {
	// PreferredPort is a hint for the local HTTP listener. If it is taken
	// the OS picks an ephemeral one instead.
	PreferredPort int

	// ProviderBudget overrides every tunnel provider's per-attempt time
	// budget when set; zero keeps the per-provider defaults.
	ProviderBudget time.Duration

	// LogDir holds tunnel subprocess log files.
	LogDir string

	// CloudflaredPath is where the cloudflared helper binary is expected
	// or downloaded to.
	CloudflaredPath string

	// AuthSecret enables gateway auth when non-empty: /auth/token issues a
	// JWT for it and the API routes require that token.
	AuthSecret string

	// Paper switches the broker client for the simulated paper broker.
	Paper bool

	// DBPath is the sqlite file for the order journal. Empty disables the
	// journal entirely.
	DBPath string

	// Env selects log formatting and gin mode; anything other than
	// "production" gets the development console output.
	Env string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honoured when present, real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	cfg := &Config{
		PreferredPort:   envInt("GATEWAY_PORT", 8000),
		ProviderBudget:  envDuration("TUNNEL_BUDGET", 0),
		LogDir:          envStr("TUNNEL_LOG_DIR", os.TempDir()),
		CloudflaredPath: envStr("CLOUDFLARED_PATH", filepath.Join(os.TempDir(), "cloudflared")),
		AuthSecret:      os.Getenv("GATEWAY_AUTH_SECRET"),
		Paper:           os.Getenv("GATEWAY_PAPER") == "true",
		DBPath:          envStr("GATEWAY_DB", "gateway.db"),
		Env:             envStr("ENV", "development"),
	}
	return cfg
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("ignoring non-numeric env value")
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("ignoring unparseable duration")
		return fallback
	}
	return d
}
