package tunnel

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
)

// Provider exposes a locally bound server under a public URL. Acquire
// never returns an error: any failure (missing tool, spawn error, budget
// expired) is reported as "no URL" so the coordinator can move on to the
// next provider in the chain.
type Provider interface {
	Name() string
	Acquire(ctx context.Context, localPort int) (string, bool)
}

// logProvider is the shared shape of all three tunnel backends: spawn a
// long-running child, scrape its output for a URL-shaped token with a
// known suffix, give up when the time budget runs out.
type logProvider struct {
	name     string
	budget   time.Duration
	interval time.Duration
	pattern  *regexp.Regexp

	// available reports whether the prerequisite tool exists. Providers
	// whose tool is missing fail instantly, spending none of the budget.
	available func() bool
	// spawn builds the process handle for the given local port.
	spawn func(localPort int) ProcessHandle
}

func (p *logProvider) Name() string { return p.name }

// Acquire runs the provider's subprocess and polls its accumulated output
// for the URL pattern. The LAST match wins: tunnel binaries print example
// or placeholder URLs before the real assignment, so the most recent token
// is the authoritative one. (Known limitation: this is a heuristic with no
// stronger disambiguation available in the log text.)
func (p *logProvider) Acquire(ctx context.Context, localPort int) (string, bool) {
	logger := log.With().Str("provider", p.name).Logger()

	if !p.available() {
		logger.Info().Msg("prerequisite missing, skipping provider")
		return "", false
	}

	handle := p.spawn(localPort)
	if err := handle.Start(); err != nil {
		logger.Warn().Err(err).Msg("failed to spawn tunnel process")
		return "", false
	}

	pctx, cancel := context.WithCancel(ctx)
	defer cancel()
	url, ok := pollUntil(pctx, p.interval, p.budget, func() (string, bool) {
		matches := p.pattern.FindAllString(handle.Output(), -1)
		if len(matches) > 0 {
			return matches[len(matches)-1], true
		}
		// A dead process will never print a URL; stop waiting on it. The
		// output is scanned one last time above in case the URL landed just
		// before exit.
		if !handle.Alive() {
			logger.Warn().Msg("tunnel process exited without a URL, abandoning budget")
			cancel()
		}
		return "", false
	})
	if !ok {
		logger.Info().Dur("budget", p.budget).Msg("no public URL within budget")
		handle.Stop()
		return "", false
	}

	logger.Info().Str("url", url).Msg("tunnel established")
	return url, true
}

func sshAvailable() bool {
	_, err := exec.LookPath("ssh")
	return err == nil
}

func sshArgs(localPort int, host string) []string {
	return []string{
		"-R", fmt.Sprintf("80:localhost:%d", localPort),
		"-o", "StrictHostKeyChecking=no",
		"-o", "ServerAliveInterval=30",
		"-o", "ConnectTimeout=15",
		host,
	}
}

// NewLocalhostRun tunnels over SSH to localhost.run. No account, no
// browser interstitial, which is why it is first in the chain.
func NewLocalhostRun(logDir string) Provider {
	return &logProvider{
		name:      "localhost.run",
		budget:    40 * time.Second,
		interval:  2 * time.Second,
		pattern:   regexp.MustCompile(`https://[a-z0-9\-]+\.lhr\.life`),
		available: sshAvailable,
		spawn: func(localPort int) ProcessHandle {
			return newExecHandle(filepath.Join(logDir, "lhr.log"),
				"ssh", sshArgs(localPort, "nokey@localhost.run")...)
		},
	}
}

// NewServeo tunnels over SSH to serveo.net. Same contract as localhost.run.
func NewServeo(logDir string) Provider {
	return &logProvider{
		name:      "serveo.net",
		budget:    40 * time.Second,
		interval:  2 * time.Second,
		pattern:   regexp.MustCompile(`https://[a-z0-9]+\.serveo\.net`),
		available: sshAvailable,
		spawn: func(localPort int) ProcessHandle {
			return newExecHandle(filepath.Join(logDir, "serveo.log"),
				"ssh", sshArgs(localPort, "serveo.net")...)
		},
	}
}

// NewCloudflared tunnels through a quick tunnel using the cloudflared
// helper binary, downloading it first if absent. Slower to come up and
// shows a browser interstitial, so it is the last resort.
func NewCloudflared(binPath, logDir string) Provider {
	return &logProvider{
		name:     "cloudflare",
		budget:   90 * time.Second,
		interval: 3 * time.Second,
		pattern:  regexp.MustCompile(`https://[a-zA-Z0-9-]+\.trycloudflare\.com`),
		available: func() bool {
			if err := ensureCloudflared(binPath); err != nil {
				log.Warn().Err(err).Msg("cloudflared unavailable")
				return false
			}
			return true
		},
		spawn: func(localPort int) ProcessHandle {
			return newExecHandle(filepath.Join(logDir, "cloudflared.log"),
				binPath, "tunnel",
				"--url", fmt.Sprintf("http://localhost:%d", localPort),
				"--no-autoupdate")
		},
	}
}
