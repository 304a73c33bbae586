package tunnel

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const cloudflaredURL = "https://github.com/cloudflare/cloudflared/releases/latest/download/cloudflared-linux-amd64"

// ensureCloudflared downloads the cloudflared binary to binPath if it is
// not already there. Idempotent: an existing binary is left alone, so
// repeated bootstraps on the same host pay the download once.
func ensureCloudflared(binPath string) error {
	if _, err := os.Stat(binPath); err == nil {
		return nil
	}

	log.Info().Str("path", binPath).Msg("downloading cloudflared")

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Get(cloudflaredURL)
	if err != nil {
		return fmt.Errorf("downloading cloudflared: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading cloudflared: unexpected status %d", resp.StatusCode)
	}

	tmp := binPath + ".partial"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o750)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing cloudflared: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	// Rename last so a half-written download never passes the Stat check.
	if err := os.Rename(tmp, binPath); err != nil {
		os.Remove(tmp)
		return err
	}

	log.Info().Str("path", binPath).Msg("cloudflared ready")
	return nil
}
