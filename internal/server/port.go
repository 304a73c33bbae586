package server

import (
	"fmt"
	"net"

	"github.com/rs/zerolog/log"
)

// AllocatePort picks a local TCP port, preferring the given one. A taken
// preferred port is the expected common case (another notebook cell, a
// stale run), so it falls back to an OS-assigned ephemeral port instead of
// failing. The probe socket is closed immediately: the returned port is a
// hint, not a reservation, and the subsequent server bind can in principle
// race with another process. Accepted and not retried.
func AllocatePort(preferred int) int {
	if ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", preferred)); err == nil {
		ln.Close()
		return preferred
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		// Can't even get an ephemeral port; return the preferred hint and
		// let the server bind report the real failure.
		log.Warn().Err(err).Msg("ephemeral port probe failed")
		return preferred
	}
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	log.Info().Int("preferred", preferred).Int("port", port).Msg("preferred port taken, using ephemeral")
	return port
}
