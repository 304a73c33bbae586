package server

import (
	"fmt"
	"net"
	"time"
)

const readyPollInterval = 500 * time.Millisecond

// WaitReady polls a TCP connect against the local listener until it
// accepts or the timeout elapses. Returns false on timeout rather than an
// error: a not-yet-ready server is a degraded state the bootstrap reports
// and carries on from, not a reason to abort.
func WaitReady(port int, timeout time.Duration) bool {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			conn.Close()
			return true
		}
		time.Sleep(readyPollInterval)
	}
	return false
}
