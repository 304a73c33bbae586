package tunnel

import (
	"io"
	"os"
	"os/exec"
	"sync"
)

// ProcessHandle abstracts a supervised child process whose combined output
// is scraped for a public URL. Providers are written against this interface
// so tests can substitute canned log text for real subprocesses.
type ProcessHandle interface {
	// Start launches the process without waiting for it.
	Start() error
	// Output returns everything the process has written so far.
	Output() string
	// Alive reports whether the process is still running.
	Alive() bool
	// Stop kills the process. Safe to call more than once.
	Stop()
}

// lockedBuffer is a concurrency-safe output accumulator. The subprocess
// writes from its own pipe goroutine while the provider polls reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// execHandle runs a real subprocess, teeing stdout+stderr into an
// in-memory buffer and, when a path is given, a log file for post-mortems.
type execHandle struct {
	cmd *exec.Cmd
	buf *lockedBuffer

	mu      sync.Mutex
	stopped bool
	logFile *os.File
}

// newExecHandle builds a handle for the given command line. logPath may be
// empty to skip the on-disk copy.
func newExecHandle(logPath string, name string, args ...string) *execHandle {
	h := &execHandle{
		cmd: exec.Command(name, args...),
		buf: &lockedBuffer{},
	}

	var sink io.Writer = h.buf
	if logPath != "" {
		if f, err := os.Create(logPath); err == nil {
			h.logFile = f
			sink = io.MultiWriter(h.buf, f)
		}
	}
	h.cmd.Stdout = sink
	h.cmd.Stderr = sink
	return h
}

func (h *execHandle) Start() error {
	if err := h.cmd.Start(); err != nil {
		return err
	}
	// Reap the child when it exits so a dead tunnel does not linger as a
	// zombie; Wait also flushes the output pipes.
	go func() { _ = h.cmd.Wait() }()
	return nil
}

func (h *execHandle) Output() string {
	return h.buf.String()
}

func (h *execHandle) Alive() bool {
	if h.cmd.Process == nil {
		return false
	}
	return h.cmd.ProcessState == nil
}

func (h *execHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
	if h.logFile != nil {
		_ = h.logFile.Close()
	}
}
