package tunnel

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeHandle is a scripted ProcessHandle: no subprocess, just log text.
type fakeHandle struct {
	mu       sync.Mutex
	output   string
	startErr error
	stopped  bool
	dead     bool
}

func (f *fakeHandle) Start() error { return f.startErr }

func (f *fakeHandle) Output() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.output
}

func (f *fakeHandle) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.dead && !f.stopped
}

func (f *fakeHandle) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeHandle) append(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.output += s
}

func testProvider(handle ProcessHandle, budget time.Duration) *logProvider {
	return &logProvider{
		name:      "test",
		budget:    budget,
		interval:  10 * time.Millisecond,
		pattern:   regexp.MustCompile(`https://[a-z0-9]+\.tunnel\.test`),
		available: func() bool { return true },
		spawn:     func(localPort int) ProcessHandle { return handle },
	}
}

func TestLogProviderAcquire(t *testing.T) {
	t.Run("scrapes URL from process output", func(t *testing.T) {
		handle := &fakeHandle{output: "forwarding enabled\nhttps://abc123.tunnel.test ready\n"}
		url, ok := testProvider(handle, time.Second).Acquire(context.Background(), 8000)
		assert.True(t, ok)
		assert.Equal(t, "https://abc123.tunnel.test", url)
	})

	t.Run("last match wins", func(t *testing.T) {
		handle := &fakeHandle{output: "example: https://example0.tunnel.test\nassigned https://real42.tunnel.test\n"}
		url, ok := testProvider(handle, time.Second).Acquire(context.Background(), 8000)
		assert.True(t, ok)
		assert.Equal(t, "https://real42.tunnel.test", url)
	})

	t.Run("picks up URL that appears after startup", func(t *testing.T) {
		handle := &fakeHandle{output: "connecting...\n"}
		go func() {
			time.Sleep(50 * time.Millisecond)
			handle.append("https://late99.tunnel.test\n")
		}()

		url, ok := testProvider(handle, time.Second).Acquire(context.Background(), 8000)
		assert.True(t, ok)
		assert.Equal(t, "https://late99.tunnel.test", url)
	})

	t.Run("budget expiry stops the process and reports no URL", func(t *testing.T) {
		handle := &fakeHandle{output: "no url here\n"}
		start := time.Now()
		url, ok := testProvider(handle, 100*time.Millisecond).Acquire(context.Background(), 8000)
		assert.False(t, ok)
		assert.Empty(t, url)
		assert.True(t, handle.stopped)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("dead process abandons the budget early", func(t *testing.T) {
		handle := &fakeHandle{output: "connection refused\n", dead: true}
		start := time.Now()
		url, ok := testProvider(handle, 10*time.Second).Acquire(context.Background(), 8000)
		assert.False(t, ok)
		assert.Empty(t, url)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("URL printed just before exit still counts", func(t *testing.T) {
		handle := &fakeHandle{output: "https://dying7.tunnel.test\n", dead: true}
		url, ok := testProvider(handle, time.Second).Acquire(context.Background(), 8000)
		assert.True(t, ok)
		assert.Equal(t, "https://dying7.tunnel.test", url)
	})

	t.Run("missing prerequisite fails instantly", func(t *testing.T) {
		p := testProvider(&fakeHandle{}, 10*time.Second)
		p.available = func() bool { return false }

		start := time.Now()
		_, ok := p.Acquire(context.Background(), 8000)
		assert.False(t, ok)
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("spawn failure reports no URL", func(t *testing.T) {
		handle := &fakeHandle{startErr: errors.New("exec: not found")}
		_, ok := testProvider(handle, time.Second).Acquire(context.Background(), 8000)
		assert.False(t, ok)
	})

	t.Run("cancelled context gives up early", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		handle := &fakeHandle{}
		start := time.Now()
		_, ok := testProvider(handle, 10*time.Second).Acquire(ctx, 8000)
		assert.False(t, ok)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestProviderPatterns(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		line    string
		want    string
	}{
		{
			name:    "localhost.run",
			pattern: `https://[a-z0-9\-]+\.lhr\.life`,
			line:    "your connection id is ... https://a1b2-c3d4.lhr.life tunneled",
			want:    "https://a1b2-c3d4.lhr.life",
		},
		{
			name:    "serveo",
			pattern: `https://[a-z0-9]+\.serveo\.net`,
			line:    "Forwarding HTTP traffic from https://abcd1234.serveo.net",
			want:    "https://abcd1234.serveo.net",
		},
		{
			name:    "cloudflare",
			pattern: `https://[a-zA-Z0-9-]+\.trycloudflare\.com`,
			line:    "|  https://lucky-otter-eager-tree.trycloudflare.com  |",
			want:    "https://lucky-otter-eager-tree.trycloudflare.com",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			re := regexp.MustCompile(tc.pattern)
			assert.Equal(t, tc.want, re.FindString(tc.line))
		})
	}
}
