package tunnel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	name  string
	url   string
	ok    bool
	tried bool
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Acquire(ctx context.Context, localPort int) (string, bool) {
	f.tried = true
	return f.url, f.ok
}

func TestCoordinatorAcquirePublicURL(t *testing.T) {
	t.Run("first success wins and later providers are never tried", func(t *testing.T) {
		a := &fakeProvider{name: "a"}
		b := &fakeProvider{name: "b", url: "https://abc.example.net", ok: true}
		c := &fakeProvider{name: "c", url: "https://unwanted.example.com", ok: true}

		url, ok := NewCoordinator(a, b, c).AcquirePublicURL(context.Background(), 8000)
		assert.True(t, ok)
		assert.Equal(t, "https://abc.example.net", url)
		assert.True(t, a.tried)
		assert.True(t, b.tried)
		assert.False(t, c.tried)
	})

	t.Run("falls through to the last provider", func(t *testing.T) {
		a := &fakeProvider{name: "a"}
		b := &fakeProvider{name: "b"}
		c := &fakeProvider{name: "c", url: "https://last.example.com", ok: true}

		url, ok := NewCoordinator(a, b, c).AcquirePublicURL(context.Background(), 8000)
		assert.True(t, ok)
		assert.Equal(t, "https://last.example.com", url)
	})

	t.Run("exhausted chain reports no URL without error", func(t *testing.T) {
		a := &fakeProvider{name: "a"}
		b := &fakeProvider{name: "b"}

		url, ok := NewCoordinator(a, b).AcquirePublicURL(context.Background(), 8000)
		assert.False(t, ok)
		assert.Empty(t, url)
		assert.True(t, a.tried)
		assert.True(t, b.tried)
	})

	t.Run("default chain order is ssh first, cloudflared last", func(t *testing.T) {
		chain := DefaultChain(t.TempDir(), "/tmp/cloudflared-test", 0)
		names := make([]string, 0, len(chain.providers))
		for _, p := range chain.providers {
			names = append(names, p.Name())
		}
		assert.Equal(t, []string{"localhost.run", "serveo.net", "cloudflare"}, names)
	})
}
