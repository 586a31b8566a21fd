package identity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRotatesProxiesRoundRobin(t *testing.T) {
	proxies := []string{"http://p1:8080", "http://p2:8080", "http://p3:8080"}
	r := NewRotator(Options{Proxies: proxies})

	var got []string
	for i := 0; i < 6; i++ {
		got = append(got, r.Next().Proxy)
	}

	expected := append(append([]string{}, proxies...), proxies...)
	assert.Equal(t, expected, got, "proxies should rotate round-robin, wrapping at pool size")
}

func TestNextWithoutProxyPool(t *testing.T) {
	r := NewRotator(Options{})

	for i := 0; i < 3; i++ {
		assert.Empty(t, r.Next().Proxy)
	}
}

func TestNextWithSingletonProxyPool(t *testing.T) {
	r := NewRotator(Options{Proxies: []string{"http://only:8080"}})

	for i := 0; i < 3; i++ {
		assert.Equal(t, "http://only:8080", r.Next().Proxy)
	}
}

func TestNextUserAgentDrawnFromPool(t *testing.T) {
	uas := []string{"agent-a", "agent-b"}
	r := NewRotator(Options{UserAgents: uas})

	for i := 0; i < 20; i++ {
		id := r.Next()
		require.NotEmpty(t, id.Headers["User-Agent"])
		assert.Contains(t, uas, id.Headers["User-Agent"])
	}
}

func TestNextHeadersAreCopies(t *testing.T) {
	r := NewRotator(Options{})

	id := r.Next()
	id.Headers["Accept"] = "mutated"

	// Mutating one identity must not leak into later ones.
	for i := 0; i < 10; i++ {
		assert.NotEqual(t, "mutated", r.Next().Headers["Accept"])
	}
}

func TestNextConcurrentProxyRotation(t *testing.T) {
	proxies := []string{"http://p1:8080", "http://p2:8080", "http://p3:8080"}
	r := NewRotator(Options{Proxies: proxies})

	const calls = 300
	counts := make(map[string]int)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			proxy := r.Next().Proxy
			mu.Lock()
			counts[proxy]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Round-robin under concurrency still distributes evenly.
	for _, proxy := range proxies {
		assert.Equal(t, calls/len(proxies), counts[proxy], "proxy %s", proxy)
	}
}
