// Package identity supplies a fresh outbound browser identity per fetch
// attempt: a realistic header template, an independently rotated User-Agent,
// and an optional proxy drawn round-robin from a configured pool.
package identity

import (
	"math/rand"
	"sync"
)

// Identity is what one fetch attempt presents to the target site.
type Identity struct {
	Headers map[string]string
	Proxy   string // empty when no proxy pool is configured
}

// Rotator hands out identities. The proxy index is the only shared mutable
// state in the fetch path and is guarded by a mutex so concurrent attempts
// never read the same slot.
type Rotator struct {
	userAgents []string
	headers    []map[string]string

	mu         sync.Mutex
	proxies    []string
	proxyIndex int
}

// Options configures a Rotator. Zero-value fields fall back to the built-in
// pools.
type Options struct {
	UserAgents []string
	Proxies    []string
}

// NewRotator builds a rotator from opts.
func NewRotator(opts Options) *Rotator {
	uas := opts.UserAgents
	if len(uas) == 0 {
		uas = defaultUserAgents()
	}
	return &Rotator{
		userAgents: uas,
		headers:    headerTemplates(),
		proxies:    opts.Proxies,
	}
}

// Next returns a fresh identity. It never fails: an empty proxy pool just
// yields identities without a proxy, and singleton pools repeat.
func (r *Rotator) Next() Identity {
	template := r.headers[rand.Intn(len(r.headers))]

	headers := make(map[string]string, len(template)+1)
	for k, v := range template {
		headers[k] = v
	}
	// User-Agent rotates independently of the header template to widen the
	// fingerprint space.
	headers["User-Agent"] = r.userAgents[rand.Intn(len(r.userAgents))]

	return Identity{
		Headers: headers,
		Proxy:   r.nextProxy(),
	}
}

func (r *Rotator) nextProxy() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.proxies) == 0 {
		return ""
	}
	proxy := r.proxies[r.proxyIndex]
	r.proxyIndex = (r.proxyIndex + 1) % len(r.proxies)
	return proxy
}

func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
	}
}

// headerTemplates are full browser header sets minus the User-Agent, which
// Next fills in separately.
func headerTemplates() []map[string]string {
	return []map[string]string{
		{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
			"Accept-Encoding":           "gzip, deflate, br",
			"Accept-Language":           "en-US,en;q=0.9,hi;q=0.8",
			"Cache-Control":             "max-age=0",
			"Sec-Ch-Ua":                 `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`,
			"Sec-Ch-Ua-Mobile":          "?0",
			"Sec-Ch-Ua-Platform":        `"Windows"`,
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Sec-Fetch-User":            "?1",
			"Upgrade-Insecure-Requests": "1",
		},
		{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Encoding":           "gzip, deflate, br",
			"Accept-Language":           "en-IN,en;q=0.9,hi;q=0.8",
			"Connection":                "keep-alive",
			"DNT":                       "1",
			"Upgrade-Insecure-Requests": "1",
		},
		{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Encoding":           "gzip, deflate, br",
			"Accept-Language":           "en-US,en;q=0.5",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Upgrade-Insecure-Requests": "1",
		},
	}
}
