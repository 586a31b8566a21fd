// Package fetch performs resilient page retrieval. Static mode issues plain
// GETs with identity rotation, human pacing, and capped exponential backoff.
// Render mode delegates the whole call to a Renderer and is deliberately
// single-attempt: rendering is an order of magnitude costlier than a GET, so
// retry policy for rendered fetches belongs to the caller.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/marketlens/price-intel-scraper/internal/identity"
	"github.com/marketlens/price-intel-scraper/internal/metrics"
	"github.com/marketlens/price-intel-scraper/internal/ratelimit"
)

// Renderer executes a page's client-side logic and returns realized markup.
// A missing wait selector is not a failure; navigation timeout is.
type Renderer interface {
	Render(ctx context.Context, pageURL string, waitSelector string) (string, error)
}

// Mode selects the fetch strategy at construction time.
type Mode string

const (
	ModeStatic Mode = "static"
	ModeRender Mode = "render"
)

// Options configures a Client.
type Options struct {
	Mode           Mode
	MaxRetries     int           // static-mode attempt cap
	Timeout        time.Duration // per-attempt HTTP timeout, also the render budget
	RetryDelayBase time.Duration // backoff base for attempts 2..N
	RetryDelayMax  time.Duration // backoff ceiling
	MinDelay       time.Duration // human-pacing lower bound before attempt 1
	MaxDelay       time.Duration // human-pacing upper bound
	WaitSelector   string        // render-mode selector to wait for, best effort
	CacheSize      int           // LRU markup cache entries; 0 disables
}

// DefaultOptions mirrors the production pacing profile.
func DefaultOptions() Options {
	return Options{
		Mode:           ModeStatic,
		MaxRetries:     3,
		Timeout:        30 * time.Second,
		RetryDelayBase: 2 * time.Second,
		RetryDelayMax:  10 * time.Second,
		MinDelay:       2 * time.Second,
		MaxDelay:       5 * time.Second,
	}
}

// Client fetches markup for URLs. It holds no mutable state beyond the pacer
// and the optional cache, both of which are safe for concurrent use.
type Client struct {
	opts     Options
	rotator  *identity.Rotator
	renderer Renderer
	pacer    ratelimit.RateLimiter
	cache    *lru.Cache[string, string]
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New builds a Client. A renderer is required for ModeRender; passing none
// is a configuration error surfaced immediately rather than at first fetch.
func New(opts Options, rotator *identity.Rotator, renderer Renderer, m *metrics.Metrics, logger *slog.Logger) (*Client, error) {
	if opts.Mode == ModeRender && renderer == nil {
		return nil, errors.New("fetch: render mode configured but no renderer available")
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		opts:     opts,
		rotator:  rotator,
		renderer: renderer,
		pacer:    ratelimit.NewPacedLimiter(opts.MinDelay, opts.MaxDelay),
		logger:   logger.With("component", "fetch"),
		metrics:  m,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, string](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}
	return c, nil
}

// Fetch returns the markup for pageURL. On failure the returned error is a
// *FetchError carrying the classification of the final attempt.
func (c *Client) Fetch(ctx context.Context, pageURL string) (string, error) {
	if c.cache != nil {
		if markup, ok := c.cache.Get(pageURL); ok {
			return markup, nil
		}
	}

	var markup string
	var err error
	if c.opts.Mode == ModeRender {
		markup, err = c.fetchRendered(ctx, pageURL)
	} else {
		markup, err = c.fetchStatic(ctx, pageURL)
	}
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		c.cache.Add(pageURL, markup)
	}
	return markup, nil
}

func (c *Client) fetchRendered(ctx context.Context, pageURL string) (string, error) {
	c.metrics.IncFetch(string(ModeRender))

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	start := time.Now()
	markup, err := c.renderer.Render(ctx, pageURL, c.opts.WaitSelector)
	c.metrics.ObserveFetchDuration(time.Since(start))
	if err != nil {
		c.metrics.IncFetchError(string(KindRenderTimeout))
		return "", &FetchError{Kind: KindRenderTimeout, URL: pageURL, Err: err}
	}
	return markup, nil
}

func (c *Client) fetchStatic(ctx context.Context, pageURL string) (string, error) {
	var lastErr *FetchError

	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt == 1 {
			if err := c.pacer.Wait(ctx); err != nil {
				return "", &FetchError{Kind: KindTimeout, URL: pageURL, Err: err}
			}
		} else {
			if err := c.sleepBackoff(ctx, attempt); err != nil {
				return "", &FetchError{Kind: KindTimeout, URL: pageURL, Err: err}
			}
		}

		id := c.rotator.Next()
		c.metrics.IncFetch(string(ModeStatic))

		start := time.Now()
		body, ferr := c.attempt(ctx, pageURL, id)
		c.metrics.ObserveFetchDuration(time.Since(start))

		if ferr == nil {
			return body, nil
		}
		lastErr = ferr
		c.metrics.IncFetchError(string(ferr.Kind))
		c.logger.Warn("fetch attempt failed",
			"url", pageURL,
			"attempt", attempt,
			"max_retries", c.opts.MaxRetries,
			"kind", string(ferr.Kind),
			"error", ferr.Err,
		)

		if ctx.Err() != nil {
			break
		}
	}

	return "", lastErr
}

// attempt issues one GET with a fresh identity. Proxied attempts skip TLS
// verification: free proxy pools routinely terminate TLS with self-signed
// certs, and that risk is accepted for proxied traffic only.
func (c *Client) attempt(ctx context.Context, pageURL string, id identity.Identity) (string, *FetchError) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   c.opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if id.Proxy != "" {
		proxyURL, err := url.Parse(id.Proxy)
		if err != nil {
			return "", &FetchError{Kind: KindNetwork, URL: pageURL, Err: err}
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	// Each attempt gets its own transport, so its keep-alive sockets would
	// otherwise linger until GC.
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Transport: transport,
		Timeout:   c.opts.Timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &FetchError{Kind: KindNetwork, URL: pageURL, Err: err}
	}
	for k, v := range id.Headers {
		// Setting Accept-Encoding manually disables the transport's
		// transparent gzip handling, so leave that one to net/http.
		if http.CanonicalHeaderKey(k) == "Accept-Encoding" {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", &FetchError{Kind: classifyTransportError(err), URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, resp.Body)
		return "", &FetchError{Kind: KindHTTPStatus, URL: pageURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{Kind: KindNetwork, URL: pageURL, Err: err}
	}
	return string(body), nil
}

// sleepBackoff waits min(base * 2^(attempt-1), cap) plus up to one second of
// jitter before retry attempts.
func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	base := c.opts.RetryDelayBase
	if base <= 0 {
		return nil
	}
	delay := base << (attempt - 1)
	if max := c.opts.RetryDelayMax; max > 0 && delay > max {
		delay = max
	}
	delay += time.Duration(rand.Int63n(int64(time.Second)))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func classifyTransportError(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}
