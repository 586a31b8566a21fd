// Package app assembles the scrape pipeline from configuration: identity
// rotation, per-platform fetch clients, adapters, sink, and orchestrator.
// Both binaries build the same pipeline through here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/marketlens/price-intel-scraper/internal/adapters"
	"github.com/marketlens/price-intel-scraper/internal/browser"
	"github.com/marketlens/price-intel-scraper/internal/config"
	"github.com/marketlens/price-intel-scraper/internal/fetch"
	"github.com/marketlens/price-intel-scraper/internal/identity"
	"github.com/marketlens/price-intel-scraper/internal/metrics"
	"github.com/marketlens/price-intel-scraper/internal/orchestrator"
	"github.com/marketlens/price-intel-scraper/internal/sink"
)

// listingWaitSelectors tell a rendered fetch which element signals that the
// search results have actually materialized.
var listingWaitSelectors = map[string]string{
	"Amazon":   "div[data-component-type='s-search-result']",
	"Flipkart": "div._13oc-S",
}

// App is the assembled pipeline plus the resources that need closing.
type App struct {
	Orchestrator *orchestrator.Orchestrator
	Metrics      *metrics.Metrics
	Sink         sink.Sink

	browser *browser.Browser
	pg      *sink.PostgresSink
}

// Build wires the pipeline. The render capability is resolved here, once: if
// any platform is configured to require rendering and the browser cannot
// start, this is a startup error, not a mid-run surprise.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	m := metrics.New()
	rotator := identity.NewRotator(identity.Options{
		UserAgents: cfg.Scraper.UserAgents,
		Proxies:    cfg.Scraper.Proxies,
	})

	var renderer *browser.Browser
	if len(cfg.Scraper.RenderPlatforms) > 0 {
		b, err := browser.New(&browser.Options{
			Headless:       cfg.Browser.Headless,
			Timeout:        cfg.Browser.Timeout,
			AcceptLanguage: cfg.Browser.AcceptLanguage,
			TimezoneID:     cfg.Browser.TimezoneID,
			Locale:         cfg.Browser.Locale,
		})
		if err != nil {
			return nil, fmt.Errorf("platforms %v require rendering but the renderer is unavailable: %w",
				cfg.Scraper.RenderPlatforms, err)
		}
		renderer = b
	}

	app := &App{Metrics: m, browser: renderer}

	deliverySink, err := buildSink(ctx, cfg, app)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Sink = deliverySink

	orch := orchestrator.New(deliverySink, m, logger)
	platformAdapters := []adapters.Adapter{
		adapters.NewAmazon(cfg.Scraper.AmazonBaseURL),
		adapters.NewFlipkart(cfg.Scraper.FlipkartBaseURL),
	}
	for _, adapter := range platformAdapters {
		tag := adapter.PlatformTag()

		opts := fetch.Options{
			Mode:           fetch.ModeStatic,
			MaxRetries:     cfg.Scraper.MaxRetries,
			Timeout:        cfg.Scraper.RequestTimeout,
			RetryDelayBase: cfg.Scraper.RetryDelayBase,
			RetryDelayMax:  cfg.Scraper.RetryDelayMax,
			MinDelay:       cfg.Scraper.MinDelay,
			MaxDelay:       cfg.Scraper.MaxDelay,
			CacheSize:      cfg.Scraper.CacheSize,
		}
		if slices.Contains(cfg.Scraper.RenderPlatforms, tag) {
			opts.Mode = fetch.ModeRender
			opts.WaitSelector = listingWaitSelectors[tag]
		}

		var r fetch.Renderer
		if renderer != nil {
			r = renderer
		}
		client, err := fetch.New(opts, rotator, r, m, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("configure %s fetch client: %w", tag, err)
		}

		orch.Register(orchestrator.Platform{Adapter: adapter, Fetcher: client})
	}

	app.Orchestrator = orch
	return app, nil
}

func buildSink(ctx context.Context, cfg *config.Config, app *App) (sink.Sink, error) {
	if cfg.Sink.Postgres.Enabled {
		pg, err := sink.NewPostgresSink(ctx, sink.PostgresConfig{
			Host:        cfg.Sink.Postgres.Host,
			Port:        cfg.Sink.Postgres.Port,
			User:        cfg.Sink.Postgres.User,
			Password:    cfg.Sink.Postgres.Password,
			Database:    cfg.Sink.Postgres.Name,
			MaxConns:    cfg.Sink.Postgres.MaxConns,
			MaxConnLife: time.Hour,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres sink: %w", err)
		}
		app.pg = pg
		return pg, nil
	}
	return sink.NewHTTPSink(cfg.Sink.Endpoint, cfg.Sink.Timeout), nil
}

// Close releases the browser and database resources.
func (a *App) Close() {
	if a.browser != nil {
		a.browser.Close()
	}
	if a.pg != nil {
		a.pg.Close()
	}
}
