// Package orchestrator fans a query out across marketplace adapters, gathers
// canonical records, and drives delivery to the sink. Partial failure is the
// normal operating mode: one platform failing never aborts the others, and
// one rejected record never blocks the rest of a delivery pass.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marketlens/price-intel-scraper/internal/adapters"
	"github.com/marketlens/price-intel-scraper/internal/metrics"
	"github.com/marketlens/price-intel-scraper/internal/models"
	"github.com/marketlens/price-intel-scraper/internal/normalize"
	"github.com/marketlens/price-intel-scraper/internal/sink"
)

// Fetcher retrieves markup for a URL. *fetch.Client is the production
// implementation.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Platform pairs an adapter with its own fetch client so pacing and backoff
// state stay per marketplace.
type Platform struct {
	Adapter adapters.Adapter
	Fetcher Fetcher
}

// RunResult is what one scrape run produced.
type RunResult struct {
	Records []*models.CanonicalRecord
	Summary models.RunSummary
}

// Orchestrator owns the registered platforms and the delivery sink.
type Orchestrator struct {
	platforms map[string]Platform
	order     []string
	sink      sink.Sink
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New builds an orchestrator. Registration order defines the default platform
// order for runs that do not name platforms explicitly.
func New(s sink.Sink, m *metrics.Metrics, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		platforms: make(map[string]Platform),
		sink:      s,
		logger:    logger.With("component", "orchestrator"),
		metrics:   m,
	}
}

// Register adds a platform. Later registrations with the same tag replace
// earlier ones.
func (o *Orchestrator) Register(p Platform) {
	tag := p.Adapter.PlatformTag()
	if _, exists := o.platforms[tag]; !exists {
		o.order = append(o.order, tag)
	}
	o.platforms[tag] = p
}

// Platforms returns the registered platform tags in registration order.
func (o *Orchestrator) Platforms() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

type platformResult struct {
	records []*models.CanonicalRecord
	failure *models.PlatformFailure
}

// Run scrapes the requested platforms concurrently and aggregates records in
// requested-platform order, never completion order. Cancellation propagates
// to in-flight fetches; platforms that finished before cancellation still
// contribute their records.
func (o *Orchestrator) Run(ctx context.Context, query string, limit int, platforms []string) *RunResult {
	if len(platforms) == 0 {
		platforms = o.Platforms()
	}
	start := time.Now()
	runID := uuid.New().String()

	o.logger.Info("starting run",
		"run_id", runID,
		"query", query,
		"limit", limit,
		"platforms", platforms,
	)

	results := make([]platformResult, len(platforms))
	var wg sync.WaitGroup
	for i, tag := range platforms {
		wg.Add(1)
		go func(i int, tag string) {
			defer wg.Done()
			results[i] = o.scrapePlatform(ctx, tag, query, limit)
		}(i, tag)
	}
	wg.Wait()

	var records []*models.CanonicalRecord
	var failures []models.PlatformFailure
	for _, res := range results {
		if res.failure != nil {
			failures = append(failures, *res.failure)
			continue
		}
		records = append(records, res.records...)
	}

	summary := models.RunSummary{
		RunID:     runID,
		Query:     query,
		Platforms: platforms,
		Records:   len(records),
		Failures:  failures,
		StartedAt: start.UTC(),
		Duration:  time.Since(start),
	}

	o.logger.Info("run finished",
		"run_id", runID,
		"records", len(records),
		"platform_failures", len(failures),
		"duration", summary.Duration,
	)

	return &RunResult{Records: records, Summary: summary}
}

func (o *Orchestrator) scrapePlatform(ctx context.Context, tag, query string, limit int) platformResult {
	fail := func(reason string) platformResult {
		o.metrics.IncPlatformFailure(tag)
		o.logger.Warn("platform failed", "platform", tag, "reason", reason)
		return platformResult{failure: &models.PlatformFailure{Platform: tag, Reason: reason}}
	}

	platform, ok := o.platforms[tag]
	if !ok {
		return fail("platform not configured")
	}

	searchURL := platform.Adapter.BuildSearchURL(query)
	markup, err := platform.Fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return fail(err.Error())
	}

	fields := adapters.Trim(platform.Adapter.ParseListing(markup), limit)

	var records []*models.CanonicalRecord
	for _, field := range fields {
		if record := normalize.BuildRecord(field); record != nil {
			records = append(records, record)
		}
	}
	if len(records) == 0 {
		return fail("no usable records in listing")
	}

	o.metrics.IncRecords(tag, len(records))
	o.logger.Info("platform scraped", "platform", tag, "records", len(records))
	return platformResult{records: records}
}

// ScrapeProduct fetches and normalizes a single product-detail page.
func (o *Orchestrator) ScrapeProduct(ctx context.Context, tag, pageURL string) (*models.CanonicalRecord, error) {
	platform, ok := o.platforms[tag]
	if !ok {
		return nil, fmt.Errorf("platform %q not configured", tag)
	}

	markup, err := platform.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	field := platform.Adapter.ParseProduct(markup, pageURL)
	if field == nil {
		return nil, fmt.Errorf("no product found at %s", pageURL)
	}

	record := normalize.BuildRecord(*field)
	if record == nil {
		return nil, fmt.Errorf("no product found at %s", pageURL)
	}
	o.metrics.IncRecords(tag, 1)
	return record, nil
}

// Deliver pushes records to the sink one at a time. A rejected record is
// reported and skipped, never fatal. On cancellation the remaining records
// are reported as failed rather than silently dropped.
func (o *Orchestrator) Deliver(ctx context.Context, records []*models.CanonicalRecord) models.DeliveryReport {
	var report models.DeliveryReport

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, models.RecordError{
				Index:  i,
				URL:    record.URL,
				Reason: err.Error(),
			})
			o.metrics.IncDelivery("cancelled")
			continue
		}

		if err := o.sink.Send(ctx, record); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, models.RecordError{
				Index:  i,
				URL:    record.URL,
				Reason: err.Error(),
			})
			o.metrics.IncDelivery("failed")
			o.logger.Warn("delivery failed",
				"index", i,
				"url", record.URL,
				"error", err,
			)
			continue
		}

		report.Sent++
		o.metrics.IncDelivery("sent")
	}

	o.logger.Info("delivery finished", "sent", report.Sent, "failed", report.Failed)
	return report
}
