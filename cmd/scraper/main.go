package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/marketlens/price-intel-scraper/internal/app"
	"github.com/marketlens/price-intel-scraper/internal/config"
	"github.com/marketlens/price-intel-scraper/internal/models"
	"github.com/marketlens/price-intel-scraper/internal/sink"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	query := flag.String("query", "", "Product search query (required)")
	limit := flag.Int("limit", cfg.Scraper.DefaultLimit, "Maximum results per platform")
	platforms := flag.String("platforms", "", "Comma-separated platform tags (default: all configured)")
	endpoint := flag.String("endpoint", cfg.Sink.Endpoint, "Ingestion endpoint URL")
	skipDelivery := flag.Bool("skip-delivery", false, "Scrape without sending records to the sink")
	output := flag.String("output", "", "Write records to a JSON file (empty: no file)")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	logger := newLogger(cfg.Logging.Format, *verbose)
	slog.SetDefault(logger)

	if *query == "" {
		fmt.Fprintln(os.Stderr, "usage: scraper -query <product> [-limit N] [-platforms Amazon,Flipkart]")
		os.Exit(1)
	}
	cfg.Sink.Endpoint = *endpoint
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	var requested []string
	if *platforms != "" {
		requested = strings.Split(*platforms, ",")
	}

	result := application.Orchestrator.Run(ctx, *query, *limit, requested)

	if *output != "" {
		if err := sink.DumpRecords(result.Records, *output); err != nil {
			logger.Error("failed to write output file", "path", *output, "error", err)
		} else {
			logger.Info("wrote output file", "path", *output, "records", len(result.Records))
		}
	}

	var report *models.DeliveryReport
	if !*skipDelivery && len(result.Records) > 0 {
		r := application.Orchestrator.Deliver(ctx, result.Records)
		report = &r
	}

	printSummary(result.Summary, report, *output)
	if code := exitCode(*skipDelivery, len(result.Records)); code != 0 {
		os.Exit(code)
	}
}

// exitCode maps a run's outcome to a process status. Partial per-platform
// failures and even a fully failed delivery still exit 0 as long as records
// were scraped; only a run that accomplished zero usable work fails.
func exitCode(skipDelivery bool, records int) int {
	if !skipDelivery && records == 0 {
		return 1
	}
	return 0
}

func printSummary(summary models.RunSummary, report *models.DeliveryReport, outputPath string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Query:        %s\n", summary.Query)
	fmt.Printf("  Platforms:    %s\n", strings.Join(summary.Platforms, ", "))
	fmt.Printf("  Records:      %d\n", summary.Records)
	for _, failure := range summary.Failures {
		fmt.Printf("  Failed:       %s (%s)\n", failure.Platform, failure.Reason)
	}
	if report != nil {
		fmt.Printf("  Delivered:    %d sent, %d failed\n", report.Sent, report.Failed)
		for _, recErr := range report.Errors {
			fmt.Printf("    record %d: %s\n", recErr.Index, recErr.Reason)
		}
	}
	if outputPath != "" {
		fmt.Printf("  Output file:  %s\n", outputPath)
	}
	fmt.Printf("  Duration:     %v\n", summary.Duration)
	fmt.Println(separator)
}

func newLogger(format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
