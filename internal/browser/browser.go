// Package browser wraps a headless Chromium instance behind the pipeline's
// Renderer contract: execute a page's client-side logic and hand back the
// realized markup. Marketplaces that assemble listings in JavaScript cannot
// be scraped from the static response body.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	logger  *slog.Logger
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
}

type viewport struct {
	width  int
	height int
}

// viewports are rotated per context so renders do not share one fingerprint.
var viewports = []viewport{
	{1920, 1080},
	{1366, 768},
	{1536, 864},
	{1440, 900},
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		AcceptLanguage: "en-IN,en;q=0.9,hi;q=0.8",
		TimezoneID:     "Asia/Kolkata",
		Locale:         "en-IN",
	}
}

// New launches Chromium and prepares one stealth browser context.
func New(opts *Options) (*Browser, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultOptions().UserAgent
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
		},
	}
	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: opts.ProxyServer}
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	vp := viewports[rand.Intn(len(viewports))]
	contextOpts := playwright.BrowserNewContextOptions{
		UserAgent:         &opts.UserAgent,
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            &opts.Locale,
		TimezoneId:        &opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  vp.width,
			Height: vp.height,
		},
		ExtraHttpHeaders: map[string]string{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language":           opts.AcceptLanguage,
			"DNT":                       "1",
			"Upgrade-Insecure-Requests": "1",
		},
	}

	browserCtx, err := b.NewContext(contextOpts)
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	browserCtx.AddInitScript(playwright.Script{
		Content: playwright.String(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`),
	})

	return &Browser{
		pw:      pw,
		browser: b,
		context: browserCtx,
		logger:  slog.Default().With("component", "browser"),
	}, nil
}

// Render navigates to pageURL and returns the page content after client-side
// scripts have run. The wait selector is best effort: its own timeout is
// swallowed because partially settled markup is still usable. Navigation
// failure is the only error.
func (b *Browser) Render(ctx context.Context, pageURL string, waitSelector string) (string, error) {
	page, err := b.context.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	timeout := float64(30000)
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline).Milliseconds(); remaining > 0 {
			timeout = float64(remaining)
		}
	}

	_, err = page.Goto(pageURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(timeout),
	})
	if err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	if waitSelector != "" {
		// Absence of the selector does not fail the render.
		_, _ = page.WaitForSelector(waitSelector, playwright.PageWaitForSelectorOptions{
			Timeout: playwright.Float(5000),
		})
	}

	b.dismissInterstitial(page)

	content, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

// dismissInterstitial clicks through the "continue shopping" style pages some
// marketplaces serve before the real content. Best effort.
func (b *Browser) dismissInterstitial(page playwright.Page) {
	content, err := page.Content()
	if err != nil {
		return
	}
	if !strings.Contains(content, "Continue shopping") {
		return
	}

	selectors := []string{
		`button:has-text("Continue shopping")`,
		`input[type="submit"][value*="Continue"]`,
		`.a-button-primary`,
	}
	for _, selector := range selectors {
		button := page.Locator(selector).First()
		count, err := button.Count()
		if err != nil || count == 0 {
			continue
		}
		if err := button.Click(); err != nil {
			continue
		}
		b.logger.Debug("dismissed interstitial", "selector", selector)
		page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State: playwright.LoadStateDomcontentloaded,
		})
		return
	}
}

func (b *Browser) Close() error {
	var errs []error

	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}
