package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/contextcli/context-cli/internal/types"
)

// BrowserPageFetcher renders pages in headless Chromium via Rod. Used when a
// site only exposes meaningful content after JavaScript runs.
type BrowserPageFetcher struct {
	browser   *rod.Browser
	converter *md.Converter
	logger    *slog.Logger
}

// NewBrowserPageFetcher launches a headless browser and connects to it.
func NewBrowserPageFetcher(logger *slog.Logger) (*BrowserPageFetcher, error) {
	launchURL, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &BrowserPageFetcher{
		browser:   browser,
		converter: md.NewConverter("", true, nil),
		logger:    logger.With("component", "browser_page_fetcher"),
	}, nil
}

// FetchPage renders a page and returns its HTML and Markdown. Navigation and
// render failures are reported in the result, not raised.
func (f *BrowserPageFetcher) FetchPage(ctx context.Context, rawURL string, timeout time.Duration) *types.PageResult {
	result := &types.PageResult{URL: rawURL}
	start := time.Now()

	page, err := stealth.Page(f.browser)
	if err != nil {
		result.Error = fmt.Sprintf("open page: %v", err)
		return result
	}
	defer page.Close()

	page = page.Context(ctx)
	if timeout > 0 {
		page = page.Timeout(timeout)
	}

	if err := page.Navigate(rawURL); err != nil {
		result.Error = browserErrorMessage(ctx, err, timeout)
		return result
	}

	// Best effort: render may keep mutating; audit the steady state we got.
	if err := page.WaitStable(300 * time.Millisecond); err != nil {
		f.logger.Warn("page stability timeout, continuing", "url", rawURL, "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		result.Error = browserErrorMessage(ctx, err, timeout)
		return result
	}

	result.HTML = html
	result.Success = true

	markdown, err := f.converter.ConvertString(html)
	if err != nil {
		f.logger.Warn("markdown conversion failed", "url", rawURL, "error", err)
	} else {
		result.Markdown = markdown
	}

	result.InternalLinks = extractInternalLinks(html, rawURL)

	f.logger.Debug("browser fetch complete",
		"url", rawURL,
		"size", len(html),
		"duration", time.Since(start),
	)
	return result
}

// Close shuts down the browser.
func (f *BrowserPageFetcher) Close() error {
	if f.browser != nil {
		return f.browser.Close()
	}
	return nil
}

func browserErrorMessage(ctx context.Context, err error, timeout time.Duration) string {
	// The audit-level context being live means a deadline error was the
	// per-page budget, not a cancellation.
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && timeout > 0 {
		return timeoutError(timeout)
	}
	return err.Error()
}
