package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/contextcli/context-cli/internal/types"
)

// HTTPPageFetcher crawls pages over plain HTTP and converts the HTML to
// Markdown. It is the default PageFetcher; sites that require JavaScript
// rendering use the browser fetcher instead.
type HTTPPageFetcher struct {
	client    *http.Client
	converter *md.Converter
	logger    *slog.Logger
}

// NewHTTPPageFetcher creates a page fetcher sharing the audit's HTTP client.
func NewHTTPPageFetcher(client *http.Client, logger *slog.Logger) *HTTPPageFetcher {
	return &HTTPPageFetcher{
		client:    client,
		converter: md.NewConverter("", true, nil),
		logger:    logger.With("component", "http_page_fetcher"),
	}
}

// FetchPage crawls a single page. Failures come back in the result, never as
// a panic or error.
func (f *HTTPPageFetcher) FetchPage(ctx context.Context, rawURL string, timeout time.Duration) *types.PageResult {
	result := &types.PageResult{URL: rawURL}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := Do(ctx, f.client, http.MethodGet, rawURL)
	if err != nil {
		result.Error = fetchErrorMessage(err, timeout)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return result
	}

	body, err := ReadBody(resp)
	if err != nil {
		result.Error = fetchErrorMessage(err, timeout)
		return result
	}

	result.HTML = string(body)
	result.Success = true

	markdown, err := f.converter.ConvertString(result.HTML)
	if err != nil {
		f.logger.Warn("markdown conversion failed", "url", rawURL, "error", err)
	} else {
		result.Markdown = markdown
	}

	result.InternalLinks = extractInternalLinks(result.HTML, rawURL)

	f.logger.Debug("page fetched",
		"url", rawURL,
		"status", resp.StatusCode,
		"size", len(body),
		"links", len(result.InternalLinks),
		"duration", time.Since(start),
	)
	return result
}

// Close releases idle connections.
func (f *HTTPPageFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// fetchErrorMessage maps a fetch failure to the report-facing message,
// normalizing timeouts to the documented form.
func fetchErrorMessage(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) && timeout > 0 {
		return timeoutError(timeout)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() && timeout > 0 {
		return timeoutError(timeout)
	}
	return err.Error()
}
