package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/contextcli/context-cli/internal/types"
)

// PageFetcher is the page-crawl collaborator consumed by the orchestrator.
// Implementations never return a Go error for a failed page; failures come
// back as PageResult{Success: false, Error: "..."}.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string, timeout time.Duration) *types.PageResult
	Close() error
}

// DefaultStagger spaces out page-fetch launches to avoid thundering a site.
const DefaultStagger = 1 * time.Second

// FetchPages crawls urls concurrently through f. Launches are staggered
// (task i sleeps stagger·i before acquiring a slot), in-flight work is
// bounded by maxConcurrent, and results come back indexed to the input
// order regardless of completion order.
func FetchPages(ctx context.Context, f PageFetcher, urls []string, maxConcurrent int, stagger, perPage time.Duration) []*types.PageResult {
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}

	results := make([]*types.PageResult, len(urls))
	sem := semaphore.NewWeighted(int64(maxConcurrent))
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, pageURL string) {
			defer wg.Done()

			if stagger > 0 && idx > 0 {
				select {
				case <-ctx.Done():
					results[idx] = cancelledResult(pageURL, ctx.Err())
					return
				case <-time.After(stagger * time.Duration(idx)):
				}
			}

			if err := sem.Acquire(ctx, 1); err != nil {
				results[idx] = cancelledResult(pageURL, err)
				return
			}
			defer sem.Release(1)

			results[idx] = f.FetchPage(ctx, pageURL, perPage)
		}(i, u)
	}

	wg.Wait()
	return results
}

func cancelledResult(url string, err error) *types.PageResult {
	return &types.PageResult{
		URL:     url,
		Success: false,
		Error:   fmt.Sprintf("fetch aborted: %v", err),
	}
}

// timeoutError formats the per-page timeout message surfaced in reports.
func timeoutError(perPage time.Duration) string {
	return fmt.Sprintf("Timed out after %.0fs", perPage.Seconds())
}
