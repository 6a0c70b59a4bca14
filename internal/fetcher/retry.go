package fetcher

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/contextcli/context-cli/internal/types"
)

// RetryConfig controls the exponential-backoff retry wrapper.
type RetryConfig struct {
	MaxRetries    int
	BackoffBase   time.Duration
	RetryOnStatus map[int]bool
}

// DefaultRetryConfig retries three times on rate limiting and server errors.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  3,
		BackoffBase: 500 * time.Millisecond,
		RetryOnStatus: map[int]bool{
			http.StatusTooManyRequests:     true,
			http.StatusInternalServerError: true,
			http.StatusBadGateway:          true,
			http.StatusServiceUnavailable:  true,
			http.StatusGatewayTimeout:      true,
		},
	}
}

// RequestWithRetry issues a request, retrying transient network errors and
// retryable statuses with exponential backoff (base · 2^attempt, jittered).
// A Retry-After header on 429 overrides the computed backoff.
//
// If every attempt fails at the network level the last error is returned as
// a FetchError. If the final attempt yields a retryable status, that
// response is returned rather than an error; the caller decides what a 503
// means for its pillar.
func RequestWithRetry(ctx context.Context, client *http.Client, method, url string, cfg RetryConfig) (*http.Response, error) {
	var lastErr error
	var wait time.Duration

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if wait <= 0 {
				wait = randomDelay(cfg.BackoffBase * (1 << (attempt - 1)))
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait = 0
		}

		resp, err := Do(ctx, client, method, url)
		if err != nil {
			retryable := isRetryableError(err)
			lastErr = &types.FetchError{URL: url, Err: err, Retryable: retryable}
			if !retryable {
				return nil, lastErr
			}
			continue
		}

		if cfg.RetryOnStatus[resp.StatusCode] && attempt < cfg.MaxRetries {
			if resp.StatusCode == http.StatusTooManyRequests {
				wait = parseRetryAfter(resp.Header.Get("Retry-After"))
			}
			resp.Body.Close()
			lastErr = nil
			continue
		}
		return resp, nil
	}

	return nil, lastErr
}

// parseRetryAfter reads a delay-seconds Retry-After value. HTTP-date values
// and garbage yield zero, falling back to the computed backoff.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
