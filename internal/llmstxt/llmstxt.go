// Package llmstxt probes a site for llms.txt, the plain-text manifest some
// sites publish to guide LLM crawlers.
package llmstxt

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/contextcli/context-cli/internal/fetcher"
	"github.com/contextcli/context-cli/internal/types"
	"github.com/contextcli/context-cli/internal/urlutil"
)

// Candidate locations, root first. The standard and full manifests are
// probed independently; either one is enough for the pillar.
var (
	llmsPaths     = []string{"/llms.txt", "/.well-known/llms.txt"}
	llmsFullPaths = []string{"/llms-full.txt", "/.well-known/llms-full.txt"}
)

// Prober checks the well-known llms.txt locations on a site.
type Prober struct {
	client *http.Client
	logger *slog.Logger
}

func NewProber(client *http.Client, logger *slog.Logger) *Prober {
	return &Prober{
		client: client,
		logger: logger.With("component", "llmstxt"),
	}
}

// Probe requests each candidate location until one returns HTTP 200 with a
// non-whitespace body, for both the standard and the full manifest. Network
// failures on a candidate count as a miss and probing continues.
func (p *Prober) Probe(ctx context.Context, seedURL string) *types.LlmsTxtReport {
	origin := urlutil.Origin(seedURL)
	if origin == "" {
		return &types.LlmsTxtReport{Found: false, Detail: "invalid seed URL"}
	}

	report := &types.LlmsTxtReport{}
	report.Found, report.URL = p.firstHit(ctx, origin, llmsPaths)
	report.LlmsFullFound, report.LlmsFullURL = p.firstHit(ctx, origin, llmsFullPaths)

	switch {
	case report.Found && report.LlmsFullFound:
		report.Detail = "llms.txt and llms-full.txt present"
	case report.Found:
		report.Detail = "llms.txt present"
	case report.LlmsFullFound:
		report.Detail = "llms-full.txt present"
	default:
		report.Detail = "no llms.txt found"
	}
	return report
}

// firstHit probes paths in order and returns the first URL that answers 200
// with non-whitespace content.
func (p *Prober) firstHit(ctx context.Context, origin string, paths []string) (bool, string) {
	for _, path := range paths {
		candidate := origin + path

		resp, err := fetcher.Do(ctx, p.client, http.MethodGet, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return false, ""
			}
			p.logger.Debug("llms.txt probe failed", "url", candidate, "error", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			continue
		}

		body, err := fetcher.ReadBody(resp)
		resp.Body.Close()
		if err != nil {
			p.logger.Debug("llms.txt read failed", "url", candidate, "error", err)
			continue
		}
		if strings.TrimSpace(string(body)) == "" {
			// Soft-200 with an empty page does not count as a manifest.
			continue
		}

		p.logger.Debug("llms.txt found", "url", candidate)
		return true, candidate
	}
	return false, ""
}
