// Package audit orchestrates the full LLM-readiness pipeline: site-wide
// probes, page discovery, per-page analysis, and scoring.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/contextcli/context-cli/internal/content"
	"github.com/contextcli/context-cli/internal/discovery"
	"github.com/contextcli/context-cli/internal/fetcher"
	"github.com/contextcli/context-cli/internal/llmstxt"
	"github.com/contextcli/context-cli/internal/robots"
	"github.com/contextcli/context-cli/internal/schema"
	"github.com/contextcli/context-cli/internal/scoring"
	"github.com/contextcli/context-cli/internal/types"
	"github.com/contextcli/context-cli/internal/urlutil"
)

// Options tune one audit run.
type Options struct {
	Timeout        time.Duration // per-request HTTP timeout
	MaxPages       int           // page sample cap for site audits
	Concurrency    int           // page-fetch parallelism
	Stagger        time.Duration // delay between page-fetch launches
	PerPageTimeout time.Duration // budget around one full page crawl
	Bots           []string      // overrides robots.DefaultBots when set
	Progress       func(string)  // best-effort status callback
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.MaxPages <= 0 {
		o.MaxPages = 10
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	if o.Stagger <= 0 {
		o.Stagger = fetcher.DefaultStagger
	}
	if o.PerPageTimeout <= 0 {
		o.PerPageTimeout = o.Timeout
	}
	return o
}

// Auditor runs single-page and site-wide audits. One Auditor owns one HTTP
// client; page fetching goes through a swappable PageFetcher so the browser
// backend can be plugged in.
type Auditor struct {
	opts     Options
	client   *http.Client
	logger   *slog.Logger
	pages    fetcher.PageFetcher
	robots   *robots.Analyzer
	llms     *llmstxt.Prober
	discover *discovery.Discoverer
}

// New builds an Auditor with the HTTP page fetcher.
func New(opts Options, logger *slog.Logger) *Auditor {
	opts = opts.withDefaults()
	client := fetcher.NewClient(opts.Timeout)
	return &Auditor{
		opts:     opts,
		client:   client,
		logger:   logger.With("component", "audit"),
		pages:    fetcher.NewHTTPPageFetcher(client, logger),
		robots:   robots.NewAnalyzer(client, logger, opts.Bots),
		llms:     llmstxt.NewProber(client, logger),
		discover: discovery.NewDiscoverer(client, logger),
	}
}

// SetPageFetcher swaps the page-crawl backend, closing the previous one.
func (a *Auditor) SetPageFetcher(f fetcher.PageFetcher) {
	if a.pages != nil {
		a.pages.Close()
	}
	a.pages = f
}

// Close releases the page fetcher and idle connections.
func (a *Auditor) Close() error {
	a.client.CloseIdleConnections()
	if a.pages != nil {
		return a.pages.Close()
	}
	return nil
}

func (a *Auditor) progress(msg string) {
	if a.opts.Progress != nil {
		a.opts.Progress(msg)
	}
}

// normalizeSeed validates and canonicalizes the input URL.
func normalizeSeed(rawURL string) (string, error) {
	seed := urlutil.Normalize(urlutil.EnsureScheme(rawURL))
	parsed, err := url.Parse(seed)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidURL, rawURL)
	}
	return seed, nil
}

// AuditURL audits a single page: robots and llms.txt site-wide, then
// JSON-LD and content analysis of the one page.
func (a *Auditor) AuditURL(ctx context.Context, rawURL string) (*types.AuditReport, error) {
	seed, err := normalizeSeed(rawURL)
	if err != nil {
		return nil, err
	}

	report := &types.AuditReport{URL: seed}

	a.progress("checking robots.txt and llms.txt")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Robots = a.robots.Analyze(gctx, seed)
		return nil
	})
	g.Go(func() error {
		report.LlmsTxt = a.llms.Probe(gctx, seed)
		return nil
	})
	g.Wait()

	a.progress("fetching page")
	page := a.pages.FetchPage(ctx, seed, a.opts.PerPageTimeout)

	if page.Success {
		a.progress("analyzing content")
		report.SchemaOrg = schema.Extract(page.HTML)
		report.Content = content.Analyze(page.Markdown)
	} else {
		report.SchemaOrg = &types.SchemaReport{}
		report.Content = &types.ContentReport{HeadingHierarchyValid: true}
		if page.Error != "" {
			report.Errors = append(report.Errors, page.Error)
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	scoring.Apply(report)
	a.logger.Info("page audit complete", "url", seed, "overall", report.OverallScore)
	return report, nil
}

// AuditSite audits a whole site: the three site-wide probes run in
// parallel, discovery resolves a diverse page sample, the sample is crawled
// concurrently, and per-page results aggregate depth-weighted into the
// site report.
func (a *Auditor) AuditSite(ctx context.Context, rawURL string) (*types.SiteAuditReport, error) {
	seed, err := normalizeSeed(rawURL)
	if err != nil {
		return nil, err
	}
	parsed, _ := url.Parse(seed)

	report := &types.SiteAuditReport{URL: seed, Domain: parsed.Host}
	var seedPage *types.PageResult

	a.progress("running site-wide checks")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Robots = a.robots.Analyze(gctx, seed)
		return nil
	})
	g.Go(func() error {
		report.LlmsTxt = a.llms.Probe(gctx, seed)
		return nil
	})
	g.Go(func() error {
		seedPage = a.pages.FetchPage(gctx, seed, a.opts.PerPageTimeout)
		return nil
	})
	g.Wait()

	// Discovery needs the robots verdicts, so it runs after the join.
	a.progress("discovering pages")
	var rules *robots.Rules
	if report.Robots.Found {
		rules = robots.Parse(report.Robots.RawText)
	}
	report.Discovery = a.discover.Discover(ctx, seed, a.opts.MaxPages, rules, seedPage.InternalLinks)

	rest := report.Discovery.URLsSampled[1:]
	a.progress(fmt.Sprintf("auditing %d pages", len(rest)+1))
	results := fetcher.FetchPages(ctx, a.pages, rest, a.opts.Concurrency, a.opts.Stagger, a.opts.PerPageTimeout)

	pages := append([]*types.PageResult{seedPage}, results...)
	for _, p := range pages {
		report.Pages = append(report.Pages, auditPage(p))
		if p.Success {
			report.PagesAudited++
		} else {
			report.PagesFailed++
			if p.Error != "" {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", p.URL, p.Error))
			}
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	a.progress("scoring")
	report.SchemaOrg, report.Content, err = aggregatePages(report.Pages)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
	}
	scoring.ScoreRobots(report.Robots)
	scoring.ScoreLlmsTxt(report.LlmsTxt)
	report.OverallScore = report.Robots.Score + report.LlmsTxt.Score +
		report.SchemaOrg.Score + report.Content.Score

	a.logger.Info("site audit complete",
		"url", seed,
		"overall", report.OverallScore,
		"pages_audited", report.PagesAudited,
		"pages_failed", report.PagesFailed,
	)
	return report, nil
}

// auditPage runs the per-page analyzers over one fetch result.
func auditPage(p *types.PageResult) *types.PageAudit {
	pa := &types.PageAudit{URL: p.URL}
	if !p.Success {
		pa.SchemaOrg = &types.SchemaReport{}
		pa.Content = &types.ContentReport{HeadingHierarchyValid: true}
		if p.Error != "" {
			pa.Errors = append(pa.Errors, p.Error)
		}
		return pa
	}
	pa.SchemaOrg = schema.Extract(p.HTML)
	pa.Content = content.Analyze(p.Markdown)
	scoring.ScoreSchema(pa.SchemaOrg)
	scoring.ScoreContent(pa.Content)
	return pa
}

// depthWeight favors shallow pages: the homepage and top-level sections
// say more about a site than deep leaves.
func depthWeight(pageURL string) int {
	switch d := urlutil.Depth(pageURL); {
	case d <= 1:
		return 3
	case d == 2:
		return 2
	default:
		return 1
	}
}

// aggregatePages folds per-page schema and content results into the
// site-level reports using depth-weighted means. Pages with no words and
// errors are excluded.
func aggregatePages(pages []*types.PageAudit) (*types.SchemaReport, *types.ContentReport, error) {
	siteSchema := &types.SchemaReport{}
	siteContent := &types.ContentReport{HeadingHierarchyValid: true}

	var totalWeight, schemaSum, contentSum, wordSum float64
	for _, p := range pages {
		siteSchema.BlocksFound += p.SchemaOrg.BlocksFound
		siteSchema.Schemas = append(siteSchema.Schemas, p.SchemaOrg.Schemas...)

		if p.Content.WordCount == 0 && len(p.Errors) > 0 {
			continue
		}
		w := depthWeight(p.URL)
		if w <= 0 {
			return siteSchema, siteContent, fmt.Errorf("%w: %d for %s", types.ErrBadWeight, w, p.URL)
		}
		totalWeight += float64(w)
		schemaSum += float64(w) * p.SchemaOrg.Score
		contentSum += float64(w) * p.Content.Score
		wordSum += float64(w) * float64(p.Content.WordCount)

		if p.Content.HasHeadings {
			siteContent.HasHeadings = true
		}
		if p.Content.HasLists {
			siteContent.HasLists = true
		}
		if p.Content.HasCodeBlocks {
			siteContent.HasCodeBlocks = true
		}
	}

	if totalWeight > 0 {
		siteSchema.Score = round1(schemaSum / totalWeight)
		siteContent.Score = round1(contentSum / totalWeight)
		siteContent.WordCount = int(wordSum / totalWeight)
	}
	siteSchema.Detail = fmt.Sprintf("%d JSON-LD blocks across %d pages", siteSchema.BlocksFound, len(pages))
	siteContent.Detail = fmt.Sprintf("weighted average of %d pages", len(pages))
	return siteSchema, siteContent, nil
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
