// Package discovery resolves the page sample for a site audit: sitemap
// first, internal links from the seed crawl as fallback, then robots
// filtering and diversity sampling.
package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"time"

	"github.com/contextcli/context-cli/internal/fetcher"
	"github.com/contextcli/context-cli/internal/robots"
	"github.com/contextcli/context-cli/internal/types"
	"github.com/contextcli/context-cli/internal/urlutil"
)

const (
	maxChildSitemaps = 10
	maxSitemapURLs   = 500

	// Discovered URLs are filtered against the flagship crawler; a page a
	// site hides from GPTBot is not worth auditing for LLM readiness.
	filterAgent = "GPTBot"
)

var sitemapCandidates = []string{"/sitemap.xml", "/sitemap_index.xml"}

// sitemapDoc decodes both <urlset> and <sitemapindex> roots. Namespaced and
// namespace-free documents both unmarshal; real-world sitemaps often omit
// the namespace.
type sitemapDoc struct {
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// Discoverer resolves page samples for site audits.
type Discoverer struct {
	client *http.Client
	logger *slog.Logger
	rng    *rand.Rand
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithRand sets the shuffle source, letting tests make sampling
// deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(d *Discoverer) { d.rng = rng }
}

func NewDiscoverer(client *http.Client, logger *slog.Logger, opts ...Option) *Discoverer {
	d := &Discoverer{
		client: client,
		logger: logger.With("component", "discovery"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover resolves up to maxPages URLs to audit. The sample always starts
// with the seed. rules may be nil (no robots filtering); seedLinks is the
// spider fallback corpus when no sitemap yields URLs.
func (d *Discoverer) Discover(ctx context.Context, seedURL string, maxPages int, rules *robots.Rules, seedLinks []string) *types.DiscoveryResult {
	if maxPages < 1 {
		maxPages = 1
	}

	method := "sitemap"
	found := d.fromSitemaps(ctx, seedURL)
	if len(found) == 0 {
		method = "spider"
		found = seedLinks
	}
	urlsFound := len(found)

	candidates := d.filterAndDedup(seedURL, found, rules)
	sampled := d.diversitySample(seedURL, candidates, maxPages)

	d.logger.Debug("discovery complete",
		"method", method,
		"found", urlsFound,
		"sampled", len(sampled),
	)

	return &types.DiscoveryResult{
		Method:      method,
		URLsFound:   urlsFound,
		URLsSampled: sampled,
		Detail:      fmt.Sprintf("%s discovery found %d URLs, sampled %d", method, urlsFound, len(sampled)),
	}
}

// fromSitemaps tries the sitemap candidates at the seed's origin and returns
// the page URLs of the first candidate that yields any.
func (d *Discoverer) fromSitemaps(ctx context.Context, seedURL string) []string {
	origin := urlutil.Origin(seedURL)
	if origin == "" {
		return nil
	}

	for _, path := range sitemapCandidates {
		doc, err := d.fetchSitemap(ctx, origin+path)
		if err != nil {
			d.logger.Debug("sitemap candidate miss", "url", origin+path, "error", err)
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		urls := locs(doc.URLs)

		// Fan out into child sitemaps from an index document.
		children := locs(doc.Sitemaps)
		if len(children) > maxChildSitemaps {
			children = children[:maxChildSitemaps]
		}
		for _, child := range children {
			if len(urls) >= maxSitemapURLs {
				break
			}
			childDoc, err := d.fetchSitemap(ctx, child)
			if err != nil {
				d.logger.Debug("child sitemap failed, continuing", "url", child, "error", err)
				if ctx.Err() != nil {
					break
				}
				continue
			}
			urls = append(urls, locs(childDoc.URLs)...)
		}
		if len(urls) > maxSitemapURLs {
			urls = urls[:maxSitemapURLs]
		}

		if len(urls) > 0 {
			return urls
		}
	}
	return nil
}

func (d *Discoverer) fetchSitemap(ctx context.Context, sitemapURL string) (*sitemapDoc, error) {
	resp, err := fetcher.Do(ctx, d.client, http.MethodGet, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap returned HTTP %d", resp.StatusCode)
	}

	body, err := fetcher.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read sitemap: %w", err)
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}
	return &doc, nil
}

func locs(entries []sitemapLoc) []string {
	var out []string
	for _, e := range entries {
		if e.Loc != "" {
			out = append(out, e.Loc)
		}
	}
	return out
}

// filterAndDedup applies robots filtering, normalization, and first-wins
// dedup, dropping the seed itself (it is re-added at the head of the
// sample).
func (d *Discoverer) filterAndDedup(seedURL string, found []string, rules *robots.Rules) []string {
	seed := urlutil.Normalize(seedURL)

	var out []string
	seen := map[string]struct{}{seed: {}}

	for _, raw := range found {
		if rules != nil && !rules.Allowed(filterAgent, urlutil.PathWithQuery(raw)) {
			continue
		}
		u := urlutil.Normalize(raw)
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// diversitySample picks up to maxPages URLs, seed first, round-robining
// across first-path-segment groups so the sample spans site sections
// instead of draining one directory.
func (d *Discoverer) diversitySample(seedURL string, candidates []string, maxPages int) []string {
	sample := []string{urlutil.Normalize(seedURL)}
	if len(sample) >= maxPages || len(candidates) == 0 {
		return sample
	}

	groups := make(map[string][]string)
	for _, u := range candidates {
		seg := urlutil.FirstSegment(u)
		groups[seg] = append(groups[seg], u)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		d.rng.Shuffle(len(groups[k]), func(i, j int) {
			groups[k][i], groups[k][j] = groups[k][j], groups[k][i]
		})
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for len(sample) < maxPages && len(keys) > 0 {
		next := keys[:0]
		for _, k := range keys {
			if len(sample) >= maxPages {
				break
			}
			sample = append(sample, groups[k][0])
			groups[k] = groups[k][1:]
			if len(groups[k]) > 0 {
				next = append(next, k)
			}
		}
		keys = next
	}
	return sample
}
