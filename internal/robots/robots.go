// Package robots fetches a site's robots.txt once and evaluates it against
// the AI crawler user-agents that matter for LLM retrieval.
package robots

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/contextcli/context-cli/internal/fetcher"
	"github.com/contextcli/context-cli/internal/types"
	"github.com/contextcli/context-cli/internal/urlutil"
)

// DefaultBots is the built-in list of AI crawler user-agents checked on
// every audit. Callers may substitute their own list.
var DefaultBots = []string{
	"GPTBot",
	"ChatGPT-User",
	"Google-Extended",
	"ClaudeBot",
	"PerplexityBot",
	"Amazonbot",
	"OAI-SearchBot",
	"DeepSeek-AI",
	"Grok",
	"Meta-ExternalAgent",
	"cohere-ai",
	"AI2Bot",
	"ByteSpider",
}

// Analyzer evaluates robots.txt access for AI crawlers.
type Analyzer struct {
	client *http.Client
	logger *slog.Logger
	bots   []string
}

// NewAnalyzer creates an Analyzer. A nil or empty bot list selects
// DefaultBots.
func NewAnalyzer(client *http.Client, logger *slog.Logger, bots []string) *Analyzer {
	if len(bots) == 0 {
		bots = DefaultBots
	}
	return &Analyzer{
		client: client,
		logger: logger.With("component", "robots"),
		bots:   bots,
	}
}

// Analyze fetches {origin}/robots.txt and decides allow/deny per bot against
// the seed path. Fetch and parse failures are non-fatal: they collapse to a
// not-found report with a zero score.
func (a *Analyzer) Analyze(ctx context.Context, seedURL string) *types.RobotsReport {
	origin := urlutil.Origin(seedURL)
	if origin == "" {
		return &types.RobotsReport{Found: false, Detail: "invalid seed URL"}
	}

	robotsURL := origin + "/robots.txt"
	resp, err := fetcher.RequestWithRetry(ctx, a.client, http.MethodGet, robotsURL, fetcher.DefaultRetryConfig())
	if err != nil {
		a.logger.Debug("robots.txt unreachable", "url", robotsURL, "error", err)
		return &types.RobotsReport{Found: false, Detail: "robots.txt not reachable"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &types.RobotsReport{
			Found:  false,
			Detail: fmt.Sprintf("robots.txt returned HTTP %d", resp.StatusCode),
		}
	}

	body, err := fetcher.ReadBody(resp)
	if err != nil {
		a.logger.Debug("robots.txt read failed", "url", robotsURL, "error", err)
		return &types.RobotsReport{Found: false, Detail: "robots.txt not readable"}
	}

	rawText := string(body)
	rules := Parse(rawText)
	seedPath := urlutil.PathWithQuery(seedURL)

	report := &types.RobotsReport{
		Found:   true,
		RawText: rawText,
		Bots:    make([]types.BotAccess, 0, len(a.bots)),
	}

	allowed := 0
	for _, bot := range a.bots {
		ok := rules.Allowed(bot, seedPath)
		detail := "blocked by robots.txt"
		if ok {
			detail = "allowed"
			allowed++
		}
		report.Bots = append(report.Bots, types.BotAccess{Bot: bot, Allowed: ok, Detail: detail})
	}

	report.Detail = fmt.Sprintf("%d/%d AI bots allowed", allowed, len(a.bots))
	return report
}

// --- robots.txt parsing ---

// Rule is a single Allow or Disallow directive.
type Rule struct {
	Allow bool
	Path  string
}

// Group is a user-agent record: one or more agent tokens and their rules.
type Group struct {
	Agents []string
	Rules  []Rule
}

// Rules is a parsed robots.txt document.
type Rules struct {
	Groups []Group
}

// Parse parses robots.txt content into user-agent groups. Unknown
// directives and comments are ignored; an empty Disallow value disallows
// nothing and is dropped.
func Parse(content string) *Rules {
	rules := &Rules{}
	var current *Group
	lastWasAgent := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(strings.ToLower(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch key {
		case "user-agent":
			// Consecutive user-agent lines share one record.
			if current == nil || !lastWasAgent {
				rules.Groups = append(rules.Groups, Group{})
				current = &rules.Groups[len(rules.Groups)-1]
			}
			current.Agents = append(current.Agents, strings.ToLower(value))
			lastWasAgent = true
		case "disallow":
			if current != nil && value != "" {
				current.Rules = append(current.Rules, Rule{Allow: false, Path: value})
			}
			lastWasAgent = false
		case "allow":
			if current != nil && value != "" {
				current.Rules = append(current.Rules, Rule{Allow: true, Path: value})
			}
			lastWasAgent = false
		default:
			lastWasAgent = false
		}
	}

	return rules
}

// Allowed decides whether userAgent may fetch path. The most specific
// matching rule wins: an explicit group for the bot shadows the * group,
// and within the applicable groups the longest matching pattern decides,
// with Allow winning length ties. No matching rule means allowed.
func (r *Rules) Allowed(userAgent, path string) bool {
	if r == nil {
		return true
	}
	if path == "" {
		path = "/"
	}

	rules := r.rulesFor(userAgent)

	allow := true
	longest := -1
	for _, rule := range rules {
		if !matchPattern(rule.Path, path) {
			continue
		}
		l := len(rule.Path)
		if l > longest || (l == longest && rule.Allow) {
			longest = l
			allow = rule.Allow
		}
	}
	return allow
}

// rulesFor selects the rules that apply to a bot: its specific groups if
// any exist, otherwise the wildcard groups.
func (r *Rules) rulesFor(userAgent string) []Rule {
	agent := strings.ToLower(userAgent)

	var specific, wildcard []Rule
	for _, g := range r.Groups {
		for _, ga := range g.Agents {
			if ga == "*" {
				wildcard = append(wildcard, g.Rules...)
			} else if strings.Contains(agent, ga) || strings.Contains(ga, agent) {
				specific = append(specific, g.Rules...)
			}
		}
	}

	if len(specific) > 0 {
		return specific
	}
	return wildcard
}

// matchPattern checks if a URL path matches a robots.txt pattern.
// Supports * (any sequence) and $ (end of URL) wildcards.
func matchPattern(pattern, path string) bool {
	if pattern == "" {
		return false
	}

	endsWithDollar := strings.HasSuffix(pattern, "$")
	if endsWithDollar {
		pattern = pattern[:len(pattern)-1]
	}

	if strings.Contains(pattern, "*") {
		return matchWildcard(pattern, path, endsWithDollar)
	}

	if endsWithDollar {
		return path == pattern
	}
	return strings.HasPrefix(path, pattern)
}

// matchWildcard handles * wildcard matching in robots.txt patterns.
func matchWildcard(pattern, path string, mustEnd bool) bool {
	parts := strings.Split(pattern, "*")
	pos := 0

	for i, part := range parts {
		if part == "" {
			continue
		}
		idx := strings.Index(path[pos:], part)
		if idx < 0 {
			return false
		}
		if i == 0 && idx != 0 {
			// First part must match from the start
			return false
		}
		pos += idx + len(part)
	}

	if mustEnd {
		return pos == len(path)
	}
	return true
}
