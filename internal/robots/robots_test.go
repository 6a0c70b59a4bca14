package robots

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testServer(t *testing.T, robotsBody string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(status)
			w.Write([]byte(robotsBody))
			return
		}
		w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeAllAllowed(t *testing.T) {
	srv := testServer(t, "User-agent: *\nDisallow: /admin\n", http.StatusOK)

	a := NewAnalyzer(&http.Client{Timeout: 5 * time.Second}, testLogger(), nil)
	report := a.Analyze(context.Background(), srv.URL+"/")

	if !report.Found {
		t.Fatalf("expected robots.txt found, detail=%q", report.Detail)
	}
	if len(report.Bots) != len(DefaultBots) {
		t.Fatalf("expected %d bots, got %d", len(DefaultBots), len(report.Bots))
	}
	for _, b := range report.Bots {
		if !b.Allowed {
			t.Errorf("bot %s unexpectedly blocked", b.Bot)
		}
	}
	if report.Detail != "13/13 AI bots allowed" {
		t.Errorf("detail = %q", report.Detail)
	}
}

func TestAnalyzeGPTBotBlocked(t *testing.T) {
	srv := testServer(t, "User-agent: GPTBot\nDisallow: /\n\nUser-agent: *\nDisallow:\n", http.StatusOK)

	a := NewAnalyzer(&http.Client{Timeout: 5 * time.Second}, testLogger(), nil)
	report := a.Analyze(context.Background(), srv.URL+"/")

	allowed := 0
	for _, b := range report.Bots {
		if b.Bot == "GPTBot" && b.Allowed {
			t.Error("GPTBot should be blocked")
		}
		if b.Allowed {
			allowed++
		}
	}
	if allowed != len(DefaultBots)-1 {
		t.Errorf("allowed = %d, want %d", allowed, len(DefaultBots)-1)
	}
	if report.Detail != "12/13 AI bots allowed" {
		t.Errorf("detail = %q", report.Detail)
	}
}

func TestAnalyzeCustomBots(t *testing.T) {
	srv := testServer(t, "User-agent: BadBot\nDisallow: /\n", http.StatusOK)

	a := NewAnalyzer(&http.Client{Timeout: 5 * time.Second}, testLogger(), []string{"GoodBot", "BadBot"})
	report := a.Analyze(context.Background(), srv.URL+"/")

	if len(report.Bots) != 2 {
		t.Fatalf("expected 2 bots, got %d", len(report.Bots))
	}
	if !report.Bots[0].Allowed || report.Bots[0].Bot != "GoodBot" {
		t.Errorf("GoodBot entry wrong: %+v", report.Bots[0])
	}
	if report.Bots[1].Allowed {
		t.Error("BadBot should be blocked")
	}
	if report.Detail != "1/2 AI bots allowed" {
		t.Errorf("detail = %q", report.Detail)
	}
}

func TestAnalyzeMissingRobots(t *testing.T) {
	srv := testServer(t, "not found", http.StatusNotFound)

	a := NewAnalyzer(&http.Client{Timeout: 5 * time.Second}, testLogger(), nil)
	report := a.Analyze(context.Background(), srv.URL+"/")

	if report.Found {
		t.Error("expected Found=false for 404 robots.txt")
	}
	if len(report.Bots) != 0 {
		t.Errorf("expected no bot entries, got %d", len(report.Bots))
	}
}

func TestParseGroups(t *testing.T) {
	content := `# comment
User-agent: GPTBot
User-agent: ClaudeBot
Disallow: /private
Allow: /private/faq

User-agent: *
Disallow: /tmp
Crawl-delay: 10
`
	rules := Parse(content)
	if len(rules.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(rules.Groups))
	}
	if len(rules.Groups[0].Agents) != 2 {
		t.Errorf("first group agents = %v", rules.Groups[0].Agents)
	}
	if len(rules.Groups[0].Rules) != 2 {
		t.Errorf("first group rules = %v", rules.Groups[0].Rules)
	}
	if len(rules.Groups[1].Rules) != 1 {
		t.Errorf("wildcard group rules = %v", rules.Groups[1].Rules)
	}
}

func TestAllowedPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		content string
		agent   string
		path    string
		want    bool
	}{
		{
			name:    "no rules means allowed",
			content: "",
			agent:   "GPTBot",
			path:    "/",
			want:    true,
		},
		{
			name:    "wildcard disallow all",
			content: "User-agent: *\nDisallow: /",
			agent:   "GPTBot",
			path:    "/blog",
			want:    false,
		},
		{
			name:    "specific group shadows wildcard",
			content: "User-agent: *\nDisallow: /\n\nUser-agent: GPTBot\nAllow: /",
			agent:   "GPTBot",
			path:    "/blog",
			want:    true,
		},
		{
			name:    "longest match wins",
			content: "User-agent: *\nDisallow: /docs\nAllow: /docs/public",
			agent:   "GPTBot",
			path:    "/docs/public/intro",
			want:    true,
		},
		{
			name:    "allow wins length tie",
			content: "User-agent: *\nDisallow: /page\nAllow: /page",
			agent:   "GPTBot",
			path:    "/page",
			want:    true,
		},
		{
			name:    "dollar anchors end",
			content: "User-agent: *\nDisallow: /exact$",
			agent:   "GPTBot",
			path:    "/exact/sub",
			want:    true,
		},
		{
			name:    "dollar matches exact",
			content: "User-agent: *\nDisallow: /exact$",
			agent:   "GPTBot",
			path:    "/exact",
			want:    false,
		},
		{
			name:    "star wildcard",
			content: "User-agent: *\nDisallow: /*.pdf$",
			agent:   "GPTBot",
			path:    "/files/report.pdf",
			want:    false,
		},
		{
			name:    "case-insensitive agent match",
			content: "User-agent: gptbot\nDisallow: /",
			agent:   "GPTBot",
			path:    "/",
			want:    false,
		},
		{
			name:    "empty disallow allows everything",
			content: "User-agent: *\nDisallow:",
			agent:   "GPTBot",
			path:    "/anything",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := Parse(tt.content)
			if got := rules.Allowed(tt.agent, tt.path); got != tt.want {
				t.Errorf("Allowed(%q, %q) = %v, want %v", tt.agent, tt.path, got, tt.want)
			}
		})
	}
}
