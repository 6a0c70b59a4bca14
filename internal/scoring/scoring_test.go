package scoring

import (
	"testing"

	"github.com/contextcli/context-cli/internal/types"
)

func TestScoreRobotsProportional(t *testing.T) {
	r := &types.RobotsReport{Found: true}
	for i := 0; i < 13; i++ {
		r.Bots = append(r.Bots, types.BotAccess{Bot: "bot", Allowed: i != 0})
	}

	ScoreRobots(r)

	if r.Score != 23.1 {
		t.Errorf("score = %v, want 23.1 for 12/13 allowed", r.Score)
	}
}

func TestScoreRobotsAllAllowed(t *testing.T) {
	r := &types.RobotsReport{Found: true, Bots: []types.BotAccess{
		{Bot: "A", Allowed: true},
		{Bot: "B", Allowed: true},
	}}

	ScoreRobots(r)

	if r.Score != 25.0 {
		t.Errorf("score = %v, want 25", r.Score)
	}
}

func TestScoreRobotsNotFound(t *testing.T) {
	r := &types.RobotsReport{Found: false}
	ScoreRobots(r)
	if r.Score != 0 {
		t.Errorf("score = %v, want 0", r.Score)
	}
}

func TestScoreLlmsTxt(t *testing.T) {
	tests := []struct {
		name   string
		report types.LlmsTxtReport
		want   float64
	}{
		{"standard found", types.LlmsTxtReport{Found: true}, 10},
		{"full found", types.LlmsTxtReport{LlmsFullFound: true}, 10},
		{"both found", types.LlmsTxtReport{Found: true, LlmsFullFound: true}, 10},
		{"neither", types.LlmsTxtReport{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ScoreLlmsTxt(&tt.report)
			if tt.report.Score != tt.want {
				t.Errorf("score = %v, want %v", tt.report.Score, tt.want)
			}
		})
	}
}

func TestScoreSchema(t *testing.T) {
	tests := []struct {
		name    string
		schemas []types.SchemaOrgResult
		want    float64
	}{
		{"no blocks", nil, 0},
		{"one standard", []types.SchemaOrgResult{{SchemaType: "WebSite"}}, 11},
		{"one high-value", []types.SchemaOrgResult{{SchemaType: "FAQPage"}}, 13},
		{"duplicates collapse", []types.SchemaOrgResult{{SchemaType: "Article"}, {SchemaType: "Article"}}, 13},
		{
			"mixed",
			[]types.SchemaOrgResult{{SchemaType: "FAQPage"}, {SchemaType: "HowTo"}, {SchemaType: "WebSite"}},
			21,
		},
		{
			"capped at 25",
			[]types.SchemaOrgResult{
				{SchemaType: "FAQPage"}, {SchemaType: "HowTo"}, {SchemaType: "Article"},
				{SchemaType: "Product"}, {SchemaType: "Recipe"},
			},
			25,
		},
		{"comma-joined high-value", []types.SchemaOrgResult{{SchemaType: "Article,BlogPosting"}}, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &types.SchemaReport{BlocksFound: len(tt.schemas), Schemas: tt.schemas}
			ScoreSchema(r)
			if r.Score != tt.want {
				t.Errorf("score = %v, want %v", r.Score, tt.want)
			}
		})
	}
}

func TestScoreContent(t *testing.T) {
	tests := []struct {
		name   string
		report types.ContentReport
		want   float64
	}{
		{"empty page", types.ContentReport{}, 0},
		{"thin page", types.ContentReport{WordCount: 100}, 0},
		{"minimal tier", types.ContentReport{WordCount: 150}, 8},
		{"mid tier", types.ContentReport{WordCount: 500}, 15},
		{"rich tier", types.ContentReport{WordCount: 900}, 20},
		{"top tier", types.ContentReport{WordCount: 2000}, 25},
		{
			"all bonuses capped",
			types.ContentReport{WordCount: 2000, HasHeadings: true, HasLists: true, HasCodeBlocks: true},
			40,
		},
		{
			"bonuses without tier",
			types.ContentReport{WordCount: 50, HasHeadings: true, HasLists: true},
			12,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ScoreContent(&tt.report)
			if tt.report.Score != tt.want {
				t.Errorf("score = %v, want %v", tt.report.Score, tt.want)
			}
		})
	}
}

func TestApplyOverallIsSum(t *testing.T) {
	report := &types.AuditReport{
		Robots: &types.RobotsReport{Found: true, Bots: []types.BotAccess{
			{Bot: "A", Allowed: true}, {Bot: "B", Allowed: false},
		}},
		LlmsTxt:   &types.LlmsTxtReport{Found: true},
		SchemaOrg: &types.SchemaReport{BlocksFound: 1, Schemas: []types.SchemaOrgResult{{SchemaType: "Article"}}},
		Content:   &types.ContentReport{WordCount: 1600, HasHeadings: true},
	}

	Apply(report)

	want := 12.5 + 10 + 13 + 32
	if report.OverallScore != float64(want) {
		t.Errorf("overall = %v, want %v", report.OverallScore, want)
	}
	sum := report.Robots.Score + report.LlmsTxt.Score + report.SchemaOrg.Score + report.Content.Score
	if report.OverallScore != sum {
		t.Errorf("overall %v != pillar sum %v", report.OverallScore, sum)
	}
}
