// Package scoring turns the four pillar reports into their weighted scores
// and the 0-100 overall score.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/contextcli/context-cli/internal/types"
)

// Pillar maximums. The four sum to 100.
const (
	RobotsMax  = 25.0
	LlmsTxtMax = 10.0
	SchemaMax  = 25.0
	ContentMax = 40.0
)

// HighValueTypes are the Schema.org types with direct retrieval payoff.
// They earn a larger per-type bonus than ordinary types.
var HighValueTypes = map[string]struct{}{
	"FAQPage": {},
	"HowTo":   {},
	"Article": {},
	"Product": {},
	"Recipe":  {},
}

const (
	schemaBase          = 8.0
	schemaHighValueStep = 5.0
	schemaStandardStep  = 3.0
)

// contentTiers maps word count floors to base scores, checked top-down.
var contentTiers = []struct {
	words int
	score float64
}{
	{1500, 25},
	{800, 20},
	{400, 15},
	{150, 8},
}

const (
	headingsBonus = 7.0
	listsBonus    = 5.0
	codeBonus     = 3.0
)

// Apply scores all four pillars in place and sets the overall score.
func Apply(report *types.AuditReport) {
	ScoreRobots(report.Robots)
	ScoreLlmsTxt(report.LlmsTxt)
	ScoreSchema(report.SchemaOrg)
	ScoreContent(report.Content)
	report.OverallScore = report.Robots.Score + report.LlmsTxt.Score +
		report.SchemaOrg.Score + report.Content.Score
}

// ScoreRobots awards the robots pillar proportionally to allowed bots.
func ScoreRobots(r *types.RobotsReport) {
	if r == nil || !r.Found || len(r.Bots) == 0 {
		if r != nil {
			r.Score = 0
		}
		return
	}
	allowed := 0
	for _, b := range r.Bots {
		if b.Allowed {
			allowed++
		}
	}
	r.Score = round1(RobotsMax * float64(allowed) / float64(len(r.Bots)))
}

// ScoreLlmsTxt is all-or-nothing: either manifest variant earns the full 10.
func ScoreLlmsTxt(r *types.LlmsTxtReport) {
	if r == nil {
		return
	}
	if r.Found || r.LlmsFullFound {
		r.Score = LlmsTxtMax
	} else {
		r.Score = 0
	}
}

// ScoreSchema scores presence plus per-unique-type bonuses, capped at 25.
// A comma-joined multi-type label counts as high-value if any of its parts
// is.
func ScoreSchema(r *types.SchemaReport) {
	if r == nil {
		return
	}
	if r.BlocksFound == 0 {
		r.Score = 0
		return
	}

	seen := make(map[string]struct{})
	high, standard := 0, 0
	for _, s := range r.Schemas {
		if _, ok := seen[s.SchemaType]; ok {
			continue
		}
		seen[s.SchemaType] = struct{}{}
		if isHighValue(s.SchemaType) {
			high++
		} else {
			standard++
		}
	}

	r.Score = math.Min(SchemaMax, schemaBase+schemaHighValueStep*float64(high)+schemaStandardStep*float64(standard))
	r.Detail = fmt.Sprintf("%d blocks, %d high-value types", r.BlocksFound, high)
}

func isHighValue(schemaType string) bool {
	for _, part := range strings.Split(schemaType, ",") {
		if _, ok := HighValueTypes[strings.TrimSpace(part)]; ok {
			return true
		}
	}
	return false
}

// ScoreContent scores the density tier plus structure bonuses, capped at 40.
func ScoreContent(r *types.ContentReport) {
	if r == nil {
		return
	}

	score := 0.0
	for _, tier := range contentTiers {
		if r.WordCount >= tier.words {
			score = tier.score
			break
		}
	}
	if r.HasHeadings {
		score += headingsBonus
	}
	if r.HasLists {
		score += listsBonus
	}
	if r.HasCodeBlocks {
		score += codeBonus
	}
	r.Score = math.Min(ContentMax, score)
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
