// Package recommend turns an audit report into prioritized, concrete
// actions ordered by estimated score impact.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/contextcli/context-cli/internal/scoring"
	"github.com/contextcli/context-cli/internal/types"
)

// Recommend derives improvement actions from a scored report, sorted by
// descending estimated impact. Ties keep pillar order.
func Recommend(report *types.AuditReport) []types.Recommendation {
	var recs []types.Recommendation

	recs = append(recs, robotsRecs(report.Robots)...)
	recs = append(recs, llmsTxtRecs(report.LlmsTxt)...)
	recs = append(recs, schemaRecs(report.SchemaOrg)...)
	recs = append(recs, contentRecs(report.Content)...)

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].EstimatedImpact > recs[j].EstimatedImpact
	})
	return recs
}

func robotsRecs(r *types.RobotsReport) []types.Recommendation {
	if r == nil {
		return nil
	}
	gap := scoring.RobotsMax - r.Score
	if gap <= 0 {
		return nil
	}

	if !r.Found {
		return []types.Recommendation{{
			Pillar:          "robots",
			Action:          "Create a robots.txt that explicitly allows AI crawlers",
			EstimatedImpact: gap,
			Priority:        priority(gap, scoring.RobotsMax),
		}}
	}

	var blocked []string
	for _, b := range r.Bots {
		if !b.Allowed {
			blocked = append(blocked, b.Bot)
		}
	}
	if len(blocked) == 0 {
		return nil
	}
	return []types.Recommendation{{
		Pillar:          "robots",
		Action:          fmt.Sprintf("Unblock %d AI bot(s) in robots.txt", len(blocked)),
		EstimatedImpact: gap,
		Priority:        priority(gap, scoring.RobotsMax),
		Detail:          strings.Join(blocked, ", "),
	}}
}

func llmsTxtRecs(r *types.LlmsTxtReport) []types.Recommendation {
	if r == nil {
		return nil
	}
	if !r.Found && !r.LlmsFullFound {
		return []types.Recommendation{{
			Pillar:          "llmsTxt",
			Action:          "Publish an llms.txt at the site root",
			EstimatedImpact: scoring.LlmsTxtMax,
			Priority:        priority(scoring.LlmsTxtMax, scoring.LlmsTxtMax),
		}}
	}
	if r.Found && !r.LlmsFullFound {
		// Advisory only; the pillar already scores full marks.
		return []types.Recommendation{{
			Pillar:          "llmsTxt",
			Action:          "Consider adding llms-full.txt with complete page content",
			EstimatedImpact: 0,
			Priority:        "low",
		}}
	}
	return nil
}

func schemaRecs(r *types.SchemaReport) []types.Recommendation {
	if r == nil {
		return nil
	}
	gap := scoring.SchemaMax - r.Score
	if gap <= 0 {
		return nil
	}

	if r.BlocksFound == 0 {
		return []types.Recommendation{{
			Pillar:          "schemaOrg",
			Action:          "Add Schema.org JSON-LD markup",
			EstimatedImpact: gap,
			Priority:        priority(gap, scoring.SchemaMax),
		}}
	}

	present := make(map[string]struct{})
	for _, s := range r.Schemas {
		for _, part := range strings.Split(s.SchemaType, ",") {
			present[strings.TrimSpace(part)] = struct{}{}
		}
	}

	var missing []string
	for t := range scoring.HighValueTypes {
		if _, ok := present[t]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)

	suggested := missing
	if len(suggested) > 3 {
		suggested = suggested[:3]
	}
	impact := math.Min(gap, 5*float64(len(missing)))
	return []types.Recommendation{{
		Pillar:          "schemaOrg",
		Action:          fmt.Sprintf("Add high-value schema types: %s", strings.Join(suggested, ", ")),
		EstimatedImpact: impact,
		Priority:        priority(impact, scoring.SchemaMax),
	}}
}

func contentRecs(r *types.ContentReport) []types.Recommendation {
	if r == nil {
		return nil
	}
	gap := scoring.ContentMax - r.Score
	if gap <= 0 {
		return nil
	}

	var recs []types.Recommendation
	add := func(action string, impact float64) {
		recs = append(recs, types.Recommendation{
			Pillar:          "content",
			Action:          action,
			EstimatedImpact: impact,
			Priority:        priority(impact, scoring.ContentMax),
		})
	}

	if r.WordCount < 400 {
		add("Expand the page content; aim for 400+ words", math.Min(gap, 15))
	}
	if !r.HasHeadings {
		add("Structure the content with headings", math.Min(gap, 7))
	}
	if !r.HasLists {
		add("Break dense prose into lists where it helps", math.Min(gap, 5))
	}
	if r.ReadabilityGrade != nil && *r.ReadabilityGrade > 12 {
		add("Simplify sentences; readability grade is above 12", math.Min(gap, 3))
	}
	if r.AnswerFirstRatio < 0.3 && r.HasHeadings {
		add("Lead each section with a direct answer", math.Min(gap, 3))
	}
	return recs
}

// priority buckets an impact by its share of the pillar maximum.
func priority(impact, max float64) string {
	switch ratio := impact / max; {
	case ratio >= 0.5:
		return "high"
	case ratio >= 0.25:
		return "medium"
	default:
		return "low"
	}
}
