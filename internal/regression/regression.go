// Package regression compares an audit against the previous one for the
// same URL and flags meaningful score drops.
package regression

import (
	"math"

	"github.com/contextcli/context-cli/internal/types"
)

// Detect diffs current against previous. A regression is a strict drop of
// the overall score by more than threshold; per-pillar deltas are reported
// either way.
func Detect(url string, current, previous types.PillarScores, threshold float64) *types.RegressionReport {
	delta := round1(current.Overall - previous.Overall)

	return &types.RegressionReport{
		URL:           url,
		PreviousScore: previous.Overall,
		CurrentScore:  current.Overall,
		Delta:         delta,
		HasRegression: delta < -threshold,
		Threshold:     threshold,
		Pillars: []types.PillarDelta{
			pillarDelta("robots", previous.Robots, current.Robots),
			pillarDelta("llmsTxt", previous.LlmsTxt, current.LlmsTxt),
			pillarDelta("schemaOrg", previous.SchemaOrg, current.SchemaOrg),
			pillarDelta("content", previous.Content, current.Content),
		},
	}
}

func pillarDelta(name string, previous, current float64) types.PillarDelta {
	return types.PillarDelta{
		Pillar:   name,
		Previous: previous,
		Current:  current,
		Delta:    round1(current - previous),
	}
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
