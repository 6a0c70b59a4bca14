package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/contextcli/context-cli/internal/types"
)

// auditOutput is the JSON envelope emitted with --format json.
type auditOutput struct {
	Report          *types.AuditReport      `json:"report"`
	Site            *types.SiteAuditReport  `json:"site,omitempty"`
	Recommendations []types.Recommendation  `json:"recommendations,omitempty"`
	Regression      *types.RegressionReport `json:"regression,omitempty"`
}

func renderJSON(w io.Writer, report *types.AuditReport, site *types.SiteAuditReport, recs []types.Recommendation, reg *types.RegressionReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(auditOutput{
		Report:          report,
		Site:            site,
		Recommendations: recs,
		Regression:      reg,
	})
}

func renderText(w io.Writer, report *types.AuditReport, site *types.SiteAuditReport, recs []types.Recommendation, reg *types.RegressionReport) error {
	fmt.Fprintf(w, "\nLLM Readiness: %s\n", report.URL)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 60))
	fmt.Fprintf(w, "Overall score: %.1f / 100\n\n", report.OverallScore)

	renderPillar(w, "robots.txt", report.Robots.Score, 25, report.Robots.Detail)
	renderPillar(w, "llms.txt", report.LlmsTxt.Score, 10, report.LlmsTxt.Detail)
	renderPillar(w, "Schema.org", report.SchemaOrg.Score, 25, report.SchemaOrg.Detail)
	renderPillar(w, "Content", report.Content.Score, 40, report.Content.Detail)

	if report.Robots.Found {
		var blocked []string
		for _, b := range report.Robots.Bots {
			if !b.Allowed {
				blocked = append(blocked, b.Bot)
			}
		}
		if len(blocked) > 0 {
			fmt.Fprintf(w, "\nBlocked AI bots: %s\n", strings.Join(blocked, ", "))
		}
	}

	if site != nil {
		fmt.Fprintf(w, "\nPages: %d audited, %d failed (%s discovery, %d URLs found)\n",
			site.PagesAudited, site.PagesFailed, site.Discovery.Method, site.Discovery.URLsFound)
	}

	if len(recs) > 0 {
		fmt.Fprintf(w, "\nRecommendations:\n")
		for _, r := range recs {
			fmt.Fprintf(w, "  [%s] %s (+%.1f)\n", r.Priority, r.Action, r.EstimatedImpact)
			if r.Detail != "" {
				fmt.Fprintf(w, "         %s\n", r.Detail)
			}
		}
	}

	if reg != nil {
		fmt.Fprintf(w, "\nvs previous audit: %.1f -> %.1f (%+.1f)\n",
			reg.PreviousScore, reg.CurrentScore, reg.Delta)
		if reg.HasRegression {
			fmt.Fprintf(w, "REGRESSION: overall score dropped more than %.1f points\n", reg.Threshold)
			for _, p := range reg.Pillars {
				if p.Delta < 0 {
					fmt.Fprintf(w, "  %-10s %.1f -> %.1f (%+.1f)\n", p.Pillar, p.Previous, p.Current, p.Delta)
				}
			}
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}

	fmt.Fprintln(w)
	return nil
}

func renderPillar(w io.Writer, name string, score, max float64, detail string) {
	fmt.Fprintf(w, "  %-12s %5.1f / %-4.0f %s\n", name, score, max, detail)
}

func renderHistoryList(w io.Writer, entries []types.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No saved audits.")
		return
	}

	fmt.Fprintf(w, "%-5s %-20s %-7s %s\n", "ID", "Date", "Score", "URL")
	for _, e := range entries {
		fmt.Fprintf(w, "%-5d %-20s %-7.1f %s\n",
			e.ID, e.Timestamp.Format("2006-01-02 15:04:05"), e.OverallScore, e.URL)
	}
}
