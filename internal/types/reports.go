package types

import (
	"time"
)

// BotAccess records the robots.txt verdict for a single AI crawler.
type BotAccess struct {
	Bot     string `json:"bot"`
	Allowed bool   `json:"allowed"`
	Detail  string `json:"detail,omitempty"`
}

// RobotsReport is the robots.txt pillar result.
//
// RawText carries the fetched robots.txt body so later stages (discovery
// filtering) can re-apply the rules without a second fetch. It is never
// persisted.
type RobotsReport struct {
	Found   bool        `json:"found"`
	Bots    []BotAccess `json:"bots,omitempty"`
	Score   float64     `json:"score"`
	Detail  string      `json:"detail,omitempty"`
	RawText string      `json:"-"`
}

// LlmsTxtReport is the llms.txt pillar result.
type LlmsTxtReport struct {
	Found         bool    `json:"found"`
	URL           string  `json:"url,omitempty"`
	LlmsFullFound bool    `json:"llms_full_found"`
	LlmsFullURL   string  `json:"llms_full_url,omitempty"`
	Score         float64 `json:"score"`
	Detail        string  `json:"detail,omitempty"`
}

// SchemaOrgResult is one extracted JSON-LD entity.
type SchemaOrgResult struct {
	SchemaType string   `json:"schema_type"`
	Properties []string `json:"properties,omitempty"`
}

// SchemaReport is the Schema.org pillar result.
type SchemaReport struct {
	BlocksFound int               `json:"blocks_found"`
	Schemas     []SchemaOrgResult `json:"schemas,omitempty"`
	Score       float64           `json:"score"`
	Detail      string            `json:"detail,omitempty"`
}

// ContentReport is the content-density pillar result.
// ReadabilityGrade is nil when the page has fewer than 30 words.
type ContentReport struct {
	WordCount             int      `json:"word_count"`
	CharCount             int      `json:"char_count"`
	HasHeadings           bool     `json:"has_headings"`
	HasLists              bool     `json:"has_lists"`
	HasCodeBlocks         bool     `json:"has_code_blocks"`
	ChunkCount            int      `json:"chunk_count"`
	AvgChunkWords         int      `json:"avg_chunk_words"`
	ChunksInSweetSpot     int      `json:"chunks_in_sweet_spot"`
	ReadabilityGrade      *float64 `json:"readability_grade,omitempty"`
	HeadingCount          int      `json:"heading_count"`
	HeadingHierarchyValid bool     `json:"heading_hierarchy_valid"`
	AnswerFirstRatio      float64  `json:"answer_first_ratio"`
	Score                 float64  `json:"score"`
	Detail                string   `json:"detail,omitempty"`
}

// PageAudit holds the per-page checks for one crawled page. URL is the URL
// as crawled, not normalized; dedup always happens upstream on normalized
// forms.
type PageAudit struct {
	URL       string         `json:"url"`
	SchemaOrg *SchemaReport  `json:"schema_org"`
	Content   *ContentReport `json:"content"`
	Errors    []string       `json:"errors,omitempty"`
}

// DiscoveryResult describes how the page sample was resolved.
type DiscoveryResult struct {
	Method      string   `json:"method"` // "sitemap" or "spider"
	URLsFound   int      `json:"urls_found"`
	URLsSampled []string `json:"urls_sampled"`
	Detail      string   `json:"detail,omitempty"`
}

// AuditReport is the single-page audit outcome.
type AuditReport struct {
	URL          string         `json:"url"`
	OverallScore float64        `json:"overall_score"`
	Robots       *RobotsReport  `json:"robots"`
	LlmsTxt      *LlmsTxtReport `json:"llms_txt"`
	SchemaOrg    *SchemaReport  `json:"schema_org"`
	Content      *ContentReport `json:"content"`
	Errors       []string       `json:"errors,omitempty"`
}

// SiteAuditReport is the site-wide audit outcome with per-page detail.
type SiteAuditReport struct {
	URL          string           `json:"url"`
	Domain       string           `json:"domain"`
	OverallScore float64          `json:"overall_score"`
	Robots       *RobotsReport    `json:"robots"`
	LlmsTxt      *LlmsTxtReport   `json:"llms_txt"`
	SchemaOrg    *SchemaReport    `json:"schema_org"`
	Content      *ContentReport   `json:"content"`
	Discovery    *DiscoveryResult `json:"discovery"`
	Pages        []*PageAudit     `json:"pages,omitempty"`
	PagesAudited int              `json:"pages_audited"`
	PagesFailed  int              `json:"pages_failed"`
	Errors       []string         `json:"errors,omitempty"`
}

// Flatten collapses a site report into the AuditReport shape used by the
// history store and the regression detector.
func (s *SiteAuditReport) Flatten() *AuditReport {
	return &AuditReport{
		URL:          s.URL,
		OverallScore: s.OverallScore,
		Robots:       s.Robots,
		LlmsTxt:      s.LlmsTxt,
		SchemaOrg:    s.SchemaOrg,
		Content:      s.Content,
		Errors:       s.Errors,
	}
}

// PillarScores is the compact score tuple shared by reports and history rows.
type PillarScores struct {
	Overall   float64 `json:"overall"`
	Robots    float64 `json:"robots"`
	LlmsTxt   float64 `json:"llms_txt"`
	SchemaOrg float64 `json:"schema_org"`
	Content   float64 `json:"content"`
}

// Scores extracts the pillar score tuple from a report.
func (r *AuditReport) Scores() PillarScores {
	return PillarScores{
		Overall:   r.OverallScore,
		Robots:    r.Robots.Score,
		LlmsTxt:   r.LlmsTxt.Score,
		SchemaOrg: r.SchemaOrg.Score,
		Content:   r.Content.Score,
	}
}

// HistoryEntry is the compact index row stored per audit.
type HistoryEntry struct {
	ID             int64     `json:"id"`
	URL            string    `json:"url"`
	Timestamp      time.Time `json:"timestamp"`
	OverallScore   float64   `json:"overall_score"`
	RobotsScore    float64   `json:"robots_score"`
	LlmsTxtScore   float64   `json:"llms_txt_score"`
	SchemaOrgScore float64   `json:"schema_org_score"`
	ContentScore   float64   `json:"content_score"`
}

// Scores extracts the pillar score tuple from a history row.
func (e *HistoryEntry) Scores() PillarScores {
	return PillarScores{
		Overall:   e.OverallScore,
		Robots:    e.RobotsScore,
		LlmsTxt:   e.LlmsTxtScore,
		SchemaOrg: e.SchemaOrgScore,
		Content:   e.ContentScore,
	}
}

// PillarDelta is one pillar's movement between two audits.
type PillarDelta struct {
	Pillar   string  `json:"pillar"`
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
	Delta    float64 `json:"delta"`
}

// RegressionReport is the outcome of diffing two audits of the same URL.
type RegressionReport struct {
	URL           string        `json:"url"`
	PreviousScore float64       `json:"previous_score"`
	CurrentScore  float64       `json:"current_score"`
	Delta         float64       `json:"delta"`
	HasRegression bool          `json:"has_regression"`
	Threshold     float64       `json:"threshold"`
	Pillars       []PillarDelta `json:"pillars"`
}

// Recommendation is one prioritized improvement action.
type Recommendation struct {
	Pillar          string  `json:"pillar"`
	Action          string  `json:"action"`
	EstimatedImpact float64 `json:"estimated_impact"`
	Priority        string  `json:"priority"` // high, medium, low
	Detail          string  `json:"detail,omitempty"`
}

// PageResult is the page-fetch collaborator contract consumed by the
// orchestrator. A failed fetch is Success=false with Error set; fetchers
// never surface per-page failures as Go errors.
type PageResult struct {
	URL           string   `json:"url"`
	HTML          string   `json:"-"`
	Markdown      string   `json:"-"`
	Success       bool     `json:"success"`
	Error         string   `json:"error,omitempty"`
	InternalLinks []string `json:"internal_links,omitempty"`
}
