// Package schema extracts Schema.org JSON-LD entities from HTML.
package schema

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/contextcli/context-cli/internal/types"
)

// Extract parses every application/ld+json script in the document and
// returns one SchemaOrgResult per entity. Arrays yield one result per item;
// @graph containers yield one per member plus the outer object when it has
// its own @type. Malformed JSON is skipped.
func Extract(html string) *types.SchemaReport {
	report := &types.SchemaReport{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return report
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}

		var decoded any
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return
		}

		for _, candidate := range candidates(decoded) {
			report.Schemas = append(report.Schemas, describe(candidate))
		}
	})

	report.BlocksFound = len(report.Schemas)
	if report.BlocksFound == 0 {
		report.Detail = "no JSON-LD blocks found"
	} else {
		names := make([]string, 0, len(report.Schemas))
		for _, s := range report.Schemas {
			names = append(names, s.SchemaType)
		}
		report.Detail = strings.Join(names, ", ")
	}
	return report
}

// candidates flattens a decoded JSON-LD value into the entity objects to
// describe. Top-level arrays iterate; @graph members are individual
// entities, and the container itself counts when it carries its own @type.
func candidates(decoded any) []map[string]any {
	var out []map[string]any

	switch v := decoded.(type) {
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, expandGraph(obj)...)
			}
		}
	case map[string]any:
		out = append(out, expandGraph(v)...)
	}
	return out
}

func expandGraph(obj map[string]any) []map[string]any {
	graph, ok := obj["@graph"].([]any)
	if !ok {
		return []map[string]any{obj}
	}

	var out []map[string]any
	if _, hasType := obj["@type"]; hasType {
		out = append(out, obj)
	}
	for _, member := range graph {
		if m, ok := member.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// describe reads an entity's @type and top-level property names.
func describe(obj map[string]any) types.SchemaOrgResult {
	result := types.SchemaOrgResult{SchemaType: "Unknown"}

	switch t := obj["@type"].(type) {
	case string:
		result.SchemaType = t
	case []any:
		var parts []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			result.SchemaType = strings.Join(parts, ",")
		}
	}

	for key := range obj {
		if key == "@context" {
			continue
		}
		result.Properties = append(result.Properties, key)
	}
	sort.Strings(result.Properties)
	return result
}
