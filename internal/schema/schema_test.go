package schema

import (
	"testing"
)

func TestExtractSingleObject(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">
{"@context": "https://schema.org", "@type": "Article", "headline": "Hello", "author": "A"}
</script>
</head><body></body></html>`

	report := Extract(html)

	if report.BlocksFound != 1 {
		t.Fatalf("blocksFound = %d, want 1", report.BlocksFound)
	}
	s := report.Schemas[0]
	if s.SchemaType != "Article" {
		t.Errorf("schemaType = %q", s.SchemaType)
	}
	want := []string{"@type", "author", "headline"}
	if len(s.Properties) != len(want) {
		t.Fatalf("properties = %v", s.Properties)
	}
	for i, p := range want {
		if s.Properties[i] != p {
			t.Errorf("properties[%d] = %q, want %q", i, s.Properties[i], p)
		}
	}
}

func TestExtractArray(t *testing.T) {
	html := `<script type="application/ld+json">
[{"@type": "FAQPage"}, {"@type": "Product", "name": "X"}]
</script>`

	report := Extract(html)

	if report.BlocksFound != 2 {
		t.Fatalf("blocksFound = %d, want 2", report.BlocksFound)
	}
	if report.Schemas[0].SchemaType != "FAQPage" || report.Schemas[1].SchemaType != "Product" {
		t.Errorf("schemas = %+v", report.Schemas)
	}
}

func TestExtractGraph(t *testing.T) {
	html := `<script type="application/ld+json">
{"@context": "https://schema.org", "@graph": [
  {"@type": "WebSite", "name": "Site"},
  {"@type": "Organization", "name": "Org"}
]}
</script>`

	report := Extract(html)

	if report.BlocksFound != 2 {
		t.Fatalf("blocksFound = %d, want one per graph member, got %+v", report.BlocksFound, report.Schemas)
	}
}

func TestExtractGraphWithOuterType(t *testing.T) {
	html := `<script type="application/ld+json">
{"@type": "WebPage", "@graph": [{"@type": "Article"}]}
</script>`

	report := Extract(html)

	if report.BlocksFound != 2 {
		t.Fatalf("blocksFound = %d, want outer plus member", report.BlocksFound)
	}
	if report.Schemas[0].SchemaType != "WebPage" || report.Schemas[1].SchemaType != "Article" {
		t.Errorf("schemas = %+v", report.Schemas)
	}
}

func TestExtractListType(t *testing.T) {
	html := `<script type="application/ld+json">
{"@type": ["Article", "BlogPosting"]}
</script>`

	report := Extract(html)

	if report.Schemas[0].SchemaType != "Article,BlogPosting" {
		t.Errorf("schemaType = %q", report.Schemas[0].SchemaType)
	}
}

func TestExtractMissingType(t *testing.T) {
	html := `<script type="application/ld+json">{"name": "untyped"}</script>`

	report := Extract(html)

	if report.Schemas[0].SchemaType != "Unknown" {
		t.Errorf("schemaType = %q, want Unknown", report.Schemas[0].SchemaType)
	}
}

func TestExtractMalformedSkipped(t *testing.T) {
	html := `
<script type="application/ld+json">{not json</script>
<script type="application/ld+json">{"@type": "Recipe"}</script>
<script type="application/ld+json"></script>`

	report := Extract(html)

	if report.BlocksFound != 1 {
		t.Fatalf("blocksFound = %d, want malformed blocks skipped", report.BlocksFound)
	}
	if report.Schemas[0].SchemaType != "Recipe" {
		t.Errorf("schemaType = %q", report.Schemas[0].SchemaType)
	}
}

func TestExtractNoScripts(t *testing.T) {
	report := Extract("<html><body><p>plain</p></body></html>")

	if report.BlocksFound != 0 || len(report.Schemas) != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
	if report.Detail != "no JSON-LD blocks found" {
		t.Errorf("detail = %q", report.Detail)
	}
}
