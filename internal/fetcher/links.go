package fetcher

import (
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
)

// extractInternalLinks pulls same-host links out of an HTML document,
// resolved against baseURL, fragments stripped, first occurrence kept.
func extractInternalLinks(html, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	doc, err := htmlquery.Parse(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})

	for _, node := range htmlquery.Find(doc, "//a[@href]") {
		href := strings.TrimSpace(htmlquery.SelectAttr(node, "href"))
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			continue
		}

		parsed, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(parsed)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		if !strings.EqualFold(resolved.Host, base.Host) {
			continue
		}
		resolved.Fragment = ""

		link := resolved.String()
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}

	return links
}
