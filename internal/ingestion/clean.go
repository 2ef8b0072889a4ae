// Package ingestion normalizes raw product documentation and distills it
// into structured product insights.
package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var htmlSignature = regexp.MustCompile(`(?i)<\s*(!doctype|html|body|div|p|h[1-6]|article|section)\b`)

// looksLikeHTML reports whether the input appears to be an HTML document
// rather than plain text or markdown.
func looksLikeHTML(s string) bool {
	return htmlSignature.MatchString(s)
}

// CleanHTML strips navigation, scripts, and other noise from an HTML
// document and converts the remainder to markdown.
func CleanHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, iframe, .ad, .advertisement, .sidebar, .cookie-banner, .popup").Remove()

	selection := doc.Find("main, article, .content, #content").First()
	if selection.Length() == 0 {
		selection = doc.Find("body")
	}

	inner, err := selection.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize content: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(inner)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	return cleanWhitespace(markdown), nil
}

// NormalizeDocs prepares raw documentation for insight extraction: HTML is
// cleaned and converted to markdown, anything else is whitespace-normalized
// as-is. Conversion failures fall back to the raw input rather than dropping
// the documentation.
func NormalizeDocs(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !looksLikeHTML(trimmed) {
		return cleanWhitespace(trimmed)
	}
	cleaned, err := CleanHTML(trimmed)
	if err != nil || cleaned == "" {
		return cleanWhitespace(trimmed)
	}
	return cleaned
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
