package client

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanSnippet collapses whitespace runs in endpoint content to single
// spaces. The text is otherwise kept as-is, including any '<'.
func CleanSnippet(content string) string {
	return strings.Join(strings.Fields(content), " ")
}

// HTMLToText reduces an HTML document or fragment to its visible text.
// Content that fails to parse is returned unchanged.
func HTMLToText(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	doc.Find("script, style, noscript, template").Remove()
	return doc.Text()
}

func isHTMLMediaType(mediaType string) bool {
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
