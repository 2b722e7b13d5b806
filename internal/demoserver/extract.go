package demoserver

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	untitled  = "Sin título"
	noSummary = "No se encontró contenido relevante para resumir."
)

// extractTitleAndSummary reads the document title and a short plain-text
// summary. The summary prefers readability's article text and falls back to
// the page's paragraphs.
func extractTitleAndSummary(body []byte, pageURL *url.URL, maxRunes int) (title, summary string) {
	var paragraphs []string
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		title = strings.TrimSpace(doc.Find("head title").First().Text())
		if title == "" {
			title = strings.TrimSpace(doc.Find("title").First().Text())
		}
		doc.Find("p").Each(func(_ int, p *goquery.Selection) {
			if text := collapseSpace(p.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
	}

	if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		summary = collapseSpace(article.TextContent)
		if title == "" {
			title = strings.TrimSpace(article.Title)
		}
	}
	if summary == "" {
		summary = strings.Join(paragraphs, " ")
	}

	if title == "" {
		title = untitled
	}
	summary = truncateRunes(summary, maxRunes)
	if summary == "" {
		summary = noSummary
	}
	return title, summary
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
