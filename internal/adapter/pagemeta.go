package adapter

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/normalize"
)

const (
	maxTitleChars = 160
	maxDescChars  = 2600
)

// FetchPageMeta pulls title and description out of an arbitrary job detail
// page: <title>, meta description / og:description, with the cleaned body
// text as fallback. Good enough for boards we have no dedicated parser for.
func FetchPageMeta(ctx context.Context, env Env, pageURL string) (domain.PartialRecord, error) {
	resp, err := env.Client.Request(ctx, http.MethodGet, pageURL, env.RequestOptions())
	if err != nil {
		return nil, err
	}
	return ParsePageMeta(resp.Body, pageURL), nil
}

// ParsePageMeta extracts a partial record from raw page HTML.
func ParsePageMeta(body []byte, pageURL string) domain.PartialRecord {
	rec := domain.PartialRecord{"url": pageURL}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return rec
	}

	title := normalize.CleanText(doc.Find("title").First().Text())
	if h1 := normalize.CleanText(doc.Find("h1").First().Text()); h1 != "" {
		title = h1
	}

	desc := metaContent(doc, `meta[name="description"]`)
	if desc == "" {
		desc = metaContent(doc, `meta[property="og:description"]`)
	}
	if desc == "" {
		if bodyHTML, err := doc.Find("body").Html(); err == nil {
			desc = normalize.CleanHTML(bodyHTML)
		}
	}

	if title != "" {
		rec["title"] = truncate(title, maxTitleChars)
	}
	if desc != "" {
		rec["description"] = truncate(desc, maxDescChars)
	}
	return rec
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return normalize.CleanText(content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
