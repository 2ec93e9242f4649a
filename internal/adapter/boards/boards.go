// Package boards harvests company career pages that share no common markup.
// Listing is a same-host anchor scan filtered down to recruiting-looking
// paths; detail is the generic page-meta extraction.
package boards

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobradar-engine/internal/adapter"
	"jobradar-engine/internal/domain"
)

var (
	jobPathRE     = regexp.MustCompile(`(?i)(career|careers|recruit|jobs?|position|posting|apply|o/)`)
	blockedPathRE = regexp.MustCompile(`(?i)(about|company|news|press|media|blog|story|ir|investor|contact|privacy|terms|policy|faq)`)
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

// Page is one configured career page.
type Page struct {
	URL     string
	Company string
	Region  string
}

// ListCandidates scans every configured page for recruiting links. A page
// with no recruiting-looking links is skipped, not an error.
func (a *Adapter) ListCandidates(ctx context.Context, env adapter.Env) ([]domain.PartialRecord, error) {
	perPage := env.Options.Int("per_page_limit", 5)
	maxItems := env.Options.Int("max_items", 20)
	today := time.Now().Format("2006-01-02")

	var out []domain.PartialRecord
	seen := make(map[string]bool)
	for _, page := range pagesFromOptions(env.Options) {
		resp, err := env.Client.Request(ctx, http.MethodGet, page.URL, env.RequestOptions())
		if err != nil {
			log.Printf("[boards] company=%q url=%q fetch failed err=%v", page.Company, page.URL, err)
			continue
		}
		links := extractJobLinks(resp.Body, page.URL)
		if len(links) == 0 {
			log.Printf("[boards] company=%q url=%q no recruiting links, skipping", page.Company, page.URL)
			continue
		}
		if len(links) > perPage {
			links = links[:perPage]
		}
		for _, u := range links {
			if seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, domain.PartialRecord{
				"source_job_id": jobID(u),
				"url":           u,
				"posted_at":     today,
				"title":         page.Company + " Careers",
				"company":       page.Company,
				"location":      page.Region,
			})
			if len(out) >= maxItems {
				return out, nil
			}
		}
	}
	return out, nil
}

// FetchDetail hydrates a candidate with the target page's title and
// description.
func (a *Adapter) FetchDetail(ctx context.Context, env adapter.Env, candidate domain.PartialRecord) (domain.PartialRecord, error) {
	return adapter.FetchPageMeta(ctx, env, candidate["url"])
}

func pagesFromOptions(opts adapter.Options) []Page {
	raw, ok := opts["pages"].([]any)
	if !ok {
		return nil
	}
	out := make([]Page, 0, len(raw))
	for _, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		sub := adapter.Options(m)
		p := Page{
			URL:     strings.TrimSpace(sub.String("url", "")),
			Company: sub.String("company", "Unknown"),
			Region:  sub.String("region", "미상"),
		}
		if p.URL != "" {
			out = append(out, p)
		}
	}
	return out
}

// extractJobLinks keeps same-host anchors whose path looks like a job
// posting and drops the usual corporate-site noise routes.
func extractJobLinks(body []byte, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs := resolveSameHost(base, strings.TrimSpace(href))
		if abs == "" || seen[abs] {
			return
		}
		if strings.HasSuffix(abs, "/error") || strings.Contains(abs, "/error/") {
			return
		}
		if blockedPathRE.MatchString(abs) || !jobPathRE.MatchString(abs) {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})
	return links
}

func resolveSameHost(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	if !strings.EqualFold(abs.Host, base.Host) {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

func jobID(u string) string {
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		u = u[i+1:]
	}
	if r := []rune(u); len(r) > 80 {
		return string(r[:80])
	}
	return u
}
