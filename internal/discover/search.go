// Package discover finds job-posting links through public web search when a
// board exposes no crawlable listing. DuckDuckGo's HTML endpoint is tried
// first, Bing second; results are filtered to the allowed domains.
package discover

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobradar-engine/internal/httpx"
)

// Hosts we never treat as results even when the markup confuses the parser.
var searchEngineSuffixes = []string{
	"bing.com", "duckduckgo.com", "search.brave.com",
	"google.com", "yahoo.com", "microsoft.com",
}

type Searcher struct {
	Client  *httpx.Client
	Timeout time.Duration
	Retries int

	// endpoint overrides for tests
	ddgBase  string
	bingBase string
}

// SiteLinks searches one site with a site: operator.
func (s *Searcher) SiteLinks(ctx context.Context, site, query string) []string {
	return s.Links(ctx, "site:"+site+" "+query, []string{site})
}

// Links runs the query against the providers in order and returns the first
// nonempty result set, restricted to allowed domains.
func (s *Searcher) Links(ctx context.Context, query string, domains []string) []string {
	providers := []struct {
		name string
		run  func(context.Context, string, []string) ([]string, error)
	}{
		{"duckduckgo", s.duckduckgo},
		{"bing", s.bing},
	}
	for _, p := range providers {
		links, err := p.run(ctx, query, domains)
		if err != nil {
			log.Printf("[discover] provider=%s query=%q err=%v", p.name, query, err)
			continue
		}
		if len(links) > 0 {
			log.Printf("[discover] provider=%s query=%q links=%d sample=%q", p.name, query, len(links), links[0])
			return links
		}
	}
	return nil
}

func (s *Searcher) duckduckgo(ctx context.Context, query string, domains []string) ([]string, error) {
	base := s.ddgBase
	if base == "" {
		base = "https://duckduckgo.com"
	}
	u := base + "/html/?q=" + url.QueryEscape(query)
	resp, err := s.Client.Request(ctx, http.MethodGet, u, s.options())
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, err
	}

	var out []string
	doc.Find("a.result__a, a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		target := decodeDDGRedirect(strings.TrimSpace(href))
		if keepResult(target, domains) {
			out = append(out, target)
		}
	})
	return dedupe(out), nil
}

func (s *Searcher) bing(ctx context.Context, query string, domains []string) ([]string, error) {
	base := s.bingBase
	if base == "" {
		base = "https://www.bing.com"
	}
	u := base + "/search?q=" + url.QueryEscape(query)
	resp, err := s.Client.Request(ctx, http.MethodGet, u, s.options())
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, err
	}

	var out []string
	doc.Find("li.b_algo a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		target := decodeDDGRedirect(strings.TrimSpace(href))
		if keepResult(target, domains) {
			out = append(out, target)
		}
	})
	return dedupe(out), nil
}

func (s *Searcher) options() httpx.Options {
	timeout := s.Timeout
	if timeout <= 0 || timeout > 4*time.Second {
		timeout = 4 * time.Second // search is best-effort, keep it snappy
	}
	return httpx.Options{Timeout: timeout, MaxRetries: s.Retries, LogFailures: false}
}

// decodeDDGRedirect unwraps /l/?uddg=<urlencoded> redirect links.
func decodeDDGRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if dec, err := url.QueryUnescape(uddg); err == nil && dec != "" {
			return dec
		}
	}
	return href
}

func keepResult(raw string, domains []string) bool {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	host := hostOf(raw)
	if host == "" || isSearchEngineHost(host) {
		return false
	}
	if len(domains) == 0 {
		return true
	}
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

func isSearchEngineHost(host string) bool {
	for _, s := range searchEngineSuffixes {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, u := range in {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
