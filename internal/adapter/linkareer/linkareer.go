// Package linkareer harvests linkareer.com, a rendered SPA board that is
// frequently unreachable from datacenter networks. Acquisition is an ordered
// strategy chain: public search first (cheapest and most stable), headless
// render second, a plain HTTP fetch last. The render and HTTP strategies are
// gated by the source's day-scoped DNS and 504 breakers.
package linkareer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"jobradar-engine/internal/adapter"
	"jobradar-engine/internal/discover"
	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/httpx"
	"jobradar-engine/internal/render"
)

const (
	sourceName      = "linkareer"
	defaultMaxItems = 12
	minDetailDesc   = 60
)

var jobURLRE = regexp.MustCompile(`(?i)https?://(?:www\.)?linkareer\.com/(?:activity|recruit|recruits|recruitments?|jobs?|content)(?:/[^"?\s#]+)+`)

// Search queries tried in order until one yields links.
var searchQueries = []string{
	"site:linkareer.com 로봇 recruit",
	"site:linkareer.com 로봇 jobs",
	"site:linkareer.com 로봇 activity",
	"site:linkareer.com robotics",
	"로봇 채용 신입",
}

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) ListCandidates(ctx context.Context, env adapter.Env) ([]domain.PartialRecord, error) {
	keyword := env.Options.Sub("query").String("keyword", "로봇")
	pol := listRenderPolicy(env.Options)
	searchURL := "https://linkareer.com/search/result?query=" + url.QueryEscape(keyword)

	circuitOpen := func() bool {
		if env.Health == nil {
			return false
		}
		return env.Health.DNSCircuitOpen(sourceName) || env.Health.HTTPCircuitOpen(sourceName, http.StatusGatewayTimeout)
	}

	// Once the render strategy has seen a DNS failure there is no point in
	// trying the same hostname over plain HTTP.
	dnsFailedThisRun := false

	chain := []adapter.Strategy{
		{
			Name: "search",
			Run: func(ctx context.Context) ([]string, error) {
				return a.searchLinks(ctx, env), nil
			},
		},
		{
			Name: "render",
			Skip: func() bool { return !pol.Enabled || circuitOpen() },
			Run: func(ctx context.Context) ([]string, error) {
				links, dnsFailed, err := render.CollectLinks(ctx, searchURL, jobURLRE, pol)
				if len(links) == 0 && err == nil {
					// Second pass with a broader keyword, matching how thin
					// the board's search results can be.
					alt := "https://linkareer.com/search/result?query=" + url.QueryEscape("로봇 SW")
					var dns2 bool
					links, dns2, err = render.CollectLinks(ctx, alt, jobURLRE, pol)
					dnsFailed = dnsFailed || dns2
				}
				if env.Health != nil {
					if len(links) > 0 {
						env.Health.ResetDNSFailures(sourceName)
					} else if dnsFailed {
						dnsFailedThisRun = true
						n := env.Health.MarkDNSFailure(sourceName)
						log.Printf("[%s] dns_failure count=%d", sourceName, n)
					}
				}
				return links, err
			},
		},
		{
			Name: "http",
			Skip: func() bool { return circuitOpen() || dnsFailedThisRun },
			Run: func(ctx context.Context) ([]string, error) {
				return a.httpLinks(ctx, env, searchURL)
			},
		},
	}

	links, strategy := adapter.CollectLinks(ctx, sourceName, chain)
	if len(links) == 0 {
		return nil, nil
	}
	log.Printf("[%s] strategy=%s links=%d", sourceName, strategy, len(links))

	return recordsFromLinks(links, env.Options.Int("max_items", defaultMaxItems)), nil
}

func recordsFromLinks(links []string, maxItems int) []domain.PartialRecord {
	if len(links) > maxItems {
		links = links[:maxItems]
	}
	today := time.Now().Format("2006-01-02")
	out := make([]domain.PartialRecord, 0, len(links))
	for _, u := range links {
		out = append(out, domain.PartialRecord{
			"source_job_id": lastSegment(u),
			"url":           u,
			"posted_at":     today,
			"title":         "Linkareer Robotics Position",
			"company":       "Unknown",
			"location":      "미상",
		})
	}
	return out
}

// FetchDetail renders the posting page when allowed, falls back to plain
// HTTP, and rejects pages whose extracted description is too thin to rank.
func (a *Adapter) FetchDetail(ctx context.Context, env adapter.Env, candidate domain.PartialRecord) (domain.PartialRecord, error) {
	pageURL := candidate["url"]

	var body []byte
	pol := detailRenderPolicy(env.Options)
	if pol.Enabled && (env.Health == nil || !env.Health.DNSCircuitOpen(sourceName)) {
		if html, err := render.FetchHTML(ctx, pageURL, pol); err == nil && html != "" {
			body = []byte(html)
		} else if err != nil {
			log.Printf("[%s] detail render failed url=%q err=%v", sourceName, pageURL, err)
		}
	}
	if body == nil {
		resp, err := env.Client.Request(ctx, http.MethodGet, pageURL, env.RequestOptions())
		if err != nil {
			return nil, err
		}
		body = resp.Body
	}

	rec := adapter.ParsePageMeta(body, pageURL)
	if rec["title"] == "" || len(strings.TrimSpace(rec["description"])) < minDetailDesc {
		return nil, fmt.Errorf("detail too thin url=%s", pageURL)
	}
	rec["employment_type"] = "정규직"
	rec["status_text"] = "모집중"
	return rec, nil
}

func (a *Adapter) searchLinks(ctx context.Context, env adapter.Env) []string {
	searcher := &discover.Searcher{Client: env.Client, Timeout: env.Timeout, Retries: env.Retries}
	var merged []string
	seen := make(map[string]bool)
	for _, q := range searchQueries {
		for _, u := range searcher.Links(ctx, q, []string{"linkareer.com"}) {
			if !jobURLRE.MatchString(u) || seen[u] {
				continue
			}
			seen[u] = true
			merged = append(merged, u)
		}
	}
	return merged
}

// httpLinks is the last-resort direct fetch. Its failures feed the
// day-scoped breakers so a dead gateway stops burning the retry budget.
func (a *Adapter) httpLinks(ctx context.Context, env adapter.Env, searchURL string) ([]string, error) {
	resp, err := env.Client.Request(ctx, http.MethodGet, searchURL, env.RequestOptions())
	if err != nil {
		if env.Health != nil {
			var fail *httpx.Failure
			if errors.As(err, &fail) {
				switch {
				case fail.StatusCode == http.StatusGatewayTimeout:
					n := env.Health.MarkHTTPFailure(sourceName, fail.StatusCode)
					log.Printf("[%s] http_504 count=%d", sourceName, n)
				case fail.Kind == httpx.KindDNS:
					n := env.Health.MarkDNSFailure(sourceName)
					log.Printf("[%s] dns_failure count=%d", sourceName, n)
				}
			}
		}
		return nil, err
	}
	if env.Health != nil {
		env.Health.ResetHTTPFailures(sourceName, http.StatusGatewayTimeout)
		env.Health.ResetDNSFailures(sourceName)
	}
	return jobURLRE.FindAllString(string(resp.Body), -1), nil
}

func listRenderPolicy(opts adapter.Options) render.Policy {
	return render.PolicyFromOptions(opts, 40*time.Second, 3)
}

func detailRenderPolicy(opts adapter.Options) render.Policy {
	pol := listRenderPolicy(opts)
	pol.Timeout = 25 * time.Second
	pol.ScrollRounds = 1
	return pol
}

func lastSegment(link string) string {
	link = strings.TrimRight(link, "/")
	if i := strings.LastIndex(link, "/"); i >= 0 {
		return link[i+1:]
	}
	return link
}
