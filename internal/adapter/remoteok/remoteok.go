// Package remoteok harvests the RemoteOK RSS feeds. Listing items already
// carry a usable description, so the source exposes the combined crawl
// capability instead of a list/detail pair.
package remoteok

import (
	"context"
	"encoding/xml"
	"log"
	"net/http"
	"strings"
	"time"

	"jobradar-engine/internal/adapter"
	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/normalize"
)

const defaultKeyword = "robotics robot ros slam autonomous"

var fallbackFeeds = []string{
	"https://remoteok.com/remote-robotics-jobs.rss",
	"https://remoteok.com/remote-engineer-jobs.rss",
}

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

type rssFeed struct {
	Items []rssItem `xml:"channel>item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// Crawl fetches the configured feed, falling back to the broader feeds when
// it is unreachable, and keeps items matching any of the query keywords.
func (a *Adapter) Crawl(ctx context.Context, env adapter.Env) ([]domain.PartialRecord, error) {
	feeds := []string{env.Options.String("rss_url", "https://remoteok.com/remote-dev+robotics-jobs.rss")}
	feeds = append(feeds, fallbackFeeds...)
	sampleOnFailure := env.Options.Bool("sample_on_failure", true)

	var body []byte
	for _, feedURL := range feeds {
		resp, err := env.Client.Request(ctx, http.MethodGet, feedURL, env.RequestOptions())
		if err != nil {
			log.Printf("[remoteok] feed=%q unreachable err=%v", feedURL, err)
			continue
		}
		body = resp.Body
		break
	}
	if body == nil {
		if sampleOnFailure {
			return sampleRecords(), nil
		}
		return nil, nil
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		log.Printf("[remoteok] feed parse failed err=%v", err)
		if sampleOnFailure {
			return sampleRecords(), nil
		}
		return nil, nil
	}

	// Any-keyword match, not all: the feeds mix disciplines and an AND
	// filter drops nearly everything.
	keyword := env.Options.Sub("query").String("keyword", defaultKeyword)
	terms := matchTerms(keyword)

	var out []domain.PartialRecord
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}
		// RSS descriptions arrive as escaped HTML fragments.
		desc := normalize.CleanHTML(item.Description)
		blob := normalize.Text(title + " " + desc)
		if len(terms) > 0 && !anyTerm(blob, terms) {
			continue
		}
		out = append(out, domain.PartialRecord{
			"source_job_id":   lastSegment(link),
			"url":             link,
			"title":           title,
			"company":         "Unknown",
			"location":        "Remote",
			"employment_type": "정규직",
			"posted_at":       parsePubDate(item.PubDate),
			"status_text":     "Open",
			"description":     desc,
		})
	}

	if len(out) == 0 && sampleOnFailure {
		return sampleRecords(), nil
	}
	return out, nil
}

func matchTerms(keyword string) []string {
	var terms []string
	for _, t := range strings.Fields(normalize.Text(keyword)) {
		if len([]rune(t)) >= 2 {
			terms = append(terms, t)
		}
	}
	return terms
}

func anyTerm(blob string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(blob, t) {
			return true
		}
	}
	return false
}

func parsePubDate(pub string) string {
	pub = strings.TrimSpace(pub)
	if pub == "" {
		return ""
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if t, err := time.Parse(layout, pub); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func lastSegment(link string) string {
	link = strings.TrimRight(link, "/")
	if i := strings.LastIndex(link, "/"); i >= 0 {
		return link[i+1:]
	}
	return link
}

// sampleRecords keeps the pipeline exercisable when the feeds are down.
func sampleRecords() []domain.PartialRecord {
	return []domain.PartialRecord{{
		"sample":          "true",
		"source_job_id":   "remoteok-sample-1",
		"url":             "https://remoteok.com/remote-jobs/1234-robotics-software-engineer-sample",
		"title":           "Robotics Software Engineer (Entry)",
		"company":         "Sample Robotics",
		"location":        "Remote",
		"employment_type": "정규직",
		"posted_at":       "2026-02-14",
		"deadline":        "2026-12-31",
		"is_open":         "true",
		"status_text":     "Open",
		"description":     "ROS2, SLAM, perception, bachelor degree, entry level, autonomous robot stack",
	}}
}
