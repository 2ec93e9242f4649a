package httpx

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	dumpMaxBytes  = 512_000
	retentionDays = 2
)

// Dumper persists failing response bodies under
// <root>/<YYYYMMDD>/<host>/<slug>_<status>_<HHMMSS>.<ext> next to a
// .meta.json sibling. It is observability only: every error path is
// swallowed so a full disk can never fail a fetch.
type Dumper struct {
	Root    string
	Enabled bool

	pruneOnce sync.Once
}

type dumpMeta struct {
	StatusCode    int         `json:"status_code"`
	Reason        string      `json:"reason"`
	URL           string      `json:"url"`
	ContentType   string      `json:"content_type"`
	ContentLength int         `json:"content_length"`
	Headers       http.Header `json:"headers"`
}

// Dump writes the failing body and its metadata, returning the body path or
// "" when dumping is disabled or failed.
func (d *Dumper) Dump(finalURL string, status int, reason string, header http.Header, body []byte) string {
	if d == nil || !d.Enabled || d.Root == "" {
		return ""
	}

	now := time.Now()
	host := "unknown"
	if u, err := url.Parse(finalURL); err == nil && u.Host != "" {
		host = strings.ReplaceAll(u.Host, ":", "_")
	}
	dir := filepath.Join(d.Root, now.Format("20060102"), host)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	d.pruneOnce.Do(func() { d.pruneOld(now) })

	base := urlSlug(finalURL) + "_" + strconv.Itoa(status) + "_" + now.Format("150405")
	bodyPath := filepath.Join(dir, base+contentExt(header.Get("Content-Type")))
	metaPath := filepath.Join(dir, base+".meta.json")

	truncated := body
	if len(truncated) > dumpMaxBytes {
		truncated = truncated[:dumpMaxBytes]
	}
	if err := os.WriteFile(bodyPath, truncated, 0o644); err != nil {
		return ""
	}

	meta := dumpMeta{
		StatusCode:    status,
		Reason:        reason,
		URL:           finalURL,
		ContentType:   header.Get("Content-Type"),
		ContentLength: len(body),
		Headers:       header,
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(metaPath, b, 0o644)
	}
	return bodyPath
}

// pruneOld removes dated directories older than the retention window. Runs
// at most once per process lifetime.
func (d *Dumper) pruneOld(now time.Time) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		day, err := time.ParseInLocation("20060102", e.Name(), time.Local)
		if err != nil {
			continue
		}
		if now.Sub(day) <= retentionDays*24*time.Hour {
			continue
		}
		path := filepath.Join(d.Root, e.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Printf("[httpx] debug cleanup failed path=%s err=%v", path, err)
		}
	}
}

var slugRE = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func urlSlug(raw string) string {
	u, err := url.Parse(raw)
	path := ""
	if err == nil {
		path = strings.Trim(u.Path, "/")
	}
	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	slug := strings.Trim(slugRE.ReplaceAllString(strings.Join(parts, "_"), "_"), "_")
	if slug == "" {
		slug = "page"
	}
	if len(slug) > 60 {
		slug = slug[:60]
	}
	return slug
}

func contentExt(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "html"):
		return ".html"
	case strings.Contains(ct, "json"):
		return ".json"
	case strings.Contains(ct, "xml"):
		return ".xml"
	case strings.Contains(ct, "text"):
		return ".txt"
	default:
		return ".bin"
	}
}
