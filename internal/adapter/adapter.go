// Package adapter defines the contract between the harvest orchestrator and
// site-specific sources. An adapter declares its capabilities through the
// Descriptor rather than being probed at runtime: a List/Detail pair for
// sources with separate listing and detail pages, or a combined Crawl when
// that split is not meaningful.
package adapter

import (
	"context"
	"strconv"
	"time"

	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/health"
	"jobradar-engine/internal/httpx"
)

// Lister produces candidate partial records, typically one page of listings.
type Lister interface {
	ListCandidates(ctx context.Context, env Env) ([]domain.PartialRecord, error)
}

// Detailer fetches the detail page for one candidate. Returned fields
// overlay the candidate's list-stage fields.
type Detailer interface {
	FetchDetail(ctx context.Context, env Env, candidate domain.PartialRecord) (domain.PartialRecord, error)
}

// Crawler is the combined capability for sources where listing already
// carries everything.
type Crawler interface {
	Crawl(ctx context.Context, env Env) ([]domain.PartialRecord, error)
}

// Descriptor registers one source with the orchestrator.
type Descriptor struct {
	Name    string
	Tier    int
	Enabled bool

	Lister   Lister
	Detailer Detailer
	Crawler  Crawler

	Options Options
}

// Env bundles the shared collaborators every adapter call receives.
type Env struct {
	Client  *httpx.Client
	Health  *health.Tracker
	Options Options
	Timeout time.Duration
	Retries int
}

// RequestOptions translates the env's network knobs into client options.
func (e Env) RequestOptions() httpx.Options {
	return httpx.Options{Timeout: e.Timeout, MaxRetries: e.Retries, LogFailures: true}
}

// Options carries per-source yaml knobs as loosely typed values.
type Options map[string]any

func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (o Options) String(key, def string) string {
	if v, ok := o[key].(string); ok && v != "" {
		return v
	}
	return def
}

func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}

func (o Options) StringSlice(key string) []string {
	raw, ok := o[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Sub returns a nested options map, e.g. the render policy block.
func (o Options) Sub(key string) Options {
	switch v := o[key].(type) {
	case Options:
		return v
	case map[string]any:
		return Options(v)
	default:
		return Options{}
	}
}
