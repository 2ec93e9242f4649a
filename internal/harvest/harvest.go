// Package harvest runs every enabled source and turns raw adapter output
// into normalized postings. Sources run sequentially in tier order so a
// cheap, reliable source is never starved by an expensive flaky one; the
// detail fan-out inside a source is the only concurrent stage. A source
// failing, panicking, or being skipped by its breaker never affects the
// others.
package harvest

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"jobradar-engine/internal/adapter"
	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/health"
	"jobradar-engine/internal/httpx"
	"jobradar-engine/internal/normalize"
)

const (
	defaultWorkers  = 4
	defaultMaxItems = 30
)

// Runner drives one harvest pass.
type Runner struct {
	Client  *httpx.Client
	Health  *health.Tracker
	Sources []adapter.Descriptor

	Workers  int           // detail fan-out width per source
	MaxItems int           // per-source candidate bound, overridable per source
	Timeout  time.Duration // per-request read timeout handed to adapters
	Retries  int
}

// Run harvests every enabled source in ascending tier order and returns one
// result per source, in that order. The health file is saved once at the
// end of the pass.
func (r *Runner) Run(ctx context.Context) []domain.SourceResult {
	sources := make([]adapter.Descriptor, 0, len(r.Sources))
	for _, d := range r.Sources {
		if d.Enabled {
			sources = append(sources, d)
		}
	}
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].Tier < sources[j].Tier })

	results := make([]domain.SourceResult, 0, len(sources))
	for _, d := range sources {
		if ctx.Err() != nil {
			break
		}
		if r.Health != nil && r.Health.ShouldSkipSource(d.Name) {
			log.Printf("[harvest] source=%s skipped consecutive_zero_breaker=open", d.Name)
			results = append(results, domain.SourceResult{Source: d.Name, Tier: d.Tier, Skipped: true})
			continue
		}

		start := time.Now()
		postings, err := r.harvestSource(ctx, d)
		if err != nil {
			log.Printf("[harvest] source=%s failed err=%v elapsed=%s", d.Name, err, time.Since(start).Round(time.Millisecond))
		} else {
			log.Printf("[harvest] source=%s collected=%d elapsed=%s", d.Name, len(postings), time.Since(start).Round(time.Millisecond))
		}
		if r.Health != nil {
			r.Health.RecordRun(d.Name, len(postings))
		}
		results = append(results, domain.SourceResult{Source: d.Name, Tier: d.Tier, Postings: postings, Err: err})
	}

	if r.Health != nil {
		if err := r.Health.Save(); err != nil {
			log.Printf("[harvest] health save failed err=%v", err)
		}
	}
	return results
}

// Postings flattens results, preserving tier order. Failed and skipped
// sources contribute nothing.
func Postings(results []domain.SourceResult) []domain.Posting {
	var out []domain.Posting
	for _, res := range results {
		out = append(out, res.Postings...)
	}
	return out
}

// harvestSource runs one adapter end to end. A panicking adapter is
// converted into an error so the pass continues.
func (r *Runner) harvestSource(ctx context.Context, d adapter.Descriptor) (postings []domain.Posting, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			postings, err = nil, fmt.Errorf("adapter panic: %v", rec)
		}
	}()

	env := r.env(d)

	var raws []domain.PartialRecord
	switch {
	case d.Crawler != nil:
		raws, err = d.Crawler.Crawl(ctx, env)
	case d.Lister != nil:
		raws, err = d.Lister.ListCandidates(ctx, env)
	default:
		return nil, fmt.Errorf("source %q exposes no capability", d.Name)
	}
	if err != nil {
		return nil, err
	}

	maxItems := env.Options.Int("max_items", r.maxItems())
	if len(raws) > maxItems {
		raws = raws[:maxItems]
	}

	if d.Detailer != nil && d.Crawler == nil {
		raws = r.hydrate(ctx, d, env, raws)
	}

	for _, raw := range raws {
		p, ok := normalize.Posting(raw, d.Name)
		if !ok {
			log.Printf("[%s] dropped unusable record url=%q title=%q", d.Name, raw["url"], raw["title"])
			continue
		}
		postings = append(postings, p)
	}
	if len(postings) > 0 {
		s := postings[0]
		log.Printf("[%s] sample title=%q company=%q url=%q", d.Name, s.Title, s.Company, s.URL)
	}
	return postings, nil
}

// hydrate overlays detail fields onto the list candidates. Each candidate
// degrades to its list-stage record when its detail fetch fails, so one bad
// detail page costs one record's enrichment, never the whole source.
func (r *Runner) hydrate(ctx context.Context, d adapter.Descriptor, env adapter.Env, raws []domain.PartialRecord) []domain.PartialRecord {
	out := make([]domain.PartialRecord, len(raws))

	var g errgroup.Group
	g.SetLimit(r.workers())
	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			detail, err := fetchDetailSafe(ctx, d, env, raw)
			if err != nil {
				log.Printf("[%s] detail failed url=%q err=%v", d.Name, raw["url"], err)
				out[i] = raw
				return nil
			}
			out[i] = raw.Merge(detail)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func fetchDetailSafe(ctx context.Context, d adapter.Descriptor, env adapter.Env, raw domain.PartialRecord) (detail domain.PartialRecord, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			detail, err = nil, fmt.Errorf("detail panic: %v", rec)
		}
	}()
	return d.Detailer.FetchDetail(ctx, env, raw)
}

func (r *Runner) env(d adapter.Descriptor) adapter.Env {
	return adapter.Env{
		Client:  r.Client,
		Health:  r.Health,
		Options: d.Options,
		Timeout: r.Timeout,
		Retries: r.Retries,
	}
}

func (r *Runner) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return defaultWorkers
}

func (r *Runner) maxItems() int {
	if r.MaxItems > 0 {
		return r.MaxItems
	}
	return defaultMaxItems
}
