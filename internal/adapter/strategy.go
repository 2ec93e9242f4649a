package adapter

import (
	"context"
	"log"
)

// Strategy is one way of acquiring candidate URLs for a source. Strategies
// are tried in declaration order; the first one that yields links wins.
// Keeping the chain a flat list means a new acquisition path is one append,
// not another nesting level.
type Strategy struct {
	Name string
	// Skip reports whether the strategy is gated off for this run (e.g. a
	// day-scoped breaker is open).
	Skip func() bool
	Run  func(ctx context.Context) ([]string, error)
}

// CollectLinks evaluates the chain left to right, returning the first
// nonempty link set and the name of the strategy that produced it. A failing
// strategy logs and falls through to the next one.
func CollectLinks(ctx context.Context, source string, chain []Strategy) ([]string, string) {
	for _, s := range chain {
		if s.Skip != nil && s.Skip() {
			log.Printf("[%s] strategy=%s skipped by breaker", source, s.Name)
			continue
		}
		links, err := s.Run(ctx)
		if err != nil {
			log.Printf("[%s] strategy=%s failed err=%v", source, s.Name, err)
			continue
		}
		if len(links) > 0 {
			return dedupeLinks(links), s.Name
		}
		log.Printf("[%s] strategy=%s yielded nothing", source, s.Name)
	}
	return nil, ""
}

func dedupeLinks(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, u := range in {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
