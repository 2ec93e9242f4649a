// Package dedup reduces the unioned posting list from all sources to a
// unique subset. The rejection ladder goes from cheap exact keys to fuzzy
// similarity; first occurrence wins, so tier ordering upstream decides which
// duplicate survives.
package dedup

import (
	"fmt"
	"log"
	"strings"

	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/normalize"
)

// Config toggles the fuzzy rungs of the ladder. Exact-key rungs are always
// on.
type Config struct {
	TitleSimilarityEnabled       bool    `yaml:"title_similarity_enabled"`
	TitleSimilarityThreshold     float64 `yaml:"title_similarity_threshold"`
	CrossSiteSimilarityEnabled   bool    `yaml:"cross_site_similarity_enabled"`
	CrossSiteSimilarityThreshold float64 `yaml:"cross_site_similarity_threshold"`
}

// DefaultConfig enables both fuzzy rungs at the tuned thresholds.
func DefaultConfig() Config {
	return Config{
		TitleSimilarityEnabled:       true,
		TitleSimilarityThreshold:     0.90,
		CrossSiteSimilarityEnabled:   true,
		CrossSiteSimilarityThreshold: 0.86,
	}
}

func (c *Config) fillDefaults() {
	if c.TitleSimilarityThreshold <= 0 {
		c.TitleSimilarityThreshold = 0.90
	}
	if c.CrossSiteSimilarityThreshold <= 0 {
		c.CrossSiteSimilarityThreshold = 0.86
	}
}

// accepted caches the derived keys of a posting already in the unique set so
// fuzzy rungs don't renormalize on every comparison.
type accepted struct {
	title  string
	tokens map[string]struct{}
}

// Deduplicate returns the order-preserving unique subset of postings. An
// accepted posting has its URL replaced by the canonical form.
func Deduplicate(postings []domain.Posting, cfg Config) []domain.Posting {
	cfg.fillDefaults()

	seenURLs := make(map[string]struct{})
	seenTitleCompany := make(map[string]struct{})
	seenDesc := make(map[string]struct{})
	seenCoarse := make(map[string]struct{})

	var kept []accepted
	unique := make([]domain.Posting, 0, len(postings))

	for _, p := range postings {
		url := normalize.CanonicalURL(p.URL)
		title := normalize.Text(p.Title)
		company := normalize.Company(p.Company)
		location := normalize.Text(p.Location)
		desc := normalize.Text(p.Description)

		tcHash := normalize.TitleCompanyHash(p.Title, p.Company)
		descHash := normalize.DescFingerprint(p.Description)
		coarse := fmt.Sprintf("%s|%s|%s", title, company, prefix(location, 20))

		if url != "" {
			if _, dup := seenURLs[url]; dup {
				continue
			}
		}
		if _, dup := seenTitleCompany[tcHash]; dup {
			continue
		}
		if _, dup := seenDesc[descHash]; dup {
			continue
		}
		if _, dup := seenCoarse[coarse]; dup {
			continue
		}

		if cfg.TitleSimilarityEnabled && anySimilarTitle(title, kept, cfg.TitleSimilarityThreshold) {
			continue
		}

		var tokens map[string]struct{}
		if cfg.CrossSiteSimilarityEnabled {
			tokens = tokenSet(title + " " + company + " " + location + " " + prefix(desc, 200))
			if anySimilarTokens(tokens, kept, cfg.CrossSiteSimilarityThreshold) {
				continue
			}
		}

		if url != "" {
			seenURLs[url] = struct{}{}
			p.URL = url
		}
		seenTitleCompany[tcHash] = struct{}{}
		seenDesc[descHash] = struct{}{}
		seenCoarse[coarse] = struct{}{}
		if tokens == nil {
			tokens = tokenSet(title + " " + company + " " + location + " " + prefix(desc, 200))
		}
		kept = append(kept, accepted{title: title, tokens: tokens})
		unique = append(unique, p)
	}

	log.Printf("[dedup] removed=%d kept=%d", len(postings)-len(unique), len(unique))
	return unique
}

func anySimilarTitle(title string, kept []accepted, threshold float64) bool {
	if title == "" {
		return false
	}
	for _, k := range kept {
		if k.title == "" {
			continue
		}
		if similarityRatio(title, k.title) >= threshold {
			return true
		}
	}
	return false
}

func anySimilarTokens(tokens map[string]struct{}, kept []accepted, threshold float64) bool {
	for _, k := range kept {
		if jaccard(tokens, k.tokens) >= threshold {
			return true
		}
	}
	return false
}

// tokenSet splits normalized text into words of length >= 2.
func tokenSet(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range strings.Fields(normalize.Text(text)) {
		if len([]rune(t)) >= 2 {
			out[t] = struct{}{}
		}
	}
	return out
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
