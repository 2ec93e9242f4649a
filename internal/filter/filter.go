// Package filter implements the keyword rule filter that runs between dedup
// and ranking. Every rule answers "is this posting worth the reader's time",
// not "is it well formed"; malformed records are already gone by this point.
package filter

import (
	"log"
	"regexp"
	"strings"
	"time"

	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/normalize"
)

// Config mirrors the rule_filter block of the config file. Empty keyword
// lists fall back to the defaults below.
type Config struct {
	OnlyOpen          bool `yaml:"only_open"`
	MinDescriptionLen int  `yaml:"min_description_len"`

	StrictEducation  bool `yaml:"strict_education"`
	StrictExperience bool `yaml:"strict_experience"`
	StrictRegion     bool `yaml:"strict_region"`
	StrictEntry      bool `yaml:"strict_entry"`

	MinProfileMatches  int  `yaml:"min_profile_matches"`
	RequireDomainMatch bool `yaml:"require_domain_match"`

	EducationKeywords  []string `yaml:"education_keywords"`
	ExperienceKeywords []string `yaml:"experience_keywords"`
	EmploymentTypes    []string `yaml:"employment_types"`
	PreferredRegions   []string `yaml:"preferred_regions"`
	BigCompanyKeywords []string `yaml:"big_company_keywords"`

	DomainKeywords       []string `yaml:"domain_keywords"`
	DomainDirectKeywords []string `yaml:"domain_direct_keywords"`
	NoiseKeywords        []string `yaml:"noise_keywords"`

	EntryPositiveKeywords  []string `yaml:"entry_positive_keywords"`
	EntryNegativeKeywords  []string `yaml:"entry_negative_keywords"`
	ClosedPositiveKeywords []string `yaml:"closed_positive_keywords"`
	ClosedNegativeKeywords []string `yaml:"closed_negative_keywords"`
}

// DefaultConfig matches the profile the rest of the defaults are tuned for:
// entry-level robotics software roles in Korea.
func DefaultConfig() Config {
	return Config{
		OnlyOpen:           true,
		MinDescriptionLen:  80,
		StrictEntry:        true,
		MinProfileMatches:  2,
		RequireDomainMatch: true,
	}
}

var (
	defaultDirectKeywords = []string{"로봇", "robot", "자율주행", "slam", "ros", "agv", "amr", "로봇제어", "perception", "navigation"}
	defaultNoiseKeywords  = []string{"golang 서버", "백엔드", "backend", "server", "api", "웹서비스"}
	defaultEntryPositive  = []string{"신입", "경력무관", "entry", "junior", "new grad", "0년"}
	defaultEntryNegative  = []string{"시니어", "senior", "lead", "principal", "manager", "책임", "수석", "과장", "차장", "부장"}
	defaultClosedPositive = []string{"접수마감", "모집마감", "채용마감", "마감되었습니다", "종료", "closed", "expired"}
	defaultClosedNegative = []string{"채용시 마감", "상시채용", "상시 모집", "모집중", "채용중"}

	// Years-of-experience demands that the keyword lists cannot enumerate.
	expYearsKoRE = regexp.MustCompile(`경력\s*[2-9]\d*\s*년`)
	expYearsEnRE = regexp.MustCompile(`\b[2-5]\+\s*years?\b`)
)

func orDefault(v, def []string) []string {
	if len(v) > 0 {
		return v
	}
	return def
}

// Apply runs every posting through the rule chain and keeps the survivors,
// preserving order. Empty input passes straight through.
func Apply(postings []domain.Posting, cfg Config) []domain.Posting {
	if cfg.MinDescriptionLen <= 0 {
		cfg.MinDescriptionLen = 80
	}
	if cfg.MinProfileMatches <= 0 {
		cfg.MinProfileMatches = 2
	}
	direct := orDefault(cfg.DomainDirectKeywords, defaultDirectKeywords)
	noise := orDefault(cfg.NoiseKeywords, defaultNoiseKeywords)
	entryPos := orDefault(cfg.EntryPositiveKeywords, defaultEntryPositive)
	entryNeg := orDefault(cfg.EntryNegativeKeywords, defaultEntryNegative)
	closedPos := orDefault(cfg.ClosedPositiveKeywords, defaultClosedPositive)
	closedNeg := orDefault(cfg.ClosedNegativeKeywords, defaultClosedNegative)

	kept := make([]domain.Posting, 0, len(postings))
	for _, p := range postings {
		keep, why := shouldKeep(p, cfg, direct, noise, entryPos, entryNeg, closedPos, closedNeg)
		if !keep {
			log.Printf("[filter] dropped (%s) title=%q company=%q url=%q", why, p.Title, p.Company, p.URL)
			continue
		}
		kept = append(kept, p)
	}
	log.Printf("[filter] removed=%d kept=%d", len(postings)-len(kept), len(kept))
	return kept
}

func shouldKeep(p domain.Posting, cfg Config, direct, noise, entryPos, entryNeg, closedPos, closedNeg []string) (bool, string) {
	blob := p.Title + " " + p.Description + " " + p.Company

	if cfg.OnlyOpen && !isOpen(p, closedPos, closedNeg) {
		return false, "closed"
	}
	if len([]rune(normalize.Text(p.Description))) < cfg.MinDescriptionLen {
		return false, "thin_description"
	}
	if len(cfg.DomainKeywords) > 0 && !containsAny(blob, cfg.DomainKeywords) {
		return false, "no_domain_keyword"
	}
	if cfg.RequireDomainMatch && !containsAny(blob, direct) {
		return false, "no_direct_match"
	}
	if containsAny(blob, noise) && !containsAny(blob, direct) {
		return false, "offdomain_noise"
	}
	if cfg.StrictEntry && !entryFriendly(p, entryPos, entryNeg) {
		return false, "not_entry_level"
	}
	if !employmentMatch(p, cfg.EmploymentTypes) {
		return false, "employment_type"
	}

	eduOK := len(cfg.EducationKeywords) == 0 || containsAny(blob, cfg.EducationKeywords)
	expOK := len(cfg.ExperienceKeywords) == 0 || containsAny(blob, cfg.ExperienceKeywords)
	regionOK := regionOrBigCompany(p, cfg.PreferredRegions, cfg.BigCompanyKeywords)

	if cfg.StrictEducation && !eduOK {
		return false, "education"
	}
	if cfg.StrictExperience && !expOK {
		return false, "experience"
	}
	if cfg.StrictRegion && !regionOK {
		return false, "region"
	}

	score := 0
	for _, ok := range []bool{eduOK, expOK, regionOK} {
		if ok {
			score++
		}
	}
	if score < cfg.MinProfileMatches {
		return false, "profile_score"
	}
	return true, ""
}

func containsAny(text string, keywords []string) bool {
	t := normalize.Text(text)
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if needle := normalize.Text(k); needle != "" && strings.Contains(t, needle) {
			return true
		}
	}
	return false
}

// isOpen layers explicit-closure keywords over the structural flags. An
// always-hiring phrase overrides a closure keyword, since boards love
// "채용시 마감" in otherwise open postings.
func isOpen(p domain.Posting, closedPos, closedNeg []string) bool {
	if !p.IsOpen {
		return false
	}
	if p.Deadline != "" {
		if d, err := time.Parse("2006-01-02", p.Deadline); err == nil {
			if time.Now().After(d.AddDate(0, 0, 1)) {
				return false
			}
		}
	}
	blob := p.Title + " " + p.Description + " " + p.StatusText
	if containsAny(blob, closedNeg) {
		return true
	}
	return !containsAny(blob, closedPos)
}

func entryFriendly(p domain.Posting, positives, negatives []string) bool {
	blob := normalize.Text(p.Title + " " + p.Description + " " + p.StatusText)
	if containsAny(blob, positives) {
		return true
	}
	if containsAny(blob, negatives) {
		return false
	}
	return !expYearsKoRE.MatchString(blob) && !expYearsEnRE.MatchString(blob)
}

func employmentMatch(p domain.Posting, types []string) bool {
	if len(types) == 0 {
		return true
	}
	return containsAny(p.EmploymentType+" "+p.Title+" "+p.Description, types)
}

func regionOrBigCompany(p domain.Posting, regions, bigCompanies []string) bool {
	if containsAny(p.Company, bigCompanies) {
		return true
	}
	return containsAny(p.Location+" "+p.Description+" "+p.Title, regions)
}
