package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate trims keyword lists and checks the settings that
// would otherwise fail deep inside a run.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.RuleFilter.EducationKeywords = trimList(out.RuleFilter.EducationKeywords)
	out.RuleFilter.ExperienceKeywords = trimList(out.RuleFilter.ExperienceKeywords)
	out.RuleFilter.EmploymentTypes = trimList(out.RuleFilter.EmploymentTypes)
	out.RuleFilter.PreferredRegions = trimList(out.RuleFilter.PreferredRegions)
	out.RuleFilter.BigCompanyKeywords = trimList(out.RuleFilter.BigCompanyKeywords)
	out.RuleFilter.DomainKeywords = trimList(out.RuleFilter.DomainKeywords)
	out.Report.BigCompanyKeywords = trimList(out.Report.BigCompanyKeywords)
	out.Report.PreferredRegions = trimList(out.Report.PreferredRegions)
	out.Email.Recipients = trimList(out.Email.Recipients)

	if out.Paths.DBPath == "" {
		res.addErr("paths.db_path is empty")
	}
	if out.Network.TimeoutSec <= 0 {
		res.addWarn("network.timeout_sec <= 0, using default")
	}
	if out.Network.Retry < 0 {
		res.addErr("network.retry must not be negative")
	}
	if t := out.Dedup.TitleSimilarityThreshold; t < 0 || t > 1 {
		res.addErr("dedup.title_similarity_threshold %v out of [0,1]", t)
	}
	if t := out.Dedup.CrossSiteSimilarityThreshold; t < 0 || t > 1 {
		res.addErr("dedup.cross_site_similarity_threshold %v out of [0,1]", t)
	}
	if out.Email.EnableSend {
		if out.Email.Sender == "" {
			res.addErr("email.enable_send is on but email.sender is empty")
		}
		if len(out.Email.Recipients) == 0 {
			res.addErr("email.enable_send is on but email.recipients is empty")
		}
	}

	enabled := 0
	for _, c := range out.Crawlers {
		if c.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		res.addWarn("no crawlers enabled, a run will collect nothing")
	}

	return out, res
}
