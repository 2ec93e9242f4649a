// Package report renders the daily HTML digest of ranked postings.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"jobradar-engine/internal/rank"
)

// Config mirrors the report block of the config file.
type Config struct {
	TopN               int      `yaml:"top_n"`
	TrendLimit         int      `yaml:"trend_limit"`
	BigCompanyKeywords []string `yaml:"big_company_keywords"`
	PreferredRegions   []string `yaml:"preferred_regions"`
}

// Trend is one stack keyword with its occurrence count across the run.
type Trend struct {
	Skill string
	Count int
}

// Data is everything the template sees.
type Data struct {
	GeneratedAt  string
	Total        int
	TopJobs      []rank.Assessment
	BigCompanies []rank.Assessment
	Regional     []rank.Assessment
	ByEmployment map[string][]rank.Assessment
	Trends       []Trend
}

// Build assembles the report sections from ranked postings. Input order is
// ignored; everything is re-sorted by fit score.
func Build(assessments []rank.Assessment, cfg Config, now time.Time) Data {
	topN := cfg.TopN
	if topN <= 0 {
		topN = 10
	}

	sorted := make([]rank.Assessment, len(assessments))
	copy(sorted, assessments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].FitScore > sorted[j].FitScore })

	data := Data{
		GeneratedAt:  now.Format("2006-01-02 15:04"),
		Total:        len(sorted),
		ByEmployment: make(map[string][]rank.Assessment),
		Trends:       stackTrends(sorted, cfg.TrendLimit),
	}
	for _, a := range sorted {
		if len(data.TopJobs) < topN {
			data.TopJobs = append(data.TopJobs, a)
		}
		big := isBigCompany(a, cfg.BigCompanyKeywords)
		if big && len(data.BigCompanies) < topN {
			data.BigCompanies = append(data.BigCompanies, a)
		}
		if !big && inPreferredRegion(a, cfg.PreferredRegions) && len(data.Regional) < topN {
			data.Regional = append(data.Regional, a)
		}
		key := a.Posting.EmploymentType
		if key == "" {
			key = "미분류"
		}
		data.ByEmployment[key] = append(data.ByEmployment[key], a)
	}
	return data
}

// Render produces the HTML document.
func Render(data Data) (string, error) {
	var b strings.Builder
	if err := reportTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return b.String(), nil
}

// Write renders the report to path, creating parent directories.
func Write(path string, data Data) error {
	html, err := Render(data)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(html), 0o644)
}

func isBigCompany(a rank.Assessment, keywords []string) bool {
	company := strings.ToLower(a.Posting.Company)
	for _, k := range keywords {
		if k != "" && strings.Contains(company, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func inPreferredRegion(a rank.Assessment, regions []string) bool {
	text := strings.ToLower(a.Posting.Location + " " + a.Posting.Description)
	for _, r := range regions {
		if r != "" && strings.Contains(text, strings.ToLower(r)) {
			return true
		}
	}
	return false
}

func stackTrends(assessments []rank.Assessment, limit int) []Trend {
	if limit <= 0 {
		limit = 10
	}
	counts := make(map[string]int)
	for _, a := range assessments {
		for _, s := range a.MustSkills {
			counts[s]++
		}
		for _, s := range a.NiceSkills {
			counts[s]++
		}
	}
	trends := make([]Trend, 0, len(counts))
	for skill, count := range counts {
		trends = append(trends, Trend{Skill: skill, Count: count})
	}
	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Count != trends[j].Count {
			return trends[i].Count > trends[j].Count
		}
		return trends[i].Skill < trends[j].Skill
	})
	if len(trends) > limit {
		trends = trends[:limit]
	}
	return trends
}

var reportTmpl = template.Must(template.New("daily").Parse(`<!doctype html>
<html lang="ko">
<head>
<meta charset="utf-8">
<style>
  body { font-family: -apple-system, "Malgun Gothic", sans-serif; color: #222; }
  h2 { border-bottom: 2px solid #444; padding-bottom: 4px; }
  table { border-collapse: collapse; width: 100%; margin-bottom: 24px; }
  th, td { border: 1px solid #ddd; padding: 6px 8px; text-align: left; font-size: 14px; }
  th { background: #f5f5f5; }
  .fit { text-align: center; }
  .muted { color: #888; font-size: 12px; }
</style>
</head>
<body>
<h1>일일 채용 리포트</h1>
<p class="muted">{{.GeneratedAt}} · 총 {{.Total}}건</p>

<h2>추천 공고 Top {{len .TopJobs}}</h2>
{{template "jobtable" .TopJobs}}

{{if .BigCompanies}}<h2>대기업</h2>{{template "jobtable" .BigCompanies}}{{end}}
{{if .Regional}}<h2>선호 지역</h2>{{template "jobtable" .Regional}}{{end}}

{{range $type, $jobs := .ByEmployment}}
<h2>{{$type}} ({{len $jobs}})</h2>
{{template "jobtable" $jobs}}
{{end}}

{{if .Trends}}
<h2>기술 스택 트렌드</h2>
<table>
<tr><th>스택</th><th>언급</th></tr>
{{range .Trends}}<tr><td>{{.Skill}}</td><td class="fit">{{.Count}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
{{define "jobtable"}}<table>
<tr><th>제목</th><th>회사</th><th>지역</th><th>형태</th><th>적합도</th><th>우선순위</th></tr>
{{range .}}<tr>
<td><a href="{{.Posting.URL}}">{{.Posting.Title}}</a></td>
<td>{{.Posting.Company}}</td>
<td>{{.Posting.Location}}</td>
<td>{{.Posting.EmploymentType}}</td>
<td class="fit">{{.FitScore}}</td>
<td>{{.Priority}}</td>
</tr>
{{end}}</table>{{end}}`))
