package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/rank"
)

func sample(title, company, location, employment string, fit int, must ...string) rank.Assessment {
	return rank.Assessment{
		Posting: domain.Posting{
			URL:            "https://jobs.example.com/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
			Title:          title,
			Company:        company,
			Location:       location,
			EmploymentType: employment,
		},
		FitScore:   fit,
		MustSkills: must,
	}
}

func TestBuildSections(t *testing.T) {
	cfg := Config{
		TopN:               2,
		BigCompanyKeywords: []string{"삼성"},
		PreferredRegions:   []string{"성남"},
	}
	in := []rank.Assessment{
		sample("A", "스타트업A", "성남", "정규직", 3, "ros"),
		sample("B", "삼성전자", "수원", "정규직", 9, "ros", "slam"),
		sample("C", "스타트업C", "서울", "인턴", 6, "slam"),
	}
	data := Build(in, cfg, time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC))

	assert.Equal(t, 3, data.Total)
	require.Len(t, data.TopJobs, 2)
	assert.Equal(t, "B", data.TopJobs[0].Posting.Title, "sorted by fit score")
	assert.Equal(t, "C", data.TopJobs[1].Posting.Title)

	require.Len(t, data.BigCompanies, 1)
	assert.Equal(t, "삼성전자", data.BigCompanies[0].Posting.Company)

	require.Len(t, data.Regional, 1)
	assert.Equal(t, "A", data.Regional[0].Posting.Title, "big companies excluded from the regional bucket")

	assert.Len(t, data.ByEmployment["정규직"], 2)
	assert.Len(t, data.ByEmployment["인턴"], 1)

	require.NotEmpty(t, data.Trends)
	assert.Equal(t, Trend{Skill: "ros", Count: 2}, data.Trends[0])
}

func TestEmptyEmploymentTypeBucketsAsUnclassified(t *testing.T) {
	data := Build([]rank.Assessment{sample("A", "a", "서울", "", 5)}, Config{}, time.Now())
	assert.Len(t, data.ByEmployment["미분류"], 1)
}

func TestRenderEscapesAndContainsRows(t *testing.T) {
	a := sample("C++ 개발자 <신입>", "Acme & Co", "서울", "정규직", 7)
	html, err := Render(Build([]rank.Assessment{a}, Config{}, time.Now()))
	require.NoError(t, err)

	assert.Contains(t, html, "C++ 개발자 &lt;신입&gt;")
	assert.Contains(t, html, "Acme &amp; Co")
	assert.NotContains(t, html, "<신입>")
	assert.Contains(t, html, "일일 채용 리포트")
}

func TestWriteCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "daily.html")
	data := Build([]rank.Assessment{sample("A", "a", "서울", "정규직", 5)}, Config{}, time.Now())
	require.NoError(t, Write(path, data))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<h1>일일 채용 리포트</h1>")
}
