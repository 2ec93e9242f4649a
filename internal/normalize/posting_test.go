package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobradar-engine/internal/domain"
)

func TestPostingDropsEmptyURLOrTitle(t *testing.T) {
	_, ok := Posting(domain.PartialRecord{"url": "", "title": "Engineer"}, "test")
	assert.False(t, ok)

	_, ok = Posting(domain.PartialRecord{"url": "https://x.com/1", "title": "   "}, "test")
	assert.False(t, ok)

	_, ok = Posting(domain.PartialRecord{"url": "https://x.com/1", "title": "Engineer"}, "test")
	assert.True(t, ok)
}

func TestPostingFillsDefaults(t *testing.T) {
	p, ok := Posting(domain.PartialRecord{
		"url":   "https://x.com/job/9?utm_source=mail",
		"title": "  Robot   Engineer ",
	}, "boards")
	require.True(t, ok)

	assert.Equal(t, "boards", p.Source)
	assert.Equal(t, "https://x.com/job/9", p.URL)
	assert.Equal(t, "Robot Engineer", p.Title)
	assert.Equal(t, "Unknown", p.Company)
	assert.Equal(t, "미상", p.Location)
	assert.Equal(t, "정규직", p.EmploymentType)
	assert.Equal(t, time.Now().Format("2006-01-02"), p.PostedAt)
	assert.True(t, p.IsOpen)
}

func TestPostingEmploymentAndDeadlineInference(t *testing.T) {
	p, ok := Posting(domain.PartialRecord{
		"url":         "https://x.com/intern/3",
		"title":       "Robotics Intern",
		"description": "지원 마감: 2031-03-15 까지",
	}, "test")
	require.True(t, ok)

	assert.Equal(t, "인턴", p.EmploymentType)
	assert.Equal(t, "2031-03-15", p.Deadline)
	assert.True(t, p.IsOpen)
}

func TestPostingExplicitIsOpenWins(t *testing.T) {
	p, ok := Posting(domain.PartialRecord{
		"url":     "https://x.com/job/4",
		"title":   "Engineer",
		"is_open": "false",
	}, "test")
	require.True(t, ok)
	assert.False(t, p.IsOpen)
}

func TestInferOpenStatus(t *testing.T) {
	assert.False(t, InferOpenStatus("접수 마감", ""))
	assert.False(t, InferOpenStatus("Closed", ""))
	assert.True(t, InferOpenStatus("모집중", ""))
	assert.True(t, InferOpenStatus("", ""))
	assert.False(t, InferOpenStatus("", "2000-01-01"))
	assert.True(t, InferOpenStatus("", "2099-12-31"))
}

func TestParseDeadline(t *testing.T) {
	assert.Equal(t, "2026-03-02", ParseDeadline("서류마감 2026.3.2 예정"))
	assert.Equal(t, "2026-03-02", ParseDeadline("deadline 26-03-02"))
	assert.Equal(t, "", ParseDeadline("상시채용"))
}
