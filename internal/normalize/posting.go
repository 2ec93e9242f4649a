package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"jobradar-engine/internal/domain"
)

var (
	closedKeywords = []string{"마감", "종료", "closed", "expired"}
	openKeywords   = []string{"모집중", "진행중", "채용중", "open", "active"}

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(20\d{2})[./-](\d{1,2})[./-](\d{1,2})`),
		regexp.MustCompile(`(\d{2})[./-](\d{1,2})[./-](\d{1,2})`),
	}
)

// InferEmploymentType guesses the employment type from free text. Defaults
// to full-time, which is what the boards overwhelmingly list.
func InferEmploymentType(text string) string {
	t := Text(text)
	switch {
	case strings.Contains(t, "인턴") || strings.Contains(t, "intern"):
		return "인턴"
	case strings.Contains(t, "계약") || strings.Contains(t, "contract"):
		return "계약직"
	default:
		return "정규직"
	}
}

// ParseDeadline extracts the first date-looking token as YYYY-MM-DD, or ""
// when no valid date appears. Two-digit years are read as 20xx.
func ParseDeadline(text string) string {
	for _, re := range datePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			year, _ := strconv.Atoi(m[1])
			if year < 100 {
				year += 2000
			}
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
			if int(d.Month()) != month || d.Day() != day {
				continue // e.g. 2026-13-45 rolled over
			}
			return d.Format("2006-01-02")
		}
	}
	return ""
}

// InferOpenStatus decides whether a posting is still open from its status
// text, falling back to the deadline. Unknown means open.
func InferOpenStatus(statusText, deadline string) bool {
	t := Text(statusText)
	for _, k := range closedKeywords {
		if strings.Contains(t, k) {
			return false
		}
	}
	for _, k := range openKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	if deadline != "" {
		if d, err := time.ParseInLocation("2006-01-02", deadline, time.Local); err == nil {
			today := time.Now()
			return !d.Before(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.Local))
		}
	}
	return true
}

// Posting converts a raw adapter record into a canonical Posting. The second
// return is false when the record must be dropped (empty url or title after
// normalization).
func Posting(raw domain.PartialRecord, source string) (domain.Posting, bool) {
	blob := strings.Join([]string{
		raw["title"], raw["description"], raw["employment_type"], raw["status_text"], raw["deadline"],
	}, " ")

	deadline := strings.TrimSpace(raw["deadline"])
	if deadline == "" {
		deadline = ParseDeadline(blob)
	}
	statusText := strings.TrimSpace(raw["status_text"])

	employment := strings.TrimSpace(raw["employment_type"])
	if employment == "" {
		employment = InferEmploymentType(blob)
	}

	company := strings.TrimSpace(raw["company"])
	if company == "" {
		company = "Unknown"
	}
	location := strings.TrimSpace(raw["location"])
	if location == "" {
		location = "미상"
	}
	postedAt := strings.TrimSpace(raw["posted_at"])
	if postedAt == "" {
		postedAt = time.Now().Format("2006-01-02")
	}

	// Status keywords in full description boilerplate are too noisy to
	// infer open/closed from; only status_text and deadline count.
	isOpen := InferOpenStatus(statusText, deadline)
	if v, ok := raw["is_open"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			isOpen = b
		}
	}

	p := domain.Posting{
		Source:         source,
		URL:            CanonicalURL(raw["url"]),
		Title:          CleanText(raw["title"]),
		Company:        company,
		Location:       location,
		EmploymentType: employment,
		PostedAt:       postedAt,
		Description:    CleanText(raw["description"]),
		SourceJobID:    strings.TrimSpace(raw["source_job_id"]),
		Deadline:       deadline,
		IsOpen:         isOpen,
		StatusText:     statusText,
	}
	if p.URL == "" || p.Title == "" {
		return domain.Posting{}, false
	}
	return p, true
}
