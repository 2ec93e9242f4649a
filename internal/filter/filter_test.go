package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jobradar-engine/internal/domain"
)

func basePosting() domain.Posting {
	return domain.Posting{
		Source:         "boards",
		URL:            "https://jobs.example.com/1",
		Title:          "로봇 SW 엔지니어 신입",
		Company:        "Acme Robotics",
		Location:       "경기 성남",
		EmploymentType: "정규직",
		IsOpen:         true,
		Description: "ROS2와 SLAM 기반 자율주행 로봇의 항법 소프트웨어를 개발합니다. " +
			"실내 물류 로봇 플랫폼의 perception, navigation 모듈을 담당하며 " +
			"학사 이상, 신입 지원 가능합니다. C++과 Python을 사용합니다.",
	}
}

func TestKeepsMatchingPosting(t *testing.T) {
	kept := Apply([]domain.Posting{basePosting()}, DefaultConfig())
	assert.Len(t, kept, 1)
}

func TestEmptyInputPassesThrough(t *testing.T) {
	assert.Empty(t, Apply(nil, DefaultConfig()))
}

func TestDropsClosedPosting(t *testing.T) {
	p := basePosting()
	p.StatusText = "접수마감"
	assert.Empty(t, Apply([]domain.Posting{p}, DefaultConfig()))
}

func TestAlwaysHiringOverridesClosureKeyword(t *testing.T) {
	p := basePosting()
	p.Description += " 본 공고는 채용시 마감됩니다."
	assert.Len(t, Apply([]domain.Posting{p}, DefaultConfig()), 1)
}

func TestDropsPastDeadline(t *testing.T) {
	p := basePosting()
	p.Deadline = time.Now().AddDate(0, 0, -3).Format("2006-01-02")
	assert.Empty(t, Apply([]domain.Posting{p}, DefaultConfig()))

	p.Deadline = time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	assert.Len(t, Apply([]domain.Posting{p}, DefaultConfig()), 1)
}

func TestDropsThinDescription(t *testing.T) {
	p := basePosting()
	p.Description = "로봇 신입 채용"
	assert.Empty(t, Apply([]domain.Posting{p}, DefaultConfig()))
}

func TestDropsWithoutDirectDomainMatch(t *testing.T) {
	p := basePosting()
	p.Title = "프론트엔드 엔지니어 신입"
	p.Description = "React와 TypeScript로 웹 프론트엔드를 개발합니다. 신입 가능, 학사 이상, " +
		"서울 근무입니다. 사용자 경험을 함께 만들어 갈 분을 찾습니다. 복지 좋아요."
	assert.Empty(t, Apply([]domain.Posting{p}, DefaultConfig()))
}

func TestNoiseSuppressedUnlessDomainTermPresent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireDomainMatch = false

	p := basePosting()
	p.Title = "백엔드 서버 개발자 신입"
	p.Description = "Spring 기반 API 서버와 백엔드 웹서비스를 개발합니다. 신입 지원 가능하고 " +
		"학사 이상이면 충분합니다. 대규모 트래픽 처리 경험을 쌓을 수 있습니다."
	assert.Empty(t, Apply([]domain.Posting{p}, cfg), "backend noise without any robotics term")

	p2 := basePosting()
	p2.Title = "로봇 관제 백엔드 개발자 신입"
	assert.Len(t, Apply([]domain.Posting{p2}, cfg), 1, "robotics term rescues the backend mention")
}

func TestStrictEntryRejectsSeniorDemands(t *testing.T) {
	p := basePosting()
	p.Title = "로봇 SW 엔지니어"
	p.Description = "ROS 기반 자율주행 로봇 개발. 경력 5년 이상 우대하며 팀을 리드할 " +
		"시니어급 엔지니어를 찾습니다. SLAM, navigation 경험 필수입니다. 근무지는 성남입니다."
	assert.Empty(t, Apply([]domain.Posting{p}, DefaultConfig()))
}

func TestEntryPositiveBeatsYearsRegex(t *testing.T) {
	p := basePosting()
	p.Description += " 경력 3년 이하 또는 신입."
	assert.Len(t, Apply([]domain.Posting{p}, DefaultConfig()), 1)
}

func TestEmploymentTypeFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmploymentTypes = []string{"정규직"}

	p := basePosting()
	assert.Len(t, Apply([]domain.Posting{p}, cfg), 1)

	p.EmploymentType = "계약직"
	p.Title = "로봇 SW 엔지니어 신입 채용"
	assert.Empty(t, Apply([]domain.Posting{p}, cfg))
}

func TestStrictRegionWithBigCompanyEscape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrictRegion = true
	cfg.PreferredRegions = []string{"서울", "성남"}
	cfg.BigCompanyKeywords = []string{"삼성"}

	p := basePosting() // location 경기 성남
	assert.Len(t, Apply([]domain.Posting{p}, cfg), 1)

	p.Location = "부산"
	p.Description = "ROS2와 SLAM 기반 자율주행 로봇의 항법 소프트웨어를 개발합니다. " +
		"신입 지원 가능하며 학사 이상입니다. 실내 물류 로봇 플랫폼의 perception, " +
		"navigation 모듈을 담당합니다. C++과 Python을 사용합니다."
	assert.Empty(t, Apply([]domain.Posting{p}, cfg))

	p.Company = "삼성리서치"
	assert.Len(t, Apply([]domain.Posting{p}, cfg), 1, "big-company keyword bypasses the region rule")
}
