// Package rank assigns each posting a fit score and priority with a fixed
// keyword rule set. The scoring is deliberately coarse: its job is ordering
// the daily report, not deciding what gets stored.
package rank

import (
	"html"
	"sort"
	"strings"

	"jobradar-engine/internal/domain"
	"jobradar-engine/internal/normalize"
)

// Assessment is the ranking outcome attached to one posting.
type Assessment struct {
	Posting domain.Posting `json:"posting"`

	Pass        bool     `json:"pass"`
	FitScore    int      `json:"fit_score"` // 0..10
	Priority    string   `json:"priority"`  // low, medium, high
	RoleType    string   `json:"role_type"`
	MustSkills  []string `json:"must_have_skills"`
	NiceSkills  []string `json:"nice_to_have_skills"`
	FailReasons []string `json:"fail_reasons,omitempty"`
}

const maxSkills = 7

// roleBuckets maps a role label to the keywords that vote for it. The
// bucket with the most hits wins; zero hits means "기타".
var roleBuckets = []struct {
	role string
	kws  []string
}{
	{"자율주행/SLAM", []string{"slam", "자율주행", "localization", "localisation", "navigation", "map", "지도작성", "경로계획", "amr", "agv"}},
	{"로봇제어", []string{"제어", "control", "trajectory", "servo", "motor", "pid", "actuator", "kinematics", "동역학"}},
	{"임베디드", []string{"embedded", "firmware", "임베디드", "mcu", "rtos", "stm32", "uart", "can", "spi"}},
	{"플랫폼/미들웨어", []string{"middleware", "platform", "플랫폼", "미들웨어", "ros", "ros2", "dds", "linux"}},
	{"비전/인지", []string{"vision", "비전", "인지", "perception", "opencv", "camera", "detection", "segmentation", "point cloud"}},
}

var (
	techKeywords = []string{
		"ros", "ros2", "slam", "c++", "cpp", "python", "opencv", "lidar", "radar", "rtos", "linux", "autonomous",
		"navigation", "perception", "control", "imu", "sensor fusion", "deep learning", "pytorch", "tensorflow",
	}
	niceKeywords      = []string{"docker", "kubernetes", "git", "ci/cd", "jira", "matlab", "gazebo"}
	robotKeywords     = []string{"로봇", "robot", "amr", "agv", "cobot", "협동로봇", "자율주행"}
	educationKeywords = []string{"학사", "대졸", "bachelor", "4년제"}
	entryKeywords     = []string{"신입", "entry", "junior", "경력무관", "0년", "인턴"}
	seniorKeywords    = []string{"차장", "부장", "과장", "책임", "선임", "lead", "staff", "principal", "경력 5", "경력5", "10년"}
	offRoleTitleWords = []string{"강사", "해설사"}
)

// Assess scores every posting and returns the assessments sorted by fit
// score descending, original order preserved among ties.
func Assess(postings []domain.Posting) []Assessment {
	out := make([]Assessment, 0, len(postings))
	for _, p := range postings {
		out = append(out, assessOne(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FitScore > out[j].FitScore })
	return out
}

func assessOne(p domain.Posting) Assessment {
	text := normalize.Text(strings.Join([]string{
		html.UnescapeString(p.Title),
		html.UnescapeString(p.Description),
		p.Company,
		p.EmploymentType,
		p.Location,
	}, " "))
	title := normalize.Text(html.UnescapeString(p.Title))

	role := "기타"
	best := 0
	for _, b := range roleBuckets {
		hits := 0
		for _, k := range b.kws {
			if strings.Contains(text, k) {
				hits++
			}
		}
		if hits > best {
			best, role = hits, b.role
		}
	}

	must := pickSkills(text, techKeywords)
	nice := pickSkills(text, niceKeywords)

	fit := 0
	if anyIn(text, robotKeywords) {
		fit += 3
	}
	if n := len(must); n < 4 {
		fit += n
	} else {
		fit += 4
	}
	if role != "기타" {
		fit++
	}
	if anyIn(text, educationKeywords) {
		fit++
	}
	if anyIn(text, entryKeywords) {
		fit++
	}
	if anyIn(text, seniorKeywords) {
		fit -= 2
	}
	if anyIn(title, offRoleTitleWords) {
		fit -= 3
	}
	if fit < 0 {
		fit = 0
	}
	if fit > 10 {
		fit = 10
	}

	a := Assessment{
		Posting:    p,
		Pass:       fit >= 4,
		FitScore:   fit,
		Priority:   priorityFor(fit),
		RoleType:   role,
		MustSkills: must,
		NiceSkills: nice,
	}
	if !a.Pass {
		a.FailReasons = []string{"핵심 키워드 부족"}
	}
	return a
}

func priorityFor(fit int) string {
	switch {
	case fit >= 7:
		return "high"
	case fit >= 4:
		return "medium"
	default:
		return "low"
	}
}

func pickSkills(text string, keywords []string) []string {
	var out []string
	for _, k := range keywords {
		if strings.Contains(text, k) {
			out = append(out, k)
			if len(out) == maxSkills {
				break
			}
		}
	}
	return out
}

func anyIn(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
