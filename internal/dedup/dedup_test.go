package dedup

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobradar-engine/internal/domain"
)

func posting(source, url, title, company, location, desc string) domain.Posting {
	return domain.Posting{
		Source: source, URL: url, Title: title,
		Company: company, Location: location, Description: desc,
	}
}

func exactOnly() Config {
	return Config{TitleSimilarityEnabled: false, CrossSiteSimilarityEnabled: false}
}

func TestURLVariantsCollapse(t *testing.T) {
	in := []domain.Posting{
		posting("a", "https://x.com/job/1?utm_source=a", "Robot Engineer", "Acme", "Seoul", "desc one"),
		posting("b", "https://x.com/job/1/", "Different Title Entirely", "Other", "Busan", "desc two"),
	}
	out := Deduplicate(in, exactOnly())
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Source, "first occurrence wins")
	assert.Equal(t, "https://x.com/job/1", out[0].URL, "canonical URL overwrites the original")
}

func TestTitleCompanyHashCollapsesSuffixes(t *testing.T) {
	in := []domain.Posting{
		posting("a", "https://a.com/1", "로봇 제어 엔지니어", "(주)테스트로보틱스", "용인", "첫번째 설명"),
		posting("b", "https://b.com/2", "로봇 제어 엔지니어", "테스트로보틱스", "성남", "다른 설명 텍스트"),
	}
	out := Deduplicate(in, exactOnly())
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Source)
}

func TestDescriptionFingerprintCollapses(t *testing.T) {
	desc := "We build autonomous mobile robots with ROS2 SLAM navigation and perception."
	in := []domain.Posting{
		posting("a", "https://a.com/1", "Engineer A", "Alpha", "Seoul", desc),
		posting("b", "https://b.com/2", "Engineer B", "Beta", "Busan", desc),
	}
	out := Deduplicate(in, exactOnly())
	require.Len(t, out, 1)
}

func TestExactKeysIgnoreCorporateSuffixAndLocationNoise(t *testing.T) {
	in := []domain.Posting{
		posting("a", "https://a.com/1", "SW Engineer", "Gamma", "서울특별시 강남구 테헤란로 1", "first description text"),
		posting("b", "https://b.com/2", "SW Engineer", "Gamma Inc.", "서울특별시 강남구 테헤란로 2", "second description body"),
	}
	out := Deduplicate(in, exactOnly())
	require.Len(t, out, 1)
}

func TestTitleSimilarityRung(t *testing.T) {
	in := []domain.Posting{
		posting("a", "https://a.com/1", "Robotics Software Engineer", "Alpha", "Seoul", "alpha text body"),
		posting("b", "https://b.com/2", "Robotics Software Engineer!", "Beta", "Busan", "beta text body entirely different"),
	}

	cfg := exactOnly()
	cfg.TitleSimilarityEnabled = true
	cfg.TitleSimilarityThreshold = 0.90
	assert.Len(t, Deduplicate(in, cfg), 1)

	cfg.TitleSimilarityEnabled = false
	assert.Len(t, Deduplicate(in, cfg), 2, "disabled rung must not reject")
}

func TestCrossSiteSimilarityRung(t *testing.T) {
	a := posting("wanted", "https://wanted.example/1", "자율주행 로봇 SW 엔지니어", "로보틱스랩", "경기 성남",
		"ROS2 기반 자율주행 로봇 navigation perception 개발 신입 환영")
	// paraphrased: same vocabulary, different word order, so every exact
	// rung (url, hashes, coarse key) misses and only token overlap is left
	b := posting("saramin", "https://saramin.example/2", "자율주행 로봇 SW 엔지니어 모집", "로보틱스랩", "경기 성남",
		"자율주행 로봇 navigation perception 개발 ROS2 기반 신입 환영")

	cfg := exactOnly()
	cfg.CrossSiteSimilarityEnabled = true
	cfg.CrossSiteSimilarityThreshold = 0.86
	assert.Len(t, Deduplicate([]domain.Posting{a, b}, cfg), 1)

	cfg.CrossSiteSimilarityEnabled = false
	assert.Len(t, Deduplicate([]domain.Posting{a, b}, cfg), 2)
}

func TestOutputCountInvariantUnderPermutation(t *testing.T) {
	base := []domain.Posting{
		posting("a", "https://a.com/1", "Robot Engineer", "Alpha", "Seoul", "description body one"),
		posting("b", "https://a.com/1?utm_source=x", "Other Title", "Beta", "Busan", "description body two"),
		posting("c", "https://c.com/3", "Controls Engineer", "Gamma", "Incheon", "description body three"),
		posting("d", "https://a.com/1#apply", "Robot Engineer", "Alpha Inc.", "Daegu", "description body four"),
		posting("e", "https://e.com/5", "Vision Engineer", "Delta", "Seoul", "description body five"),
	}

	cfg := DefaultConfig()
	want := len(Deduplicate(base, cfg))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]domain.Posting(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Len(t, Deduplicate(shuffled, cfg), want, "unique count must not depend on input order")
	}
}

func TestSimilarityRatio(t *testing.T) {
	assert.InDelta(t, 1.0, similarityRatio("abcd", "abcd"), 1e-9)
	assert.InDelta(t, 0.0, similarityRatio("abcd", "wxyz"), 1e-9)
	// one char of four differs: 2*3/(4+4)
	assert.InDelta(t, 0.75, similarityRatio("abcd", "abcx"), 1e-9)
	assert.Zero(t, similarityRatio("", "abc"))
}

func TestEmptyInput(t *testing.T) {
	assert.Empty(t, Deduplicate(nil, DefaultConfig()))
}
