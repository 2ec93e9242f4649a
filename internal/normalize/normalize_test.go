package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextIdempotent(t *testing.T) {
	inputs := []string{
		"  Robotics   Engineer ",
		"로봇 제어 엔지니어",
		"ＲＯＳ２　ｄｅｖｅｌｏｐｅｒ", // fullwidth forms, NFKC folds these
		"Mixed\tWhitespace\n\nhere",
	}
	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "Text must be idempotent for %q", in)
	}
}

func TestTextFoldsFullwidth(t *testing.T) {
	assert.Equal(t, "ros2 developer", Text("ＲＯＳ２ Ｄｅｖｅｌｏｐｅｒ"))
}

func TestCompanyStripsCorporateSuffixes(t *testing.T) {
	cases := map[string]string{
		"(주)테스트로보틱스":             "테스트로보틱스",
		"주식회사 테스트로보틱스":           "테스트로보틱스",
		"테스트로보틱스":                "테스트로보틱스",
		"Acme Inc.":              "acme",
		"Acme Corp":              "acme",
		"Acme Robotics Co., Ltd": "acme robotics",
	}
	for in, want := range cases {
		assert.Equal(t, want, Company(in), "Company(%q)", in)
	}
}

func TestTitleCompanyHashCollapsesSuffixVariants(t *testing.T) {
	a := TitleCompanyHash("로봇 제어 엔지니어", "(주)테스트로보틱스")
	b := TitleCompanyHash("로봇 제어 엔지니어", "테스트로보틱스")
	assert.Equal(t, a, b)

	c := TitleCompanyHash("로봇 제어 엔지니어", "다른회사")
	assert.NotEqual(t, a, c)
}

func TestDescFingerprintBounded(t *testing.T) {
	long := ""
	for i := 0; i < 600; i++ {
		long += "x"
	}
	// fingerprints agree when the first 500 chars agree
	assert.Equal(t, DescFingerprint(long+"tail one"), DescFingerprint(long+"tail two"))
	assert.NotEqual(t, DescFingerprint("short A"), DescFingerprint("short B"))
}

func TestCanonicalURL(t *testing.T) {
	cases := map[string]string{
		"https://x.com/job/1?utm_source=a":      "https://x.com/job/1",
		"https://x.com/job/1/":                  "https://x.com/job/1",
		"HTTPS://X.com/job/1#section":           "https://x.com/job/1",
		"https://x.com/job?b=2&a=1":             "https://x.com/job?a=1&b=2",
		"https://x.com/job?amp;page=2":          "https://x.com/job?page=2",
		"https://x.com/job?utm_medium=email&q=r": "https://x.com/job?q=r",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalURL(in), "CanonicalURL(%q)", in)
	}
}

func TestCanonicalURLIdempotent(t *testing.T) {
	u := CanonicalURL("https://X.com/a/b/?utm_source=z&k=v#frag")
	assert.Equal(t, u, CanonicalURL(u))
}

func TestCanonicalURLEquivalenceClasses(t *testing.T) {
	// differ only in utm params / fragment / trailing slash
	u1 := CanonicalURL("https://x.com/job/1?utm_source=a")
	u2 := CanonicalURL("https://x.com/job/1/")
	u3 := CanonicalURL("https://x.com/job/1#apply")
	require.Equal(t, u1, u2)
	require.Equal(t, u2, u3)
}

func TestCleanHTML(t *testing.T) {
	in := `<div><script>var x=1;</script><h1>Robot   Engineer</h1><p>ROS2 &amp; SLAM</p></div>`
	assert.Equal(t, "Robot Engineer ROS2 & SLAM", CleanHTML(in))
}
