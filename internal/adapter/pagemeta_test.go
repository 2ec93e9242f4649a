package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePageMetaPrefersMetaDescription(t *testing.T) {
	body := []byte(`<html><head>
		<title>Acme Careers</title>
		<meta name="description" content="로봇 SW 엔지니어 신입 채용">
	</head><body><h1>로봇 SW 엔지니어</h1><p>본문</p></body></html>`)

	rec := ParsePageMeta(body, "https://acme.example/jobs/1")
	assert.Equal(t, "로봇 SW 엔지니어", rec["title"])
	assert.Equal(t, "로봇 SW 엔지니어 신입 채용", rec["description"])
}

func TestParsePageMetaBodyFallbackStripsMarkup(t *testing.T) {
	body := []byte(`<html><head><title>Jobs</title></head><body>
		<script>window.state = {"x": 1};</script>
		<style>.hero { color: red; }</style>
		<div><h2>자율주행 SW 엔지니어</h2><p>SLAM &amp; perception 담당</p></div>
	</body></html>`)

	rec := ParsePageMeta(body, "https://acme.example/jobs/2")
	desc := rec["description"]
	assert.Contains(t, desc, "자율주행 SW 엔지니어")
	assert.Contains(t, desc, "SLAM & perception 담당")
	assert.NotContains(t, desc, "window.state")
	assert.NotContains(t, desc, ".hero")
	assert.NotContains(t, desc, "<p>")
}
