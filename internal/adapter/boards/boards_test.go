package boards

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobradar-engine/internal/adapter"
	"jobradar-engine/internal/httpx"
)

const boardHTML = `<!doctype html><html><body>
  <a href="/careers/robot-sw-engineer">Robot SW Engineer</a>
  <a href="/careers/slam-researcher/">SLAM Researcher</a>
  <a href="/careers/robot-sw-engineer">dup</a>
  <a href="/about">About us</a>
  <a href="/blog/we-are-hiring">Blog post</a>
  <a href="https://elsewhere.example.com/careers/offsite">offsite</a>
  <a href="/careers/error/apply">broken</a>
  <a href="#apply">fragment</a>
  <a href="mailto:jobs@acme.example">mail</a>
</body></html>`

func TestExtractJobLinks(t *testing.T) {
	links := extractJobLinks([]byte(boardHTML), "https://acme.example.com/")
	assert.Equal(t, []string{
		"https://acme.example.com/careers/robot-sw-engineer",
		"https://acme.example.com/careers/slam-researcher/",
	}, links)
}

func TestListCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(boardHTML))
	}))
	defer srv.Close()

	env := adapter.Env{
		Client: httpx.NewClient(nil, nil),
		Options: adapter.Options{
			"pages": []any{
				map[string]any{"url": srv.URL + "/", "company": "Acme Robotics", "region": "경기"},
				map[string]any{"company": "missing url"},
			},
		},
		Timeout: 2 * time.Second,
	}

	recs, err := New().ListCandidates(context.Background(), env)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Acme Robotics", recs[0]["company"])
	assert.Equal(t, "경기", recs[0]["location"])
	assert.Equal(t, "robot-sw-engineer", recs[0]["source_job_id"])
	assert.Equal(t, time.Now().Format("2006-01-02"), recs[0]["posted_at"])
	assert.Equal(t, "slam-researcher", recs[1]["source_job_id"])
}

func TestListCandidatesPerPageLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(boardHTML))
	}))
	defer srv.Close()

	env := adapter.Env{
		Client: httpx.NewClient(nil, nil),
		Options: adapter.Options{
			"per_page_limit": 1,
			"pages":          []any{map[string]any{"url": srv.URL + "/", "company": "Acme"}},
		},
		Timeout: 2 * time.Second,
	}
	recs, err := New().ListCandidates(context.Background(), env)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "robot-sw-engineer", recs[0]["source_job_id"])
}

func TestFetchDetailHydratesTitleAndDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Robot SW Engineer | Acme</title>
<meta name="description" content="Own the navigation stack."></head>
<body><h1>Robot SW Engineer</h1></body></html>`))
	}))
	defer srv.Close()

	env := adapter.Env{Client: httpx.NewClient(nil, nil), Timeout: 2 * time.Second}
	detail, err := New().FetchDetail(context.Background(), env, map[string]string{"url": srv.URL + "/careers/1"})
	require.NoError(t, err)
	assert.Equal(t, "Robot SW Engineer", detail["title"])
	assert.Equal(t, "Own the navigation stack.", detail["description"])
}

func TestResolveSameHostRejectsCrossHost(t *testing.T) {
	base, err := url.Parse("https://acme.example.com/careers")
	require.NoError(t, err)
	assert.Equal(t, "", resolveSameHost(base, "https://evil.example.net/careers/x"))
	assert.Equal(t, "https://acme.example.com/jobs/1", resolveSameHost(base, "/jobs/1"))
}
