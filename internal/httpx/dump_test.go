package httpx

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpTruncatesOversizedBody(t *testing.T) {
	d := &Dumper{Root: t.TempDir(), Enabled: true}
	body := bytes.Repeat([]byte("a"), dumpMaxBytes+4096)

	header := http.Header{}
	header.Set("Content-Type", "text/html")
	path := d.Dump("https://acme.example/jobs/huge", 502, "http_status", header, body)
	require.NotEmpty(t, path)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, written, dumpMaxBytes)

	// meta keeps the real length so the truncation is visible
	meta, err := os.ReadFile(path[:len(path)-len(".html")] + ".meta.json")
	require.NoError(t, err)
	assert.Contains(t, string(meta), `"content_length": 516096`)
}

func TestDumpPrunesOldDirsOnce(t *testing.T) {
	root := t.TempDir()
	d := &Dumper{Root: root, Enabled: true}

	seed := func(dir string) string {
		path := filepath.Join(root, dir)
		require.NoError(t, os.MkdirAll(filepath.Join(path, "acme.example"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(path, "acme.example", "x.html"), []byte("x"), 0o644))
		return path
	}
	oldDir := seed(time.Now().AddDate(0, 0, -3).Format("20060102"))
	freshDir := seed(time.Now().AddDate(0, 0, -1).Format("20060102"))
	otherDir := seed("notes")

	header := http.Header{}
	header.Set("Content-Type", "text/html")
	require.NotEmpty(t, d.Dump("https://acme.example/jobs/1", 403, "http_status", header, []byte("blocked")))

	assert.NoDirExists(t, oldDir)
	assert.DirExists(t, freshDir)
	// non-dated directories are never touched
	assert.DirExists(t, otherDir)

	// the prune runs once per process, later dumps skip it
	reseeded := seed(time.Now().AddDate(0, 0, -4).Format("20060102"))
	require.NotEmpty(t, d.Dump("https://acme.example/jobs/2", 403, "http_status", header, []byte("blocked")))
	assert.DirExists(t, reseeded)
}
