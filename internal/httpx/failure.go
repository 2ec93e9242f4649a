package httpx

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"
)

// FailureKind classifies terminal failures so callers (and the health
// tracker) can react per class rather than per message.
type FailureKind string

const (
	KindTimeout FailureKind = "timeout"
	KindDNS     FailureKind = "dns"
	KindConn    FailureKind = "conn"
	KindHTTP    FailureKind = "http"
)

const previewChars = 2000

// Failure is the structured terminal outcome of a request: enough context to
// debug a broken source without re-fetching anything.
type Failure struct {
	Kind        FailureKind
	StatusCode  int    // 0 for connection-level failures
	Reason      string // status text or error string
	URL         string // as requested
	FinalURL    string // after redirects, when known
	ContentType string
	BodyPreview string
	DumpPath    string // debug artifact, "" when dumping is off
	Err         error  // underlying transport error, nil for HTTP failures

	retryAfter time.Duration // honored by the retry loop when the server sent Retry-After
}

func (f *Failure) Error() string {
	if f.StatusCode > 0 {
		return fmt.Sprintf("request failed status=%d reason=%q url=%s", f.StatusCode, f.Reason, f.URL)
	}
	return fmt.Sprintf("request failed kind=%s url=%s err=%v", f.Kind, f.URL, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func classifyErr(err error) FailureKind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindConn
}

var previewSpaceRE = regexp.MustCompile(`\s+`)

// bodyPreview renders a bounded sample of a response body: truncated text for
// textual content types, a short hex sample otherwise.
func bodyPreview(body []byte, contentType string) string {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "text") || strings.Contains(ct, "json") ||
		strings.Contains(ct, "xml") || strings.Contains(ct, "javascript") {
		s := string(body)
		if len(s) > previewChars {
			s = s[:previewChars]
		}
		return strings.TrimSpace(previewSpaceRE.ReplaceAllString(s, " "))
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return hex.EncodeToString(body)
}
