// Package httpx is the shared resilient HTTP transport used by every source
// adapter: pooled connections, bounded retries with backoff on transient
// statuses, per-host rate limiting, and structured failures with debug dumps.
package httpx

import (
	"bytes"
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultReadTimeout    = 25 * time.Second
	backoffFactor         = 600 * time.Millisecond
	maxBackoff            = 30 * time.Second

	poolMaxIdle        = 20
	poolMaxIdlePerHost = 50
)

var retryStatuses = map[int]bool{429: true, 500: true, 502: true, 503: true, 504: true}

var defaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) jobradar/0.2 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7",
	"Accept-Language": "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
}

// Options tune one request. Zero values fall back to client defaults.
type Options struct {
	Headers     map[string]string
	Timeout     time.Duration // read timeout; connect stays at the fixed floor
	MaxRetries  int
	Body        []byte
	LogFailures bool
}

// Response is a fully-read successful (2xx/3xx) response.
type Response struct {
	StatusCode  int
	Header      http.Header
	Body        []byte
	FinalURL    string
	ContentType string
}

// Client is safe for concurrent use by all adapters. Underlying http.Clients
// are cached per retry budget so each budget reuses one connection pool.
type Client struct {
	mu      sync.Mutex
	pools   map[int]*http.Client
	limiter *HostLimiter
	dumper  *Dumper
}

func NewClient(limiter *HostLimiter, dumper *Dumper) *Client {
	return &Client{
		pools:   make(map[int]*http.Client),
		limiter: limiter,
		dumper:  dumper,
	}
}

func (c *Client) pool(retries int) *http.Client {
	if retries < 0 {
		retries = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if hc, ok := c.pools[retries]; ok {
		return hc
	}
	hc := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   defaultConnectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        poolMaxIdle,
			MaxIdleConnsPerHost: poolMaxIdlePerHost,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	c.pools[retries] = hc
	return hc
}

// Request performs method/rawURL with bounded retries. It returns a
// *Failure (as error) on terminal failure; the response body is fully read
// and the connection returned to the pool in every case.
func (c *Client) Request(ctx context.Context, method, rawURL string, opts Options) (*Response, error) {
	readTimeout := defaultReadTimeout
	if opts.Timeout > 0 {
		readTimeout = opts.Timeout
		if readTimeout < defaultConnectTimeout {
			readTimeout = defaultConnectTimeout
		}
	}

	headers := make(map[string]string, len(defaultHeaders)+len(opts.Headers)+1)
	for k, v := range defaultHeaders {
		headers[k] = v
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}
	if _, ok := headers["Referer"]; !ok {
		if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" && u.Host != "" {
			headers["Referer"] = u.Scheme + "://" + u.Host + "/"
		}
	}

	hc := c.pool(opts.MaxRetries)
	attempts := opts.MaxRetries + 1

	var lastFail *Failure
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := backoff(attempt, lastFail)
			select {
			case <-ctx.Done():
				return nil, c.fail(lastFail, rawURL, opts.LogFailures)
			case <-time.After(wait):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.WaitURL(ctx, rawURL); err != nil {
				return nil, c.fail(&Failure{Kind: KindTimeout, Reason: err.Error(), URL: rawURL, Err: err}, rawURL, opts.LogFailures)
			}
		}

		resp, fail := c.attempt(ctx, hc, method, rawURL, headers, opts.Body, readTimeout)
		if fail == nil {
			return resp, nil
		}
		lastFail = fail

		if fail.Kind == KindHTTP && !retryStatuses[fail.StatusCode] {
			break // client errors are terminal, no retry
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, c.fail(lastFail, rawURL, opts.LogFailures)
}

func (c *Client) attempt(ctx context.Context, hc *http.Client, method, rawURL string, headers map[string]string, body []byte, readTimeout time.Duration) (*Response, *Failure) {
	actx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(actx, method, rawURL, rd)
	if err != nil {
		return nil, &Failure{Kind: KindConn, Reason: err.Error(), URL: rawURL, Err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, &Failure{Kind: classifyErr(err), Reason: err.Error(), URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Failure{Kind: classifyErr(err), Reason: err.Error(), URL: rawURL, Err: err}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	ct := resp.Header.Get("Content-Type")

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return &Response{
			StatusCode:  resp.StatusCode,
			Header:      resp.Header,
			Body:        raw,
			FinalURL:    finalURL,
			ContentType: ct,
		}, nil
	}

	fail := &Failure{
		Kind:        KindHTTP,
		StatusCode:  resp.StatusCode,
		Reason:      http.StatusText(resp.StatusCode),
		URL:         rawURL,
		FinalURL:    finalURL,
		ContentType: ct,
		BodyPreview: bodyPreview(raw, ct),
	}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		fail.retryAfter = parseRetryAfter(ra)
	}
	fail.DumpPath = c.dumper.Dump(finalURL, resp.StatusCode, fail.Reason, resp.Header, raw)
	return nil, fail
}

func (c *Client) fail(f *Failure, rawURL string, logFailures bool) error {
	if f == nil {
		f = &Failure{Kind: KindConn, Reason: "no attempt made", URL: rawURL}
	}
	if logFailures {
		if f.StatusCode > 0 {
			log.Printf("[httpx] request failed status=%d reason=%q url=%s final_url=%s ct=%s preview=%q dump=%s",
				f.StatusCode, f.Reason, f.URL, f.FinalURL, f.ContentType, f.BodyPreview, orDash(f.DumpPath))
		} else {
			log.Printf("[httpx] request failed kind=%s url=%s err=%v", f.Kind, f.URL, f.Err)
		}
	}
	return f
}

// backoff is exponential (factor 0.6s) but defers to Retry-After when the
// server sent one.
func backoff(attempt int, last *Failure) time.Duration {
	if last != nil && last.retryAfter > 0 {
		return last.retryAfter
	}
	d := backoffFactor * time.Duration(1<<(attempt-1))
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func parseRetryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		if d > maxBackoff {
			d = maxBackoff
		}
		return d
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			if d > maxBackoff {
				return maxBackoff
			}
			return d
		}
	}
	return 0
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
