// Package render drives a headless Chrome (via rod) for boards whose
// listings only exist after client-side rendering. It is strictly an
// acquisition strategy: navigate, settle, harvest matching anchors.
package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"jobradar-engine/internal/adapter"
)

// Policy mirrors the per-source render block in config.
type Policy struct {
	Enabled      bool
	Timeout      time.Duration
	ScrollRounds int
}

// PolicyFromOptions reads the "render" block, falling back to the caller's
// per-source defaults.
func PolicyFromOptions(opts adapter.Options, defTimeout time.Duration, defRounds int) Policy {
	r := opts.Sub("render")
	return Policy{
		Enabled:      r.Bool("enabled", true),
		Timeout:      time.Duration(r.Int("timeout_ms", int(defTimeout/time.Millisecond))) * time.Millisecond,
		ScrollRounds: r.Int("scroll_rounds", defRounds),
	}
}

// Heavy page assets are pointless for link harvesting.
var blockedResourceTypes = map[proto.NetworkResourceType]bool{
	proto.NetworkResourceTypeImage: true,
	proto.NetworkResourceTypeMedia: true,
	proto.NetworkResourceTypeFont:  true,
}

// CollectLinks renders startURL and returns every anchor href matching
// linkRE. dnsFailed is reported separately so callers can feed the
// day-scoped DNS breaker.
func CollectLinks(ctx context.Context, startURL string, linkRE *regexp.Regexp, pol Policy) (links []string, dnsFailed bool, err error) {
	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, false, fmt.Errorf("render launch: %w", err)
	}
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, false, fmt.Errorf("render connect: %w", err)
	}
	defer func() {
		_ = browser.Close()
		l.Cleanup()
	}()

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, false, fmt.Errorf("render page: %w", err)
	}

	router := page.HijackRequests()
	if err := router.Add("*", "", func(h *rod.Hijack) {
		if blockedResourceTypes[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	}); err == nil {
		go router.Run()
		defer func() { _ = router.Stop() }()
	}

	page = page.Timeout(pol.Timeout)
	if err := page.Navigate(startURL); err != nil {
		return nil, isDNSError(err), fmt.Errorf("render navigate %s: %w", startURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, isDNSError(err), fmt.Errorf("render wait %s: %w", startURL, err)
	}

	for i := 0; i < pol.ScrollRounds; i++ {
		_ = page.Mouse.Scroll(0, 5000, 1)
		time.Sleep(600 * time.Millisecond)
	}

	res, err := page.Eval(`() => Array.from(document.querySelectorAll("a[href]")).map(a => a.href)`)
	if err != nil {
		return nil, false, fmt.Errorf("render eval: %w", err)
	}
	for _, v := range res.Value.Arr() {
		href := v.Str()
		if linkRE.MatchString(href) {
			links = append(links, href)
		}
	}
	return links, false, nil
}

// FetchHTML renders pageURL and returns the settled document HTML.
func FetchHTML(ctx context.Context, pageURL string, pol Policy) (string, error) {
	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("render launch: %w", err)
	}
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return "", fmt.Errorf("render connect: %w", err)
	}
	defer func() {
		_ = browser.Close()
		l.Cleanup()
	}()

	page, err := stealth.Page(browser)
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	page = page.Timeout(pol.Timeout)
	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("render navigate %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("render wait %s: %w", pageURL, err)
	}
	time.Sleep(2 * time.Second)
	return page.HTML()
}

func isDNSError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ERR_NAME_NOT_RESOLVED")
}
