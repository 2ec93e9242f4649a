// Package normalize holds the text, company and URL canonicalization rules
// that every dedup hash and similarity check depends on. All functions are
// deterministic: normalizing twice yields the same output.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"html"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRE         = regexp.MustCompile(`\s+`)
	companySuffixRE = regexp.MustCompile(`\(주\)|주식회사|inc\.?|corp\.?|co\.?,?\s?ltd\.?`)
	stripTags       = bluemonday.StrictPolicy()
)

// Text folds a string into its comparable form: Unicode NFKC, lowercase,
// trimmed, inner whitespace collapsed to single spaces.
func Text(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return spaceRE.ReplaceAllString(s, " ")
}

// Company is Text plus removal of common corporate suffixes so that
// "(주)테스트로보틱스" and "테스트로보틱스" hash identically.
func Company(s string) string {
	t := companySuffixRE.ReplaceAllString(Text(s), "")
	return strings.TrimSpace(spaceRE.ReplaceAllString(t, " "))
}

// CleanText collapses whitespace (including NBSP) without case folding.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// CleanHTML strips every tag and script from an HTML fragment and collapses
// the remaining text.
func CleanHTML(fragment string) string {
	// Tag boundaries become spaces so adjacent blocks don't concatenate.
	fragment = strings.ReplaceAll(fragment, "<", " <")
	return CleanText(html.UnescapeString(stripTags.Sanitize(fragment)))
}

func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// TitleCompanyHash keys a posting by normalized title and company.
func TitleCompanyHash(title, company string) string {
	return HashText(Text(title) + "|" + Company(company))
}

const fingerprintLen = 500

// DescFingerprint hashes the first 500 normalized characters of a
// description, enough to catch identical postings with different URLs.
func DescFingerprint(desc string) string {
	return HashText(truncateRunes(Text(desc), fingerprintLen))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// CanonicalURL reduces a URL to its stable comparable form: scheme and host
// lowercased, fragment dropped, utm_* tracking parameters removed, remaining
// query pairs sorted, trailing slash stripped. Unparseable input is returned
// trimmed rather than erased.
func CanonicalURL(raw string) string {
	raw = html.UnescapeString(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	kept := url.Values{}
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			key = k
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			val = v
		}
		key = strings.TrimSpace(key)
		// HTML-sourced URLs sometimes leak the &amp; entity into the key.
		if strings.HasPrefix(strings.ToLower(key), "amp;") {
			key = key[4:]
		}
		if key == "" || strings.HasPrefix(strings.ToLower(key), "utm_") {
			continue
		}
		kept.Add(key, val)
	}
	for k := range kept {
		sort.Strings(kept[k])
	}
	u.RawQuery = kept.Encode()
	return u.String()
}
