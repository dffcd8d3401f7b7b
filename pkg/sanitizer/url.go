package sanitizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gorilla/css/scanner"
	"golang.org/x/text/unicode/norm"
)

var (
	safeHTTPURL   = regexp.MustCompile("(?i)^https?://[^\\s<>\"'`]+$")
	safeDataImage = regexp.MustCompile(`(?i)^data:image/[a-z0-9.+-]+;base64,[a-z0-9+/]+=*$`)
	urlFuncPrefix = regexp.MustCompile(`(?i)url\s*\(`)
)

// urlAttributes hold a URL as their whole value.
var urlAttributes = map[string]struct{}{
	"href":       {},
	"src":        {},
	"action":     {},
	"formaction": {},
	"cite":       {},
	"poster":     {},
	"background": {},
	"longdesc":   {},
	"usemap":     {},
	"data":       {},
	"xlink:href": {},
}

// IsSafeURL reports whether raw matches the safe URL grammar:
// http(s) URLs and base64 encoded data:image payloads. Scheme-less
// relative URLs pass only when allowRelative is set.
func IsSafeURL(raw string, allowRelative bool) bool {
	v := strings.TrimSpace(raw)
	if v == "" || strings.IndexFunc(v, unicode.IsControl) >= 0 {
		return false
	}
	// Compatibility forms (full-width letters, ligatures) must not change the verdict.
	if n := norm.NFKC.String(v); n != v && !IsSafeURL(n, allowRelative) {
		return false
	}
	if safeHTTPURL.MatchString(v) || safeDataImage.MatchString(v) {
		return true
	}
	return allowRelative && isRelativeURL(v)
}

func isRelativeURL(v string) bool {
	colon := strings.IndexByte(v, ':')
	if colon < 0 {
		return true
	}
	// A colon after the first path, query or fragment delimiter is not a scheme separator.
	delim := strings.IndexAny(v, "/?#")
	return delim >= 0 && delim < colon
}

// hasCSSURL reports whether s contains a url( function in any spacing or case.
func hasCSSURL(s string) bool {
	return urlFuncPrefix.MatchString(s)
}

// cssURLs returns the targets of every url(...) token in s.
// ok is false when s cannot be tokenized or holds a url( function
// the scanner could not read as a complete URI token.
func cssURLs(s string) (urls []string, ok bool) {
	sc := scanner.New(s)
	for {
		tok := sc.Next()
		switch tok.Type {
		case scanner.TokenEOF:
			return urls, true
		case scanner.TokenError:
			return nil, false
		case scanner.TokenURI:
			urls = append(urls, unwrapCSSURL(tok.Value))
		case scanner.TokenFunction:
			if strings.EqualFold(strings.TrimSpace(tok.Value), "url(") {
				return nil, false
			}
		}
	}
}

func unwrapCSSURL(tok string) string {
	v := strings.TrimSpace(tok)
	if len(v) >= 4 && strings.EqualFold(v[:4], "url(") {
		v = v[4:]
	}
	v = strings.TrimSuffix(v, ")")
	v = strings.TrimSpace(v)
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = v[1 : len(v)-1]
	}
	return strings.TrimSpace(v)
}

// cssURLsSafe reports whether every url(...) in s passes IsSafeURL.
func cssURLsSafe(s string, allowRelative bool) bool {
	if !hasCSSURL(s) {
		return true
	}
	urls, ok := cssURLs(s)
	// Every url( spelling must have been read as a URI token.
	if !ok || len(urls) != len(urlFuncPrefix.FindAllStringIndex(s, -1)) {
		return false
	}
	for _, u := range urls {
		if !IsSafeURL(u, allowRelative) {
			return false
		}
	}
	return true
}
