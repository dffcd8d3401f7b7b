package sanitizer

import (
	"strings"
)

// HTMLFilter performs the structural tag and attribute pass.
// Implementations must return balanced markup containing only tags and
// attributes the policy allows, and report every drop through audit.
// A returned error makes the sanitizer strip all markup instead.
type HTMLFilter interface {
	Filter(raw string, p *Policy, audit AuditFunc) (string, error)
}

// Strategy selects the built-in HTMLFilter.
type Strategy int

const (
	// StrategyStructural parses the input with an HTML5 parser.
	StrategyStructural Strategy = iota
	// StrategyRegex tokenizes tags with regular expressions.
	StrategyRegex
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case StrategyStructural:
		return "structural"
	case StrategyRegex:
		return "regex"
	default:
		return "unknown"
	}
}

func (s Strategy) filter() HTMLFilter {
	if s == StrategyRegex {
		return RegexFilter{}
	}
	return StructuralFilter{}
}

// forbiddenTags can never be allowed by a policy: their content is
// either executable or parsed in a way a re-serialized tree cannot reproduce.
var forbiddenTags = map[string]struct{}{
	"script":    {},
	"iframe":    {},
	"frame":     {},
	"frameset":  {},
	"object":    {},
	"embed":     {},
	"applet":    {},
	"base":      {},
	"meta":      {},
	"link":      {},
	"noscript":  {},
	"noembed":   {},
	"noframes":  {},
	"template":  {},
	"svg":       {},
	"math":      {},
	"xmp":       {},
	"plaintext": {},
}

// droppedWithContent are removed together with their children even when
// KeepDisallowedText is set.
var droppedWithContent = map[string]struct{}{
	"script":    {},
	"style":     {},
	"iframe":    {},
	"frame":     {},
	"frameset":  {},
	"object":    {},
	"embed":     {},
	"applet":    {},
	"noscript":  {},
	"noembed":   {},
	"noframes":  {},
	"template":  {},
	"svg":       {},
	"math":      {},
	"title":     {},
	"textarea":  {},
	"xmp":       {},
	"plaintext": {},
	"head":      {},
	"select":    {},
}

// voidElements never have children or an end tag.
var voidElements = map[string]struct{}{
	"area":   {},
	"base":   {},
	"br":     {},
	"col":    {},
	"embed":  {},
	"hr":     {},
	"img":    {},
	"input":  {},
	"keygen": {},
	"link":   {},
	"meta":   {},
	"param":  {},
	"source": {},
	"track":  {},
	"wbr":    {},
}

func isVoid(tag string) bool {
	_, ok := voidElements[tag]
	return ok
}

// elementFilter holds the attribute decisions shared by every HTMLFilter.
type elementFilter struct {
	policy *Policy
	css    cssFilter
	audit  AuditFunc
}

func newElementFilter(p *Policy, audit AuditFunc) elementFilter {
	if audit == nil {
		audit = func(string, string, string) {}
	}
	return elementFilter{policy: p, css: newCSSFilter(p, audit), audit: audit}
}

// dropTag reports a removed element.
func (f elementFilter) dropTag(tag, reason string) {
	f.audit("tag", tag, reason)
}

// attribute returns the value to emit for key on tag, or false when the
// attribute must be dropped.
func (f elementFilter) attribute(tag, key, val string) (string, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	name := tag + "@" + key

	switch {
	case strings.HasPrefix(key, "on"):
		f.audit("attribute", name, "event handler")
		return "", false
	case !f.policy.AllowsAttribute(tag, key):
		f.audit("attribute", name, "attribute not allowed")
		return "", false
	}

	if key == "style" {
		out := f.css.inline(val)
		if out == "" {
			f.audit("attribute", name, "no css left")
			return "", false
		}
		return out, true
	}

	if _, ok := urlAttributes[key]; ok && !IsSafeURL(val, f.policy.AllowRelativeURLs()) {
		f.audit("attribute", name, "unsafe url")
		return "", false
	}
	if hasCSSURL(val) && !cssURLsSafe(val, f.policy.AllowRelativeURLs()) {
		f.audit("attribute", name, "unsafe url")
		return "", false
	}
	if pattern, ok := f.policy.matchBlocked(val); ok {
		f.audit("attribute", name, "blocked pattern "+pattern)
		return "", false
	}
	return val, true
}

// styleElement filters the text of an allowed <style> element.
func (f elementFilter) styleElement(text string) (string, bool) {
	out := f.css.stylesheet(text)
	switch {
	case out == "":
		f.dropTag("style", "no css left")
		return "", false
	case strings.Contains(out, "<"):
		f.dropTag("style", "markup in stylesheet")
		return "", false
	}
	return out, true
}
