package sanitizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/gorilla/css/scanner"
)

var (
	// Baseline CSS threats, applied in addition to the policy's blocked patterns.
	cssDangerousValue = regexp.MustCompile(`(?i)javascript\s*:|vbscript\s*:|livescript\s*:|mocha\s*:|expression\s*\(|@import|behavior\s*:|-moz-binding|data\s*:[^,]*script`)

	cssDangerousSelector = regexp.MustCompile(`(?i)javascript\s*:|expression\s*\(|@import|url\s*\(\s*["']?\s*javascript`)

	cssImportant = regexp.MustCompile(`(?i)\s*!\s*important\s*$`)
)

// unitKeywords are accepted for any property in the unit table.
var unitKeywords = map[string]struct{}{
	"0":       {},
	"auto":    {},
	"inherit": {},
	"initial": {},
	"unset":   {},
	"normal":  {},
}

// FilterCSS filters either a stylesheet or a bare declaration list,
// chosen by the presence of braces in raw.
func FilterCSS(raw string, p *Policy) string {
	return newCSSFilter(p, nil).filter(raw)
}

// FilterStylesheet filters the contents of a <style> block.
func FilterStylesheet(raw string, p *Policy) string {
	return newCSSFilter(p, nil).stylesheet(raw)
}

// FilterInlineStyle filters the value of a style attribute.
// Input containing rule braces is rejected as a whole.
func FilterInlineStyle(raw string, p *Policy) string {
	return newCSSFilter(p, nil).inline(raw)
}

// AuditFunc receives one record per dropped tag, attribute, CSS declaration or rule.
type AuditFunc func(kind, name, reason string)

type cssFilter struct {
	policy *Policy
	audit  AuditFunc
}

func newCSSFilter(p *Policy, audit AuditFunc) cssFilter {
	if audit == nil {
		audit = func(string, string, string) {}
	}
	return cssFilter{policy: p, audit: audit}
}

func (f cssFilter) filter(raw string) string {
	if strings.ContainsAny(raw, "{}") {
		return f.stylesheet(raw)
	}
	return f.declarations(raw)
}

func (f cssFilter) inline(raw string) string {
	if strings.ContainsAny(raw, "{}") {
		f.audit("css-declaration", "style", "rule braces in inline style")
		return ""
	}
	return f.declarations(raw)
}

func (f cssFilter) stylesheet(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	if !wellFormedBlocks(raw) {
		f.audit("css-rule", "stylesheet", "unparseable stylesheet")
		return ""
	}
	sheet, err := parser.Parse(raw)
	if err != nil {
		f.audit("css-rule", "stylesheet", "unparseable stylesheet")
		return ""
	}

	rules := make([]string, 0, len(sheet.Rules))
	for _, rule := range sheet.Rules {
		if rule.Kind == css.AtRule {
			f.audit("css-rule", rule.Name, "at-rule not allowed")
			continue
		}

		selector := strings.TrimSpace(strings.Join(rule.Selectors, ", "))
		if selector == "" {
			selector = strings.TrimSpace(rule.Prelude)
		}
		if reason, ok := f.unsafeSelector(selector); ok {
			f.audit("css-rule", selector, reason)
			continue
		}

		decls := make([]string, 0, len(rule.Declarations))
		for _, d := range rule.Declarations {
			if out, ok := f.declaration(d.Property, d.Value, d.Important); ok {
				decls = append(decls, out)
			}
		}
		if len(decls) == 0 {
			f.audit("css-rule", selector, "no declarations left")
			continue
		}
		rules = append(rules, fmt.Sprintf("%s { %s }", selector, strings.Join(decls, "; ")))
	}
	return strings.Join(rules, "\n")
}

func (f cssFilter) unsafeSelector(selector string) (string, bool) {
	switch {
	case selector == "":
		return "empty selector", true
	case strings.Contains(selector, "<"):
		return "markup in selector", true
	case strings.Contains(selector, "\\"):
		return "escape sequence in selector", true
	case cssDangerousSelector.MatchString(selector):
		return "dangerous selector", true
	}
	if pattern, ok := f.policy.matchBlocked(selector); ok {
		return "blocked pattern " + pattern, true
	}
	return "", false
}

func (f cssFilter) declarations(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	chunks, ok := splitDeclarations(raw)
	if !ok {
		f.audit("css-declaration", "style", "unparseable declaration list")
		return ""
	}

	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		prop, value, found := strings.Cut(chunk, ":")
		if !found {
			if strings.TrimSpace(chunk) != "" {
				f.audit("css-declaration", strings.TrimSpace(chunk), "missing value")
			}
			continue
		}
		important := false
		if cssImportant.MatchString(value) {
			important = true
			value = cssImportant.ReplaceAllString(value, "")
		}
		if decl, ok := f.declaration(prop, value, important); ok {
			out = append(out, decl)
		}
	}
	return strings.Join(out, "; ")
}

// declaration validates one property/value pair and returns its serialized form.
func (f cssFilter) declaration(prop, value string, important bool) (string, bool) {
	prop = strings.ToLower(strings.TrimSpace(prop))
	if !f.policy.AllowsCSSProperty(prop) {
		f.audit("css-declaration", prop, "property not allowed")
		return "", false
	}

	value = strings.TrimSpace(stripControl(value))
	if utf8.RuneCountInString(value) > MaxCSSValueLength {
		value = strings.TrimSpace(string([]rune(value)[:MaxCSSValueLength]))
		f.audit("css-declaration", prop, "value truncated")
	}
	if value == "" {
		f.audit("css-declaration", prop, "empty value")
		return "", false
	}

	if strings.ContainsAny(value, "\\<") {
		f.audit("css-declaration", prop, "escape sequence or markup in value")
		return "", false
	}
	if cssDangerousValue.MatchString(value) {
		f.audit("css-declaration", prop, "dangerous value")
		return "", false
	}
	if pattern, ok := f.policy.matchBlocked(value); ok {
		f.audit("css-declaration", prop, "blocked pattern "+pattern)
		return "", false
	}
	if !cssURLsSafe(value, f.policy.AllowRelativeURLs()) {
		f.audit("css-declaration", prop, "unsafe url")
		return "", false
	}
	if !f.unitsValid(prop, value) {
		f.audit("css-declaration", prop, "unit not allowed")
		return "", false
	}

	if important {
		return prop + ": " + value + " !important", true
	}
	return prop + ": " + value, true
}

func (f cssFilter) unitsValid(prop, value string) bool {
	units, ok := f.policy.unitsFor(prop)
	if !ok {
		return true
	}
	for _, part := range strings.Fields(strings.ToLower(value)) {
		if _, ok := unitKeywords[part]; ok {
			continue
		}
		if prop == "line-height" && isNumber(part) {
			continue
		}
		if !hasUnitSuffix(part, units) {
			return false
		}
	}
	return true
}

func hasUnitSuffix(part string, units []string) bool {
	for _, u := range units {
		num, found := strings.CutSuffix(part, u)
		if found && isNumber(num) {
			return true
		}
	}
	return false
}

func isNumber(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if s == "" || s == "." {
		return false
	}
	dot := false
	for _, r := range s {
		switch {
		case r == '.' && !dot:
			dot = true
		case r < '0' || r > '9':
			return false
		}
	}
	return true
}

// splitDeclarations splits a declaration list on top-level semicolons.
// Semicolons inside url(...), functions and strings do not split.
func splitDeclarations(raw string) ([]string, bool) {
	var (
		chunks []string
		cur    strings.Builder
		depth  int
	)

	sc := scanner.New(raw)
	for {
		tok := sc.Next()
		switch tok.Type {
		case scanner.TokenEOF:
			if s := strings.TrimSpace(cur.String()); s != "" {
				chunks = append(chunks, s)
			}
			return chunks, depth == 0
		case scanner.TokenError:
			return nil, false
		case scanner.TokenComment:
			continue
		case scanner.TokenFunction:
			depth++
		case scanner.TokenChar:
			switch tok.Value {
			case "(":
				depth++
			case ")":
				if depth > 0 {
					depth--
				}
			case ";":
				if depth == 0 {
					if s := strings.TrimSpace(cur.String()); s != "" {
						chunks = append(chunks, s)
					}
					cur.Reset()
					continue
				}
			}
		}
		cur.WriteString(tok.Value)
	}
}

// wellFormedBlocks reports whether every brace in raw closes a block it
// opened, and whether only at-rule blocks contain nested blocks. The
// stylesheet parser does not terminate on some inputs outside that shape,
// such as a "}" before the first "{".
func wellFormedBlocks(raw string) bool {
	// open holds, per open block, whether it belongs to an at-rule.
	var open []bool
	atRule := false
	sc := scanner.New(raw)
	for {
		tok := sc.Next()
		switch tok.Type {
		case scanner.TokenEOF:
			return len(open) == 0
		case scanner.TokenError:
			return false
		case scanner.TokenAtKeyword:
			atRule = true
		case scanner.TokenChar:
			switch tok.Value {
			case "{":
				if len(open) > 0 && !open[len(open)-1] {
					return false
				}
				open = append(open, atRule)
				atRule = false
			case "}":
				if len(open) == 0 {
					return false
				}
				open = open[:len(open)-1]
				atRule = false
			case ";":
				atRule = false
			}
		}
	}
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r == '\ufeff' {
			return -1
		}
		return r
	}, s)
}

// colorPattern matches hex and rgb()/rgba() colors.
var colorPattern = regexp.MustCompile(`^(?:#[0-9a-f]{3}|#[0-9a-f]{6}|rgba?\(\s*\d+\s*,\s*\d+\s*,\s*\d+\s*(?:,\s*[0-9.]+)?\s*\))$`)

var namedColors = map[string]struct{}{
	"white": {}, "black": {}, "red": {}, "green": {}, "blue": {}, "yellow": {},
	"orange": {}, "purple": {}, "pink": {}, "brown": {}, "gray": {}, "grey": {},
	"transparent": {}, "inherit": {}, "initial": {},
}

// ValidColor reports whether v is a hex, rgb/rgba or basic named color.
func ValidColor(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return false
	}
	if _, ok := namedColors[v]; ok {
		return true
	}
	return colorPattern.MatchString(v)
}
