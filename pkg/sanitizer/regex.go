package sanitizer

import (
	"html"
	"regexp"
	"slices"
	"strings"
)

var (
	reComment         = regexp.MustCompile(`(?s)<!--.*?(?:-->|$)`)
	reDeclaration     = regexp.MustCompile(`(?s)<[!?][^>]*(?:>|$)`)
	reTag             = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9:-]*)((?:\s+(?:[^>"']|"[^"]*"|'[^']*')*)?)\s*/?>`)
	reAttr            = regexp.MustCompile("([^\\s\"'<>/=]+)(?:\\s*=\\s*(?:\"([^\"]*)\"|'([^']*)'|([^\\s\"'=<>`]+)))?")
	reContainerBlocks = containerPatterns()
)

// containerPatterns builds one pattern per dangerous container. RE2 has
// no backreferences, so a single pattern cannot pair open and close tags.
func containerPatterns() []*regexp.Regexp {
	names := make([]string, 0, len(droppedWithContent))
	for name := range droppedWithContent {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]*regexp.Regexp, 0, len(names))
	for _, name := range names {
		// An unterminated container swallows the rest of the input.
		out = append(out, regexp.MustCompile(`(?is)<`+name+`\b[^>]*>.*?(?:</`+name+`\s*>|$)`))
	}
	return out
}

// RegexFilter is the fallback HTMLFilter. It does not build a tree:
// dangerous containers are removed with their content, comments are
// stripped, remaining tags are matched one by one and every other
// character is treated as text and re-escaped. Closing tags are only
// emitted for elements it opened, and open elements are closed at the end.
// <style> blocks are always removed.
type RegexFilter struct{}

// Filter implements HTMLFilter.
func (RegexFilter) Filter(raw string, p *Policy, audit AuditFunc) (string, error) {
	f := newElementFilter(p, audit)

	s := reComment.ReplaceAllStringFunc(raw, func(string) string {
		f.audit("comment", "#comment", "comments are stripped")
		return ""
	})
	for _, re := range reContainerBlocks {
		s = re.ReplaceAllStringFunc(s, func(m string) string {
			if loc := reTag.FindStringSubmatch(m); loc != nil {
				f.dropTag(strings.ToLower(loc[2]), "tag not allowed")
			}
			return ""
		})
	}
	s = reDeclaration.ReplaceAllStringFunc(s, func(m string) string {
		f.audit("doctype", m, "declaration is stripped")
		return ""
	})

	var (
		b    strings.Builder
		open []string
		last int
	)
	for _, m := range reTag.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(escapeText(s[last:m[0]]))
		last = m[1]

		closing := m[3] > m[2]
		tag := strings.ToLower(s[m[4]:m[5]])
		rawAttrs := ""
		if m[6] >= 0 {
			rawAttrs = s[m[6]:m[7]]
		}

		if !p.AllowsTag(tag) {
			if !closing {
				f.dropTag(tag, "tag not allowed")
			}
			continue
		}

		if closing {
			i := slices.Index(open, tag)
			if i < 0 {
				continue
			}
			// Close everything opened after tag as well.
			for j := len(open) - 1; j >= i; j-- {
				b.WriteString("</" + open[j] + ">")
			}
			open = open[:i]
			continue
		}

		if len(open)+1 > p.MaxDepth() {
			f.dropTag(tag, "nesting too deep")
			continue
		}

		b.WriteByte('<')
		b.WriteString(tag)
		for _, a := range parseAttrs(rawAttrs) {
			val, ok := f.attribute(tag, a[0], a[1])
			if !ok {
				continue
			}
			b.WriteString(" " + strings.ToLower(a[0]) + `="` + html.EscapeString(val) + `"`)
		}
		if isVoid(tag) {
			b.WriteString("/>")
			continue
		}
		b.WriteByte('>')
		open = append(open, tag)
	}
	b.WriteString(escapeText(s[last:]))

	for j := len(open) - 1; j >= 0; j-- {
		b.WriteString("</" + open[j] + ">")
	}
	return b.String(), nil
}

// parseAttrs returns name/value pairs with entities decoded.
// Later duplicates of a name are ignored.
func parseAttrs(s string) [][2]string {
	var (
		out  [][2]string
		seen = map[string]struct{}{}
	)
	for _, m := range reAttr.FindAllStringSubmatch(s, -1) {
		name := strings.ToLower(m[1])
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		val := m[2] + m[3] + m[4]
		out = append(out, [2]string{name, html.UnescapeString(val)})
	}
	return out
}

// escapeText decodes entities once and escapes the result, so stray
// angle brackets become text and existing entities are not doubled.
func escapeText(s string) string {
	return html.EscapeString(html.UnescapeString(s))
}
