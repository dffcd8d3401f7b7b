package sanitizer

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// WildcardTag is the AllowedAttributes key whose attributes apply to every tag.
const WildcardTag = "*"

// PolicyConfig is the mutable, serializable description of a Policy.
// It is only used as input for NewPolicy; the resulting Policy never
// references it again.
type PolicyConfig struct {
	AllowedTags          []string            `yaml:"allowed_tags"`
	AllowedAttributes    map[string][]string `yaml:"allowed_attributes"`
	AllowedCSSProperties []string            `yaml:"allowed_css_properties"`
	MaxContentLength     int                 `yaml:"max_content_length"`
	BlockedPatterns      []string            `yaml:"blocked_patterns"`

	// CSSUnits maps a CSS property to the unit suffixes its value components may end with.
	CSSUnits map[string][]string `yaml:"css_units"`

	// AllowRelativeURLs accepts scheme-less URLs such as "/docs" or "#top".
	AllowRelativeURLs bool `yaml:"allow_relative_urls"`
	// KeepDisallowedText unwraps disallowed elements instead of dropping them.
	// Raw-text containers like script and style are dropped regardless.
	KeepDisallowedText bool `yaml:"keep_disallowed_text"`
	// MaxDepth limits element nesting; deeper nodes are dropped. Zero means DefaultMaxDepth.
	MaxDepth int `yaml:"max_depth"`
}

// Policy is an immutable, validated sanitization policy.
// Safe for concurrent use.
type Policy struct {
	tags           map[string]struct{}
	attrs          map[string]map[string]struct{}
	cssProperties  map[string]struct{}
	cssUnits       map[string][]string
	maxLength      int
	maxDepth       int
	blocked        []*regexp.Regexp
	relativeURLs   bool
	keepText       bool
	sourcePatterns []string
}

// NewPolicy validates cfg and builds an immutable Policy from it.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	var errs []error

	if cfg.MaxContentLength <= 0 {
		errs = append(errs, fmt.Errorf("max content length must be positive, got %d", cfg.MaxContentLength))
	}
	if cfg.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("max depth must not be negative, got %d", cfg.MaxDepth))
	}

	p := &Policy{
		tags:          make(map[string]struct{}, len(cfg.AllowedTags)),
		attrs:         make(map[string]map[string]struct{}, len(cfg.AllowedAttributes)),
		cssProperties: make(map[string]struct{}, len(cfg.AllowedCSSProperties)),
		cssUnits:      make(map[string][]string, len(cfg.CSSUnits)),
		maxLength:     cfg.MaxContentLength,
		maxDepth:      cfg.MaxDepth,
		relativeURLs:  cfg.AllowRelativeURLs,
		keepText:      cfg.KeepDisallowedText,
	}
	if p.maxDepth == 0 {
		p.maxDepth = DefaultMaxDepth
	}

	for _, tag := range cfg.AllowedTags {
		tag = normalizeName(tag)
		if tag == "" {
			errs = append(errs, errors.New("allowed tags contain an empty name"))
			continue
		}
		if _, ok := forbiddenTags[tag]; ok {
			errs = append(errs, fmt.Errorf("tag %q cannot be allowed", tag))
			continue
		}
		p.tags[tag] = struct{}{}
	}

	for tag, names := range cfg.AllowedAttributes {
		tag = normalizeName(tag)
		if tag == "" {
			errs = append(errs, errors.New("allowed attributes contain an empty tag name"))
			continue
		}
		set := p.attrs[tag]
		if set == nil {
			set = make(map[string]struct{}, len(names))
			p.attrs[tag] = set
		}
		for _, name := range names {
			name = normalizeName(name)
			switch {
			case name == "":
				errs = append(errs, fmt.Errorf("tag %q has an empty attribute name", tag))
			case strings.HasPrefix(name, "on"):
				errs = append(errs, fmt.Errorf("tag %q: event handler attribute %q cannot be allowed", tag, name))
			default:
				set[name] = struct{}{}
			}
		}
	}

	for _, prop := range cfg.AllowedCSSProperties {
		prop = normalizeName(prop)
		if prop == "" {
			errs = append(errs, errors.New("allowed css properties contain an empty name"))
			continue
		}
		p.cssProperties[prop] = struct{}{}
	}

	for prop, units := range cfg.CSSUnits {
		prop = normalizeName(prop)
		lowered := make([]string, 0, len(units))
		for _, u := range units {
			if u = normalizeName(u); u != "" {
				lowered = append(lowered, u)
			}
		}
		p.cssUnits[prop] = lowered
	}

	for _, pattern := range cfg.BlockedPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("blocked pattern %q: %w", pattern, err))
			continue
		}
		p.blocked = append(p.blocked, re)
		p.sourcePatterns = append(p.sourcePatterns, pattern)
	}

	if len(errs) > 0 {
		return nil, errors.Join(append([]error{ErrInvalidPolicy}, errs...)...)
	}
	return p, nil
}

// MustPolicy is like NewPolicy but panics on an invalid configuration.
func MustPolicy(cfg PolicyConfig) *Policy {
	p, err := NewPolicy(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

// AllowsTag reports whether the element name is allowed.
func (p *Policy) AllowsTag(tag string) bool {
	_, ok := p.tags[normalizeName(tag)]
	return ok
}

// AllowsAttribute reports whether attr is allowed on tag, either directly or via WildcardTag.
func (p *Policy) AllowsAttribute(tag, attr string) bool {
	attr = normalizeName(attr)
	if set, ok := p.attrs[normalizeName(tag)]; ok {
		if _, ok := set[attr]; ok {
			return true
		}
	}
	if set, ok := p.attrs[WildcardTag]; ok {
		if _, ok := set[attr]; ok {
			return true
		}
	}
	return false
}

// AllowsCSSProperty reports whether the CSS property name is allowed.
func (p *Policy) AllowsCSSProperty(prop string) bool {
	_, ok := p.cssProperties[normalizeName(prop)]
	return ok
}

// MaxContentLength returns the maximum input length in characters.
func (p *Policy) MaxContentLength() int { return p.maxLength }

// MaxDepth returns the maximum element nesting depth.
func (p *Policy) MaxDepth() int { return p.maxDepth }

// AllowRelativeURLs reports whether scheme-less URLs are accepted.
func (p *Policy) AllowRelativeURLs() bool { return p.relativeURLs }

// KeepDisallowedText reports whether disallowed elements are unwrapped instead of dropped.
func (p *Policy) KeepDisallowedText() bool { return p.keepText }

// BlockedPatterns returns the source of each blocked pattern, in match order.
func (p *Policy) BlockedPatterns() []string {
	return slices.Clone(p.sourcePatterns)
}

// Tags returns the sorted allowed tag names.
func (p *Policy) Tags() []string {
	return slices.Sorted(maps.Keys(p.tags))
}

// CSSProperties returns the sorted allowed CSS property names.
func (p *Policy) CSSProperties() []string {
	return slices.Sorted(maps.Keys(p.cssProperties))
}

func (p *Policy) unitsFor(prop string) ([]string, bool) {
	u, ok := p.cssUnits[prop]
	return u, ok
}

// matchBlocked returns the source of the first blocked pattern matching s.
func (p *Policy) matchBlocked(s string) (string, bool) {
	for i, re := range p.blocked {
		if re.MatchString(s) {
			return p.sourcePatterns[i], true
		}
	}
	return "", false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
