package sanitizer

const (
	// DefaultMaxContentLength is the default input limit in characters (1M).
	DefaultMaxContentLength = 1_000_000
	// DefaultMaxDepth is the default maximum element nesting depth.
	DefaultMaxDepth = 256
	// MaxCSSValueLength is the ceiling for a single CSS declaration value; longer values are truncated.
	MaxCSSValueLength = 200
)

// eventHandlerPattern matches inline DOM event handler assignments.
// Listing real event names keeps prose like "one = two" out of the final sweep.
const eventHandlerPattern = `\bon(?:abort|afterprint|animation(?:start|end|iteration)|auxclick|beforeinput|beforeprint|beforeunload|begin|blur|cancel|canplay(?:through)?|change|click|close|contextmenu|copy|cuechange|cut|dblclick|drag(?:end|enter|leave|over|start)?|drop|durationchange|emptied|end|ended|error|focus(?:in|out)?|formdata|hashchange|input|invalid|key(?:down|press|up)|load(?:eddata|edmetadata|start)?|message|mouse(?:down|enter|leave|move|out|over|up|wheel)|offline|online|pagehide|pageshow|paste|pause|play(?:ing)?|pointer(?:cancel|down|enter|leave|move|out|over|up)|popstate|progress|ratechange|repeat|reset|resize|scroll(?:end)?|search|seeked|seeking|select(?:start|ionchange)?|show|stalled|storage|submit|suspend|timeupdate|toggle|touch(?:cancel|end|move|start)|transition(?:cancel|end|run|start)|unload|volumechange|waiting|wheel)\s*=`

// DefaultBlockedPatterns are matched case-insensitively against raw input,
// individual attribute and CSS values, and the serialized output.
var DefaultBlockedPatterns = []string{
	`<\s*script`,
	`javascript\s*:`,
	`vbscript\s*:`,
	`livescript\s*:`,
	`mocha\s*:`,
	`data\s*:\s*text/html`,
	`data\s*:\s*application/`,
	`expression\s*\(`,
	`@import`,
	`-moz-binding`,
	eventHandlerPattern,
}

// DefaultPolicyConfig returns the configuration behind DefaultPolicy.
// Each call returns fresh slices and maps, so callers may modify the result.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		AllowedTags: []string{
			"p", "br", "strong", "em", "u", "b", "i",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"ul", "ol", "li", "blockquote",
			"a", "img", "div", "span", "code", "pre",
			"table", "thead", "tbody", "tr", "th", "td",
		},
		AllowedAttributes: map[string][]string{
			"a":         {"href", "title"},
			"img":       {"src", "alt", "title", "width", "height"},
			"div":       {"class", "id"},
			"span":      {"class", "id"},
			"p":         {"class", "id"},
			"td":        {"colspan", "rowspan"},
			"th":        {"colspan", "rowspan"},
			WildcardTag: {"style"},
		},
		AllowedCSSProperties: []string{
			// typography
			"color", "font-family", "font-size", "font-weight", "font-style",
			"line-height", "letter-spacing", "text-align", "text-decoration",
			"text-transform", "text-indent", "word-spacing",
			// box model and layout
			"margin", "margin-top", "margin-right", "margin-bottom", "margin-left",
			"padding", "padding-top", "padding-right", "padding-bottom", "padding-left",
			"border", "border-radius", "width", "height", "max-width", "max-height",
			"min-width", "min-height", "display", "overflow", "overflow-x", "overflow-y",
			// visual
			"background", "background-color", "background-image", "background-size",
			"background-position", "background-repeat", "opacity", "box-shadow",
			"border-color", "border-style", "border-width",
			// flexbox
			"flex", "flex-direction", "justify-content", "align-items", "align-content",
			"flex-wrap", "gap",
			"transition", "transform",
		},
		CSSUnits:         DefaultCSSUnits(),
		MaxContentLength: DefaultMaxContentLength,
		BlockedPatterns:  append([]string(nil), DefaultBlockedPatterns...),
		MaxDepth:         DefaultMaxDepth,
	}
}

// DefaultCSSUnits returns the unit table for the typography and layout
// properties the style editor produces.
func DefaultCSSUnits() map[string][]string {
	length := []string{"px", "em", "rem", "%"}
	units := map[string][]string{"font-size": length}
	for _, prop := range []string{
		"margin", "margin-top", "margin-right", "margin-bottom", "margin-left",
		"padding", "padding-top", "padding-right", "padding-bottom", "padding-left",
		"width", "height", "max-width", "min-width", "max-height", "min-height",
		"line-height", "letter-spacing",
	} {
		units[prop] = append([]string(nil), length...)
	}
	return units
}

// DefaultPolicy returns the policy used by the document renderer.
func DefaultPolicy() *Policy {
	return MustPolicy(DefaultPolicyConfig())
}
