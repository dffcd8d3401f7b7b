package render

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Style is the user-editable look of a rendered document. Sizes are in
// pixels. The JSON form is part of the cache key, so field tags must stay
// stable.
type Style struct {
	FontFamily    string  `json:"font_family" yaml:"font_family"`
	FontSize      int     `json:"font_size" yaml:"font_size"`
	FontWeight    string  `json:"font_weight" yaml:"font_weight"`
	LineHeight    float64 `json:"line_height" yaml:"line_height"`
	LetterSpacing int     `json:"letter_spacing" yaml:"letter_spacing"`

	TextColor       string `json:"text_color" yaml:"text_color"`
	BackgroundColor string `json:"background_color" yaml:"background_color"`
	AccentColor     string `json:"accent_color" yaml:"accent_color"`

	TextAlign    string `json:"text_align" yaml:"text_align"`
	Margin       int    `json:"margin" yaml:"margin"`
	Padding      int    `json:"padding" yaml:"padding"`
	BorderRadius int    `json:"border_radius" yaml:"border_radius"`
	MaxWidth     int    `json:"max_width" yaml:"max_width"`

	AddShadows       bool `json:"add_shadows" yaml:"add_shadows"`
	ModernTypography bool `json:"modern_typography" yaml:"modern_typography"`
}

// DefaultStyle returns the style used when a request does not carry one.
func DefaultStyle() Style {
	return Style{
		FontFamily:       "Inter, -apple-system, BlinkMacSystemFont, sans-serif",
		FontSize:         18,
		FontWeight:       "400",
		LineHeight:       1.6,
		LetterSpacing:    0,
		TextColor:        "#333333",
		BackgroundColor:  "#ffffff",
		AccentColor:      "#4285f4",
		TextAlign:        "left",
		Margin:           24,
		Padding:          32,
		BorderRadius:     8,
		MaxWidth:         900,
		AddShadows:       true,
		ModernTypography: true,
	}
}

var (
	hexColor   = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	fontFamily = regexp.MustCompile(`^[a-zA-Z0-9 ,'"-]+$`)
)

// Validate checks every field against its allowed range and reports all
// violations at once, keyed by JSON field name.
// Zero is valid only where it is inside the range.
func (s Style) Validate() error {
	color := []validation.Rule{validation.Required, validation.Match(hexColor)}
	err := validation.ValidateStruct(&s,
		validation.Field(&s.FontFamily, validation.Required, validation.Length(1, 200), validation.Match(fontFamily)),
		validation.Field(&s.FontSize, validation.Required, validation.Min(12), validation.Max(72)),
		validation.Field(&s.FontWeight, validation.Required, validation.In("300", "400", "500", "600", "700")),
		validation.Field(&s.LineHeight, validation.Required, validation.Min(1.0), validation.Max(3.0)),
		validation.Field(&s.LetterSpacing, validation.Min(-2), validation.Max(5)),
		validation.Field(&s.TextColor, color...),
		validation.Field(&s.BackgroundColor, color...),
		validation.Field(&s.AccentColor, color...),
		validation.Field(&s.TextAlign, validation.Required, validation.In("left", "center", "right", "justify")),
		validation.Field(&s.Margin, validation.Min(0), validation.Max(100)),
		validation.Field(&s.Padding, validation.Min(0), validation.Max(100)),
		validation.Field(&s.BorderRadius, validation.Min(0), validation.Max(50)),
		validation.Field(&s.MaxWidth, validation.Required, validation.Min(600), validation.Max(1400)),
	)
	if err != nil {
		return errors.Join(ErrInvalidStyle, err)
	}
	return nil
}

// Stylesheet renders the style as CSS rules for the document. The output
// still goes through the CSS filter before it is embedded.
func (s Style) Stylesheet() string {
	var b strings.Builder
	rule := func(selector string, decls ...string) {
		b.WriteString(selector)
		b.WriteString(" { ")
		b.WriteString(strings.Join(decls, "; "))
		b.WriteString(" }\n")
	}
	px := func(v int) string { return strconv.Itoa(v) + "px" }

	rule("body",
		"background-color: "+s.BackgroundColor,
		"margin: 0",
		"padding: "+px(s.Margin),
	)

	container := []string{
		"max-width: " + px(s.MaxWidth),
		"margin: 0 auto",
		"padding: " + px(s.Padding),
		"font-family: " + s.FontFamily,
		"font-size: " + px(s.FontSize),
		"font-weight: " + s.FontWeight,
		"line-height: " + strconv.FormatFloat(s.LineHeight, 'f', -1, 64),
		"letter-spacing: " + px(s.LetterSpacing),
		"color: " + strings.ToLower(s.TextColor),
		"text-align: " + s.TextAlign,
		"background-color: " + s.BackgroundColor,
		"border-radius: " + px(s.BorderRadius),
	}
	if s.AddShadows {
		container = append(container, "box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1), 0 10px 20px rgba(0, 0, 0, 0.05)")
	}
	rule(".document-container", container...)

	if s.ModernTypography {
		rule("h1", "font-size: 2.5em", "font-weight: 700", "color: "+s.AccentColor)
		rule("h2", "font-size: 2em", "font-weight: 600")
		rule("h3", "font-size: 1.5em", "font-weight: 500")
		rule("h4, h5, h6", "font-size: 1.1em", "font-weight: 500")
		rule("p", "margin-bottom: 1.2em")
		rule("blockquote", "border-color: "+s.AccentColor, "border-style: solid", "border-width: 0 0 0 4px", "padding: 1em 1.5em", "font-style: italic")
		rule("a", "color: "+s.AccentColor, "text-decoration: none")
		rule("code", "font-family: 'SF Mono', Monaco, Consolas, monospace", "font-size: 0.9em", "padding: 0.2em 0.4em")
		rule("pre", "padding: 1em", "overflow-x: auto", "border-radius: 6px")
	}
	return strings.TrimRight(b.String(), "\n")
}
