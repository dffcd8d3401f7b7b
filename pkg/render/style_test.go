package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/styledoc/pkg/render"
	"github.com/dmitrymomot/styledoc/pkg/sanitizer"
)

func TestStyle_Validate(t *testing.T) {
	require.NoError(t, render.DefaultStyle().Validate())

	tests := []struct {
		name   string
		modify func(*render.Style)
		field  string
	}{
		{"font size too small", func(s *render.Style) { s.FontSize = 8 }, "font_size"},
		{"font size too large", func(s *render.Style) { s.FontSize = 100 }, "font_size"},
		{"font weight", func(s *render.Style) { s.FontWeight = "bold" }, "font_weight"},
		{"line height", func(s *render.Style) { s.LineHeight = 0.5 }, "line_height"},
		{"letter spacing", func(s *render.Style) { s.LetterSpacing = 9 }, "letter_spacing"},
		{"short hex color", func(s *render.Style) { s.TextColor = "#fff" }, "text_color"},
		{"css injection in color", func(s *render.Style) { s.AccentColor = "#000000; x: y" }, "accent_color"},
		{"css injection in font", func(s *render.Style) { s.FontFamily = "Arial; } body { color: red" }, "font_family"},
		{"text align", func(s *render.Style) { s.TextAlign = "middle" }, "text_align"},
		{"margin", func(s *render.Style) { s.Margin = -1 }, "margin"},
		{"max width", func(s *render.Style) { s.MaxWidth = 300 }, "max_width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := render.DefaultStyle()
			tt.modify(&s)
			err := s.Validate()
			require.ErrorIs(t, err, render.ErrInvalidStyle)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("reports every violation", func(t *testing.T) {
		s := render.DefaultStyle()
		s.FontSize = 1
		s.Padding = 500
		err := s.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "font_size")
		assert.Contains(t, err.Error(), "padding")
	})
}

func TestStyle_Stylesheet(t *testing.T) {
	s := render.DefaultStyle()
	css := s.Stylesheet()
	assert.Contains(t, css, "body { background-color: #ffffff; margin: 0; padding: 24px }")
	assert.Contains(t, css, "line-height: 1.6")
	assert.Contains(t, css, "box-shadow: 0 4px 6px")

	t.Run("survives the css filter", func(t *testing.T) {
		filtered := sanitizer.FilterCSS(css, sanitizer.DefaultPolicy())
		for _, rule := range strings.Split(css, "\n") {
			assert.Contains(t, filtered, rule)
		}
	})

	t.Run("optional parts", func(t *testing.T) {
		s.AddShadows = false
		s.ModernTypography = false
		css := s.Stylesheet()
		assert.NotContains(t, css, "box-shadow")
		assert.NotContains(t, css, "h1")
		assert.Equal(t, 2, strings.Count(css, "{"))
	})
}

func TestSecurityHeaders(t *testing.T) {
	headers := render.SecurityHeaders()
	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = h.Name
		assert.NotEmpty(t, h.Value)
	}
	assert.Equal(t, []string{
		"Content-Security-Policy",
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Referrer-Policy",
		"Permissions-Policy",
	}, names)
	assert.Contains(t, headers[0].Value, "default-src 'none'")
}
