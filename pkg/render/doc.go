// Package render assembles sanitized content and a validated Style into a
// self-contained HTML document.
//
// The content goes through the sanitizer, the style is turned into a
// stylesheet that goes through the CSS filter, and both are embedded in a
// fixed html/template document carrying the static SecurityHeaders as
// http-equiv meta elements. Rendered documents are cached under
// ContentKey(KeyPrefix, content, style):
//
//	svc := render.NewService(san, render.WithCache(manager), render.WithTTL(time.Hour))
//	res, err := svc.Render(ctx, render.Document{Content: html, Style: render.DefaultStyle()})
package render
