package render

import (
	"html/template"
)

// Header is a static HTTP security header. The document embeds the same
// set as http-equiv meta elements; the API also sends them on responses.
type Header struct {
	Name  string
	Value string
}

// SecurityHeaders returns the fixed security headers, in output order.
func SecurityHeaders() []Header {
	return []Header{
		{"Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; img-src data: https:; font-src https:; base-uri 'none'; form-action 'none'; frame-ancestors 'none'"},
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
		{"Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=(), usb=()"},
	}
}

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<meta name="generator" content="styledoc">
{{- range .Headers}}
<meta http-equiv="{{.Name}}" content="{{.Value}}">
{{- end}}
<title>{{.Title}}</title>
<style>
{{.CSS}}
</style>
</head>
<body>
<div class="document-container">
{{.Content}}
</div>
</body>
</html>
`))

type documentData struct {
	Title   string
	Headers []Header
	CSS     template.CSS
	Content template.HTML
}
