// Package files turns uploaded files into sanitized HTML fragments.
//
// The extension picks the conversion: HTML is sanitized as is, Markdown is
// rendered with goldmark first, JSON, CSS and JavaScript become escaped
// <pre><code> blocks, plain text and CSV become paragraphs, and images are
// re-encoded as PNG and embedded as a data URI. Every fragment goes through
// the sanitizer before it is returned. Results are cached under
// ContentKey(KeyPrefix, content, name):
//
//	p := files.NewProcessor(san, files.WithCache(manager), files.WithLogger(log))
//	res, err := p.Process(ctx, files.File{Name: "notes.md", Content: data})
package files
