package sanitizer

import (
	"errors"
	"fmt"
	"html"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StructuralFilter parses the input as an HTML5 fragment in a <body>
// context and re-serializes the allowed part of the tree. Unbalanced
// markup is repaired by the parser, so the output is always balanced.
type StructuralFilter struct{}

// Filter implements HTMLFilter.
func (StructuralFilter) Filter(raw string, p *Policy, audit AuditFunc) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("%w: %v", errMalformedMarkup, r)
		}
	}()

	body := &nethtml.Node{Type: nethtml.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := nethtml.ParseFragment(strings.NewReader(raw), body)
	if err != nil {
		return "", errors.Join(errMalformedMarkup, err)
	}

	w := treeWriter{elementFilter: newElementFilter(p, audit)}
	for _, n := range nodes {
		w.node(n, 1)
	}
	return w.b.String(), nil
}

type treeWriter struct {
	elementFilter
	b strings.Builder
}

func (w *treeWriter) node(n *nethtml.Node, depth int) {
	switch n.Type {
	case nethtml.TextNode:
		w.b.WriteString(html.EscapeString(n.Data))
	case nethtml.DocumentNode:
		w.children(n, depth)
	case nethtml.ElementNode:
		w.element(n, depth)
	case nethtml.CommentNode:
		w.audit("comment", "#comment", "comments are stripped")
	case nethtml.DoctypeNode:
		w.audit("doctype", n.Data, "doctype is stripped")
	default:
		w.audit("node", n.Data, "unsupported node")
	}
}

func (w *treeWriter) children(n *nethtml.Node, depth int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c, depth)
	}
}

func (w *treeWriter) element(n *nethtml.Node, depth int) {
	tag := strings.ToLower(n.Data)

	if depth > w.policy.MaxDepth() {
		w.dropTag(tag, "nesting too deep")
		return
	}
	if n.Namespace != "" || !w.policy.AllowsTag(tag) {
		w.dropTag(tag, "tag not allowed")
		if _, raw := droppedWithContent[tag]; w.policy.KeepDisallowedText() && !raw && n.Namespace == "" {
			w.children(n, depth)
		}
		return
	}

	if tag == "style" {
		css, ok := w.styleElement(textContent(n))
		if !ok {
			return
		}
		w.b.WriteString("<style")
		w.attributes(tag, n.Attr)
		w.b.WriteString(">")
		w.b.WriteString(css)
		w.b.WriteString("</style>")
		return
	}

	w.b.WriteByte('<')
	w.b.WriteString(tag)
	w.attributes(tag, n.Attr)
	if isVoid(tag) {
		w.b.WriteString("/>")
		return
	}
	w.b.WriteByte('>')

	// The parser swallows one leading newline in these elements; write it back
	// so a second pass sees the same text.
	switch tag {
	case "pre", "listing", "textarea":
		if c := n.FirstChild; c != nil && c.Type == nethtml.TextNode && strings.HasPrefix(c.Data, "\n") {
			w.b.WriteByte('\n')
		}
	}

	w.children(n, depth+1)
	w.b.WriteString("</")
	w.b.WriteString(tag)
	w.b.WriteByte('>')
}

func (w *treeWriter) attributes(tag string, attrs []nethtml.Attribute) {
	for _, a := range attrs {
		if a.Namespace != "" {
			w.audit("attribute", tag+"@"+a.Namespace+":"+a.Key, "namespaced attribute")
			continue
		}
		val, ok := w.attribute(tag, a.Key, a.Val)
		if !ok {
			continue
		}
		w.b.WriteByte(' ')
		w.b.WriteString(strings.ToLower(a.Key))
		w.b.WriteString(`="`)
		w.b.WriteString(html.EscapeString(val))
		w.b.WriteByte('"')
	}
}

func textContent(n *nethtml.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == nethtml.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
