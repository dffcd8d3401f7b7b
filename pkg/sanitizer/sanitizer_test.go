package sanitizer_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dmitrymomot/styledoc/pkg/logger"
	"github.com/dmitrymomot/styledoc/pkg/sanitizer"
)

var maliciousInputs = []string{
	`<p>Hello</p><script>alert(1)</script>`,
	`<a href="javascript:alert(1)">x</a>`,
	`<a href="JaVaScRiPt:alert(1)">x</a>`,
	`<a href="&#106;avascript:alert(1)">x</a>`,
	`<a href="java&#x09;script:alert(1)">x</a>`,
	`<img src=x onerror=alert(1)>`,
	`<IMG SRC="x" ONERROR="alert(1)">`,
	`<scr<script>ipt>alert(1)</script>`,
	`<<script>script>alert(1)<</script>/script>`,
	`<svg><script>alert(1)</script></svg>`,
	`<svg onload=alert(1)>`,
	`<iframe src="javascript:alert(1)"></iframe>`,
	`<p style="background:url(javascript:alert(1))">x</p>`,
	`<div style="width: expression(alert(1))">x</div>`,
	`<math><mtext><table><mglyph><style><img src=x onerror=alert(1)>`,
	`<noscript><p title="</noscript><img src=x onerror=alert(1)>">`,
	`<p>javascript:alert(1)</p>`,
	`<p>please onload=steal()</p>`,
	`<a href="data:text/html;base64,PHNjcmlwdD5hbGVydCgxKTwvc2NyaXB0Pg==">x</a>`,
	`<div style="-moz-binding: url(x.xml#xss)">x</div>`,
	`<body onload=alert(1)><p>x</p></body>`,
	`<!--<script>alert(1)</script>--><p>ok</p>`,
	`<p title="&lt;script&gt;alert(1)&lt;/script&gt;">x</p>`,
	`<p>unclosed <b>bold <script>alert(1)`,
}

var benignInputs = []string{
	`<p>Hello <strong>world</strong></p>`,
	`<h1 style="color: red; font-size: 24px">Title</h1>`,
	`<ul><li>one</li><li>two</li></ul>`,
	`<table><tr><td colspan="2">1</td></tr></table>`,
	`<p>1 &lt; 2 &amp;&amp; 3 &gt; 2</p>`,
	`<pre>
code
</pre>`,
	`<a href="https://example.com/?a=1&amp;b=2" title="Example">link</a>`,
	`<img src="data:image/png;base64,iVBORw0KGgo=" alt="dot">`,
	`<p><strong>bold</p>`,
	`plain text with "quotes" and 'apostrophes'`,
	`<div class="a b" id="main"><span>nested</span></div>`,
}

func strategies() map[string]sanitizer.Strategy {
	return map[string]sanitizer.Strategy{
		"structural": sanitizer.StrategyStructural,
		"regex":      sanitizer.StrategyRegex,
	}
}

func TestSanitize(t *testing.T) {
	ctx := context.Background()
	s := sanitizer.New(sanitizer.DefaultPolicy())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "drops script with content", input: `<p>Hello</p><script>alert(1)</script>`, want: `<p>Hello</p>`},
		{name: "drops javascript href", input: `<a href="javascript:alert(1)">x</a>`, want: `<a>x</a>`},
		{name: "keeps safe href", input: `<a href="https://example.com" title="t">x</a>`, want: `<a href="https://example.com" title="t">x</a>`},
		{name: "drops event handlers and unknown attributes", input: `<p onclick="x()" class="lead" data-x="1">Hi</p>`, want: `<p class="lead">Hi</p>`},
		{name: "filters inline style", input: `<span style="color: red; behavior: url(evil.htc)">t</span>`, want: `<span style="color: red">t</span>`},
		{name: "drops empty style", input: `<div style="position: fixed">x</div>`, want: `<div>x</div>`},
		{name: "keeps data image", input: `<img src="data:image/png;base64,iVBORw0KGgo=" alt="a">`, want: `<img src="data:image/png;base64,iVBORw0KGgo=" alt="a"/>`},
		{name: "drops data html", input: `<img src="data:text/html;base64,AAAA">`, want: `<img/>`},
		{name: "strips comments", input: `<p>a<!-- x -->b</p>`, want: `<p>ab</p>`},
		{name: "closes unbalanced tags", input: `<p><strong>bold</p>`, want: `<p><strong>bold</strong></p>`},
		{name: "drops disallowed subtree", input: `<p>a<font>b</font>c</p>`, want: `<p>ac</p>`},
		{name: "keeps entities escaped", input: `<p>1 &lt; 2 &amp; 3</p>`, want: `<p>1 &lt; 2 &amp; 3</p>`},
		{name: "inserts tbody", input: `<table><tr><td>1</td></tr></table>`, want: `<table><tbody><tr><td>1</td></tr></tbody></table>`},
		{name: "sweeps text", input: `<p>javascript:alert(1)</p>`, want: `<p>alert(1)</p>`},
		{name: "empty input", input: "", want: ""},
		{name: "plain text", input: "just text", want: "just text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Sanitize(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeRegexStrategy(t *testing.T) {
	ctx := context.Background()
	s := sanitizer.New(sanitizer.DefaultPolicy(), sanitizer.WithStrategy(sanitizer.StrategyRegex))

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "drops script with content", input: `<p>Hello</p><script>alert(1)</script>`, want: `<p>Hello</p>`},
		{name: "drops javascript href", input: `<a href="javascript:alert(1)">x</a>`, want: `<a>x</a>`},
		{name: "filters inline style", input: `<span style="color: red; behavior: url(evil.htc)">t</span>`, want: `<span style="color: red">t</span>`},
		{name: "closes open tags", input: `<p><b>x`, want: `<p><b>x</b></p>`},
		{name: "ignores stray close tag", input: `a</b>b`, want: `ab`},
		{name: "escapes stray brackets", input: `a < b`, want: `a &lt; b`},
		{name: "drops unterminated script", input: `<p>ok</p><script>alert(1)`, want: `<p>ok</p>`},
		{name: "drops style blocks", input: `<style>p { color: red }</style><p>x</p>`, want: `<p>x</p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Sanitize(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeContentTooLarge(t *testing.T) {
	cfg := sanitizer.DefaultPolicyConfig()
	cfg.MaxContentLength = 10
	s := sanitizer.New(sanitizer.MustPolicy(cfg))

	got, err := s.Sanitize(context.Background(), "<p>123456789</p>")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sanitizer.ErrContentTooLarge))
	assert.Empty(t, got)

	t.Run("counts characters not bytes", func(t *testing.T) {
		got, err := s.Sanitize(context.Background(), "ёёёёёёёёёё")
		require.NoError(t, err)
		assert.Equal(t, "ёёёёёёёёёё", got)
	})
}

func TestSanitizeFailsClosed(t *testing.T) {
	for name, st := range strategies() {
		t.Run(name, func(t *testing.T) {
			s := sanitizer.New(sanitizer.DefaultPolicy(), sanitizer.WithStrategy(st))
			for _, input := range maliciousInputs {
				got, err := s.Sanitize(context.Background(), input)
				require.NoError(t, err, input)

				lower := strings.ToLower(got)
				for _, forbidden := range []string{"<script", "javascript:", "onerror=", "onload=", "onclick=", "expression(", "-moz-binding", "<iframe", "<svg", "data:text/html"} {
					assert.NotContains(t, lower, forbidden, "input %q produced %q", input, got)
				}
			}
		})
	}
}

type failingFilter struct{}

func (failingFilter) Filter(string, *sanitizer.Policy, sanitizer.AuditFunc) (string, error) {
	return "", errors.New("parser exploded")
}

func TestSanitizeStripsAllMarkupOnFilterError(t *testing.T) {
	s := sanitizer.New(sanitizer.DefaultPolicy(), sanitizer.WithFilter(failingFilter{}))

	got, err := s.Sanitize(context.Background(), `<p>Hi <b>there</b></p><script>alert(1)</script>`)
	require.NoError(t, err)
	assert.NotContains(t, got, "<")
	assert.Contains(t, got, "Hi there")
	assert.NotContains(t, got, "alert")
}

func TestSanitizeIdempotent(t *testing.T) {
	ctx := context.Background()
	inputs := append(append([]string{}, benignInputs...), maliciousInputs...)

	for name, st := range strategies() {
		t.Run(name, func(t *testing.T) {
			s := sanitizer.New(sanitizer.DefaultPolicy(), sanitizer.WithStrategy(st))
			for _, input := range inputs {
				once, err := s.Sanitize(ctx, input)
				require.NoError(t, err)
				twice, err := s.Sanitize(ctx, once)
				require.NoError(t, err)
				assert.Equal(t, once, twice, "input %q", input)
			}
		})
	}
}

func TestSanitizeDeterministic(t *testing.T) {
	ctx := context.Background()
	a := sanitizer.New(sanitizer.DefaultPolicy())
	b := sanitizer.New(sanitizer.DefaultPolicy())
	for _, input := range append(append([]string{}, benignInputs...), maliciousInputs...) {
		x, err := a.Sanitize(ctx, input)
		require.NoError(t, err)
		y, err := b.Sanitize(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, x, y)
	}
}

func TestSanitizeAllowListSoundness(t *testing.T) {
	ctx := context.Background()
	policy := sanitizer.DefaultPolicy()

	for name, st := range strategies() {
		t.Run(name, func(t *testing.T) {
			s := sanitizer.New(policy, sanitizer.WithStrategy(st))
			for _, input := range append(append([]string{}, benignInputs...), maliciousInputs...) {
				out, err := s.Sanitize(ctx, input)
				require.NoError(t, err)

				body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
				nodes, err := html.ParseFragment(strings.NewReader(out), body)
				require.NoError(t, err)

				var walk func(n *html.Node)
				walk = func(n *html.Node) {
					if n.Type == html.ElementNode {
						assert.True(t, policy.AllowsTag(n.Data), "tag %q in %q", n.Data, out)
						for _, a := range n.Attr {
							assert.True(t, policy.AllowsAttribute(n.Data, a.Key), "attribute %s@%s in %q", n.Data, a.Key, out)
						}
					}
					for c := n.FirstChild; c != nil; c = c.NextSibling {
						walk(c)
					}
				}
				for _, n := range nodes {
					walk(n)
				}
			}
		})
	}
}

func TestSanitizeKeepDisallowedText(t *testing.T) {
	cfg := sanitizer.DefaultPolicyConfig()
	cfg.KeepDisallowedText = true
	s := sanitizer.New(sanitizer.MustPolicy(cfg))

	got, err := s.Sanitize(context.Background(), `<p>a<font>b</font>c<script>d</script><textarea>e</textarea></p>`)
	require.NoError(t, err)
	assert.Equal(t, `<p>abc</p>`, got)
}

func TestSanitizeMaxDepth(t *testing.T) {
	cfg := sanitizer.DefaultPolicyConfig()
	cfg.MaxDepth = 2
	s := sanitizer.New(sanitizer.MustPolicy(cfg))

	got, err := s.Sanitize(context.Background(), `<div><div><div>x</div></div></div>`)
	require.NoError(t, err)
	assert.Equal(t, `<div><div></div></div>`, got)
}

func TestSanitizeStyleElement(t *testing.T) {
	cfg := sanitizer.DefaultPolicyConfig()
	cfg.AllowedTags = append(cfg.AllowedTags, "style")
	s := sanitizer.New(sanitizer.MustPolicy(cfg))
	ctx := context.Background()

	t.Run("filters rules", func(t *testing.T) {
		got, err := s.Sanitize(ctx, `<style>p { color: red; position: fixed } @media print { p { color: blue } }</style><p>x</p>`)
		require.NoError(t, err)
		assert.Equal(t, `<style>p { color: red }</style><p>x</p>`, got)
	})

	t.Run("drops empty stylesheet", func(t *testing.T) {
		got, err := s.Sanitize(ctx, `<style>p { behavior: url(x.htc) }</style><p>x</p>`)
		require.NoError(t, err)
		assert.Equal(t, `<p>x</p>`, got)
	})
}

func TestSanitizeAuditLog(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf))
	s := sanitizer.New(sanitizer.DefaultPolicy(), sanitizer.WithLogger(log))

	_, err := s.Sanitize(context.Background(), `<p onclick="x()">a</p><script>b</script>`)
	require.NoError(t, err)

	var dropped []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		if rec["msg"] == "sanitizer: dropped" {
			dropped = append(dropped, rec)
		}
	}

	require.Len(t, dropped, 2)
	assert.Equal(t, "attribute", dropped[0]["kind"])
	assert.Equal(t, "p@onclick", dropped[0]["name"])
	assert.Equal(t, "event handler", dropped[0]["reason"])
	assert.Equal(t, "sanitizer", dropped[0]["component"])
	assert.Equal(t, "tag", dropped[1]["kind"])
	assert.Equal(t, "script", dropped[1]["name"])
}

func TestSanitizeFunc(t *testing.T) {
	got, err := sanitizer.Sanitize(context.Background(), `<p>Hello</p><script>alert(1)</script>`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<p>Hello</p>`, got)
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "structural", sanitizer.StrategyStructural.String())
	assert.Equal(t, "regex", sanitizer.StrategyRegex.String())
	assert.Equal(t, "unknown", sanitizer.Strategy(42).String())
}
