package sfc

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/r9s-ai/devserve/internal/pipeline"
)

const appVue = `<template>
  <div class="app">
    <h1>{{ title }}</h1>
  </div>
</template>

<script>
export default { name: 'X' }
</script>

<style>.a{color:red}</style>
<style scoped>
.b { color: blue; }
</style>
`

func TestHTMLParser_Blocks(t *testing.T) {
	d, err := HTMLParser{}.Parse(appVue, "/src/App.vue")
	if err != nil {
		t.Fatalf("Parse err=%v", err)
	}
	if d.Script == nil || strings.TrimSpace(d.Script.Content) != "export default { name: 'X' }" {
		t.Fatalf("script=%+v", d.Script)
	}
	if d.Template == nil || !strings.Contains(d.Template.Content, "<h1>{{ title }}</h1>") {
		t.Fatalf("template=%+v", d.Template)
	}
	if len(d.Styles) != 2 {
		t.Fatalf("styles=%d", len(d.Styles))
	}
	if d.Styles[0].Content != ".a{color:red}" {
		t.Fatalf("style[0]=%q", d.Styles[0].Content)
	}
	if _, ok := d.Styles[1].Attr("scoped"); !ok {
		t.Fatalf("scoped attr not recorded: %v", d.Styles[1].Attrs)
	}
	if got := appVue[d.Template.Offset : d.Template.Offset+len(d.Template.Content)]; got != d.Template.Content {
		t.Fatalf("offset does not point at content")
	}
}

func TestHTMLParser_NestedTemplate(t *testing.T) {
	src := "<template><div><template v-if=\"ok\"><b>x</b></template></div></template>"
	d, err := HTMLParser{}.Parse(src, "/A.vue")
	if err != nil {
		t.Fatalf("Parse err=%v", err)
	}
	want := "<div><template v-if=\"ok\"><b>x</b></template></div>"
	if d.Template.Content != want {
		t.Fatalf("template=%q want %q", d.Template.Content, want)
	}
}

func TestHTMLParser_Errors(t *testing.T) {
	for _, src := range []string{
		"<template><div></div>",
		"<script>a</script><script>b</script>",
	} {
		if _, err := (HTMLParser{}).Parse(src, "/A.vue"); err == nil {
			t.Fatalf("expected error for %q", src)
		}
	}
}

func run(t *testing.T, src, path, query string) (*pipeline.Request, error) {
	t.Helper()
	req := pipeline.NewRequest(path, query)
	req.Type = pipeline.MIMEOctet
	req.Body = pipeline.StreamBody(nopCloser{strings.NewReader(src)})
	err := NewSplitter().Stage().Apply(context.Background(), req)
	return req, err
}

type nopCloser struct{ *strings.Reader }

func (nopCloser) Close() error { return nil }

func TestSplitter_MainModule(t *testing.T) {
	req, err := run(t, appVue, "/src/App.vue", "")
	if err != nil {
		t.Fatalf("Apply err=%v", err)
	}
	if req.Type != pipeline.MIMEJavaScript {
		t.Fatalf("type=%q", req.Type)
	}
	code, _ := req.Body.Text()
	if !strings.Contains(code, "const __script = { name: 'X' }") {
		t.Fatalf("script not rebound:\n%s", code)
	}
	if strings.Contains(code, "export default { name: 'X' }") {
		t.Fatalf("original default export kept:\n%s", code)
	}
	for _, want := range []string{
		`import { render as __render } from "/src/App.vue?type=template"`,
		`import "/src/App.vue?type=style"`,
		"__script.render = __render",
		"export default __script",
	} {
		if !strings.Contains(code, want) {
			t.Fatalf("missing %q in:\n%s", want, code)
		}
	}
}

func TestSplitter_Template(t *testing.T) {
	req, err := run(t, appVue, "/src/App.vue", "type=template")
	if err != nil {
		t.Fatalf("Apply err=%v", err)
	}
	if req.Type != pipeline.MIMEJavaScript {
		t.Fatalf("type=%q", req.Type)
	}
	code, _ := req.Body.Text()
	if !strings.Contains(code, "export function render(") {
		t.Fatalf("no render function:\n%s", code)
	}
	if strings.Contains(code, "{{ title }}") || strings.Contains(code, "<h1>") {
		t.Fatalf("raw template leaked:\n%s", code)
	}
}

func TestSplitter_Style(t *testing.T) {
	src := "<template><p/></template><script>export default {}</script><style>.a{color:red}</style>"
	req, err := run(t, src, "/src/App.vue", "type=style")
	if err != nil {
		t.Fatalf("Apply err=%v", err)
	}
	if req.Type != pipeline.MIMECSS {
		t.Fatalf("type=%q", req.Type)
	}
	css, _ := req.Body.Text()
	if css != ".a{color:red}" {
		t.Fatalf("css=%q", css)
	}
}

func TestSplitter_IgnoresOtherPaths(t *testing.T) {
	req, err := run(t, "export default 1", "/src/main.js", "")
	if err != nil {
		t.Fatalf("Apply err=%v", err)
	}
	if req.Type != pipeline.MIMEOctet || req.Body.Materialized() {
		t.Fatalf("non-component request was touched")
	}
}

func TestSplitter_MalformedComponents(t *testing.T) {
	cases := []struct {
		src, query string
	}{
		{"<template><p>hi</p></template>", ""},
		{"<script>export default {}</script>", "type=template"},
		{"<script setup>const a = 1</script>", ""},
		{"<script>export default {}</script>", "type=bogus"},
	}
	for _, tc := range cases {
		_, err := run(t, tc.src, "/A.vue", tc.query)
		var mc *pipeline.MalformedComponentError
		if !errors.As(err, &mc) {
			t.Fatalf("src=%q query=%q err=%v, want MalformedComponentError", tc.src, tc.query, err)
		}
	}
}
