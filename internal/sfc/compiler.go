package sfc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Compiler turns template source into an ES module exporting render.
// id identifies the component in generated code and errors.
type Compiler interface {
	Compile(source, id string) (string, error)
}

// CompileError reports a template construct the compiler rejects.
type CompileError struct {
	ID  string
	Msg string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile template %s: %s", e.ID, e.Msg)
}

// RenderCompiler compiles templates to render functions built on vue's h().
// Supported: elements and components, static attributes, v-bind (":"),
// v-on ("@") without modifiers, {{ }} interpolation, v-if/v-else-if/v-else,
// v-for, v-show, v-html, v-text and <slot>.
type RenderCompiler struct{}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true,
	"track": true, "wbr": true,
}

type tmplAttr struct {
	key, val string
}

type tmplNode struct {
	tag      string
	name     string
	attrs    []tmplAttr
	children []*tmplNode
	text     string
	isText   bool
}

func (n *tmplNode) attr(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.key == key {
			return a.val, true
		}
	}
	return "", false
}

func (RenderCompiler) Compile(source, id string) (string, error) {
	roots, err := parseTemplate(source, id)
	if err != nil {
		return "", err
	}
	g := &generator{id: id, helpers: map[string]bool{}}
	body, err := g.children(roots, scope{})
	if err != nil {
		return "", err
	}
	var ret string
	switch len(body) {
	case 0:
		ret = "null"
	case 1:
		ret = body[0]
	default:
		ret = "[" + strings.Join(body, ", ") + "]"
	}

	imports := []string{"h"}
	names := make([]string, 0, len(g.helpers))
	for name := range g.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		imports = append(imports, name+" as _"+name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "import { %s } from \"vue\"\n\n", strings.Join(imports, ", "))
	fmt.Fprintf(&b, "export function render(_ctx, _cache) {\n  return %s\n}\n", ret)
	return b.String(), nil
}

func parseTemplate(source, id string) ([]*tmplNode, error) {
	root := &tmplNode{}
	stack := []*tmplNode{root}
	z := html.NewTokenizer(strings.NewReader(source))
	for {
		tt := z.Next()
		raw := string(z.Raw())
		top := stack[len(stack)-1]
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				if len(stack) > 1 {
					return nil, &CompileError{ID: id, Msg: fmt.Sprintf("element <%s> is not closed", stack[len(stack)-1].name)}
				}
				return root.children, nil
			}
			return nil, &CompileError{ID: id, Msg: z.Err().Error()}
		case html.TextToken:
			top.children = append(top.children, &tmplNode{isText: true, text: string(z.Text())})
		case html.StartTagToken, html.SelfClosingTagToken:
			name, more := z.TagName()
			n := &tmplNode{tag: string(name), name: originalTagName(raw, string(name))}
			for more {
				var k, v []byte
				k, v, more = z.TagAttr()
				n.attrs = append(n.attrs, tmplAttr{key: string(k), val: string(v)})
			}
			top.children = append(top.children, n)
			if tt == html.StartTagToken && !voidElements[n.tag] {
				stack = append(stack, n)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].tag == string(name) {
					stack = stack[:i]
					break
				}
			}
		}
	}
}

// originalTagName recovers the tag name's case from the raw token, since
// the tokenizer lower-cases it.
func originalTagName(raw, lower string) string {
	raw = strings.TrimPrefix(raw, "<")
	if len(raw) >= len(lower) && strings.EqualFold(raw[:len(lower)], lower) {
		return raw[:len(lower)]
	}
	return lower
}

type generator struct {
	id      string
	helpers map[string]bool
}

func (g *generator) use(helper string) string {
	g.helpers[helper] = true
	return "_" + helper
}

func (g *generator) fail(format string, args ...any) error {
	return &CompileError{ID: g.id, Msg: fmt.Sprintf(format, args...)}
}

var wsRun = regexp.MustCompile(`\s+`)

// children generates the expressions of a child list, folding v-if chains.
func (g *generator) children(nodes []*tmplNode, sc scope) ([]string, error) {
	var out []string
	for i := 0; i < len(nodes); i++ {
		n := nodes[i]
		if n.isText {
			if s := g.text(n.text, sc); s != "" {
				out = append(out, s)
			}
			continue
		}
		if _, ok := n.attr("v-else-if"); ok {
			return nil, g.fail("v-else-if without adjacent v-if on <%s>", n.name)
		}
		if _, ok := n.attr("v-else"); ok {
			return nil, g.fail("v-else without adjacent v-if on <%s>", n.name)
		}
		cond, ok := n.attr("v-if")
		if !ok {
			s, err := g.element(n, sc)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
			continue
		}

		branches := []struct {
			cond string
			node *tmplNode
		}{{cond, n}}
		hasElse := false
		j := i + 1
		for j < len(nodes) {
			next := nodes[j]
			if next.isText && strings.TrimSpace(next.text) == "" {
				j++
				continue
			}
			if next.isText {
				break
			}
			if c, ok := next.attr("v-else-if"); ok {
				branches = append(branches, struct {
					cond string
					node *tmplNode
				}{c, next})
				i = j
				j++
				continue
			}
			if _, ok := next.attr("v-else"); ok {
				branches = append(branches, struct {
					cond string
					node *tmplNode
				}{"", next})
				hasElse = true
				i = j
			}
			break
		}

		var b strings.Builder
		for k, br := range branches {
			s, err := g.element(br.node, sc)
			if err != nil {
				return nil, err
			}
			if hasElse && k == len(branches)-1 {
				b.WriteString(s)
				break
			}
			fmt.Fprintf(&b, "(%s) ? %s : ", prefixExpr(br.cond, sc), s)
		}
		if !hasElse {
			b.WriteString(g.use("createCommentVNode") + `("v-if", true)`)
		}
		out = append(out, "("+b.String()+")")
	}
	return out, nil
}

func (g *generator) text(text string, sc scope) string {
	text = wsRun.ReplaceAllString(text, " ")
	if strings.TrimSpace(text) == "" {
		return ""
	}
	var parts []string
	for text != "" {
		open := strings.Index(text, "{{")
		if open < 0 {
			parts = append(parts, jsString(text))
			break
		}
		end := strings.Index(text[open+2:], "}}")
		if end < 0 {
			parts = append(parts, jsString(text))
			break
		}
		if open > 0 {
			parts = append(parts, jsString(text[:open]))
		}
		expr := strings.TrimSpace(text[open+2 : open+2+end])
		parts = append(parts, g.use("toDisplayString")+"("+prefixExpr(expr, sc)+")")
		text = text[open+2+end+2:]
	}
	return strings.Join(parts, " + ")
}

var vForExpr = regexp.MustCompile(`^\s*(?:\(\s*([^)]*?)\s*\)|([A-Za-z_$][\w$]*))\s+(?:in|of)\s+(.+?)\s*$`)

func (g *generator) element(n *tmplNode, sc scope) (string, error) {
	if src, ok := n.attr("v-for"); ok {
		m := vForExpr.FindStringSubmatch(src)
		if m == nil {
			return "", g.fail("invalid v-for expression %q", src)
		}
		params := m[2]
		if params == "" {
			params = m[1]
		}
		var names []string
		for _, p := range strings.Split(params, ",") {
			names = append(names, strings.TrimSpace(p))
		}
		inner := sc.with(names...)
		item, err := g.node(n, inner)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("h(%s, null, %s(%s, (%s) => %s))",
			g.use("Fragment"), g.use("renderList"), prefixExpr(m[3], sc), strings.Join(names, ", "), item), nil
	}
	return g.node(n, sc)
}

func (g *generator) node(n *tmplNode, sc scope) (string, error) {
	if n.tag == "slot" {
		name := "default"
		if v, ok := n.attr("name"); ok && v != "" {
			name = v
		}
		return fmt.Sprintf("%s(_ctx.$slots, %s)", g.use("renderSlot"), jsString(name)), nil
	}

	props, show, err := g.props(n, sc)
	if err != nil {
		return "", err
	}

	kids, err := g.children(n.children, sc)
	if err != nil {
		return "", err
	}
	childExpr := "null"
	if len(kids) > 0 {
		childExpr = "[" + strings.Join(kids, ", ") + "]"
	}

	var out string
	switch {
	case n.tag == "template":
		out = fmt.Sprintf("h(%s, null, %s)", g.use("Fragment"), childExpr)
	case isComponent(n):
		slots := "null"
		if len(kids) > 0 {
			slots = "{ default: () => " + childExpr + " }"
		}
		out = fmt.Sprintf("h(%s(%s), %s, %s)", g.use("resolveComponent"), jsString(n.name), props, slots)
	default:
		out = fmt.Sprintf("h(%s, %s, %s)", jsString(n.tag), props, childExpr)
	}
	if show != "" {
		out = fmt.Sprintf("%s(%s, [[%s, %s]])", g.use("withDirectives"), out, g.use("vShow"), prefixExpr(show, sc))
	}
	return out, nil
}

func isComponent(n *tmplNode) bool {
	if n.name != n.tag {
		return true
	}
	return strings.Contains(n.tag, "-")
}

func (g *generator) props(n *tmplNode, sc scope) (string, string, error) {
	type prop struct {
		key  string
		vals []string
	}
	var list []*prop
	byKey := map[string]*prop{}
	set := func(key, val string) {
		p, ok := byKey[key]
		if !ok {
			p = &prop{key: key}
			byKey[key] = p
			list = append(list, p)
		}
		if key == "class" || key == "style" {
			p.vals = append(p.vals, val)
			return
		}
		p.vals = []string{val}
	}

	show := ""
	for _, a := range n.attrs {
		switch {
		case a.key == "v-if" || a.key == "v-else-if" || a.key == "v-else" || a.key == "v-for":
		case a.key == "v-show":
			show = a.val
		case a.key == "v-html":
			set("innerHTML", prefixExpr(a.val, sc))
		case a.key == "v-text":
			set("textContent", prefixExpr(a.val, sc))
		case strings.HasPrefix(a.key, ":") || strings.HasPrefix(a.key, "v-bind:"):
			key := strings.TrimPrefix(strings.TrimPrefix(a.key, "v-bind:"), ":")
			if key == "" || strings.Contains(key, ".") {
				return "", "", g.fail("unsupported binding %q on <%s>", a.key, n.name)
			}
			set(key, prefixExpr(a.val, sc))
		case strings.HasPrefix(a.key, "@") || strings.HasPrefix(a.key, "v-on:"):
			event := strings.TrimPrefix(strings.TrimPrefix(a.key, "v-on:"), "@")
			if event == "" || strings.Contains(event, ".") {
				return "", "", g.fail("unsupported event binding %q on <%s>", a.key, n.name)
			}
			set("on"+strings.ToUpper(event[:1])+event[1:], g.handler(a.val, sc))
		case strings.HasPrefix(a.key, "v-") || strings.HasPrefix(a.key, "#"):
			return "", "", g.fail("unsupported directive %q on <%s>", a.key, n.name)
		default:
			set(a.key, jsString(a.val))
		}
	}
	if len(list) == 0 {
		return "null", show, nil
	}
	parts := make([]string, 0, len(list))
	for _, p := range list {
		v := p.vals[0]
		if len(p.vals) > 1 {
			v = "[" + strings.Join(p.vals, ", ") + "]"
		}
		parts = append(parts, jsString(p.key)+": "+v)
	}
	return "{ " + strings.Join(parts, ", ") + " }", show, nil
}

func (g *generator) handler(expr string, sc scope) string {
	if isMemberPath(expr) {
		return prefixExpr(expr, sc)
	}
	return "($event) => { " + prefixExpr(strings.TrimSpace(expr), sc.with("$event")) + " }"
}

func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
