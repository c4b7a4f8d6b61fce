package sfc

import (
	"regexp"
	"strings"
)

// Identifiers that are never looked up on the component instance.
var globalIdents = map[string]bool{
	"true": true, "false": true, "null": true, "undefined": true, "this": true,
	"typeof": true, "instanceof": true, "in": true, "of": true, "new": true,
	"void": true, "delete": true, "NaN": true, "Infinity": true,
	"Math": true, "Date": true, "JSON": true, "Number": true, "String": true,
	"Boolean": true, "Array": true, "Object": true, "RegExp": true, "Map": true,
	"Set": true, "BigInt": true, "Intl": true, "parseInt": true, "parseFloat": true,
	"isNaN": true, "isFinite": true, "encodeURI": true, "encodeURIComponent": true,
	"decodeURI": true, "decodeURIComponent": true, "console": true,
}

// scope is the set of names bound by enclosing v-for directives.
type scope map[string]bool

func (s scope) with(names ...string) scope {
	out := make(scope, len(s)+len(names))
	for k := range s {
		out[k] = true
	}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out[n] = true
		}
	}
	return out
}

// Matches the parameter list of an arrow function: "i =>" or "(a, b) =>".
var arrowParamsRe = regexp.MustCompile(`(?:\(([^()]*)\)|([A-Za-z_$][\w$]*))\s*=>`)

// arrowParams returns the names bound by arrow functions in expr, including
// destructured and defaulted parameters.
func arrowParams(expr string) []string {
	var names []string
	for _, m := range arrowParamsRe.FindAllStringSubmatch(expr, -1) {
		if m[2] != "" {
			names = append(names, m[2])
			continue
		}
		for _, p := range strings.Split(m[1], ",") {
			p, _, _ = strings.Cut(p, "=")
			if i := strings.LastIndexByte(p, ':'); i >= 0 {
				p = p[i+1:]
			}
			p = strings.Trim(p, " \t\n{}[].")
			if isMemberPath(p) && !strings.Contains(p, ".") {
				names = append(names, p)
			}
		}
	}
	return names
}

// prefixExpr rewrites free identifiers of a template expression to
// instance lookups: "count + 1" -> "_ctx.count + 1". Member accesses,
// object keys, scoped names and well-known globals are left alone. String
// literals are skipped; template literals are copied verbatim. Arrow
// parameters are scoped over the whole expression.
func prefixExpr(expr string, sc scope) string {
	if strings.Contains(expr, "=>") {
		sc = sc.with(arrowParams(expr)...)
	}
	var b strings.Builder
	b.Grow(len(expr) + 16)
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			j := skipString(expr, i)
			b.WriteString(expr[i:j])
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(expr) && isIdentPart(expr[j]) {
				j++
			}
			ident := expr[i:j]
			if needsPrefix(expr, i, j, ident, sc) {
				b.WriteString("_ctx.")
			}
			b.WriteString(ident)
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(expr) && (isIdentPart(expr[j]) || expr[j] == '.') {
				j++
			}
			b.WriteString(expr[i:j])
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func needsPrefix(expr string, start, end int, ident string, sc scope) bool {
	if globalIdents[ident] || sc[ident] {
		return false
	}
	prev := prevNonSpace(expr, start)
	if prev == '.' {
		// a?.b and a.b are member accesses; a spread "...b" is not.
		if start >= 3 && strings.HasSuffix(strings.TrimRight(expr[:start], " \t\n"), "...") {
			return true
		}
		return false
	}
	next := nextNonSpace(expr, end)
	if next == ':' && (prev == '{' || prev == ',') {
		return false
	}
	return true
}

func prevNonSpace(s string, i int) byte {
	for i--; i >= 0; i-- {
		if !isSpace(s[i]) {
			return s[i]
		}
	}
	return 0
}

func nextNonSpace(s string, i int) byte {
	for ; i < len(s); i++ {
		if !isSpace(s[i]) {
			return s[i]
		}
	}
	return 0
}

func skipString(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j + 1
		}
	}
	return len(s)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// isMemberPath reports whether expr is a plain reference such as "save" or
// "form.submit", which is used as an event handler as-is.
func isMemberPath(expr string) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false
	}
	for _, part := range strings.Split(expr, ".") {
		if part == "" || !isIdentStart(part[0]) {
			return false
		}
		for i := 1; i < len(part); i++ {
			if !isIdentPart(part[i]) {
				return false
			}
		}
	}
	return true
}
