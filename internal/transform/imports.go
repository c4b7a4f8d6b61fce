// Package transform holds the content-type driven stages that turn served
// files into browser-executable modules.
package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/r9s-ai/devserve/internal/pipeline"
)

// DefaultMode is substituted for the environment mode accessor.
const DefaultMode = "development"

const modeAccessor = "process.env.NODE_ENV"

// Matches the specifier of `from "x"`, `import "x"` and `import("x")`.
// Only import takes a parenthesis, so Array.from("x") is not a specifier.
// This is textual: occurrences inside comments or template literals are
// rewritten too.
var specifierRe = regexp.MustCompile(`\b(?:from|import\s*(?:\(\s*)?)\s*(?:"([^"\n]*)"|'([^'\n]*)')`)

// ImportRewriter prefixes bare specifiers with the module namespace and
// substitutes the environment mode.
type ImportRewriter struct {
	prefix string
	mode   string
}

// NewImportRewriter returns a rewriter targeting prefix (e.g. "/@modules/").
// An empty mode means DefaultMode.
func NewImportRewriter(prefix, mode string) *ImportRewriter {
	if strings.TrimSpace(mode) == "" {
		mode = DefaultMode
	}
	return &ImportRewriter{prefix: prefix, mode: mode}
}

// Rewrite applies both substitutions to code.
func (r *ImportRewriter) Rewrite(code string) string {
	return r.replaceMode(r.rewriteSpecifiers(code))
}

func (r *ImportRewriter) rewriteSpecifiers(code string) string {
	matches := specifierRe.FindAllStringSubmatchIndex(code, -1)
	if len(matches) == 0 {
		return code
	}
	var b strings.Builder
	b.Grow(len(code) + len(matches)*len(r.prefix))
	last := 0
	for _, m := range matches {
		if prevNonSpace(code, m[0]) == '.' {
			// A method call such as x.import("y").
			continue
		}
		start := m[2]
		if start < 0 {
			start = m[4]
		}
		spec := code[start:max(m[3], m[5])]
		b.WriteString(code[last:start])
		if !isRelative(spec) {
			b.WriteString(r.prefix)
		}
		b.WriteString(spec)
		last = start + len(spec)
	}
	b.WriteString(code[last:])
	return b.String()
}

func prevNonSpace(s string, i int) byte {
	for i--; i >= 0; i-- {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return s[i]
		}
	}
	return 0
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/")
}

// replaceMode substitutes whole-token occurrences of the mode accessor;
// "a.process.env.NODE_ENV" and "process.env.NODE_ENVX" are left alone.
func (r *ImportRewriter) replaceMode(code string) string {
	if !strings.Contains(code, modeAccessor) {
		return code
	}
	lit, err := json.Marshal(r.mode)
	if err != nil {
		lit = []byte(`"` + DefaultMode + `"`)
	}
	var b strings.Builder
	b.Grow(len(code))
	for {
		i := strings.Index(code, modeAccessor)
		if i < 0 {
			b.WriteString(code)
			return b.String()
		}
		end := i + len(modeAccessor)
		token := (i == 0 || !isIdentByte(code[i-1]) && code[i-1] != '.') &&
			(end == len(code) || !isIdentByte(code[end]))
		b.WriteString(code[:i])
		if token {
			b.Write(lit)
		} else {
			b.WriteString(modeAccessor)
		}
		code = code[end:]
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Stage rewrites any payload typed as JavaScript, whatever its path.
func (r *ImportRewriter) Stage() pipeline.Stage {
	return pipeline.StageFunc{StageName: "imports", Fn: r.apply}
}

func (r *ImportRewriter) apply(_ context.Context, req *pipeline.Request) error {
	if !req.IsJavaScript() {
		return nil
	}
	code, err := req.Body.Text()
	if err != nil {
		return fmt.Errorf("read %s: %w", req.Path, err)
	}
	req.Body = pipeline.TextBody(r.Rewrite(code))
	return nil
}
