package sfc

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/r9s-ai/devserve/internal/pipeline"
)

// Ext is the component file suffix.
const Ext = ".vue"

// Sub-resource discriminators.
const (
	PartTemplate = "template"
	PartStyle    = "style"
)

var exportDefault = regexp.MustCompile(`export\s+default\s+`)

// Splitter serves the virtual sub-resources of component files.
type Splitter struct {
	Parser   Parser
	Compiler Compiler
}

// NewSplitter returns a splitter using the built-in parser and compiler.
func NewSplitter() *Splitter {
	return &Splitter{Parser: HTMLParser{}, Compiler: RenderCompiler{}}
}

// Stage applies to paths ending in .vue and selects the sub-resource from
// the "type" query value.
func (s *Splitter) Stage() pipeline.Stage {
	return pipeline.StageFunc{StageName: "sfc", Fn: s.apply}
}

func (s *Splitter) apply(_ context.Context, req *pipeline.Request) error {
	if !strings.HasSuffix(req.Path, Ext) {
		return nil
	}
	src, err := req.Body.Text()
	if err != nil {
		return fmt.Errorf("read %s: %w", req.Path, err)
	}
	d, err := s.Parser.Parse(src, req.Path)
	if err != nil {
		return &pipeline.MalformedComponentError{Path: req.Path, Part: "component", Msg: err.Error()}
	}

	switch part := req.Discriminator(); part {
	case "":
		code, err := MainModule(d, req.Path)
		if err != nil {
			return err
		}
		req.SetText(pipeline.MIMEJavaScript, code)
	case PartTemplate:
		if d.Template == nil {
			return &pipeline.MalformedComponentError{Path: req.Path, Part: PartTemplate}
		}
		code, err := s.Compiler.Compile(d.Template.Content, req.Path)
		if err != nil {
			return err
		}
		req.SetText(pipeline.MIMEJavaScript, code)
	case PartStyle:
		req.SetText(pipeline.MIMECSS, StyleText(d))
	default:
		return &pipeline.MalformedComponentError{Path: req.Path, Part: part, Msg: fmt.Sprintf("unknown sub-resource %q", part)}
	}
	return nil
}

// MainModule rewrites the script block's default export into __script and
// wires in the template and style sub-resources of path.
func MainModule(d *Descriptor, path string) (string, error) {
	if d.Script == nil {
		msg := "missing script block"
		if d.ScriptSetup != nil {
			msg = "<script setup> is not supported"
		}
		return "", &pipeline.MalformedComponentError{Path: path, Part: "script", Msg: msg}
	}
	code := exportDefault.ReplaceAllString(d.Script.Content, "const __script = ")
	var b strings.Builder
	b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "import { render as __render } from %s\n", jsString(path+"?type="+PartTemplate))
	fmt.Fprintf(&b, "import %s\n", jsString(path+"?type="+PartStyle))
	b.WriteString("__script.render = __render\n")
	b.WriteString("export default __script")
	return b.String(), nil
}

// StyleText concatenates the raw content of every style block.
func StyleText(d *Descriptor) string {
	var b strings.Builder
	for _, st := range d.Styles {
		b.WriteString(st.Content)
	}
	return b.String()
}
