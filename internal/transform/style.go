package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/r9s-ai/devserve/internal/pipeline"
)

// styleModule injects the stylesheet on import and exports its text.
const styleModule = `const css = %s
const styleEl = document.createElement('style')
styleEl.setAttribute('type', 'text/css')
styleEl.textContent = css
document.head.appendChild(styleEl)
export default css`

var newlines = strings.NewReplacer("\r\n", "", "\n", "", "\r", "")

// WrapCSS returns a JS module for css. Newlines are dropped so the
// exported string is the stylesheet on a single line. Every import appends
// a new <style> element.
func WrapCSS(css string) string {
	lit, err := json.Marshal(newlines.Replace(css))
	if err != nil {
		lit = []byte(`""`)
	}
	return fmt.Sprintf(styleModule, lit)
}

// StyleStage wraps any payload typed as CSS and retypes it as JavaScript.
func StyleStage() pipeline.Stage {
	return pipeline.StageFunc{StageName: "style", Fn: applyStyle}
}

func applyStyle(_ context.Context, req *pipeline.Request) error {
	if !req.IsCSS() {
		return nil
	}
	css, err := req.Body.Text()
	if err != nil {
		return fmt.Errorf("read %s: %w", req.Path, err)
	}
	req.SetText(pipeline.MIMEJavaScript, WrapCSS(css))
	return nil
}
