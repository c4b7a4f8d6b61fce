package pipeline

import (
	"net/url"
	"strings"
)

// QueryType is the query key selecting a virtual sub-resource of a component.
const QueryType = "type"

// Request is the per-request state threaded through the stages.
// Path and Type change as stages run; OriginalPath never does.
type Request struct {
	Path         string
	OriginalPath string
	Query        url.Values
	Type         string
	Body         *Body
}

// NewRequest builds a Request for a logical path and raw query string.
// A malformed query is treated as empty.
func NewRequest(path, rawQuery string) *Request {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		q = url.Values{}
	}
	return &Request{
		Path:         path,
		OriginalPath: path,
		Query:        q,
	}
}

// Discriminator returns the requested sub-resource ("" for the main module).
func (r *Request) Discriminator() string {
	if r == nil || r.Query == nil {
		return ""
	}
	return strings.TrimSpace(r.Query.Get(QueryType))
}

// IsJavaScript reports whether the current payload is typed as JavaScript.
func (r *Request) IsJavaScript() bool {
	return r != nil && r.Type == MIMEJavaScript
}

// IsCSS reports whether the current payload is typed as CSS.
func (r *Request) IsCSS() bool {
	return r != nil && r.Type == MIMECSS
}

// SetText replaces the body with materialized text and sets the type.
func (r *Request) SetText(typ, text string) {
	r.Type = typ
	r.Body = TextBody(text)
}
