package pipeline

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError means no search root holds the requested path.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

// ResolutionError means a bare specifier could not be mapped to an
// installed package, or the package manifest is unusable.
type ResolutionError struct {
	Specifier string
	Err       error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resolve %q", e.Specifier)
	}
	return fmt.Sprintf("resolve %q: %v", e.Specifier, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// MalformedComponentError means a component lacks the block needed for the
// requested sub-resource.
type MalformedComponentError struct {
	Path string
	Part string
	Msg  string
}

func (e *MalformedComponentError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "missing " + e.Part + " block"
	}
	return fmt.Sprintf("component %s: %s", e.Path, msg)
}

// StatusFor maps a stage error to the HTTP status sent to the browser.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
