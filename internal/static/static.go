// Package static locates request paths under an ordered list of roots.
package static

import (
	"context"
	"io"
	"io/fs"
	"strings"

	"github.com/r9s-ai/devserve/internal/pipeline"
)

const indexFile = "index.html"

// Responder serves files from the first root that holds them, e.g. the
// project directory followed by its public/ directory.
type Responder struct {
	roots []fs.FS
}

// New returns a responder searching roots in order.
func New(roots ...fs.FS) *Responder {
	return &Responder{roots: roots}
}

// Lookup returns the root that holds urlPath and the fs path inside it.
func (s *Responder) Lookup(urlPath string) (fs.FS, string, bool) {
	name := strings.TrimPrefix(urlPath, "/")
	if name == "" {
		name = indexFile
	}
	if !fs.ValidPath(name) {
		return nil, "", false
	}
	for _, root := range s.roots {
		fi, err := fs.Stat(root, name)
		if err == nil && !fi.IsDir() {
			return root, name, true
		}
	}
	return nil, "", false
}

// Stage sets the type from the file extension and the body to a lazily
// opened stream. A miss ends the chain with a NotFoundError.
func (s *Responder) Stage() pipeline.Stage {
	return pipeline.StageFunc{StageName: "static", Fn: s.apply}
}

func (s *Responder) apply(_ context.Context, req *pipeline.Request) error {
	root, name, ok := s.Lookup(req.Path)
	if !ok {
		return &pipeline.NotFoundError{Path: req.Path}
	}
	req.Type = pipeline.TypeByExtension(name)
	req.Body = pipeline.StreamBody(&lazyFile{root: root, name: name})
	return nil
}

// lazyFile opens its file on first Read.
type lazyFile struct {
	root fs.FS
	name string
	f    fs.File
	err  error
}

func (l *lazyFile) Read(p []byte) (int, error) {
	if l.f == nil && l.err == nil {
		l.f, l.err = l.root.Open(l.name)
	}
	if l.err != nil {
		return 0, l.err
	}
	return l.f.Read(p)
}

func (l *lazyFile) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}

var _ io.ReadCloser = (*lazyFile)(nil)
