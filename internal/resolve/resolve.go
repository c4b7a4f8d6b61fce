// Package resolve maps bare module specifiers to files in the installed
// package store and rewrites /@modules/ request paths accordingly.
package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/r9s-ai/devserve/internal/lockfile"
	"github.com/r9s-ai/devserve/internal/pipeline"
)

// Prefix is the reserved URL namespace for bare specifiers.
const Prefix = "/@modules/"

const (
	DefaultStoreDir = "node_modules"
	hashedStoreDir  = ".pnpm"
	manifestName    = "package.json"
)

// Resolver locates package entry points. Root is the project directory the
// store lives in; Index is nil for a flat node_modules layout.
type Resolver struct {
	root        fs.FS
	storeDir    string
	index       *lockfile.Index
	entryFields []string
}

// Options tunes the store layout and manifest fields.
type Options struct {
	StoreDir    string
	EntryFields []string
}

// New builds a resolver over root. idx may be nil.
func New(root fs.FS, idx *lockfile.Index, opts Options) *Resolver {
	storeDir := strings.Trim(path.Clean("/"+strings.TrimSpace(opts.StoreDir)), "/")
	if storeDir == "" {
		storeDir = DefaultStoreDir
	}
	fields := make([]string, 0, len(opts.EntryFields))
	for _, f := range opts.EntryFields {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		fields = []string{"module"}
	}
	return &Resolver{root: root, storeDir: storeDir, index: idx, entryFields: fields}
}

// PackageDir returns the slash path, relative to the project root, of the
// directory holding specifier.
func (r *Resolver) PackageDir(specifier string) (string, error) {
	spec := strings.Trim(strings.TrimSpace(specifier), "/")
	if spec == "" || !fs.ValidPath(spec) {
		return "", &pipeline.ResolutionError{Specifier: specifier, Err: errors.New("invalid specifier")}
	}
	if r.index == nil {
		return path.Join(r.storeDir, spec), nil
	}
	id, ok := r.index.Match(spec)
	if !ok {
		return "", &pipeline.ResolutionError{Specifier: specifier, Err: errors.New("no matching package in lock file")}
	}
	return path.Join(r.storeDir, hashedStoreDir, lockfile.StoreDirName(id), DefaultStoreDir, spec), nil
}

// Manifest returns the raw package.json of specifier's package and the
// package directory it was read from.
func (r *Resolver) Manifest(specifier string) ([]byte, string, error) {
	dir, err := r.PackageDir(specifier)
	if err != nil {
		return nil, "", err
	}
	b, err := fs.ReadFile(r.root, path.Join(dir, manifestName))
	if err != nil {
		return nil, dir, &pipeline.ResolutionError{Specifier: specifier, Err: fmt.Errorf("read manifest: %w", err)}
	}
	return b, dir, nil
}

// Resolve returns the absolute URL path of specifier's ES module entry.
func (r *Resolver) Resolve(specifier string) (string, error) {
	b, dir, err := r.Manifest(specifier)
	if err != nil {
		return "", err
	}
	var manifest map[string]any
	if err := json.Unmarshal(b, &manifest); err != nil {
		return "", &pipeline.ResolutionError{Specifier: specifier, Err: fmt.Errorf("parse manifest: %w", err)}
	}
	for _, field := range r.entryFields {
		if v, ok := manifest[field].(string); ok && strings.TrimSpace(v) != "" {
			return "/" + path.Join(dir, strings.TrimSpace(v)), nil
		}
	}
	return "", &pipeline.ResolutionError{
		Specifier: specifier,
		Err:       fmt.Errorf("manifest has no %s field", strings.Join(r.entryFields, "/")),
	}
}

// Stage rewrites /@modules/<specifier> request paths to the resolved entry.
// Other paths pass through untouched.
func (r *Resolver) Stage() pipeline.Stage {
	return pipeline.StageFunc{StageName: "resolve", Fn: r.apply}
}

func (r *Resolver) apply(_ context.Context, req *pipeline.Request) error {
	if !strings.HasPrefix(req.Path, Prefix) {
		return nil
	}
	resolved, err := r.Resolve(strings.TrimPrefix(req.Path, Prefix))
	if err != nil {
		return err
	}
	req.Path = resolved
	return nil
}
