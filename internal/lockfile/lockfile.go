// Package lockfile reads the package identifiers recorded in a pnpm lock file.
//
// Only the ordered list of fully-qualified identifiers is kept. The list is
// built once at startup and is read-only afterwards.
package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the lock file name looked up in the project root.
const DefaultFile = "pnpm-lock.yaml"

// Index is the ordered, immutable list of package identifiers such as
// "/vue/3.4.3" (lock file v5), "/vue@3.4.3" (v6) or
// "@vue/server-renderer@3.4.3(vue@3.4.3)" (v9).
type Index struct {
	ids []string
}

// New builds an index from identifiers in lock file order.
func New(ids []string) *Index {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return &Index{ids: out}
}

// Load reads and parses the lock file at path. A missing file is not an
// error: it returns a nil index, meaning the flat node_modules layout.
func Load(path string) (*Index, error) {
	// #nosec G304 -- lock file path comes from trusted config.
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	idx, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return idx, nil
}

// Parse extracts identifiers from lock file content, keeping document order.
// Lock files with a "snapshots" section (v9) carry the peer-qualified
// identifiers there; older ones only have "packages".
func Parse(data []byte) (*Index, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return New(nil), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("lock file root is not a mapping")
	}
	section := mappingValue(root, "snapshots")
	if section == nil {
		section = mappingValue(root, "packages")
	}
	if section == nil {
		return New(nil), nil
	}
	if section.Kind != yaml.MappingNode {
		return nil, errors.New("packages section is not a mapping")
	}
	ids := make([]string, 0, len(section.Content)/2)
	for i := 0; i+1 < len(section.Content); i += 2 {
		ids = append(ids, section.Content[i].Value)
	}
	return New(ids), nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// Len returns the number of identifiers.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.ids)
}

// IDs returns a copy of the identifiers in lock file order.
func (i *Index) IDs() []string {
	if i == nil {
		return nil
	}
	out := make([]string, len(i.ids))
	copy(out, i.ids)
	return out
}

// Match returns the first identifier naming the package of specifier.
// The package name is anchored at the start of the identifier and must be
// followed by "@" (or "/" in v5 keys), so "vue" never selects
// "vue-router@4.0.0".
func (i *Index) Match(specifier string) (string, bool) {
	if i == nil {
		return "", false
	}
	name := PackageName(specifier)
	if name == "" {
		return "", false
	}
	prefix := name + "@"
	for _, id := range i.ids {
		if v5name, _, ok := splitV5(id); ok {
			if v5name == name {
				return id, true
			}
			continue
		}
		if strings.HasPrefix(strings.TrimPrefix(id, "/"), prefix) {
			return id, true
		}
	}
	return "", false
}

// splitV5 splits a v5 key such as "/@vue/shared/3.4.3_vue@3.4.3" into its
// package name and the version with any peer suffix.
func splitV5(id string) (name, rest string, ok bool) {
	s := strings.TrimPrefix(strings.TrimSpace(id), "/")
	n := 1
	if strings.HasPrefix(s, "@") {
		n = 2
	}
	parts := strings.SplitN(s, "/", n+1)
	if len(parts) != n+1 {
		return "", "", false
	}
	for _, p := range parts[:n] {
		if p == "" || strings.ContainsAny(strings.TrimPrefix(p, "@"), "@()") {
			return "", "", false
		}
	}
	rest = parts[n]
	if rest == "" || rest[0] < '0' || rest[0] > '9' {
		return "", "", false
	}
	return strings.Join(parts[:n], "/"), rest, true
}

// PackageName returns the package part of a bare specifier:
// "vue/dist/x.js" -> "vue", "@vue/shared/x" -> "@vue/shared".
func PackageName(specifier string) string {
	s := strings.Trim(strings.TrimSpace(specifier), "/")
	if s == "" {
		return ""
	}
	parts := strings.Split(s, "/")
	if strings.HasPrefix(parts[0], "@") {
		if len(parts) < 2 || parts[1] == "" {
			return ""
		}
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

// StoreDirName maps an identifier to its directory under node_modules/.pnpm:
// "/@scope/name@1.0.0(peer@2.0.0)" -> "@scope+name@1.0.0_peer@2.0.0" and
// "/@scope/name/1.0.0_peer@2.0.0" -> "@scope+name@1.0.0_peer@2.0.0".
func StoreDirName(id string) string {
	s := strings.TrimPrefix(strings.TrimSpace(id), "/")
	if name, rest, ok := splitV5(id); ok {
		s = name + "@" + rest
	}
	s = strings.ReplaceAll(s, "/", "+")
	s = strings.ReplaceAll(s, "(", "_")
	return strings.ReplaceAll(s, ")", "")
}

// SplitID splits an identifier into package name and version, dropping any
// peer suffix: "/@vue/shared@3.4.3(vue@3.4.3)" -> "@vue/shared", "3.4.3".
func SplitID(id string) (name, version string) {
	if name, rest, ok := splitV5(id); ok {
		version, _, _ = strings.Cut(rest, "_")
		return name, version
	}
	s := strings.TrimPrefix(strings.TrimSpace(id), "/")
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 {
		return s, ""
	}
	return s[:at], s[at+1:]
}
