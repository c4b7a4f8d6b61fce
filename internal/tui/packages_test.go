package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/r9s-ai/devserve/internal/config"
)

const lockV9 = `lockfileVersion: '9.0'

packages:
  vue@3.4.3:
    resolution: {integrity: sha512-a}
  vue@3.3.0:
    resolution: {integrity: sha512-b}

snapshots:
  vue@3.4.3: {}
  vue@3.3.0: {}
  vue-router@4.2.5(vue@3.4.3): {}
`

func newProject(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"pnpm-lock.yaml": lockV9,
		"node_modules/.pnpm/vue@3.4.3/node_modules/vue/package.json": `{"name":"vue","module":"dist/vue.esm.js"}`,
	}
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	cfg := config.Default()
	cfg.Project.Root = dir
	return cfg
}

func TestLoadPackages(t *testing.T) {
	cfg := newProject(t)
	items, err := loadPackages(cfg)
	if err != nil {
		t.Fatalf("loadPackages err=%v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items=%+v", items)
	}

	vue := packageItem{info: items[0]}
	if vue.Title() != "vue  3.4.3" {
		t.Fatalf("title=%q", vue.Title())
	}
	if want := "/@modules/vue -> /node_modules/.pnpm/vue@3.4.3/node_modules/vue/dist/vue.esm.js"; vue.Description() != want {
		t.Fatalf("description=%q want %q", vue.Description(), want)
	}

	old := packageItem{info: items[1]}
	if old.Description() != "shadowed by vue@3.4.3" {
		t.Fatalf("shadowed description=%q", old.Description())
	}

	router := packageItem{info: items[2]}
	if router.info.Err == nil || !strings.HasPrefix(router.Description(), "error: ") {
		t.Fatalf("router=%+v", router.info)
	}
	if !strings.Contains(router.FilterValue(), "vue-router") {
		t.Fatalf("filter value=%q", router.FilterValue())
	}
}

func TestLoadPackages_NoLockFile(t *testing.T) {
	cfg := config.Default()
	cfg.Project.Root = t.TempDir()
	if _, err := loadPackages(cfg); err == nil {
		t.Fatalf("expected error without a lock file")
	}
}

func TestBrowser_OpenAndBack(t *testing.T) {
	cfg := newProject(t)
	var m tea.Model = newBrowserModel(cfg)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	msg := m.(browserModel).loadPackagesCmd()()
	m, _ = m.Update(msg)
	if !strings.Contains(m.View(), "packages=3") {
		t.Fatalf("list view:\n%s", m.View())
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("enter produced no command")
	}
	m, _ = m.Update(cmd())
	bm := m.(browserModel)
	if bm.state != browserStateDetail || bm.selected != "vue@3.4.3" {
		t.Fatalf("state=%v selected=%q err=%v", bm.state, bm.selected, bm.err)
	}
	if !strings.Contains(m.View(), "Package  vue@3.4.3") {
		t.Fatalf("detail view:\n%s", m.View())
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.(browserModel).state != browserStateList {
		t.Fatalf("esc did not return to list")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("q produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q did not quit")
	}
}

func TestDescribePackage(t *testing.T) {
	cfg := newProject(t)
	items, err := loadPackages(cfg)
	if err != nil {
		t.Fatalf("loadPackages err=%v", err)
	}
	out, err := describePackage(cfg, items[1])
	if err != nil {
		t.Fatalf("describePackage err=%v", err)
	}
	for _, want := range []string{
		"id:       vue@3.3.0",
		"served:   vue@3.4.3",
		"entry:    /node_modules/.pnpm/vue@3.4.3/node_modules/vue/dist/vue.esm.js",
		`"module": "dist/vue.esm.js"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
