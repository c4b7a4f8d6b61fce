package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "devserve.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Project.Root != "." || cfg.Project.PublicDir != "public" {
		t.Fatalf("default dirs root=%q public=%q", cfg.Project.Root, cfg.Project.PublicDir)
	}
	if cfg.Project.SourceSegment != "/src/" {
		t.Fatalf("default source segment=%q", cfg.Project.SourceSegment)
	}
	if cfg.Resolve.LockFile != "pnpm-lock.yaml" || cfg.Resolve.StoreDir != "node_modules" {
		t.Fatalf("default resolve=%+v", cfg.Resolve)
	}
	if len(cfg.Resolve.EntryFields) != 1 || cfg.Resolve.EntryFields[0] != "module" {
		t.Fatalf("default entry fields=%v", cfg.Resolve.EntryFields)
	}
	if cfg.Env.Mode != "development" {
		t.Fatalf("default mode=%q", cfg.Env.Mode)
	}
	if !cfg.AccessLogEnabled() {
		t.Fatalf("access_log default should be true")
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfigFile(t, `
project:
  root: ./web
  public_dir: static
resolve:
  entry_fields: [module, main]
logging:
  access_log: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Project.Root != "./web" {
		t.Fatalf("root=%q", cfg.Project.Root)
	}
	if got := cfg.PublicPath(); got != filepath.Join("web", "static") {
		t.Fatalf("public path=%q", got)
	}
	if got := cfg.LockFilePath(); got != filepath.Join("web", "pnpm-lock.yaml") {
		t.Fatalf("lock path=%q", got)
	}
	if len(cfg.Resolve.EntryFields) != 2 {
		t.Fatalf("entry fields=%v", cfg.Resolve.EntryFields)
	}
	if cfg.AccessLogEnabled() {
		t.Fatalf("access_log: false not honored")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "project:\n  root: ./a\n")
	t.Setenv("DEVSERVE_ROOT", "/srv/app")
	t.Setenv("DEVSERVE_LOCK_FILE", "/tmp/lock.yaml")
	t.Setenv("DEVSERVE_MODE", "test")
	t.Setenv("DEVSERVE_ACCESS_LOG", "off")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Project.Root != "/srv/app" {
		t.Fatalf("root not overridden: %q", cfg.Project.Root)
	}
	if cfg.LockFilePath() != "/tmp/lock.yaml" {
		t.Fatalf("absolute lock file not kept: %q", cfg.LockFilePath())
	}
	if cfg.Env.Mode != "test" {
		t.Fatalf("mode=%q", cfg.Env.Mode)
	}
	if cfg.AccessLogEnabled() {
		t.Fatalf("access log not disabled by env")
	}
}

func TestLoad_Validate(t *testing.T) {
	for _, content := range []string{
		"project:\n  source_segment: src\n",
		"project:\n  public_dir: /abs\n",
		"resolve:\n  store_dir: /abs\n",
		"resolve:\n  entry_fields: [module, '']\n",
	} {
		if _, err := Load(writeConfigFile(t, content)); err == nil {
			t.Fatalf("expected validation error for %q", content)
		}
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfigFile(t, "project: [\n")); err == nil {
		t.Fatalf("expected parse error")
	}
}
