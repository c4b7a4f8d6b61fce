package lockfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type change struct {
	idx *Index
	err error
}

func TestWatcher_ReportsRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	if err := os.WriteFile(path, []byte(lockV6), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	changes := make(chan change, 4)
	w := NewWatcher(path, func(idx *Index, err error) { changes <- change{idx, err} }, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run err=%v", err)
		}
	})

	// Let the watch register before editing.
	time.Sleep(100 * time.Millisecond)
	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(path, []byte("packages:\n  /vue@3.5.0: {}\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case c := <-changes:
		if c.err != nil {
			t.Fatalf("change err=%v", c.err)
		}
		if c.idx.Len() != 1 {
			t.Fatalf("ids=%v", c.idx.IDs())
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no change reported")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "nope", DefaultFile), func(*Index, error) {}, 0)
	if err := w.Run(context.Background()); err == nil {
		t.Fatalf("expected error watching a missing directory")
	}
}
