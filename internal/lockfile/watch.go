package lockfile

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc receives the re-parsed lock file after it changes on disk.
// idx is nil when the file was removed or could not be parsed.
type ChangeFunc func(idx *Index, err error)

// Watcher reports edits to a lock file. It never touches an Index already
// handed out; the server keeps serving the one it started with.
type Watcher struct {
	path     string
	onChange ChangeFunc
	debounce time.Duration
}

// NewWatcher watches path. A zero debounce means 500ms.
func NewWatcher(path string, onChange ChangeFunc, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{path: path, onChange: onChange, debounce: debounce}
}

// Run blocks until ctx is cancelled. The parent directory is watched so
// package managers that replace the file atomically are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	target := filepath.Base(w.path)
	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			w.onChange(Load(w.path))

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("lock file watch: %v", err)
		}
	}
}
