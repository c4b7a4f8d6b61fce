package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/r9s-ai/devserve/internal/config"
	"github.com/r9s-ai/devserve/internal/lockfile"
	"github.com/r9s-ai/devserve/internal/logx"
)

const shutdownTimeout = 5 * time.Second

// URL is where the server is reachable.
func URL() string {
	return fmt.Sprintf("http://localhost:%d", config.Port)
}

// Run serves until ctx is cancelled. ready, if non-nil, is called once the
// port is bound; a busy port fails Run without calling it.
func Run(ctx context.Context, cfg *config.Config, ready func(*Server)) error {
	srv, err := New(cfg)
	if err != nil {
		return err
	}

	accessLogger, accessClose, color, err := openAccessLogger(cfg)
	if err != nil {
		return fmt.Errorf("init access log: %w", err)
	}
	if accessClose != nil {
		defer func() { _ = accessClose.Close() }()
	}

	gin.SetMode(gin.ReleaseMode)
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           NewRouter(srv, accessLogger, color),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	if idx := srv.Index(); idx != nil {
		log.Printf("lock file %s: %d packages", cfg.LockFilePath(), idx.Len())
	} else {
		log.Printf("no lock file at %s, resolving from flat %s", cfg.LockFilePath(), cfg.Resolve.StoreDir)
	}
	if ready != nil {
		ready(srv)
	} else {
		log.Printf("App running at %s", URL())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		w := lockfile.NewWatcher(cfg.LockFilePath(), lockFileChanged(srv.Index()), 0)
		if err := w.Run(gctx); err != nil {
			log.Printf("not watching lock file: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// lockFileChanged reports edits only; the served index is never swapped.
func lockFileChanged(current *lockfile.Index) lockfile.ChangeFunc {
	return func(idx *lockfile.Index, err error) {
		switch {
		case err != nil:
			log.Printf("lock file changed but does not parse: %v", err)
		case idx == nil:
			log.Printf("lock file removed; restart devserve to switch to the flat store")
		default:
			log.Printf("lock file changed (%d -> %d packages); restart devserve to pick it up", current.Len(), idx.Len())
		}
	}
}

func openAccessLogger(cfg *config.Config) (*log.Logger, io.Closer, bool, error) {
	if cfg == nil || !cfg.AccessLogEnabled() {
		return nil, nil, false, nil
	}

	path := strings.TrimSpace(cfg.Logging.AccessLogPath)
	if path == "" {
		return log.New(os.Stdout, "", 0), nil, logx.ColorEnabled(), nil
	}

	dir := filepath.Dir(path)
	if strings.TrimSpace(dir) != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, false, err
		}
	}
	// #nosec G304 -- access_log_path comes from trusted config/env.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, false, err
	}
	return log.New(f, "", 0), f, false, nil
}
