package tui

import (
	"fmt"
	"io"

	"github.com/r9s-ai/devserve/internal/config"
)

// Run opens the interactive lock file browser.
func Run(cfg *config.Config, in io.Reader, out io.Writer) error {
	p := newBrowserProgram(cfg, in, out)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui run failed: %w", err)
	}
	return nil
}
