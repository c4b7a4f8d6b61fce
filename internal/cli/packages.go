package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/devserve/internal/config"
	"github.com/r9s-ai/devserve/internal/tui"
)

func newPackagesCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "Browse lock file packages and what each resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(strings.TrimSpace(cfgPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return tui.Run(cfg, os.Stdin, os.Stdout)
		},
	}
	addConfigFlag(cmd, &cfgPath)
	return cmd
}
