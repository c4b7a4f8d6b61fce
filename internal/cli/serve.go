package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/devserve/internal/config"
	"github.com/r9s-ai/devserve/internal/devserver"
	"github.com/r9s-ai/devserve/internal/version"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the project on " + devserver.URL(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(strings.TrimSpace(cfgPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			return devserver.Run(ctx, cfg, func(s *devserver.Server) {
				printBanner(out, cfg, s)
			})
		},
	}
	addConfigFlag(cmd, &cfgPath)
	return cmd
}

func printBanner(w io.Writer, cfg *config.Config, s *devserver.Server) {
	store := "flat " + cfg.Resolve.StoreDir
	if idx := s.Index(); idx != nil {
		store = fmt.Sprintf("%d packages from %s", idx.Len(), cfg.LockFilePath())
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s\n", titleStyle.Render("devserve"), faintStyle.Render(version.Version))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  App running at %s\n", urlStyle.Render(devserver.URL()))
	fmt.Fprintf(w, "  %s %s\n", faintStyle.Render("root: "), cfg.Project.Root)
	fmt.Fprintf(w, "  %s %s\n", faintStyle.Render("store:"), store)
	fmt.Fprintf(w, "  %s %s\n", faintStyle.Render("mode: "), cfg.Env.Mode)
	fmt.Fprintln(w)
}
