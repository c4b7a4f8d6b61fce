package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/devserve/internal/config"
	"github.com/r9s-ai/devserve/internal/devserver"
	"github.com/r9s-ai/devserve/internal/resolve"
)

func newResolveCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "resolve <specifier>...",
		Short: "Print the file a bare import specifier is served from",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := loadServer(cfgPath)
			if err != nil {
				return err
			}
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			failed := 0
			for _, spec := range args {
				spec = strings.TrimPrefix(strings.TrimSpace(spec), resolve.Prefix)
				p, err := srv.Resolver().Resolve(spec)
				if err != nil {
					failed++
					fmt.Fprintln(errOut, errStyle.Render(err.Error()))
					continue
				}
				fmt.Fprintf(out, "%s%s -> %s\n", resolve.Prefix, spec, p)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d specifiers did not resolve", failed, len(args))
			}
			return nil
		},
	}
	addConfigFlag(cmd, &cfgPath)
	return cmd
}

func newCheckCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load the config and lock file, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := loadServer(cfgPath)
			if err != nil {
				return err
			}
			store := "no lock file, flat store"
			if idx := srv.Index(); idx != nil {
				store = fmt.Sprintf("%d packages", idx.Len())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s config %s: %s\n", okStyle.Render("ok"), cfgPath, store)
			return nil
		},
	}
	addConfigFlag(cmd, &cfgPath)
	return cmd
}

func loadServer(cfgPath string) (*devserver.Server, error) {
	cfg, err := config.Load(strings.TrimSpace(cfgPath))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return devserver.New(cfg)
}
