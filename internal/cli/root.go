package cli

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "devserve.yaml"

func Run(args []string) error {
	return execute(args, os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd()
	if len(args) == 0 || (strings.HasPrefix(args[0], "-") && args[0] != "-h" && args[0] != "--help") {
		// A bare `devserve` or flags only: serve.
		args = append([]string{"serve"}, args...)
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "devserve",
		Short:         "No-bundle ES module dev server for Vue projects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newServeCmd(),
		newResolveCmd(),
		newCheckCmd(),
		newPackagesCmd(),
		newVersionCmd(),
	)
	return cmd
}

func addConfigFlag(cmd *cobra.Command, p *string) {
	cmd.Flags().StringVarP(p, "config", "c", defaultConfigPath, "config yaml path")
}
