package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/smazurov/touchlight/cmd"
	"github.com/smazurov/touchlight/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := cmd.DefaultOptions()

	root := &cobra.Command{
		Use:          "touchlight",
		Short:        "Capacitive touch controlled RGB light",
		Version:      version.Get().Version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return cmd.Run(c, &opts)
		},
	}
	opts.BindFlags(root.PersistentFlags())

	root.AddCommand(
		cmd.NewRunCmd(&opts),
		cmd.NewSimCmd(&opts),
		cmd.NewCheckCmd(&opts),
		cmd.NewVersionCmd(),
	)
	return root
}
