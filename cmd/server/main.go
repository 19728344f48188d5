package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "xiuxian",
		Short:         "Cultivation progression and resource ledger service",
		SilenceUsage:  true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(previewCmd())
	root.AddCommand(versionCmd())
	return root
}
