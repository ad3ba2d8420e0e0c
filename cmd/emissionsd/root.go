package main

import (
	"github.com/spf13/cobra"
)

const serviceName = "emissions"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "emissionsd",
		Short:         "Trip emissions form service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.SetVersionTemplate("emissionsd {{.Version}}\n")

	cmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newExportCommand(),
		newTokenCommand(),
	)
	return cmd
}
