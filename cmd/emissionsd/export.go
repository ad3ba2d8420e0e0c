package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/consorcio/emissions/bootstrap"
	"github.com/consorcio/emissions/export"
)

func newExportCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every emission record to a dated CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts := bootstrap.DefaultOptions()
			opts.UseServiceBus = false

			svc, err := bootstrap.Initialize(ctx, serviceName, opts)
			if err != nil {
				return err
			}
			defer closeService(svc)

			exporter := svc.Exporter
			if dir != "" {
				exporter = svc.ExporterTo(export.NewFileSink(dir))
			}

			res, err := exporter.Export(ctx)
			if errors.Is(err, export.ErrNoRecords) {
				fmt.Fprintln(cmd.OutOrStdout(), "the emission table is empty, no file was written")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d record(s) to %s\n", res.Rows, res.Location)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Write into this directory instead of the configured destination")
	return cmd
}
