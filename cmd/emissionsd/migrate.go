package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/consorcio/emissions/bootstrap"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts := bootstrap.DefaultOptions()
			opts.UseRedis = false
			opts.UseServiceBus = false

			svc, err := bootstrap.Initialize(ctx, serviceName, opts)
			if err != nil {
				return err
			}
			defer closeService(svc)

			applied, err := svc.Migrate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}
}

func closeService(svc *bootstrap.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	svc.Close(ctx)
}
