package main

import (
	"github.com/spf13/cobra"

	"github.com/consorcio/emissions/bootstrap"
	httpx "github.com/consorcio/emissions/http"
)

func newServeCommand() *cobra.Command {
	var (
		migrate  bool
		noRedis  bool
		noEvents bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts := bootstrap.DefaultOptions()
			opts.RunMigrations = migrate
			opts.UseRedis = !noRedis
			opts.UseServiceBus = !noEvents

			svc, err := bootstrap.Initialize(ctx, serviceName, opts)
			if err != nil {
				return err
			}
			defer closeService(svc)

			handler := svc.API()
			defer handler.Close()

			cfg := svc.Config
			server := httpx.NewServer(httpx.ServerConfig{
				Port:            cfg.Port,
				ReadTimeout:     cfg.ReadTimeout,
				WriteTimeout:    cfg.WriteTimeout,
				IdleTimeout:     cfg.IdleTimeout,
				ShutdownTimeout: httpx.DefaultServerConfig().ShutdownTimeout,
			}, handler, svc.Logger)

			return server.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	cmd.Flags().BoolVar(&noRedis, "no-redis", false, "Run without the Redis summary cache and export lock")
	cmd.Flags().BoolVar(&noEvents, "no-events", false, "Do not publish events to Service Bus")
	return cmd
}
