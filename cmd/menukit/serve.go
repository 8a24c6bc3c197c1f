package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/menukit/internal/app"
	"github.com/dmitrymomot/menukit/pkg/httpserver"
	"github.com/dmitrymomot/menukit/pkg/logger"
	"github.com/dmitrymomot/menukit/pkg/requestid"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			log := app.NewLogger(cfg, requestid.LoggerExtractor())
			logger.SetAsDefault(log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				log.ErrorContext(ctx, "failed to start", logger.Component("serve"), logger.Error(err))
				return err
			}

			timeout := cfg.HTTP.ShutdownTimeout
			if timeout <= 0 {
				timeout = 10 * time.Second
			}
			srv := httpserver.NewFromConfig(cfg.HTTP,
				httpserver.WithLogger(log),
				httpserver.WithStopHook(func() {
					closeCtx, cancel := context.WithTimeout(context.Background(), timeout)
					defer cancel()
					if err := a.Close(closeCtx); err != nil {
						log.Error("failed to release backends", logger.Component("serve"), logger.Error(err))
					}
				}),
			)

			log.InfoContext(ctx, "starting menukit",
				logger.Component("serve"),
				"version", Version,
				"store", cfg.StoreDriver,
				"test_mode", cfg.Razorpay.TestMode,
			)
			return srv.Run(ctx, a.Handler)
		},
	}
}
