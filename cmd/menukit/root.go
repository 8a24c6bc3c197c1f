package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/menukit/pkg/config"
)

// Set during build with -ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:   "menukit",
		Short: "Restaurant subscription and usage metering service",
		Long: `menukit tracks restaurant partners through trial, paid and expired
subscriptions, meters QR menu scans against plan quotas and processes
Razorpay payments and webhooks.

Configuration is read from the environment. Use --env-file to load
.env files first; variables already set in the environment win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version + " (" + Commit + ")",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadEnv(envFiles...)
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "load variables from .env files")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newPlansCmd(),
		newSignCmd(),
	)
	return root
}
