package main

import (
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/FeedStatus/internal/application"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := application.New(ctx, cfg)
	if err != nil {
		return err
	}
	runErr := app.Run(ctx)
	if err := app.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
