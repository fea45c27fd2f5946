package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notafemboy/blogauth/internal/auth/app"
)

var configFile string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blogauth",
		Short: "Sign in with Slack for the blog",
		Long:  "blogauth runs the Slack OAuth login flow for the blog frontend and issues signed credentials.",
		// Running the bare binary serves.
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"path to a YAML config file (default $"+app.ConfigFileEnv+")")

	cmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		secretCmd(),
		versionCmd(),
	)

	return cmd
}

func execute() error {
	ctx, cancelOnSignal := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelOnSignal()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
