package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notafemboy/blogauth/internal/auth/app"
	"github.com/notafemboy/blogauth/pkg/cryptox"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := application.Run(cmd.Context()); err != nil {
		return fmt.Errorf("application error: %w", err)
	}
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite state store migrations",
		Long:  "Creates or upgrades the schema in DATABASE_FILE. The server also migrates on start, this is for running it ahead of a deploy.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg.StateStore = app.StoreSQLite

			st, err := app.OpenStore(cfg)
			if err != nil {
				return err
			}
			if err := st.Close(); err != nil {
				return fmt.Errorf("closing database: %w", err)
			}

			cmd.Printf("migrations applied to %s\n", cfg.DatabaseFile)
			return nil
		},
	}
}

func secretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Print a fresh value for AUTH_SIGNING_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := cryptox.GenerateToken(cryptox.TokenSize512)
			if err != nil {
				return err
			}
			cmd.Println(secret)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(app.BuildVersion)
		},
	}
}
