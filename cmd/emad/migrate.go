package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/config"
	sqlitestore "github.com/Reynold-degenracy/EverMemoryArchive/internal/store/sqlite"
)

func buildMigrateCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQLite schema for the actor/buffer store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "emad.yaml", "path to the configuration file")
	return cmd
}

func runMigrate(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.Driver != "sqlite" {
		return fmt.Errorf("migrate: store.driver is %q, expected \"sqlite\"", cfg.Store.Driver)
	}

	s, err := sqlitestore.Open(cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer s.Close()

	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Println("migration applied")
	return nil
}
