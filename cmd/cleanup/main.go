package main

import (
	"context"
	"fmt"
	"os"

	"github.com/opentrusty/tenancy/internal/config"
	"github.com/opentrusty/tenancy/internal/store/postgres"
	"github.com/spf13/cobra"
)

// cleanup empties the tenant table of a development database. With --drop
// the table itself is removed.
func main() {
	var drop bool

	cmd := &cobra.Command{
		Use:           "cleanup",
		Short:         "Remove all tenants from the configured database",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), drop)
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "drop the tenants table instead of truncating it")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, drop bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := postgres.New(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    1,
		MaxIdleConns:    0,
		ConnectAttempts: 1,
	})
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	defer db.Close()

	if drop {
		if err := db.Migrate(ctx, postgres.DropSchema); err != nil {
			return fmt.Errorf("drop table failed: %w", err)
		}
		fmt.Println("Dropped tenants table successfully.")
		return nil
	}

	if _, err := db.Pool().Exec(ctx, "TRUNCATE TABLE tenants"); err != nil {
		return fmt.Errorf("truncate failed: %w", err)
	}
	fmt.Println("Truncated tenants table successfully.")
	return nil
}
