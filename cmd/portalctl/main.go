package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ngeni/portal/internal/config"
	"github.com/ngeni/portal/internal/db"
	"github.com/ngeni/portal/internal/observability"
	"github.com/ngeni/portal/internal/repo/postgres"
	"github.com/ngeni/portal/internal/security"
	"github.com/ngeni/portal/internal/service"
)

var rootCmd = &cobra.Command{
	Use:           "portalctl",
	Short:         "Operate the portal database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if cfg.UsesMemoryStore() {
		return config.Config{}, fmt.Errorf("STORE=memory has no database to operate on")
	}
	return cfg, nil
}

func init() {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := db.MigrateUp(cfg.DBURL); err != nil {
				return err
			}
			return printVersion(cmd, cfg.DBURL)
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := db.MigrateDown(cfg.DBURL, steps); err != nil {
				return err
			}
			return printVersion(cmd, cfg.DBURL)
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printVersion(cmd, cfg.DBURL)
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)

	var name, email, password string
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator unless the email is already registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if email == "" {
				email = cfg.AdminEmail
			}
			if password == "" {
				password = cfg.AdminPassword
			}
			if name == "" {
				name = cfg.AdminName
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or ADMIN_EMAIL and ADMIN_PASSWORD) are required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DBURL, MaxConns: 2, AppName: "portalctl"})
			if err != nil {
				return err
			}
			defer pool.Close()

			log := observability.NewLogger(cfg.Env, cfg.LogLevel)
			created, err := service.EnsureAdmin(ctx, postgres.NewUsersRepo(pool, nil), security.NewHasher(cfg.BcryptCost), name, email, password, log)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s created\n", email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, nothing to do\n", email)
			}
			return nil
		},
	}
	createCmd.Flags().StringVar(&email, "email", "", "admin email (defaults to ADMIN_EMAIL)")
	createCmd.Flags().StringVar(&password, "password", "", "admin password (defaults to ADMIN_PASSWORD)")
	createCmd.Flags().StringVar(&name, "name", "", "display name (defaults to ADMIN_NAME)")
	adminCmd.AddCommand(createCmd)

	rootCmd.AddCommand(migrateCmd, adminCmd)
}

func printVersion(cmd *cobra.Command, dbURL string) error {
	v, dirty, err := db.MigrationVersion(dbURL)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%v)\n", v, dirty)
	return nil
}
