package main

import (
	"fmt"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/adapters/db/postgres"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/infra/config"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/infra/migrate"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(db *gorm.DB) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				if err := migrate.Up(sqlDB); err != nil {
					return err
				}
				return printVersion(cmd, db)
			})
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return withDB(func(db *gorm.DB) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				if err := migrate.Down(sqlDB, steps); err != nil {
					return err
				}
				return printVersion(cmd, db)
			})
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(db *gorm.DB) error { return printVersion(cmd, db) })
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)
	return migrateCmd
}

func withDB(fn func(db *gorm.DB) error) error {
	dsn, err := config.LoadDatabaseURL(configDir)
	if err != nil {
		return err
	}
	db, err := postgres.Open(dsn)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return fn(db)
}

func printVersion(cmd *cobra.Command, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	v, dirty, err := migrate.Version(sqlDB)
	if err != nil {
		return err
	}
	cmd.Printf("schema version %d (dirty=%t)\n", v, dirty)
	return nil
}
