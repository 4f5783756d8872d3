package cmd

import (
	"fmt"
	"log"

	"github.com/georgemunganga/schoolpack-backend/internal/config"
	"github.com/georgemunganga/schoolpack-backend/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required")
	}

	db, err := database.NewConnection(cmd.Context(), &cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	log.Println("[migrate] schema is up to date")
	return nil
}
