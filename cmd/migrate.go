package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/maison/services/payroll/config"
	"example.com/maison/services/payroll/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Apply the schema migrations to the write database and exit`,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	// Connect runs the migrations on the write side
	if _, _, err := database.Connect(cfg.DB); err != nil {
		return err
	}

	log.Info().Msg("Migrations applied successfully")
	return nil
}
