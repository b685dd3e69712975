package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dukerupert/chores/internal/database"
)

func migrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations and print their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := v.GetString("db_path")
			db, err := database.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			return database.Status(cmd.Context(), db, cmd.OutOrStdout())
		},
	}
}
