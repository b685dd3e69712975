package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chores/internal/config"
)

var Version = "dev"

func main() {
	v := config.New()

	rootCmd := &cobra.Command{
		Use:           "chores",
		Short:         "Chores - shared household task tracker",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnvFiles()
		},
	}
	rootCmd.PersistentFlags().String("db", "chores.db", "path to the SQLite database file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cobra.CheckErr(v.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db")))
	cobra.CheckErr(v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")))

	rootCmd.AddCommand(serveCmd(v))
	rootCmd.AddCommand(migrateCmd(v))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
