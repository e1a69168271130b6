package main

import "github.com/spf13/cobra"

var configDir string

var rootCmd = &cobra.Command{
	Use:   "users",
	Short: "User directory service",
	Long: `Registers users, logs them in and serves their profiles behind a
read-through cache.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".",
		"directory holding the optional config.json and .env")
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd())
}
