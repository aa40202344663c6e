package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stepsim",
	Short: "A stepped simulation with live chart observation",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// A missing .env file is fine, flags and the environment still
		// apply.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
