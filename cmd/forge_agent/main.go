// Package main provides the entry point for the content generation CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "forge_agent",
	Short: "Marketing content generation engine",
	Long:  "forge_agent turns product documentation and practitioner evidence into scored, voice-consistent marketing content variants through a multi-strategy generation pipeline.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
