package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dealroom",
	Short: "Multi-agent trade negotiation engine",
	Long: `dealroom runs trade negotiations between AI agents representing
basketball teams, moderated by an AI commissioner.

Each negotiation is a round-robin conversation that ends when the
commissioner announces consensus or the turn limit is reached. The
transcript is persisted as it happens and a structured trade decision
is extracted at the end.

Sessions, transcripts and decisions are stored in a local SQLite
database and can be inspected with the status and transcript commands.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: XDG user config plus .dealroom.yaml)")

	rootCmd.AddCommand(negotiateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(transcriptCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(versionCmd)
}
