package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var purgeOlderThan time.Duration

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete old finished sessions",
	Long: `Delete completed and failed sessions older than --older-than, together
with their transcripts and decisions. Sessions still in progress are kept.`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 30*24*time.Hour, "Minimum session age")
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.PurgeOldSessions(purgeOlderThan)
	if err != nil {
		return err
	}
	printStatus("✓", fmt.Sprintf("Deleted %d session(s) older than %s", n, purgeOlderThan), color.FgGreen)
	return nil
}
