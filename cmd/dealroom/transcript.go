package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/dealroom/internal/state"
)

var transcriptJSON bool

var transcriptCmd = &cobra.Command{
	Use:   "transcript <session-id>",
	Short: "Print a negotiation transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscript,
}

func init() {
	transcriptCmd.Flags().BoolVar(&transcriptJSON, "json", false, "Print one JSON object per message")
}

func runTranscript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	id := args[0]
	session, err := db.GetSession(id)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("session %s: %w", id, state.ErrSessionNotFound)
	}

	messages, err := db.ListMessages(id)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}

	if transcriptJSON {
		enc := json.NewEncoder(os.Stdout)
		for _, m := range messages {
			if err := enc.Encode(m); err != nil {
				return fmt.Errorf("encode message: %w", err)
			}
		}
		return nil
	}

	speaker := color.New(color.Bold, color.FgCyan)
	for _, m := range messages {
		fmt.Printf("%s %s\n%s\n\n",
			speaker.Sprintf("[%d] %s", m.TurnNumber, m.Speaker),
			color.HiBlackString(m.Timestamp.Format("15:04:05")),
			m.Content)
	}
	fmt.Printf("%d messages, session %s\n", len(messages), statusLabel(session.Status))
	return nil
}
