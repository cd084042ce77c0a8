package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/dealroom/internal/decision"
	"github.com/ShayCichocki/dealroom/internal/state"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status [session-id]",
	Short: "Show negotiation sessions",
	Long: `Without arguments, lists the most recent negotiation sessions.
With a session id, shows that session and its decision.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of sessions to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 1 {
		return showSession(db, args[0])
	}

	sessions, err := db.ListSessions(statusLimit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No negotiations yet. Run 'dealroom negotiate --team <id> --target <id>' to start.")
		return nil
	}

	fmt.Println("Recent Sessions:")
	for _, s := range sessions {
		fmt.Printf("  %s  %s  teams %s  turn %d/%d  (%s ago)\n",
			s.ID, statusLabel(s.Status), teamList(&s), s.CurrentTurn, s.MaxTurns,
			formatDuration(time.Since(s.StartedAt)))
	}
	return nil
}

func showSession(db *state.DB, id string) error {
	s, err := db.GetSession(id)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if s == nil {
		return fmt.Errorf("session %s: %w", id, state.ErrSessionNotFound)
	}

	fmt.Printf("Session: %s\n", s.ID)
	fmt.Printf("  Status: %s\n", statusLabel(s.Status))
	fmt.Printf("  Teams: %s\n", teamList(s))
	fmt.Printf("  Turn: %d of %d\n", s.CurrentTurn, s.MaxTurns)
	fmt.Printf("  Started: %s (%s ago)\n", s.StartedAt.Format(time.RFC3339), formatDuration(time.Since(s.StartedAt)))
	if s.CompletedAt != nil {
		fmt.Printf("  Duration: %s\n", formatDuration(s.CompletedAt.Sub(s.StartedAt)))
	}
	if s.UserID != "" {
		fmt.Printf("  User: %s\n", s.UserID)
	}
	if s.ErrorMessage != "" {
		fmt.Printf("  Error: %s\n", color.RedString(s.ErrorMessage))
	}
	return showResult(db, id)
}

// showResult prints the stored decision, if any.
func showResult(db *state.DB, id string) error {
	result, err := db.GetResult(id)
	if err != nil {
		return fmt.Errorf("get result: %w", err)
	}
	if result == nil || result.Decision == nil {
		return nil
	}

	encoded, err := decision.Encode(result.Decision)
	if err != nil {
		return err
	}
	fmt.Printf("\nDecision (consensus: %t, %d turns):\n%s\n", result.ConsensusReached, result.TotalTurns, encoded)
	if result.Notes != "" {
		fmt.Printf("Notes: %s\n", result.Notes)
	}
	return nil
}

func statusLabel(s models.SessionStatus) string {
	switch s {
	case models.SessionCompleted:
		return color.GreenString(string(s))
	case models.SessionFailed:
		return color.RedString(string(s))
	case models.SessionInProgress:
		return color.YellowString(string(s))
	default:
		return string(s)
	}
}

func teamList(s *models.Session) string {
	ids := s.TeamIDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, " → ")
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dd", int(d.Hours())/24)
}
