package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/dealroom/internal/config"
	"github.com/ShayCichocki/dealroom/internal/orchestrator"
	"github.com/ShayCichocki/dealroom/internal/roster"
	"github.com/ShayCichocki/dealroom/internal/state"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

// shutdownGrace bounds how long an interrupted negotiation may take to stop.
const shutdownGrace = 10 * time.Second

var (
	negotiateTeam      int
	negotiateTargets   []int
	negotiateMaxTurns  int
	negotiateKeyword   string
	negotiateSessionID string
	negotiateUser      string
	negotiateTUI       bool
	negotiatePrefs     models.TradePreferences
)

var negotiateCmd = &cobra.Command{
	Use:   "negotiate",
	Short: "Run a trade negotiation",
	Long: `Run a trade negotiation between the initiating team and one or more
target teams. Teams speak in order, followed by the commissioner, until the
commissioner announces consensus or the turn limit is reached.

Rosters are read from the league file configured as rosters.path.

Examples:
  dealroom negotiate --team 1 --target 2
  dealroom negotiate --team 1 --target 2,3 --positions C,PF --max-salary 20000000
  dealroom negotiate --team 1 --target 2 --want "Cal Big" --offer "Ben Wing" --tui`,
	RunE: runNegotiate,
}

func init() {
	f := negotiateCmd.Flags()
	f.IntVar(&negotiateTeam, "team", 0, "Initiating team id (required)")
	f.IntSliceVar(&negotiateTargets, "target", nil, "Target team ids, in speaking order (required)")
	f.IntVar(&negotiateMaxTurns, "max-turns", 0, "Turn limit (default: negotiation.max_turns)")
	f.StringVar(&negotiateKeyword, "keyword", "", "Consensus keyword (default: negotiation.consensus_keyword)")
	f.StringVar(&negotiateSessionID, "session-id", "", "Session id (default: generated)")
	f.StringVar(&negotiateUser, "user", os.Getenv("USER"), "User starting the negotiation")
	f.BoolVar(&negotiateTUI, "tui", false, "Show the live transcript viewer")

	f.StringSliceVar(&negotiatePrefs.DesiredPositions, "positions", nil, "Positions the initiating team wants")
	f.Int64Var(&negotiatePrefs.MinSalary, "min-salary", 0, "Minimum incoming salary")
	f.Int64Var(&negotiatePrefs.MaxSalary, "max-salary", 0, "Maximum incoming salary")
	f.StringSliceVar(&negotiatePrefs.TargetPlayers, "want", nil, "Players the initiating team wants")
	f.StringSliceVar(&negotiatePrefs.AvailablePlayers, "offer", nil, "Players the initiating team will move")
	f.BoolVar(&negotiatePrefs.ImproveDefense, "improve-defense", false, "Prioritize defense")
	f.BoolVar(&negotiatePrefs.ImproveOffense, "improve-offense", false, "Prioritize offense")
	f.BoolVar(&negotiatePrefs.AcquireYouth, "youth", false, "Prefer younger players")
	f.BoolVar(&negotiatePrefs.CapRelief, "cap-relief", false, "Shed salary")
	f.StringVar(&negotiatePrefs.Notes, "notes", "", "Free-form goals for the initiating team")

	negotiateCmd.MarkFlagRequired("team")
	negotiateCmd.MarkFlagRequired("target")
}

func runNegotiate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if negotiateMaxTurns > 0 {
		cfg.Negotiation.MaxTurns = negotiateMaxTurns
	}
	if negotiateKeyword != "" {
		cfg.Negotiation.ConsensusKeyword = negotiateKeyword
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Nothing is running yet, so any open session was left by a dead process.
	cleaned, err := state.NewRecoveryManager(db).Clean()
	if err != nil {
		return fmt.Errorf("recover interrupted sessions: %w", err)
	}
	if cleaned > 0 {
		printStatus("!", fmt.Sprintf("Marked %d interrupted session(s) as failed", cleaned), color.FgYellow)
	}

	rosters, err := roster.OpenFile(cfg.Rosters.Path)
	if err != nil {
		return fmt.Errorf("load rosters: %w", err)
	}
	defer rosters.Close()

	logger, err := orchestrator.NewDebugLogger(cfg.Log.DebugPath)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	defer logger.Close()

	base, b, err := buildAgentConfig(cfg, rosters)
	if err != nil {
		return err
	}
	reportBackends(cfg, b)

	orch := orchestrator.New(orchestrator.Config{
		Repository:       db,
		Rosters:          rosters,
		Agents:           orchestrator.RuntimeFactory(base),
		League:           cfg.League.Rules(),
		MaxTurns:         cfg.Negotiation.MaxTurns,
		ConsensusKeyword: cfg.Negotiation.ConsensusKeyword,
		MaxToolRounds:    cfg.Negotiation.MaxToolRounds,
		EventBuffer:      cfg.Negotiation.EventBuffer,
		Logger:           logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := orchestrator.StartRequest{
		SessionID:        negotiateSessionID,
		UserID:           negotiateUser,
		InitiatingTeamID: negotiateTeam,
		TargetTeamIDs:    negotiateTargets,
		Preferences:      negotiatePrefs,
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()[:8]
	}

	if negotiateTUI {
		err = runWithTUI(ctx, orch, req, db, cfg.Negotiation.MaxTurns)
	} else {
		err = runPlain(ctx, orch, req)
	}
	if err != nil {
		return err
	}

	if b.primary != nil {
		in, out := b.primary.Tracker().Total()
		fmt.Printf("\nTokens: %d in / %d out (~$%.4f)\n", in, out, b.primary.Tracker().Cost())
	}
	return printOutcome(db, req.SessionID)
}

func reportBackends(cfg *config.Config, b backends) {
	switch {
	case b.primary != nil:
		printStatus("●", fmt.Sprintf("Reasoning with %s (%s)", b.primary.Name(), cfg.Anthropic.Model), color.FgGreen)
	case b.local != nil:
		printStatus("●", fmt.Sprintf("No API credential; reasoning with ollama at %s", cfg.Local.Endpoint), color.FgYellow)
	default:
		printStatus("!", "No reasoning backend configured; set ANTHROPIC_API_KEY or OLLAMA_BASE_URL", color.FgRed)
	}
}

// runPlain streams the transcript to stdout and waits for the negotiation.
func runPlain(ctx context.Context, orch *orchestrator.Orchestrator, req orchestrator.StartRequest) error {
	speaker := color.New(color.Bold, color.FgCyan)
	subtle := color.New(color.FgHiBlack)

	req.OnMessage = func(m models.Message) error {
		failed, _ := m.Metadata["backend_error"].(bool)
		label := speaker.Sprintf("[%d] %s", m.TurnNumber, m.Speaker)
		if failed {
			label += color.RedString(" (backend error)")
		}
		fmt.Printf("\n%s\n%s\n", label, strings.TrimSpace(m.Content))
		return nil
	}
	req.OnProgress = func(p orchestrator.Progress) error {
		switch p.Tag {
		case orchestrator.ProgressConsensus:
			fmt.Println(subtle.Sprintf("\n-- consensus keyword at turn %d --", p.Turn))
		case orchestrator.ProgressExtracting:
			fmt.Println(subtle.Sprint("\n-- extracting decision --"))
		}
		return nil
	}

	id, err := orch.Start(ctx, req)
	if err != nil {
		return fmt.Errorf("start negotiation %s: %w", id, err)
	}
	printStatus("▶", "Negotiation "+id+" started", color.FgCyan)

	return waitOrShutdown(ctx, orch)
}

// waitOrShutdown waits for every negotiation, shutting the orchestrator down
// if ctx is canceled first.
func waitOrShutdown(ctx context.Context, orch *orchestrator.Orchestrator) error {
	done := make(chan struct{})
	go func() {
		orch.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}

	printStatus("!", "Interrupted, stopping negotiation...", color.FgYellow)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := orch.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stop negotiation: %w", err)
	}
	return nil
}

// outcome summarizes a finished session in one line.
func outcome(db *state.DB, id string) (string, bool, error) {
	session, err := db.GetSession(id)
	if err != nil {
		return "", false, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return "", false, fmt.Errorf("session %s: %w", id, state.ErrSessionNotFound)
	}
	if session.Status == models.SessionFailed {
		return "Negotiation failed: " + session.ErrorMessage, false, nil
	}

	result, err := db.GetResult(id)
	if err != nil {
		return "", false, fmt.Errorf("get result: %w", err)
	}
	if result == nil || result.Decision == nil {
		return fmt.Sprintf("Negotiation %s", session.Status), false, nil
	}
	d := result.Decision
	if d.Approved {
		return fmt.Sprintf("Trade approved after %d turns", result.TotalTurns), true, nil
	}
	return fmt.Sprintf("No deal after %d turns: %s", result.TotalTurns, strings.Join(d.RejectionReasons, "; ")), true, nil
}

func printOutcome(db *state.DB, id string) error {
	summary, ok, err := outcome(db, id)
	if err != nil {
		if errors.Is(err, state.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	fmt.Println()
	if ok {
		printStatus("✓", summary, color.FgGreen)
	} else {
		printStatus("✗", summary, color.FgRed)
	}
	return showResult(db, id)
}
