package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/dealroom/internal/decision"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a trade decision from text",
	Long: `Parse reads a message from a file, or stdin when no file is given,
and prints the structured payload the negotiation engine would extract.

Fenced JSON decisions, legacy approved-only JSON and keyword markers such as
TRADE_DECISION: APPROVED are recognized.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

// parseOutput is the JSON shape printed by the parse command.
type parseOutput struct {
	Kind            decision.Kind  `json:"kind"`
	Valid           bool           `json:"valid"`
	ValidationError string         `json:"validation_error,omitempty"`
	Decision        any            `json:"decision,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	p := decision.Parse(string(text))
	if p == nil {
		return errors.New("no decision or structured data found")
	}

	out := parseOutput{Kind: p.Kind, Valid: p.Valid(), Data: p.Data}
	if p.Decision != nil {
		out.Decision = p.Decision
	}
	if p.ValidationErr != nil {
		out.ValidationError = p.ValidationErr.Error()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
