package tui

import (
	"github.com/ShayCichocki/dealroom/internal/orchestrator"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

// TranscriptMsg carries one persisted negotiation message.
type TranscriptMsg struct {
	Message models.Message
}

// ProgressMsg carries a progress update.
type ProgressMsg struct {
	Progress orchestrator.Progress
}

// SessionDoneMsg signals that the negotiation has finished.
type SessionDoneMsg struct {
	Success bool
	Message string
}
