package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/dealroom/internal/orchestrator"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

// chromeHeight is the number of lines used by the title, status and footer.
const chromeHeight = 6

// App is the bubbletea model for the negotiation viewer.
type App struct {
	sessionID string
	maxTurns  int

	spinner  spinner.Model
	viewport viewport.Model
	ready    bool

	messages []models.Message
	colors   map[string]string
	progress orchestrator.Progress

	// width is the terminal width.
	width int
	// height is the terminal height.
	height int
	// quitting indicates the app is shutting down.
	quitting bool
	// done indicates the negotiation has finished.
	done bool
	// success reports whether the negotiation completed normally.
	success bool
	// doneMessage holds the final status text.
	doneMessage string
}

// New creates a viewer for one session.
func New(sessionID string, maxTurns int) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	return &App{
		sessionID: sessionID,
		maxTurns:  maxTurns,
		spinner:   s,
		viewport:  viewport.New(80, 20),
		colors:    make(map[string]string),
		width:     80,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport.Width = msg.Width - 2
		a.viewport.Height = max(msg.Height-chromeHeight, 3)
		a.ready = true
		a.refresh()

	case spinner.TickMsg:
		if a.done {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case TranscriptMsg:
		a.messages = append(a.messages, msg.Message)
		a.refresh()

	case ProgressMsg:
		a.progress = msg.Progress

	case SessionDoneMsg:
		a.done = true
		a.success = msg.Success
		a.doneMessage = msg.Message
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return "Goodbye!\n"
	}

	title := titleStyle.Render("dealroom") + subtleStyle.Render("  session "+a.sessionID)
	body := transcriptBorder.Render(a.viewport.View())
	return fmt.Sprintf("%s\n%s\n%s\n%s", title, a.viewStatus(), body, a.viewFooter())
}

func (a *App) viewStatus() string {
	if a.done {
		if a.success {
			return successStyle.Render("✓ " + a.doneMessage)
		}
		return failedStyle.Render("✗ " + a.doneMessage)
	}

	label := "waiting for the first speaker"
	switch a.progress.Tag {
	case orchestrator.ProgressTurn:
		label = fmt.Sprintf("turn %d of %d", a.progress.Turn, a.maxTurns)
	case orchestrator.ProgressConsensus:
		label = fmt.Sprintf("consensus keyword at turn %d", a.progress.Turn)
	case orchestrator.ProgressExtracting:
		label = "extracting the decision"
	case orchestrator.ProgressCompleted:
		label = "completed"
	case orchestrator.ProgressFailed:
		label = "failed"
	}
	return a.spinner.View() + " " + label
}

func (a *App) viewFooter() string {
	if a.done {
		return subtleStyle.Render("Press q to exit | ↑/↓ to scroll")
	}
	return subtleStyle.Render("↑/↓ pgup/pgdn to scroll | q to quit")
}

// refresh re-renders the transcript into the viewport and follows the tail.
func (a *App) refresh() {
	a.viewport.SetContent(a.renderTranscript())
	a.viewport.GotoBottom()
}

func (a *App) renderTranscript() string {
	if len(a.messages) == 0 {
		return subtleStyle.Render("No messages yet")
	}

	wrap := lipgloss.NewStyle().Width(max(a.viewport.Width-2, 20))
	var b strings.Builder
	for i, m := range a.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		header := fmt.Sprintf("[%d] %s", m.TurnNumber, m.Speaker)
		b.WriteString(a.speakerStyle(m).Render(header))
		if failed, _ := m.Metadata["backend_error"].(bool); failed {
			b.WriteString(failedStyle.Render(" (backend error)"))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(m.Content))
	}
	return b.String()
}

func (a *App) speakerStyle(m models.Message) lipgloss.Style {
	if role, _ := m.Metadata["role"].(string); role == string(orchestrator.RoleCommissioner) {
		return commissionerStyle
	}
	color, ok := a.colors[m.Speaker]
	if !ok {
		color = speakerColors[len(a.colors)%len(speakerColors)]
		a.colors[m.Speaker] = color
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
}

// Messages returns the transcript received so far.
func (a *App) Messages() []models.Message {
	return a.messages
}

// NewProgram creates a bubbletea program for the viewer. The returned program
// receives updates through Send, usually via Callbacks.
func NewProgram(sessionID string, maxTurns int) (*tea.Program, *App) {
	app := New(sessionID, maxTurns)
	p := tea.NewProgram(app, tea.WithAltScreen())
	return p, app
}

// Sender is the part of *tea.Program the callbacks need.
type Sender interface {
	Send(msg tea.Msg)
}

// Callbacks adapts a program to the orchestrator's observer callbacks.
func Callbacks(p Sender) (orchestrator.MessageCallback, orchestrator.ProgressCallback) {
	onMessage := func(m models.Message) error {
		p.Send(TranscriptMsg{Message: m})
		return nil
	}
	onProgress := func(pr orchestrator.Progress) error {
		p.Send(ProgressMsg{Progress: pr})
		return nil
	}
	return onMessage, onProgress
}
