// Package tui renders the batch run: spinner while processing, inline y/N
// prompts when the applier wants consent, then a styled summary.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bax/bax"
	"bax/internal/applier"
	"bax/model"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	pathStyle    = lipgloss.NewStyle()
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// ConfirmRequest asks the user to approve a destructive operation. The
// applier goroutine blocks on Reply until a key decides it; send it into the
// program with Program.Send.
type ConfirmRequest struct {
	Prompt string
	Reply  chan bool
}

// --- Messages ---
type summaryMsg struct {
	model.Summary
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

type uiState int

const (
	stateProcessing uiState = iota
	stateConfirming
	stateSummary
	stateError
)

// Model drives the program through processing, confirmation and summary.
type Model struct {
	app     *bax.App
	confirm applier.Confirmer
	spinner spinner.Model
	state   uiState
	request ConfirmRequest
	summary model.Summary
	err     error
}

// New builds the program model. The confirmer is what the applier calls;
// in the TUI it is backed by Program.Send of ConfirmRequest messages.
func New(app *bax.App, confirm applier.Confirmer) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		app:     app,
		confirm: confirm,
		spinner: s,
		state:   stateProcessing,
	}
}

// Summary exposes the final result to the caller after Program.Run returns.
func (m Model) Summary() model.Summary { return m.summary }

// Err exposes the run error, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runApp)
}

// runApp executes the whole batch in the command goroutine; it suspends on
// the confirmer whenever a destructive block needs consent.
func (m Model) runApp() tea.Msg {
	summary, err := m.app.Execute(m.confirm)
	if err != nil {
		return errorMsg{err}
	}
	return summaryMsg{summary}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateConfirming {
			switch msg.String() {
			case "y", "Y":
				m.request.Reply <- true
				m.state = stateProcessing
				return m, m.spinner.Tick
			case "ctrl+c":
				m.request.Reply <- false
				return m, tea.Quit
			default:
				// Anything else declines; declining is the safe default.
				m.request.Reply <- false
				m.state = stateProcessing
				return m, m.spinner.Tick
			}
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case ConfirmRequest:
		m.state = stateConfirming
		m.request = msg
		return m, nil

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg.Summary
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.err = msg
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		return fmt.Sprintf("%s Processing...", m.spinner.View())
	case stateConfirming:
		return fmt.Sprintf("%s %s",
			promptStyle.Render(m.request.Prompt),
			faintStyle.Render("[y/N]"))
	case stateError:
		return errorStyle.Render("Error: ", m.err.Error()) + "\n"
	case stateSummary:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m Model) renderSummary() string {
	var b strings.Builder

	if m.summary.Message != "" {
		b.WriteString(headerStyle.Render(m.summary.Message))
		b.WriteString("\n")
	}

	writeSection := func(style lipgloss.Style, title string, paths []string) {
		if len(paths) == 0 {
			return
		}
		b.WriteString(style.Render(title))
		b.WriteString("\n")
		for _, p := range paths {
			b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(p)))
		}
	}

	writeSection(successStyle, "Created:", m.summary.Created)
	writeSection(successStyle, "Modified:", m.summary.Modified)
	writeSection(successStyle, "Deleted:", m.summary.Deleted)
	writeSection(warnStyle, "Skipped:", m.summary.Skipped)
	writeSection(errorStyle, "Failed:", m.summary.Failed)

	if m.summary.Empty() && m.summary.Message == "" {
		b.WriteString(faintStyle.Render("No files were changed."))
		b.WriteString("\n")
	}
	return b.String()
}
