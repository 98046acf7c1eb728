// internal/tui/app.go
//
// Live transcript viewer. It uses bubbletea, which follows The Elm
// Architecture: the model holds all state, Update reacts to messages, and
// View renders a string. The session driver runs in its own goroutine and
// feeds this program through a sink; the viewer never touches the driver.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/kallipolis/internal/council"
	"github.com/kingrea/kallipolis/internal/session"
	"github.com/kingrea/kallipolis/internal/transcript"
)

// MessageMsg delivers one appended transcript message to the viewer.
type MessageMsg transcript.Message

// ResultMsg delivers the terminal session result.
type ResultMsg session.Result

// ErrorMsg delivers a fatal session error.
type ErrorMsg struct{ Err error }

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("55")).Padding(0, 1)
	arbiterStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	coordinatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	specialistStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	seedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	successStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Model is the viewer state.
type Model struct {
	roster  *council.Roster
	title   string
	spin    spinner.Model
	view    viewport.Model
	lines   []string
	result  *session.Result
	err     error
	ready   bool
	width   int
	height  int
}

// New builds a viewer for one session.
func New(roster *council.Roster, title string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{roster: roster, title: title, spin: sp}
}

// Init starts the spinner ticking.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// One line of header, one of footer.
		m.view = viewport.New(msg.Width, max(1, msg.Height-2))
		m.view.SetContent(strings.Join(m.lines, "\n"))
		m.view.GotoBottom()
		m.ready = true
		return m, nil

	case MessageMsg:
		m.lines = append(m.lines, m.renderMessage(transcript.Message(msg)))
		if m.ready {
			m.view.SetContent(strings.Join(m.lines, "\n"))
			m.view.GotoBottom()
		}
		return m, nil

	case ResultMsg:
		result := session.Result(msg)
		m.result = &result
		return m, nil

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.result != nil || m.err != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	return titleStyle.Render(m.title) + "\n" + m.view.View() + "\n" + m.footer()
}

func (m Model) footer() string {
	switch {
	case m.err != nil:
		return failureStyle.Render(fmt.Sprintf("aborted: %v", m.err)) + footerStyle.Render("  (q to quit)")
	case m.result == nil:
		return m.spin.View() + footerStyle.Render(" deliberating...  (q to quit)")
	case m.result.Outcome == session.OutcomeSuccess:
		return successStyle.Render(fmt.Sprintf("success: total %d allocated", m.result.Total)) +
			footerStyle.Render(fmt.Sprintf("  stop=%s turns=%d  (q to quit)", m.result.StopReason, m.result.Turns))
	default:
		return failureStyle.Render("failure: "+m.result.Reason) +
			footerStyle.Render(fmt.Sprintf("  stop=%s turns=%d  (q to quit)", m.result.StopReason, m.result.Turns))
	}
}

func (m Model) renderMessage(msg transcript.Message) string {
	style := seedStyle
	switch m.roster.Category(msg.Speaker) {
	case council.CategoryArbiter:
		style = arbiterStyle
	case council.CategoryCoordinator:
		style = coordinatorStyle
	case council.CategorySpecialist:
		style = specialistStyle
	}
	header := style.Render(fmt.Sprintf("[%d] %s", msg.Seq, msg.Speaker))
	return header + "\n" + msg.Text + "\n"
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
