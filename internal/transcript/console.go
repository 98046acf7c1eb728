// internal/transcript/console.go
//
// Console pretty-prints the transcript as it happens, one color per role
// category so the arbiter, coordinator, and specialists are easy to tell
// apart while a run scrolls by.

package transcript

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/kallipolis/internal/council"
)

var (
	arbiterStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	coordinatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	specialistStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	seedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Console writes styled messages to a writer, usually stdout.
type Console struct {
	roster *council.Roster
	out    io.Writer
}

// NewConsole builds a console sink for the given roster.
func NewConsole(roster *council.Roster, out io.Writer) *Console {
	return &Console{roster: roster, out: out}
}

// Record implements Sink.
func (c *Console) Record(msg Message) error {
	style := seedStyle
	switch c.roster.Category(msg.Speaker) {
	case council.CategoryArbiter:
		style = arbiterStyle
	case council.CategoryCoordinator:
		style = coordinatorStyle
	case council.CategorySpecialist:
		style = specialistStyle
	}
	header := style.Render(fmt.Sprintf("[%s] %s:",
		msg.Timestamp.Format(time.TimeOnly), msg.Speaker))
	if _, err := fmt.Fprintf(c.out, "\n%s\n%s\n", header, msg.Text); err != nil {
		return fmt.Errorf("transcript: console write: %w", err)
	}
	return nil
}
