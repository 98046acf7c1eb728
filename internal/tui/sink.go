package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/kallipolis/internal/transcript"
)

// Sender is the part of *tea.Program the sink needs.
type Sender interface {
	Send(tea.Msg)
}

// ProgramSink forwards appended messages into a running bubbletea program.
type ProgramSink struct {
	program Sender
}

// NewProgramSink wraps a program (or anything that can receive tea messages).
func NewProgramSink(program Sender) *ProgramSink {
	return &ProgramSink{program: program}
}

// Record implements transcript.Sink.
func (s *ProgramSink) Record(msg transcript.Message) error {
	if s == nil || s.program == nil {
		return nil
	}
	s.program.Send(MessageMsg(msg))
	return nil
}
