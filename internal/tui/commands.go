// Package tui renders a running workspace task as an interactive terminal view.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vito/progrock"
)

// TapeSource yields the progrock updates recorded for a run.
// Read blocks until an update is available and returns an error once the source is exhausted.
type TapeSource interface {
	Read() (*progrock.StatusUpdate, error)
}

// WaitForTape returns a command that reads the next update from the tape.
// Any read error, io.EOF included, ends the stream.
func WaitForTape(tape TapeSource) tea.Cmd {
	return func() tea.Msg {
		update, err := tape.Read()
		if err != nil {
			return MsgTapeEnded{}
		}
		return MsgTapeUpdate{Update: update}
	}
}
