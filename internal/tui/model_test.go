//nolint:testpackage // Test needs access to unexported fields
package tui

import (
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/progrock"
	"go.trai.ch/ftool/internal/core/domain"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type fakeTape struct {
	updates []*progrock.StatusUpdate
}

func (f *fakeTape) Read() (*progrock.StatusUpdate, error) {
	if len(f.updates) == 0 {
		return nil, io.EOF
	}
	u := f.updates[0]
	f.updates = f.updates[1:]
	return u, nil
}

func started(id, name string) *progrock.StatusUpdate {
	return &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{Id: id, Name: name, Started: timestamppb.New(time.Now())}},
	}
}

func completed(id, name string, errMsg *string) *progrock.StatusUpdate {
	now := timestamppb.New(time.Now())
	return &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{Id: id, Name: name, Started: now, Completed: now, Error: errMsg}},
	}
}

func logs(id string, stream progrock.LogStream, data string) *progrock.StatusUpdate {
	return &progrock.StatusUpdate{
		Logs: []*progrock.VertexLog{{Vertex: id, Stream: stream, Data: []byte(data)}},
	}
}

func statuses(m *Model) []domain.VertexStatus {
	out := make([]domain.VertexStatus, 0, len(m.vertices))
	for _, v := range m.vertices {
		out = append(out, v.Status)
	}
	return out
}

func TestNewModel_PrepopulatesPending(t *testing.T) {
	m := NewModel(&fakeTape{}, "core", "ui")

	require.Len(t, m.Vertices(), 2)
	assert.Equal(t, "core", m.vertices[0].Name)
	assert.Equal(t, []domain.VertexStatus{domain.VertexStatusPending, domain.VertexStatusPending}, statuses(m))
	assert.True(t, m.Follow)
}

func TestModel_TapeUpdate_Lifecycle(t *testing.T) {
	m := NewModel(&fakeTape{}, "core", "ui")

	_, cmd := m.Update(MsgTapeUpdate{Update: started("sha256:1", "ui")})
	assert.NotNil(t, cmd)
	assert.Equal(t, []domain.VertexStatus{domain.VertexStatusPending, domain.VertexStatusRunning}, statuses(m))
	assert.Equal(t, "sha256:1", m.vertices[1].ID, "pre-populated entry adopts the vertex id")
	assert.Equal(t, 1, m.SelectedIdx, "selection follows the started module")

	m.Update(MsgTapeUpdate{Update: completed("sha256:1", "ui", nil)})
	assert.Equal(t, domain.VertexStatusCompleted, m.vertices[1].Status)

	boom := "exit status 1"
	m.Update(MsgTapeUpdate{Update: started("sha256:2", "core")})
	m.Update(MsgTapeUpdate{Update: completed("sha256:2", "core", &boom)})
	assert.Equal(t, domain.VertexStatusFailed, m.vertices[0].Status)
	assert.Equal(t, boom, m.vertices[0].Err)
}

func TestModel_TapeUpdate_UnknownVertexIsAppended(t *testing.T) {
	m := NewModel(&fakeTape{})

	m.Update(MsgTapeUpdate{Update: started("sha256:9", "extra")})
	require.Len(t, m.vertices, 1)
	assert.Equal(t, "extra", m.vertices[0].Name)
	assert.Equal(t, domain.VertexStatusRunning, m.vertices[0].Status)
}

func TestModel_Logs_SplitLinesAndLevels(t *testing.T) {
	m := NewModel(&fakeTape{}, "core")
	m.Update(MsgTapeUpdate{Update: started("sha256:1", "core")})

	m.Update(MsgTapeUpdate{Update: logs("sha256:1", progrock.LogStream_STDOUT, "compil")})
	assert.Empty(t, m.vertices[0].Logs, "partial line stays buffered")

	m.Update(MsgTapeUpdate{Update: logs("sha256:1", progrock.LogStream_STDOUT, "ing\r\ndone\n")})
	m.Update(MsgTapeUpdate{Update: logs("sha256:1", progrock.LogStream_STDERR, "[WARN] slow\nno newline")})
	m.Update(MsgTapeUpdate{Update: logs("sha256:unknown", progrock.LogStream_STDOUT, "ignored\n")})

	require.Len(t, m.vertices[0].Logs, 3)
	assert.Equal(t, LogLine{Stream: progrock.LogStream_STDOUT, Level: domain.LogLevelInfo, Text: "compiling"}, m.vertices[0].Logs[0])
	assert.Equal(t, "done", m.vertices[0].Logs[1].Text)
	assert.Equal(t, domain.LogLevelWarn, m.vertices[0].Logs[2].Level)

	m.Update(MsgTapeUpdate{Update: completed("sha256:1", "core", nil)})
	require.Len(t, m.vertices[0].Logs, 4, "completion flushes the pending line")
	assert.Equal(t, "no newline", m.vertices[0].Logs[3].Text)
	assert.Equal(t, progrock.LogStream_STDERR, m.vertices[0].Logs[3].Stream)
}

func TestModel_Logs_SlidingWindow(t *testing.T) {
	m := NewModel(&fakeTape{}, "core")
	m.Update(MsgTapeUpdate{Update: started("sha256:1", "core")})

	for range maxLogLines + 10 {
		m.Update(MsgTapeUpdate{Update: logs("sha256:1", progrock.LogStream_STDOUT, "line\n")})
	}
	m.Update(MsgTapeUpdate{Update: logs("sha256:1", progrock.LogStream_STDOUT, "last\n")})

	assert.Len(t, m.vertices[0].Logs, maxLogLines)
	assert.Equal(t, "last", m.vertices[0].Logs[maxLogLines-1].Text)
}

func TestModel_KeyMsg_Navigation(t *testing.T) {
	m := NewModel(&fakeTape{}, "a", "b", "c")
	assert.Equal(t, 0, m.SelectedIdx)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, m.SelectedIdx)
	assert.False(t, m.Follow, "manual navigation stops following")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.SelectedIdx, "selection is clamped at the end")

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, m.SelectedIdx, "selection is clamped at the start")

	m.Update(MsgTapeUpdate{Update: started("sha256:3", "c")})
	assert.Equal(t, 0, m.SelectedIdx, "selection stays put without follow")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	assert.True(t, m.Follow)
}

func TestModel_KeyMsg_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		m := NewModel(&fakeTape{})
		_, cmd := m.Update(key)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestModel_TapeEnded_MarksStalled(t *testing.T) {
	m := NewModel(&fakeTape{}, "a", "b")
	m.Update(MsgTapeUpdate{Update: completed("sha256:1", "a", nil)})

	_, cmd := m.Update(MsgTapeEnded{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, []domain.VertexStatus{domain.VertexStatusCompleted, domain.VertexStatusStalled}, statuses(m))
}

func TestWaitForTape(t *testing.T) {
	update := started("sha256:1", "a")
	tape := &fakeTape{updates: []*progrock.StatusUpdate{update}}

	assert.Equal(t, MsgTapeUpdate{Update: update}, WaitForTape(tape)())
	assert.Equal(t, MsgTapeEnded{}, WaitForTape(tape)())
}

func TestModel_WindowSize(t *testing.T) {
	m := NewModel(&fakeTape{}, "a")
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Equal(t, 100, m.width)
	assert.Equal(t, 66, m.viewport.Width)
	assert.Equal(t, 26, m.viewport.Height)
	assert.Equal(t, 26, m.progress.Width)
}
