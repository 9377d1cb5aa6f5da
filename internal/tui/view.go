package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/ftool/internal/core/domain"
)

// View renders the current state of the model as a string.
func (m *Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.header(),
		lipgloss.JoinHorizontal(lipgloss.Top, m.taskList(), m.logPane()),
		m.footer(),
	)
}

func (m *Model) header() string {
	done := 0
	for _, v := range m.vertices {
		if v.Status.IsTerminal() {
			done++
		}
	}

	fraction := 0.0
	if len(m.vertices) > 0 {
		fraction = float64(done) / float64(len(m.vertices))
	}
	return fmt.Sprintf("%s %s %d/%d", titleStyle.Render("MODULES"), m.progress.ViewAs(fraction), done, len(m.vertices))
}

func (m *Model) taskList() string {
	var s strings.Builder

	// Keep the selection visible when the list is taller than the pane.
	rows := max(m.height-chromeHeight, 1)
	start := 0
	if m.SelectedIdx >= rows {
		start = m.SelectedIdx - rows + 1
	}
	end := min(start+rows, len(m.vertices))

	for i := start; i < end; i++ {
		v := m.vertices[i]
		line := fmt.Sprintf("%s %s", m.icon(v.Status), v.Name)
		if i == m.SelectedIdx {
			s.WriteString(selectedStyle.Render("> "+line) + "\n")
			continue
		}
		s.WriteString(statusStyles[v.Status].Render("  "+line) + "\n")
	}

	return listStyle.Render(s.String())
}

func (m *Model) icon(status domain.VertexStatus) string {
	switch status {
	case domain.VertexStatusRunning:
		return m.spinner.View()
	case domain.VertexStatusCompleted:
		return "✓"
	case domain.VertexStatusFailed:
		return "✗"
	case domain.VertexStatusStalled:
		return "⊘"
	default:
		return "○"
	}
}

func (m *Model) logPane() string {
	header := titleStyle.Render("LOGS (Waiting...)")
	if v := m.selected(); v != nil {
		header = titleStyle.Render("LOGS: " + v.Name)
	}

	return logStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			m.viewport.View(),
		),
	)
}

func (m *Model) footer() string {
	follow := "off"
	if m.Follow {
		follow = "on"
	}
	return footerStyle.Render(fmt.Sprintf("j/k select • f follow (%s) • q quit", follow))
}
