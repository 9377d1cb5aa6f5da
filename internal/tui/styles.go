package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/ftool/internal/core/domain"
)

var (
	colorIris  = lipgloss.Color("#5D3FD3")
	colorSlate = lipgloss.Color("#667085")
	colorWhite = lipgloss.Color("#FFFFFF")
	colorGreen = lipgloss.Color("42")
	colorRed   = lipgloss.Color("196")
	colorAmber = lipgloss.Color("214")

	listStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(colorSlate).
			MarginRight(1).
			PaddingRight(1)

	logStyle = lipgloss.NewStyle().
			PaddingLeft(1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(colorIris).
			Foreground(colorWhite)

	selectedStyle = lipgloss.NewStyle().
			Foreground(colorIris).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorSlate)

	statusStyles = map[domain.VertexStatus]lipgloss.Style{
		domain.VertexStatusPending:   lipgloss.NewStyle().Foreground(colorSlate),
		domain.VertexStatusRunning:   lipgloss.NewStyle().Foreground(colorIris).Bold(true),
		domain.VertexStatusCompleted: lipgloss.NewStyle().Foreground(colorGreen),
		domain.VertexStatusFailed:    lipgloss.NewStyle().Foreground(colorRed),
		domain.VertexStatusStalled:   lipgloss.NewStyle().Foreground(colorAmber).Faint(true),
	}

	levelStyles = map[domain.LogLevel]lipgloss.Style{
		domain.LogLevelDebug: lipgloss.NewStyle().Foreground(colorSlate).Faint(true),
		domain.LogLevelWarn:  lipgloss.NewStyle().Foreground(colorAmber),
		domain.LogLevelError: lipgloss.NewStyle().Foreground(colorRed),
	}

	stderrStyle = lipgloss.NewStyle().Foreground(colorRed).Faint(true)
)
