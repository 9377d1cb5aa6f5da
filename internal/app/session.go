package app

import (
	tea "github.com/charmbracelet/bubbletea"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/ftool/internal/adapters/linear"
	"go.trai.ch/ftool/internal/adapters/telemetry"
	"go.trai.ch/ftool/internal/adapters/telemetry/progrock"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
	"go.trai.ch/ftool/internal/tui"
)

// session holds the telemetry of one run.
type session struct {
	telemetry ports.Telemetry
	// program is the interactive view, nil for linear output.
	program *tea.Program
	// summary collects module timings when requested.
	summary *telemetry.Summary
}

func (a *App) newSession(opts RunOptions, modules []domain.Module) *session {
	sess := &session{}

	var ui ports.Telemetry
	switch {
	case opts.Quiet:
		ui = telemetry.NoOp{}
	case opts.TUI:
		recorder := progrock.New()
		names := make([]string, 0, len(modules))
		for _, m := range modules {
			names = append(names, m.Name.String())
		}
		model := tui.NewModel(recorder.Tape(), names...)
		teaOpts := append([]tea.ProgramOption{tea.WithOutput(a.stderr)}, a.teaOptions...)
		sess.program = tea.NewProgram(model, teaOpts...)
		ui = recorder
	default:
		ui = linear.NewRenderer(a.stdout, a.stderr)
	}

	if !opts.Summary {
		sess.telemetry = ui
		return sess
	}

	sess.summary = telemetry.NewSummary()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sess.summary))
	sess.telemetry = telemetry.Tee(ui, telemetry.NewTracer(provider))
	return sess
}
