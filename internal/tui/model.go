package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vito/progrock"
	"go.trai.ch/ftool/internal/core/domain"
)

const (
	listWidthRatio = 0.3
	paneChrome     = 4
	// chromeHeight covers the header, the pane titles and the footer.
	chromeHeight = 4
	// maxLogLines bounds the lines kept per vertex. Older lines are dropped first.
	maxLogLines = 1000
)

var outputStreams = []progrock.LogStream{progrock.LogStream_STDOUT, progrock.LogStream_STDERR}

// LogLine is one complete line of vertex output.
type LogLine struct {
	Stream progrock.LogStream
	Level  domain.LogLevel
	Text   string
}

// VertexState is the view of one module task.
type VertexState struct {
	ID     string
	Name   string
	Status domain.VertexStatus
	Err    string
	Logs   []LogLine

	partial map[progrock.LogStream]string
}

// Model is the Bubble Tea model showing every module of a run with the output of the selected one.
type Model struct {
	tape     TapeSource
	vertices []*VertexState
	byID     map[string]*VertexState
	byName   map[string]*VertexState

	// SelectedIdx is the index of the vertex whose logs are shown.
	SelectedIdx int
	// Follow moves the selection to each vertex as it starts. Manual navigation turns it off.
	Follow bool

	width    int
	height   int
	spinner  spinner.Model
	progress progress.Model
	viewport viewport.Model
}

// NewModel creates a model reading from tape. Names are listed as pending up front so the
// whole workspace is visible before the first module starts.
func NewModel(tape TapeSource, names ...string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyles[domain.VertexStatusRunning]

	m := &Model{
		tape:     tape,
		byID:     make(map[string]*VertexState),
		byName:   make(map[string]*VertexState, len(names)),
		Follow:   true,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		viewport: viewport.New(0, 0),
	}
	for _, name := range names {
		m.addVertex("", name, domain.VertexStatusPending)
	}
	return m
}

// Vertices returns the vertices in display order.
func (m *Model) Vertices() []*VertexState {
	return m.vertices
}

// Init initializes the model and starts reading from the tape.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		WaitForTape(m.tape),
		m.spinner.Tick,
	)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case MsgTapeUpdate:
		m.apply(msg.Update)
		return m, WaitForTape(m.tape)
	case MsgTapeEnded:
		m.finish()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		m.selectVertex(m.SelectedIdx + 1)
		m.Follow = false
	case "k", "up":
		m.selectVertex(m.SelectedIdx - 1)
		m.Follow = false
	case "f":
		m.Follow = true
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	listWidth := int(float64(width) * listWidthRatio)
	m.progress.Width = max(listWidth-paneChrome, 0)
	m.viewport.Width = max(width-listWidth-paneChrome, 0)
	m.viewport.Height = max(height-chromeHeight, 0)
	m.refreshViewport()
}

func (m *Model) apply(update *progrock.StatusUpdate) {
	if update == nil {
		return
	}

	dirty := false
	for _, v := range update.Vertexes {
		state := m.vertexFor(v)
		if state == nil {
			continue
		}
		m.updateStatus(state, v)
		dirty = dirty || m.isSelected(state)
	}
	for _, l := range update.Logs {
		state, ok := m.byID[l.Vertex]
		if !ok {
			continue
		}
		state.write(l.Stream, string(l.Data))
		dirty = dirty || m.isSelected(state)
	}

	if dirty {
		m.refreshViewport()
	}
}

// vertexFor finds the state for v, adopting a pre-populated entry by name on first sight.
func (m *Model) vertexFor(v *progrock.Vertex) *VertexState {
	if state, ok := m.byID[v.Id]; ok {
		return state
	}
	if state, ok := m.byName[v.Name]; ok && state.ID == "" {
		state.ID = v.Id
		m.byID[v.Id] = state
		return state
	}
	if v.Id == "" {
		return nil
	}
	return m.addVertex(v.Id, v.Name, domain.VertexStatusPending)
}

func (m *Model) addVertex(id, name string, status domain.VertexStatus) *VertexState {
	state := &VertexState{ID: id, Name: name, Status: status}
	m.vertices = append(m.vertices, state)
	if id != "" {
		m.byID[id] = state
	}
	if _, taken := m.byName[name]; !taken {
		m.byName[name] = state
	}
	return state
}

func (m *Model) updateStatus(state *VertexState, v *progrock.Vertex) {
	switch {
	case v.Completed != nil && v.Error != nil:
		state.Status = domain.VertexStatusFailed
		state.Err = *v.Error
		state.flush()
	case v.Completed != nil:
		state.Status = domain.VertexStatusCompleted
		state.flush()
	case state.Status == domain.VertexStatusPending:
		state.Status = domain.VertexStatusRunning
		if m.Follow {
			m.selectVertex(m.indexOf(state))
		}
	}
}

// finish marks modules that never started as stalled once the run is over.
func (m *Model) finish() {
	for _, v := range m.vertices {
		v.flush()
		if !v.Status.IsTerminal() {
			v.Status = domain.VertexStatusStalled
		}
	}
	m.refreshViewport()
}

func (m *Model) selectVertex(idx int) {
	if len(m.vertices) == 0 {
		return
	}
	idx = min(max(idx, 0), len(m.vertices)-1)
	if idx == m.SelectedIdx {
		return
	}
	m.SelectedIdx = idx
	m.refreshViewport()
}

func (m *Model) indexOf(state *VertexState) int {
	for i, v := range m.vertices {
		if v == state {
			return i
		}
	}
	return m.SelectedIdx
}

func (m *Model) selected() *VertexState {
	if m.SelectedIdx < 0 || m.SelectedIdx >= len(m.vertices) {
		return nil
	}
	return m.vertices[m.SelectedIdx]
}

func (m *Model) isSelected(state *VertexState) bool {
	return m.selected() == state
}

func (m *Model) refreshViewport() {
	state := m.selected()
	if state == nil {
		m.viewport.SetContent("")
		return
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(renderLogs(state))
	if atBottom || m.Follow {
		m.viewport.GotoBottom()
	}
}

func renderLogs(state *VertexState) string {
	var b strings.Builder
	for _, line := range state.Logs {
		b.WriteString(styleFor(line).Render(line.Text))
		b.WriteByte('\n')
	}
	for _, stream := range outputStreams {
		if rest := state.partial[stream]; rest != "" {
			b.WriteString(styleFor(LogLine{Stream: stream, Level: domain.ParseLogLevel(rest)}).Render(rest))
			b.WriteByte('\n')
		}
	}
	if state.Err != "" {
		b.WriteString(statusStyles[domain.VertexStatusFailed].Render("error: " + state.Err))
	}
	return b.String()
}

func styleFor(line LogLine) lipgloss.Style {
	if style, ok := levelStyles[line.Level]; ok {
		return style
	}
	if line.Stream == progrock.LogStream_STDERR {
		return stderrStyle
	}
	return lipgloss.NewStyle()
}

// write appends output to the stream's pending line and moves complete lines into Logs.
func (v *VertexState) write(stream progrock.LogStream, data string) {
	if v.partial == nil {
		v.partial = make(map[progrock.LogStream]string)
	}
	text := v.partial[stream] + data
	lines := strings.Split(text, "\n")
	v.partial[stream] = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		v.append(stream, strings.TrimSuffix(line, "\r"))
	}
}

func (v *VertexState) flush() {
	for _, stream := range outputStreams {
		if rest := v.partial[stream]; rest != "" {
			v.append(stream, rest)
		}
	}
	v.partial = nil
}

func (v *VertexState) append(stream progrock.LogStream, text string) {
	v.Logs = append(v.Logs, LogLine{Stream: stream, Level: domain.ParseLogLevel(text), Text: text})
	if over := len(v.Logs) - maxLogLines; over > 0 {
		v.Logs = append(v.Logs[:0], v.Logs[over:]...)
	}
}
