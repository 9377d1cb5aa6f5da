package domain

import "strings"

// VertexStatus is the lifecycle state of one module's task as shown to the user.
type VertexStatus string

const (
	// VertexStatusPending means the module is waiting on its requirements.
	VertexStatusPending VertexStatus = "pending"
	// VertexStatusRunning means the module's task is executing.
	VertexStatusRunning VertexStatus = "running"
	// VertexStatusCompleted means the task finished successfully.
	VertexStatusCompleted VertexStatus = "completed"
	// VertexStatusFailed means the task failed.
	VertexStatusFailed VertexStatus = "failed"
	// VertexStatusStalled means the module never became ready.
	VertexStatusStalled VertexStatus = "stalled"
)

// IsTerminal reports whether no further transition can happen.
func (s VertexStatus) IsTerminal() bool {
	switch s {
	case VertexStatusCompleted, VertexStatusFailed, VertexStatusStalled:
		return true
	default:
		return false
	}
}

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	LogLevelDebug LogLevel = -4
	LogLevelInfo  LogLevel = 0
	LogLevelWarn  LogLevel = 4
	LogLevelError LogLevel = 8
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLogLevel reads the "[LEVEL]" prefix written by vertex loggers.
// Lines without a recognized prefix are treated as info.
func ParseLogLevel(line string) LogLevel {
	switch {
	case strings.HasPrefix(line, "[DEBUG]"):
		return LogLevelDebug
	case strings.HasPrefix(line, "[WARN]"):
		return LogLevelWarn
	case strings.HasPrefix(line, "[ERROR]"):
		return LogLevelError
	default:
		return LogLevelInfo
	}
}
