package domain

import (
	"strconv"
	"strings"
)

// TaskFailure describes a module task that exited unsuccessfully.
// It matches ErrTaskFailed as well as the underlying execution error.
type TaskFailure struct {
	Module   string
	ExitCode int
	// StderrTail holds the last lines the task wrote to stderr.
	StderrTail string
	Err        error
}

func (f *TaskFailure) Error() string {
	var b strings.Builder
	b.WriteString("task failed: module ")
	b.WriteString(f.Module)
	if f.ExitCode >= 0 {
		b.WriteString(" exited with code ")
		b.WriteString(strconv.Itoa(f.ExitCode))
	} else if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	if tail := strings.TrimRight(f.StderrTail, "\n"); tail != "" {
		for line := range strings.SplitSeq(tail, "\n") {
			b.WriteString("\n  | ")
			b.WriteString(line)
		}
	}
	return b.String()
}

// Unwrap exposes both ErrTaskFailed and the execution error to errors.Is and errors.As.
func (f *TaskFailure) Unwrap() []error {
	if f.Err == nil {
		return []error{ErrTaskFailed}
	}
	return []error{ErrTaskFailed, f.Err}
}
