package domain_test

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/ftool/internal/core/domain"
)

func TestTaskFailure(t *testing.T) {
	cause := exec.ErrNotFound
	err := error(&domain.TaskFailure{
		Module:     "@acme/ui",
		ExitCode:   2,
		StderrTail: "src/index.ts:1: error\nbuild failed\n",
		Err:        cause,
	})

	assert.ErrorIs(t, err, domain.ErrTaskFailed)
	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.Equal(t, "task failed: module @acme/ui exited with code 2\n  | src/index.ts:1: error\n  | build failed", err.Error())

	var failure *domain.TaskFailure
	assert.True(t, errors.As(err, &failure))
	assert.Equal(t, 2, failure.ExitCode)
}

func TestTaskFailure_WithoutExitCode(t *testing.T) {
	err := &domain.TaskFailure{Module: "core", ExitCode: -1, Err: errors.New("signal: killed")}
	assert.Equal(t, "task failed: module core: signal: killed", err.Error())

	bare := &domain.TaskFailure{Module: "core", ExitCode: 1}
	assert.ErrorIs(t, bare, domain.ErrTaskFailed)
}
