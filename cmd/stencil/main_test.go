package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/stencil/internal/adapters/opencl"
	"go.trai.ch/stencil/internal/adapters/telemetry"
	"go.trai.ch/stencil/internal/adapters/toolchain"
	"go.trai.ch/stencil/internal/app"
	"go.trai.ch/stencil/internal/core/domain"
)

// recordingLogger keeps errors so tests can assert on them without writing
// to stderr.
type recordingLogger struct {
	errs []error
}

func (l *recordingLogger) Info(string)     {}
func (l *recordingLogger) Warn(string)     {}
func (l *recordingLogger) Error(err error) { l.errs = append(l.errs, err) }

func testProvider(log *recordingLogger) ComponentProvider {
	return func(_ context.Context) (*app.Components, func(), error) {
		settings := domain.DefaultSettings()
		a := app.New(
			settings,
			toolchain.New(settings.CC, log),
			opencl.NewEmulator(settings.OpenCL),
			log,
			telemetry.Noop{},
		)
		return &app.Components{App: a, Logger: log}, func() {}, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	log := &recordingLogger{}
	stderr := new(bytes.Buffer)

	exitCode := run(context.Background(), []string{"version"}, stderr, testProvider(log))

	assert.Equal(t, 0, exitCode)
	assert.Empty(t, log.errs)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run returns 1 when the command execution fails.
func TestRun_ExecutionError(t *testing.T) {
	log := &recordingLogger{}
	stderr := new(bytes.Buffer)

	exitCode := run(context.Background(), []string{"run", "no-such-kernel.yaml", "--shape", "4"}, stderr, testProvider(log))

	assert.Equal(t, 1, exitCode)
	assert.Len(t, log.errs, 1)
}
