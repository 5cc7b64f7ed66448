// Package app implements the application layer for stencil.
package app

import (
	"context"
	"os"
	"strconv"
	"strings"

	"go.trai.ch/stencil/internal/adapters/config"
	"go.trai.ch/stencil/internal/backends/cgen"
	"go.trai.ch/stencil/internal/backends/clgen"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ir"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/stencil/internal/engine/cache"
	"go.trai.ch/stencil/internal/engine/dispatch"
	"go.trai.ch/stencil/internal/engine/lower"
	"go.trai.ch/stencil/internal/engine/tune"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	settings  domain.Settings
	toolchain ports.Toolchain
	device    ports.Device
	logger    ports.Logger
	tracer    ports.Tracer

	// Shared across per-command dispatchers so backend overrides reuse
	// compiled artifacts and tuning records.
	artifacts   *cache.Cache
	tuningStore *tune.MemoryStore
}

// New creates a new App instance.
func New(
	settings domain.Settings,
	toolchain ports.Toolchain,
	device ports.Device,
	log ports.Logger,
	tracer ports.Tracer,
) *App {
	return &App{
		settings:    settings,
		toolchain:   toolchain,
		device:      device,
		logger:      log,
		tracer:      tracer,
		artifacts:   cache.New(),
		tuningStore: tune.NewMemoryStore(),
	}
}

// GenOptions configure the Generate method.
type GenOptions struct {
	Backend string
	Shape   []int
}

// Generate returns the backend source text for a kernel file specialized
// to the given shape, without compiling it.
func (a *App) Generate(_ context.Context, kernelPath string, opts GenOptions) (string, error) {
	desc, err := config.LoadKernel(kernelPath)
	if err != nil {
		return "", err
	}
	settings, err := a.effective(opts.Backend)
	if err != nil {
		return "", err
	}

	prog, err := a.lowerFor(desc, settings.Backend, opts.Shape)
	if err != nil {
		return "", err
	}
	params := domain.DefaultTuningParams(settings.Backend, prog.Rank)

	switch settings.Backend {
	case domain.BackendC:
		return cgen.New().Generate(prog, params)
	case domain.BackendOpenCL:
		return clgen.New(clgen.Options{EnableFP64: a.device.SupportsFP64()}).Generate(prog, params)
	default:
		return "", zerr.Wrap(domain.ErrUnsupportedBackend, "the interpreter backend has no generated source")
	}
}

// RunOptions configure the Run method.
type RunOptions struct {
	Backend string
	Shape   []int
	Scalars []float64
	// DataPath points at a whitespace-separated list of input values. When
	// empty every input cell is 1.
	DataPath string
}

// Run specializes the kernel for the shape and executes it, returning the
// output grid.
func (a *App) Run(ctx context.Context, kernelPath string, opts RunOptions) (*domain.Grid, error) {
	desc, err := config.LoadKernel(kernelPath)
	if err != nil {
		return nil, err
	}
	settings, err := a.effective(opts.Backend)
	if err != nil {
		return nil, err
	}

	inputs, err := a.buildInputs(desc, opts.Shape, opts.DataPath)
	if err != nil {
		return nil, err
	}
	return a.dispatcherFor(settings).Invoke(ctx, desc, inputs, opts.Scalars)
}

// TuneOptions configure the Tune method.
type TuneOptions struct {
	Backend   string
	Shape     []int
	MaxTrials int
}

// Tune force-enables autotuning, specializes the kernel once and returns
// the resulting artifact with the selected parameters.
func (a *App) Tune(ctx context.Context, kernelPath string, opts TuneOptions) (*domain.Artifact, error) {
	desc, err := config.LoadKernel(kernelPath)
	if err != nil {
		return nil, err
	}
	settings, err := a.effective(opts.Backend)
	if err != nil {
		return nil, err
	}
	settings.Tuning.Enabled = true
	if opts.MaxTrials > 0 {
		settings.Tuning.MaxTrials = opts.MaxTrials
	}

	inputs, err := a.buildInputs(desc, opts.Shape, "")
	if err != nil {
		return nil, err
	}
	d := a.dispatcherFor(settings)
	if _, err := d.Invoke(ctx, desc, inputs, make([]float64, desc.ScalarParams())); err != nil {
		return nil, err
	}
	art, ok := d.Peek(desc, opts.Shape)
	if !ok {
		return nil, zerr.Wrap(domain.ErrAutotuningExhausted, "no artifact cached after tuning run")
	}
	return art, nil
}

// effective resolves the backend override on top of the loaded settings.
func (a *App) effective(backend string) (domain.Settings, error) {
	settings := a.settings
	if backend != "" {
		b, err := domain.ParseBackend(backend)
		if err != nil {
			return settings, err
		}
		settings.Backend = b
	}
	return settings, nil
}

func (a *App) dispatcherFor(settings domain.Settings) *dispatch.Dispatcher {
	tuner := tune.New(tune.GridStrategy{}, a.tuningStore, a.logger, settings.Tuning)
	return dispatch.New(dispatch.Deps{
		Settings:  settings,
		Cache:     a.artifacts,
		Toolchain: a.toolchain,
		Device:    a.device,
		Tuner:     tuner,
		Log:       a.logger,
		Tracer:    a.tracer,
	})
}

func (a *App) lowerFor(desc domain.Descriptor, backend domain.Backend, shape []int) (*ir.Program, error) {
	sig, err := domain.DeriveSignature(desc, backend, shape)
	if err != nil {
		return nil, err
	}
	return lower.Lower(desc, sig)
}

func (a *App) buildInputs(desc domain.Descriptor, shape []int, dataPath string) ([]*domain.Grid, error) {
	var data []float64
	if dataPath != "" {
		raw, err := os.ReadFile(dataPath)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to read input data"), "path", dataPath)
		}
		fields := strings.Fields(string(raw))
		data = make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				werr := zerr.Wrap(err, "invalid input value")
				werr = zerr.With(werr, "path", dataPath)
				return nil, zerr.With(werr, "index", i)
			}
			data[i] = v
		}
	}

	inputs := make([]*domain.Grid, desc.Arity())
	for i := range inputs {
		g, err := domain.NewGrid(desc.Elem(), shape...)
		if err != nil {
			return nil, err
		}
		if data == nil {
			g.Fill(1)
		} else {
			if len(data) != g.Len() {
				err := zerr.Wrap(domain.ErrShapeMismatch, "input data length does not match shape")
				err = zerr.With(err, "want", g.Len())
				return nil, zerr.With(err, "got", len(data))
			}
			copy(g.Data(), data)
		}
		inputs[i] = g
	}
	return inputs, nil
}
