// Package dispatch is the front door of the specializer: it derives the
// call signature, obtains the compiled artifact through the cache and
// invokes it. Compilation, tuning and backend selection all happen behind
// a single Invoke.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.trai.ch/stencil/internal/backends/cgen"
	"go.trai.ch/stencil/internal/backends/clgen"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ir"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/stencil/internal/engine/interp"
	"go.trai.ch/stencil/internal/engine/lower"
	"go.trai.ch/stencil/internal/engine/tune"
	"go.trai.ch/zerr"
)

// Deps are the collaborators a dispatcher is wired with.
type Deps struct {
	Settings  domain.Settings
	Cache     ports.ArtifactCache
	Toolchain ports.Toolchain
	Device    ports.Device
	Tuner     *tune.Tuner
	Log       ports.Logger
	Tracer    ports.Tracer
}

// Dispatcher routes kernel invocations to cached specializations.
type Dispatcher struct {
	deps  Deps
	cgen  ports.Generator
	clgen ports.Generator
}

// New creates a dispatcher. The OpenCL generator is bound to the device's
// fp64 capability.
func New(deps Deps) *Dispatcher {
	return &Dispatcher{
		deps:  deps,
		cgen:  cgen.New(),
		clgen: clgen.New(clgen.Options{EnableFP64: deps.Device.SupportsFP64()}),
	}
}

// Invoke runs the kernel over the inputs and returns a freshly allocated
// output grid of the same shape.
func (d *Dispatcher) Invoke(ctx context.Context, desc domain.Descriptor, inputs []*domain.Grid, scalars []float64) (*domain.Grid, error) {
	if len(inputs) == 0 {
		return nil, zerr.Wrap(domain.ErrShapeMismatch, "no input grids")
	}
	out, err := domain.NewGrid(desc.Elem(), inputs[0].Shape()...)
	if err != nil {
		return nil, err
	}
	if err := d.InvokeInto(ctx, desc, inputs, scalars, out); err != nil {
		return nil, err
	}
	return out, nil
}

// InvokeInto runs the kernel and writes into a caller-provided output
// grid. With the skip boundary policy the output's boundary cells are left
// untouched, which is the reason to prefer this entry point over Invoke.
func (d *Dispatcher) InvokeInto(ctx context.Context, desc domain.Descriptor, inputs []*domain.Grid, scalars []float64, out *domain.Grid) error {
	if err := validateCall(desc, inputs, scalars, out); err != nil {
		return err
	}

	sig, err := domain.DeriveSignature(desc, d.deps.Settings.Backend, inputs[0].Shape())
	if err != nil {
		return err
	}

	art, err := d.deps.Cache.GetOrCompile(ctx, sig, func(ctx context.Context) (*domain.Artifact, error) {
		return d.compile(ctx, desc, sig)
	})
	if err != nil {
		return err
	}
	return art.Callable.Invoke(ctx, inputs, scalars, out)
}

// Peek exposes the cached artifact for inspection without compiling.
func (d *Dispatcher) Peek(desc domain.Descriptor, shape []int) (*domain.Artifact, bool) {
	sig, err := domain.DeriveSignature(desc, d.deps.Settings.Backend, shape)
	if err != nil {
		return nil, false
	}
	return d.deps.Cache.Peek(sig)
}

func validateCall(desc domain.Descriptor, inputs []*domain.Grid, scalars []float64, out *domain.Grid) error {
	if len(inputs) != desc.Arity() {
		err := zerr.Wrap(domain.ErrShapeMismatch, "input count does not match kernel arity")
		err = zerr.With(err, "arity", desc.Arity())
		return zerr.With(err, "got", len(inputs))
	}
	if len(scalars) != desc.ScalarParams() {
		err := zerr.Wrap(domain.ErrShapeMismatch, "scalar count does not match kernel parameters")
		err = zerr.With(err, "params", desc.ScalarParams())
		return zerr.With(err, "got", len(scalars))
	}
	first := inputs[0]
	if first.Elem() != desc.Elem() {
		err := zerr.Wrap(domain.ErrShapeMismatch, "input element type does not match kernel")
		err = zerr.With(err, "kernel", desc.Elem().String())
		return zerr.With(err, "got", first.Elem().String())
	}
	for i, in := range inputs[1:] {
		if !first.SameShape(in) {
			return zerr.With(
				zerr.Wrap(domain.ErrShapeMismatch, "input grids disagree on shape"),
				"input", i+1,
			)
		}
	}
	if !first.SameShape(out) {
		return zerr.Wrap(domain.ErrShapeMismatch, "output grid shape does not match inputs")
	}
	return nil
}

// compile produces the artifact for a signature: lower, pick parameters,
// generate source and hand it to the native stage. When the requested
// backend cannot serve the program, the interpreter takes over so the call
// still completes.
func (d *Dispatcher) compile(ctx context.Context, desc domain.Descriptor, sig domain.Signature) (*domain.Artifact, error) {
	ctx, span := d.deps.Tracer.Start(ctx, "stencil.compile")
	defer span.End()
	span.SetAttribute("signature", sig.Key)
	span.SetAttribute("backend", sig.Backend.String())

	prog, err := lower.Lower(desc, sig)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	params, tuned := d.selectParams(ctx, prog, sig)

	callable, source, err := d.materialize(ctx, prog, sig, params)
	if errors.Is(err, domain.ErrUnsupportedBackend) || errors.Is(err, domain.ErrCompilation) {
		d.deps.Log.Warn(fmt.Sprintf("backend %s unavailable for %s, falling back to interpreter: %v",
			sig.Backend, sig.Key, err))
		span.RecordError(err)
		callable, err = interp.New(prog, 0)
		source = ""
		params = domain.TuningParams{}
		tuned = false
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &domain.Artifact{
		Signature:  sig,
		Backend:    sig.Backend,
		Callable:   callable,
		Params:     params,
		Source:     source,
		Tuned:      tuned,
		CompiledAt: time.Now(),
	}, nil
}

// selectParams runs the autotuner when enabled; every failure degrades to
// the backend defaults so compilation never blocks on tuning.
func (d *Dispatcher) selectParams(ctx context.Context, prog *ir.Program, sig domain.Signature) (domain.TuningParams, bool) {
	defaults := domain.DefaultTuningParams(sig.Backend, prog.Rank)
	if !d.deps.Settings.Tuning.Enabled || d.deps.Tuner == nil || sig.Backend == domain.BackendInterp {
		return defaults, false
	}

	ctx, span := d.deps.Tracer.Start(ctx, "stencil.tune")
	defer span.End()

	trial := func(ctx context.Context, params domain.TuningParams) (time.Duration, error) {
		callable, _, err := d.materialize(ctx, prog, sig, params)
		if err != nil {
			return 0, err
		}
		inputs := make([]*domain.Grid, sig.Arity)
		for i := range inputs {
			g, err := domain.NewGrid(sig.Elem, sig.Shape...)
			if err != nil {
				return 0, err
			}
			g.Fill(1)
			inputs[i] = g
		}
		out, err := domain.NewGrid(sig.Elem, sig.Shape...)
		if err != nil {
			return 0, err
		}
		scalars := make([]float64, sig.Scalars)
		start := time.Now()
		if err := callable.Invoke(ctx, inputs, scalars, out); err != nil {
			return 0, err
		}
		return time.Since(start), nil
	}

	best, err := d.deps.Tuner.Select(ctx, sig, tune.DefaultSpace(prog.Rank), trial)
	if err != nil {
		span.RecordError(err)
		d.deps.Log.Warn(fmt.Sprintf("autotuning failed for %s, using defaults: %v", sig.Key, err))
		return defaults, false
	}
	return best, true
}

// materialize turns IR plus parameters into a ready callable.
func (d *Dispatcher) materialize(ctx context.Context, prog *ir.Program, sig domain.Signature, params domain.TuningParams) (domain.Callable, string, error) {
	switch sig.Backend {
	case domain.BackendC:
		source, err := d.cgen.Generate(prog, params)
		if err != nil {
			return nil, "", err
		}
		meta := domain.KernelMeta{
			Name:     prog.Name,
			Shape:    sig.Shape,
			Elem:     sig.Elem,
			Arity:    sig.Arity,
			Scalars:  sig.Scalars,
			Parallel: params.Parallel,
		}
		callable, err := d.deps.Toolchain.Compile(ctx, meta, source)
		if err != nil {
			return nil, "", err
		}
		return callable, source, nil

	case domain.BackendOpenCL:
		source, err := d.clgen.Generate(prog, params)
		if err != nil {
			return nil, "", err
		}
		plan := clgen.PlanLaunch(prog, params)
		callable, err := d.deps.Device.Build(ctx, prog, source, plan)
		if err != nil {
			return nil, "", err
		}
		return callable, source, nil

	case domain.BackendInterp:
		ev, err := interp.New(prog, 0)
		if err != nil {
			return nil, "", err
		}
		return ev, "", nil

	default:
		return nil, "", zerr.With(zerr.Wrap(domain.ErrUnsupportedBackend, "no materializer for backend"), "backend", sig.Backend.String())
	}
}
