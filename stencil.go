package stencil

import (
	"context"

	"go.trai.ch/stencil/internal/adapters/opencl"
	"go.trai.ch/stencil/internal/adapters/telemetry"
	"go.trai.ch/stencil/internal/adapters/toolchain"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/stencil/internal/engine/cache"
	"go.trai.ch/stencil/internal/engine/dispatch"
	"go.trai.ch/stencil/internal/engine/tune"
)

// Core types re-exported for kernel declaration and invocation.
type (
	Descriptor       = domain.Descriptor
	DescriptorOption = domain.DescriptorOption
	Grid             = domain.Grid
	Artifact         = domain.Artifact
	Settings         = domain.Settings
	Backend          = domain.Backend
	BoundaryPolicy   = domain.BoundaryPolicy
	ElemType         = domain.ElemType
)

// Body expression nodes, for kernels that go beyond a weighted sum.
type (
	Expr   = domain.Expr
	Load   = domain.Load
	Const  = domain.Const
	Param  = domain.Param
	Binary = domain.Binary
	Call   = domain.Call
	BinOp  = domain.BinOp
	MathFn = domain.MathFn
)

const (
	BoundaryClamp    = domain.BoundaryClamp
	BoundaryWrap     = domain.BoundaryWrap
	BoundaryConstant = domain.BoundaryConstant
	BoundarySkip     = domain.BoundarySkip

	ElemFloat32 = domain.ElemFloat32
	ElemFloat64 = domain.ElemFloat64
	ElemInt32   = domain.ElemInt32

	BackendC      = domain.BackendC
	BackendOpenCL = domain.BackendOpenCL
	BackendInterp = domain.BackendInterp

	OpAdd = domain.OpAdd
	OpSub = domain.OpSub
	OpMul = domain.OpMul
	OpDiv = domain.OpDiv

	FnSqrt = domain.FnSqrt
	FnAbs  = domain.FnAbs
	FnMin  = domain.FnMin
	FnMax  = domain.FnMax
)

// Constructors re-exported from the domain package.
var (
	NewDescriptor    = domain.NewDescriptor
	NewGrid          = domain.NewGrid
	NewGridFrom      = domain.NewGridFrom
	DefaultSettings  = domain.DefaultSettings
	ParseBackend     = domain.ParseBackend
	WeightedSum      = domain.WeightedSum
	WithName         = domain.WithName
	WithArity        = domain.WithArity
	WithScalarParams = domain.WithScalarParams
	WithPadValue     = domain.WithPadValue
	WithBody         = domain.WithBody
	WithCoefficients = domain.WithCoefficients
)

// Logger receives progress and failure messages from the specializer.
type Logger = ports.Logger

// Specializer compiles kernels on first use and dispatches invocations to
// the cached artifacts.
type Specializer struct {
	d *dispatch.Dispatcher
}

type options struct {
	log    ports.Logger
	tracer ports.Tracer
	device ports.Device
	tc     ports.Toolchain
}

// Option configures a Specializer.
type Option func(*options)

// WithLogger routes specializer logs to l instead of discarding them.
func WithLogger(l Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDevice substitutes the OpenCL device. Used for testing.
func WithDevice(d ports.Device) Option {
	return func(o *options) { o.device = d }
}

// WithToolchain substitutes the native compiler. Used for testing.
func WithToolchain(tc ports.Toolchain) Option {
	return func(o *options) { o.tc = tc }
}

type discardLogger struct{}

func (discardLogger) Info(string) {}
func (discardLogger) Warn(string) {}
func (discardLogger) Error(error) {}

// NewSpecializer creates a Specializer for the given settings.
func NewSpecializer(settings Settings, opts ...Option) *Specializer {
	o := options{
		log:    discardLogger{},
		tracer: telemetry.Noop{},
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.tc == nil {
		o.tc = toolchain.New(settings.CC, o.log)
	}
	if o.device == nil {
		o.device = opencl.NewEmulator(settings.OpenCL)
	}

	tuner := tune.New(tune.GridStrategy{}, tune.NewMemoryStore(), o.log, settings.Tuning)
	return &Specializer{d: dispatch.New(dispatch.Deps{
		Settings:  settings,
		Cache:     cache.New(),
		Toolchain: o.tc,
		Device:    o.device,
		Tuner:     tuner,
		Log:       o.log,
		Tracer:    o.tracer,
	})}
}

// Invoke runs the kernel over the inputs and returns a freshly allocated
// output grid. The kernel is specialized and compiled on the first call
// for a given descriptor, backend and shape.
func (s *Specializer) Invoke(ctx context.Context, desc Descriptor, inputs []*Grid, scalars []float64) (*Grid, error) {
	return s.d.Invoke(ctx, desc, inputs, scalars)
}

// InvokeInto runs the kernel and writes the result into out, which must
// match the input shape and element type.
func (s *Specializer) InvokeInto(ctx context.Context, desc Descriptor, inputs []*Grid, scalars []float64, out *Grid) error {
	return s.d.InvokeInto(ctx, desc, inputs, scalars, out)
}

// Peek returns the cached artifact for the descriptor and shape, if one
// has been compiled.
func (s *Specializer) Peek(desc Descriptor, shape []int) (*Artifact, bool) {
	return s.d.Peek(desc, shape)
}
