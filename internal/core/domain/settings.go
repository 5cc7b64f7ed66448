package domain

import "time"

// CCSettings configure the external C toolchain.
type CCSettings struct {
	// Path is the compiler binary, looked up on PATH when relative.
	Path string
	// Flags are extra compiler flags appended after the defaults.
	Flags []string
	// OpenMP enables -fopenmp for parallel-annotated source.
	OpenMP bool
}

// OpenCLSettings configure the OpenCL device adapter.
type OpenCLSettings struct {
	// FP64 declares that the device supports the cl_khr_fp64 extension.
	FP64 bool
}

// TuningSettings bound the autotuning search.
type TuningSettings struct {
	Enabled bool
	// MaxTrials caps the number of candidate configurations tried.
	MaxTrials int
	// TrialTimeout bounds a single candidate's compile-and-run trial. A
	// hung trial is abandoned, not waited on.
	TrialTimeout time.Duration
	// Repeats is how many times a candidate is executed per measurement.
	Repeats int
}

// Settings is the process-wide configuration of the specializer.
type Settings struct {
	Backend Backend
	CC      CCSettings
	OpenCL  OpenCLSettings
	Tuning  TuningSettings
	LogJSON bool
}

// DefaultSettings returns the configuration used when no stencil.yaml is
// present.
func DefaultSettings() Settings {
	return Settings{
		Backend: BackendC,
		CC: CCSettings{
			Path:   "cc",
			Flags:  []string{"-O2"},
			OpenMP: true,
		},
		OpenCL: OpenCLSettings{FP64: true},
		Tuning: TuningSettings{
			Enabled:      false,
			MaxTrials:    16,
			TrialTimeout: 5 * time.Second,
			Repeats:      3,
		},
	}
}
