package config

// SettingsFile represents the structure of the stencil.yaml configuration
// file. Every field is optional; missing fields keep their defaults.
type SettingsFile struct {
	Backend string     `yaml:"backend"`
	LogJSON bool       `yaml:"log_json"`
	CC      *CCDTO     `yaml:"cc"`
	OpenCL  *OpenCLDTO `yaml:"opencl"`
	Tuning  *TuningDTO `yaml:"tuning"`
}

// CCDTO configures the external C compiler.
type CCDTO struct {
	Path   string   `yaml:"path"`
	Flags  []string `yaml:"flags"`
	OpenMP *bool    `yaml:"openmp"`
}

// OpenCLDTO configures the OpenCL device adapter.
type OpenCLDTO struct {
	FP64 *bool `yaml:"fp64"`
}

// TuningDTO configures the autotuner.
type TuningDTO struct {
	Enabled      bool   `yaml:"enabled"`
	MaxTrials    int    `yaml:"max_trials"`
	TrialTimeout string `yaml:"trial_timeout"`
	Repeats      int    `yaml:"repeats"`
}

// KernelFile represents a declarative kernel description loaded by the CLI.
type KernelFile struct {
	Name         string    `yaml:"name"`
	Elem         string    `yaml:"elem"`
	Policy       string    `yaml:"policy"`
	Offsets      [][]int   `yaml:"offsets"`
	Coefficients []float64 `yaml:"coefficients"`
	Pad          float64   `yaml:"pad"`
	Arity        int       `yaml:"arity"`
	Scalars      int       `yaml:"scalars"`
}
