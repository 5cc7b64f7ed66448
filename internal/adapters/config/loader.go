// Package config provides the configuration loader for stencil.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file.
const FileName = "stencil.yaml"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads stencil.yaml from dir or the nearest ancestor directory. A
// missing file yields the defaults; file entries override defaults
// field-wise.
func (l *Loader) Load(dir string) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	path, ok := l.findConfiguration(dir)
	if !ok {
		return settings, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return settings, zerr.With(
			zerr.Wrap(domain.ErrConfigReadFailed, err.Error()),
			"path", path,
		)
	}

	var file SettingsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return settings, zerr.With(
			zerr.Wrap(domain.ErrConfigParseFailed, err.Error()),
			"path", path,
		)
	}
	return l.merge(settings, file, path)
}

func (l *Loader) findConfiguration(dir string) (string, bool) {
	current := dir
	for {
		path := filepath.Join(current, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, true
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", false
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

func (l *Loader) merge(settings domain.Settings, file SettingsFile, path string) (domain.Settings, error) {
	if file.Backend != "" {
		backend, err := domain.ParseBackend(file.Backend)
		if err != nil {
			werr := zerr.Wrap(domain.ErrConfigParseFailed, "unknown backend")
			werr = zerr.With(werr, "backend", file.Backend)
			return settings, zerr.With(werr, "path", path)
		}
		settings.Backend = backend
	}
	settings.LogJSON = file.LogJSON

	if cc := file.CC; cc != nil {
		if cc.Path != "" {
			settings.CC.Path = cc.Path
		}
		if cc.Flags != nil {
			settings.CC.Flags = cc.Flags
		}
		if cc.OpenMP != nil {
			settings.CC.OpenMP = *cc.OpenMP
		}
	}
	if ocl := file.OpenCL; ocl != nil && ocl.FP64 != nil {
		settings.OpenCL.FP64 = *ocl.FP64
	}
	if tn := file.Tuning; tn != nil {
		settings.Tuning.Enabled = tn.Enabled
		if tn.MaxTrials > 0 {
			settings.Tuning.MaxTrials = tn.MaxTrials
		}
		if tn.Repeats > 0 {
			settings.Tuning.Repeats = tn.Repeats
		}
		if tn.TrialTimeout != "" {
			d, err := time.ParseDuration(tn.TrialTimeout)
			if err != nil {
				werr := zerr.Wrap(domain.ErrConfigParseFailed, "invalid trial_timeout")
				werr = zerr.With(werr, "trial_timeout", tn.TrialTimeout)
				return settings, zerr.With(werr, "path", path)
			}
			settings.Tuning.TrialTimeout = d
		}
	}
	return settings, nil
}
