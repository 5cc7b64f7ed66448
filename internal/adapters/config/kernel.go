package config

import (
	"os"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// LoadKernel reads a declarative kernel description from a YAML file and
// constructs the descriptor.
func LoadKernel(path string) (domain.Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Descriptor{}, zerr.With(
			zerr.Wrap(domain.ErrKernelSpecInvalid, err.Error()),
			"path", path,
		)
	}

	var file KernelFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return domain.Descriptor{}, zerr.With(
			zerr.Wrap(domain.ErrKernelSpecInvalid, err.Error()),
			"path", path,
		)
	}
	return buildKernel(file, path)
}

func buildKernel(file KernelFile, path string) (domain.Descriptor, error) {
	elem, err := domain.ParseElemType(file.Elem)
	if err != nil {
		werr := zerr.Wrap(domain.ErrKernelSpecInvalid, "unknown element type")
		werr = zerr.With(werr, "elem", file.Elem)
		return domain.Descriptor{}, zerr.With(werr, "path", path)
	}
	policy, err := domain.ParseBoundaryPolicy(file.Policy)
	if err != nil {
		werr := zerr.Wrap(domain.ErrKernelSpecInvalid, "unknown boundary policy")
		werr = zerr.With(werr, "policy", file.Policy)
		return domain.Descriptor{}, zerr.With(werr, "path", path)
	}

	var opts []domain.DescriptorOption
	if file.Name != "" {
		opts = append(opts, domain.WithName(file.Name))
	}
	if file.Arity > 0 {
		opts = append(opts, domain.WithArity(file.Arity))
	}
	if file.Scalars > 0 {
		opts = append(opts, domain.WithScalarParams(file.Scalars))
	}
	if policy == domain.BoundaryConstant {
		opts = append(opts, domain.WithPadValue(file.Pad))
	}
	if len(file.Coefficients) > 0 {
		if len(file.Coefficients) != len(file.Offsets) {
			werr := zerr.Wrap(domain.ErrKernelSpecInvalid, "coefficient count does not match offsets")
			werr = zerr.With(werr, "offsets", len(file.Offsets))
			werr = zerr.With(werr, "coefficients", len(file.Coefficients))
			return domain.Descriptor{}, zerr.With(werr, "path", path)
		}
		opts = append(opts, domain.WithCoefficients(file.Coefficients))
	}

	d, err := domain.NewDescriptor(file.Offsets, policy, elem, opts...)
	if err != nil {
		return domain.Descriptor{}, zerr.With(
			zerr.Wrap(domain.ErrKernelSpecInvalid, err.Error()),
			"path", path,
		)
	}
	return d, nil
}
