// Package toolchain drives an external C compiler. Generated kernel source
// is wrapped in a stdio harness, compiled to a standalone binary and
// invoked per call with buffers exchanged over pipes. No cgo.
package toolchain

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

// CC compiles kernels with an external compiler, cc by default.
type CC struct {
	settings domain.CCSettings
	log      ports.Logger
}

var _ ports.Toolchain = (*CC)(nil)

// New creates a toolchain adapter.
func New(settings domain.CCSettings, log ports.Logger) *CC {
	return &CC{settings: settings, log: log}
}

// Available reports whether the configured compiler can be found.
func (c *CC) Available() bool {
	_, err := exec.LookPath(c.settings.Path)
	return err == nil
}

// Compile implements ports.Toolchain. On success the work directory
// holding source and binary lives until the process exits, matching the
// cache's process-lifetime entries; on failure it is removed.
func (c *CC) Compile(ctx context.Context, meta domain.KernelMeta, source string) (domain.Callable, error) {
	if _, err := exec.LookPath(c.settings.Path); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrCompilation, "compiler not found"), "cc", c.settings.Path)
	}

	dir, err := os.MkdirTemp("", "stencil-cc-*")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create toolchain work directory")
	}
	compiled := false
	defer func() {
		if !compiled {
			_ = os.RemoveAll(dir)
		}
	}()
	srcPath := filepath.Join(dir, meta.Name+".c")
	binPath := filepath.Join(dir, meta.Name)

	full := source + harnessSource(meta)
	if err := os.WriteFile(srcPath, []byte(full), 0o644); err != nil {
		return nil, zerr.Wrap(err, "failed to write kernel source")
	}

	args := c.compileArgs(meta, srcPath, binPath)
	cmd := exec.CommandContext(ctx, c.settings.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		werr := zerr.Wrap(domain.ErrCompilation, "compiler invocation failed")
		werr = zerr.With(werr, "cc", c.settings.Path)
		return nil, zerr.With(werr, "diagnostics", strings.TrimSpace(stderr.String()))
	}

	compiled = true
	c.log.Info(fmt.Sprintf("compiled %s (%d args, %s)", meta.Name, meta.Arity, meta.Elem))
	return &binaryKernel{path: binPath, meta: meta}, nil
}

func (c *CC) compileArgs(meta domain.KernelMeta, srcPath, binPath string) []string {
	args := append([]string(nil), c.settings.Flags...)
	if meta.Parallel && c.settings.OpenMP {
		args = append(args, "-fopenmp")
	}
	args = append(args, "-o", binPath, srcPath, "-lm")
	return args
}

// binaryKernel invokes a compiled harness binary.
type binaryKernel struct {
	path string
	meta domain.KernelMeta
}

var _ domain.Callable = (*binaryKernel)(nil)

// Invoke implements domain.Callable. The harness reads every input, the
// scalar parameters and the initial output contents, and writes the final
// output; all buffers are little-endian float64.
func (k *binaryKernel) Invoke(ctx context.Context, inputs []*domain.Grid, scalars []float64, out *domain.Grid) error {
	if len(inputs) != k.meta.Arity {
		err := zerr.Wrap(domain.ErrShapeMismatch, "input count does not match kernel")
		err = zerr.With(err, "want_inputs", k.meta.Arity)
		return zerr.With(err, "got", len(inputs))
	}
	if len(scalars) != k.meta.Scalars {
		err := zerr.Wrap(domain.ErrShapeMismatch, "scalar count does not match kernel")
		err = zerr.With(err, "want_scalars", k.meta.Scalars)
		return zerr.With(err, "got", len(scalars))
	}

	var stdin bytes.Buffer
	for _, in := range inputs {
		if err := binary.Write(&stdin, binary.LittleEndian, in.Data()); err != nil {
			return zerr.Wrap(err, "failed to encode input buffer")
		}
	}
	if len(scalars) > 0 {
		if err := binary.Write(&stdin, binary.LittleEndian, scalars); err != nil {
			return zerr.Wrap(err, "failed to encode scalar parameters")
		}
	}
	if err := binary.Write(&stdin, binary.LittleEndian, out.Data()); err != nil {
		return zerr.Wrap(err, "failed to encode output buffer")
	}

	cmd := exec.CommandContext(ctx, k.path)
	cmd.Stdin = &stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		werr := zerr.Wrap(err, "kernel binary failed")
		werr = zerr.With(werr, "kernel", k.meta.Name)
		return zerr.With(werr, "stderr", strings.TrimSpace(stderr.String()))
	}

	want := k.meta.Elems() * 8
	if stdout.Len() != want {
		err := zerr.Wrap(domain.ErrShapeMismatch, "kernel binary returned a short output buffer")
		err = zerr.With(err, "want_bytes", want)
		return zerr.With(err, "got_bytes", stdout.Len())
	}
	return binary.Read(&stdout, binary.LittleEndian, out.Data())
}
