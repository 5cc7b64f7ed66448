// Package stencil specializes declarative stencil kernels into native code
// at runtime and executes them over regular grids.
//
// A kernel is declared as a [Descriptor]: a set of neighbor offsets, a
// boundary policy and an element type, optionally with per-offset
// coefficients or a custom body expression. A [Specializer] derives a
// signature from the descriptor and the argument shapes, lowers the kernel
// to an intermediate form, generates and compiles backend code on first
// use, and caches the compiled artifact for subsequent calls with the same
// signature.
//
// Three backends are available: multicore C via an external compiler,
// an OpenCL-style work-group executor, and a pure-Go interpreter that also
// serves as the fallback when native compilation is unavailable.
package stencil
