package toolchain

import (
	"fmt"
	"strings"

	"go.trai.ch/stencil/internal/core/domain"
)

// harnessSource emits the C host harness appended to generated kernel
// source. The harness exchanges float64 buffers with the Go side over
// stdio: inputs, then scalar parameters, then the initial output contents
// (the skip policy leaves boundary cells as received), and writes the
// final output back. Narrowing to the kernel's element type happens here.
func harnessSource(meta domain.KernelMeta) string {
	ctype := meta.Elem.CType()
	n := meta.Elems()

	var b strings.Builder
	b.WriteString("\n/* Host harness. Exchanges float64 buffers over stdio. */\n")
	b.WriteString("#include <stdio.h>\n")
	b.WriteString("#include <stdlib.h>\n\n")
	b.WriteString("static int read_doubles(double *buf, size_t n)\n")
	b.WriteString("{\n    return fread(buf, sizeof(double), n, stdin) == n;\n}\n\n")
	b.WriteString("int main(void)\n{\n")
	fmt.Fprintf(&b, "    const size_t n = %d;\n", n)
	b.WriteString("    double *host = malloc(n * sizeof(double));\n")
	for i := 0; i < meta.Arity; i++ {
		fmt.Fprintf(&b, "    %s *in%d = malloc(n * sizeof(%s));\n", ctype, i, ctype)
	}
	fmt.Fprintf(&b, "    %s *out = malloc(n * sizeof(%s));\n", ctype, ctype)
	if meta.Scalars > 0 {
		fmt.Fprintf(&b, "    double params[%d];\n", meta.Scalars)
	}

	checks := make([]string, 0, meta.Arity+2)
	checks = append(checks, "!host", "!out")
	for i := 0; i < meta.Arity; i++ {
		checks = append(checks, fmt.Sprintf("!in%d", i))
	}
	fmt.Fprintf(&b, "    if (%s) {\n        return 2;\n    }\n", strings.Join(checks, " || "))

	for i := 0; i < meta.Arity; i++ {
		b.WriteString("    if (!read_doubles(host, n)) {\n        return 3;\n    }\n")
		fmt.Fprintf(&b, "    for (size_t i = 0; i < n; i++) {\n        in%d[i] = (%s)host[i];\n    }\n", i, ctype)
	}
	if meta.Scalars > 0 {
		fmt.Fprintf(&b, "    if (!read_doubles(params, %d)) {\n        return 3;\n    }\n", meta.Scalars)
	}
	b.WriteString("    if (!read_doubles(host, n)) {\n        return 3;\n    }\n")
	fmt.Fprintf(&b, "    for (size_t i = 0; i < n; i++) {\n        out[i] = (%s)host[i];\n    }\n", ctype)

	args := make([]string, 0, meta.Arity+2)
	for i := 0; i < meta.Arity; i++ {
		args = append(args, fmt.Sprintf("in%d", i))
	}
	args = append(args, "out")
	if meta.Scalars > 0 {
		args = append(args, "params")
	}
	fmt.Fprintf(&b, "    %s(%s);\n", meta.Name, strings.Join(args, ", "))

	b.WriteString("    for (size_t i = 0; i < n; i++) {\n        host[i] = (double)out[i];\n    }\n")
	b.WriteString("    if (fwrite(host, sizeof(double), n, stdout) != n) {\n        return 4;\n    }\n")
	b.WriteString("    return 0;\n}\n")
	return b.String()
}
