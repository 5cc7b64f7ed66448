package clgen

import (
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ir"
)

// PlanLaunch computes the NDRange geometry for a program: the local size
// comes from the tuning parameters (default 8 per axis) and the global size
// covers the iteration range rounded up to a local-size multiple. The
// kernel's early-exit guard discards the padding items.
func PlanLaunch(prog *ir.Program, params domain.TuningParams) domain.LaunchPlan {
	local := make([]int, prog.Rank)
	for a := range local {
		local[a] = 8
		if a < len(params.WorkGroup) && params.WorkGroup[a] > 0 {
			local[a] = params.WorkGroup[a]
		}
	}
	global := make([]int, prog.Rank)
	for a, ax := range prog.Axes {
		span := ax.Hi - ax.Lo
		global[a] = ((span + local[a] - 1) / local[a]) * local[a]
	}
	return domain.LaunchPlan{GlobalSize: global, LocalSize: local}
}
