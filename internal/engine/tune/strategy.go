package tune

import (
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
)

// GridStrategy enumerates the full cross product of the parameter space in
// a fixed order, so repeated searches trial the same candidates.
type GridStrategy struct{}

var _ ports.SearchStrategy = GridStrategy{}

// Candidates implements ports.SearchStrategy.
func (GridStrategy) Candidates(backend domain.Backend, space ports.ParamSpace) []domain.TuningParams {
	switch backend {
	case domain.BackendC:
		out := make([]domain.TuningParams, 0, len(space.Tiles)*len(space.Parallel))
		for _, tile := range space.Tiles {
			for _, par := range space.Parallel {
				out = append(out, domain.TuningParams{Tile: tile, Parallel: par})
			}
		}
		return out
	case domain.BackendOpenCL:
		out := make([]domain.TuningParams, 0, len(space.WorkGroups))
		for _, wg := range space.WorkGroups {
			out = append(out, domain.TuningParams{WorkGroup: wg})
		}
		return out
	default:
		// The interpreter has nothing to tune.
		return nil
	}
}

// DefaultSpace is the search space used when the caller does not supply
// one. Work-group candidates are uniform across axes.
func DefaultSpace(rank int) ports.ParamSpace {
	space := ports.ParamSpace{
		Tiles:    []int{1, 2, 4, 8, 16, 32},
		Parallel: []bool{true, false},
	}
	for _, side := range []int{4, 8, 16} {
		wg := make([]int, rank)
		for a := range wg {
			wg[a] = side
		}
		space.WorkGroups = append(space.WorkGroups, wg)
	}
	return space
}
