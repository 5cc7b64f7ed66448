package ports

import (
	"go.trai.ch/stencil/internal/core/domain"
)

// ParamSpace is the finite search space the autotuner explores.
type ParamSpace struct {
	// Tiles are candidate strip-mining factors for the multicore backend.
	Tiles []int
	// WorkGroups are candidate per-axis local sizes for the OpenCL backend.
	WorkGroups [][]int
	// Parallel lists the parallel-annotation settings to try.
	Parallel []bool
}

// SearchStrategy enumerates candidate parameter sets from a space. The
// strategy is pluggable; the in-tree adapter is an exhaustive grid.
//
//go:generate mockgen -source=tuner.go -destination=mocks/mock_tuner.go -package=mocks
type SearchStrategy interface {
	// Candidates returns the ordered configurations to trial for the
	// backend. The tuner truncates the list to its trial budget.
	Candidates(backend domain.Backend, space ParamSpace) []domain.TuningParams
}

// TuningStore records the selected parameter set per signature so
// subsequent compilations skip the search.
type TuningStore interface {
	// Get returns the record for the signature key, if present.
	Get(key string) (domain.TuningRecord, bool)

	// Put stores the record, replacing any previous one for the key.
	Put(rec domain.TuningRecord)
}
