package tune_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/stencil/internal/core/ports/mocks"
	"go.trai.ch/stencil/internal/engine/tune"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Warn(string) {}
func (nopLogger) Error(error) {}

func testSignature(t *testing.T, backend domain.Backend) domain.Signature {
	t.Helper()
	d, err := domain.NewDescriptor(
		[][]int{{-1}, {0}, {1}},
		domain.BoundaryClamp,
		domain.ElemFloat64,
	)
	require.NoError(t, err)
	sig, err := domain.DeriveSignature(d, backend, []int{256})
	require.NoError(t, err)
	return sig
}

func settings() domain.TuningSettings {
	return domain.TuningSettings{
		Enabled:      true,
		MaxTrials:    16,
		TrialTimeout: time.Second,
		Repeats:      1,
	}
}

func TestSelect_PicksCheapestCandidate(t *testing.T) {
	store := tune.NewMemoryStore()
	tuner := tune.New(tune.GridStrategy{}, store, nopLogger{}, settings())
	sig := testSignature(t, domain.BackendC)
	space := ports.ParamSpace{Tiles: []int{1, 2, 4}, Parallel: []bool{false}}

	trial := func(ctx context.Context, p domain.TuningParams) (time.Duration, error) {
		// Tile 2 is the sweet spot for this fake cost model.
		switch p.Tile {
		case 2:
			return 10 * time.Millisecond, nil
		default:
			return 50 * time.Millisecond, nil
		}
	}

	best, err := tuner.Select(t.Context(), sig, space, trial)
	require.NoError(t, err)
	assert.Equal(t, 2, best.Tile)

	rec, ok := store.Get(sig.Key)
	require.True(t, ok)
	assert.Equal(t, best, rec.Params)
	assert.Equal(t, 3, rec.Trials)
	assert.Equal(t, 10*time.Millisecond, rec.Cost)
}

func TestSelect_SkipsFailingCandidates(t *testing.T) {
	tuner := tune.New(tune.GridStrategy{}, tune.NewMemoryStore(), nopLogger{}, settings())
	sig := testSignature(t, domain.BackendC)
	space := ports.ParamSpace{Tiles: []int{1, 8}, Parallel: []bool{true}}

	trial := func(ctx context.Context, p domain.TuningParams) (time.Duration, error) {
		if p.Tile == 1 {
			return 0, zerr.New("segfault in trial harness")
		}
		return 5 * time.Millisecond, nil
	}

	best, err := tuner.Select(t.Context(), sig, space, trial)
	require.NoError(t, err)
	assert.Equal(t, 8, best.Tile)
}

func TestSelect_AllCandidatesFail(t *testing.T) {
	tuner := tune.New(tune.GridStrategy{}, tune.NewMemoryStore(), nopLogger{}, settings())
	sig := testSignature(t, domain.BackendC)
	space := ports.ParamSpace{Tiles: []int{1, 2}, Parallel: []bool{true}}

	trial := func(ctx context.Context, p domain.TuningParams) (time.Duration, error) {
		return 0, zerr.New("no compiler on PATH")
	}

	_, err := tuner.Select(t.Context(), sig, space, trial)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAutotuningExhausted)
}

func TestSelect_ReusesRecordedWinner(t *testing.T) {
	store := tune.NewMemoryStore()
	sig := testSignature(t, domain.BackendC)
	store.Put(domain.TuningRecord{
		Key:    sig.Key,
		Params: domain.TuningParams{Tile: 16, Parallel: true},
	})
	tuner := tune.New(tune.GridStrategy{}, store, nopLogger{}, settings())

	var calls atomic.Int64
	trial := func(ctx context.Context, p domain.TuningParams) (time.Duration, error) {
		calls.Add(1)
		return time.Millisecond, nil
	}

	best, err := tuner.Select(t.Context(), sig, ports.ParamSpace{Tiles: []int{1}, Parallel: []bool{true}}, trial)
	require.NoError(t, err)
	assert.Equal(t, 16, best.Tile)
	assert.Equal(t, int64(0), calls.Load())
}

func TestSelect_HonorsTrialBudget(t *testing.T) {
	s := settings()
	s.MaxTrials = 2
	tuner := tune.New(tune.GridStrategy{}, tune.NewMemoryStore(), nopLogger{}, s)
	sig := testSignature(t, domain.BackendC)
	space := ports.ParamSpace{Tiles: []int{1, 2, 4, 8}, Parallel: []bool{true}}

	var calls atomic.Int64
	trial := func(ctx context.Context, p domain.TuningParams) (time.Duration, error) {
		calls.Add(1)
		return time.Millisecond, nil
	}

	_, err := tuner.Select(t.Context(), sig, space, trial)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestSelect_AbandonsHungTrial(t *testing.T) {
	s := settings()
	s.TrialTimeout = 20 * time.Millisecond
	tuner := tune.New(tune.GridStrategy{}, tune.NewMemoryStore(), nopLogger{}, s)
	sig := testSignature(t, domain.BackendC)
	space := ports.ParamSpace{Tiles: []int{1, 2}, Parallel: []bool{true}}

	trial := func(ctx context.Context, p domain.TuningParams) (time.Duration, error) {
		if p.Tile == 1 {
			// Ignores the context on purpose; the tuner must move on.
			time.Sleep(200 * time.Millisecond)
		}
		return time.Millisecond, nil
	}

	start := time.Now()
	best, err := tuner.Select(t.Context(), sig, space, trial)
	require.NoError(t, err)
	assert.Equal(t, 2, best.Tile)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestGridStrategy_Candidates(t *testing.T) {
	space := ports.ParamSpace{
		Tiles:      []int{1, 4},
		Parallel:   []bool{true, false},
		WorkGroups: [][]int{{4, 4}, {8, 8}},
	}

	c := tune.GridStrategy{}.Candidates(domain.BackendC, space)
	require.Len(t, c, 4)
	assert.Equal(t, domain.TuningParams{Tile: 1, Parallel: true}, c[0])
	assert.Equal(t, domain.TuningParams{Tile: 4, Parallel: false}, c[3])

	cl := tune.GridStrategy{}.Candidates(domain.BackendOpenCL, space)
	require.Len(t, cl, 2)
	assert.Equal(t, []int{8, 8}, cl[1].WorkGroup)

	assert.Empty(t, tune.GridStrategy{}.Candidates(domain.BackendInterp, space))
}

func TestDefaultSpace(t *testing.T) {
	space := tune.DefaultSpace(2)
	assert.NotEmpty(t, space.Tiles)
	assert.NotEmpty(t, space.Parallel)
	require.Len(t, space.WorkGroups, 3)
	for _, wg := range space.WorkGroups {
		assert.Len(t, wg, 2)
	}
}

func TestMemoryStore_Replace(t *testing.T) {
	store := tune.NewMemoryStore()
	store.Put(domain.TuningRecord{Key: "k", Params: domain.TuningParams{Tile: 1}})
	store.Put(domain.TuningRecord{Key: "k", Params: domain.TuningParams{Tile: 4}})

	rec, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, 4, rec.Params.Tile)
}

func TestSelect_ConsultsStrategyAndRecordsWinner(t *testing.T) {
	ctrl := gomock.NewController(t)
	sig := testSignature(t, domain.BackendC)
	want := domain.TuningParams{Tile: 4}

	strategy := mocks.NewMockSearchStrategy(ctrl)
	strategy.EXPECT().Candidates(domain.BackendC, gomock.Any()).Return([]domain.TuningParams{want})
	store := mocks.NewMockTuningStore(ctrl)
	store.EXPECT().Get(sig.Key).Return(domain.TuningRecord{}, false)
	store.EXPECT().Put(gomock.Any()).Do(func(rec domain.TuningRecord) {
		assert.Equal(t, sig.Key, rec.Key)
		assert.Equal(t, want, rec.Params)
	})

	tuner := tune.New(strategy, store, nopLogger{}, settings())
	trial := func(context.Context, domain.TuningParams) (time.Duration, error) {
		return time.Millisecond, nil
	}

	best, err := tuner.Select(t.Context(), sig, ports.ParamSpace{}, trial)
	require.NoError(t, err)
	assert.Equal(t, want, best)
}
