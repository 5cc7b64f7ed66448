// Package tune implements the brute-force autotuner: it trials candidate
// execution parameters against a caller-supplied measurement function and
// keeps the cheapest configuration per signature.
package tune

import (
	"context"
	"fmt"
	"time"

	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

// TrialFunc compiles and runs the kernel once with the candidate
// parameters and returns the measured execution cost. It must honor the
// context deadline.
type TrialFunc func(ctx context.Context, params domain.TuningParams) (time.Duration, error)

// Tuner searches a parameter space and records the winner.
type Tuner struct {
	strategy ports.SearchStrategy
	store    ports.TuningStore
	log      ports.Logger
	settings domain.TuningSettings
}

// New creates a tuner bound to a strategy and a record store.
func New(strategy ports.SearchStrategy, store ports.TuningStore, log ports.Logger, settings domain.TuningSettings) *Tuner {
	return &Tuner{strategy: strategy, store: store, log: log, settings: settings}
}

// Select returns the parameter set to compile sig with. A recorded winner
// short-circuits the search. Candidates that fail or exceed the trial
// timeout are skipped; when every candidate fails the search reports
// domain.ErrAutotuningExhausted.
func (t *Tuner) Select(ctx context.Context, sig domain.Signature, space ports.ParamSpace, trial TrialFunc) (domain.TuningParams, error) {
	if rec, ok := t.store.Get(sig.Key); ok {
		return rec.Params, nil
	}

	candidates := t.strategy.Candidates(sig.Backend, space)
	if max := t.settings.MaxTrials; max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}
	if len(candidates) == 0 {
		return domain.TuningParams{}, zerr.With(zerr.Wrap(domain.ErrAutotuningExhausted, "strategy produced no candidates"), "signature", sig.Key)
	}

	var (
		best     domain.TuningParams
		bestCost time.Duration
		found    bool
		trials   int
	)
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return domain.TuningParams{}, zerr.Wrap(err, "tuning aborted")
		}
		trials++
		cost, err := t.measure(ctx, cand, trial)
		if err != nil {
			t.log.Warn(fmt.Sprintf("tuning trial failed for %s: %v", sig.Key, err))
			continue
		}
		if !found || cost < bestCost {
			best, bestCost, found = cand, cost, true
		}
	}
	if !found {
		err := zerr.Wrap(domain.ErrAutotuningExhausted, "all candidates failed")
		err = zerr.With(err, "signature", sig.Key)
		return domain.TuningParams{}, zerr.With(err, "trials", trials)
	}

	t.store.Put(domain.TuningRecord{
		Key:      sig.Key,
		Params:   best,
		Cost:     bestCost,
		Trials:   trials,
		RecordAt: time.Now(),
	})
	t.log.Info(fmt.Sprintf("tuned %s in %d trials: cost %s", sig.Key, trials, bestCost))
	return best, nil
}

// measure runs the candidate Repeats times and keeps the minimum cost. A
// trial that outlives the timeout is abandoned in its goroutine rather
// than waited on.
func (t *Tuner) measure(ctx context.Context, params domain.TuningParams, trial TrialFunc) (time.Duration, error) {
	repeats := t.settings.Repeats
	if repeats < 1 {
		repeats = 1
	}
	tctx := ctx
	cancel := context.CancelFunc(func() {})
	if t.settings.TrialTimeout > 0 {
		tctx, cancel = context.WithTimeout(ctx, t.settings.TrialTimeout)
	}
	defer cancel()

	type outcome struct {
		cost time.Duration
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		var min time.Duration
		for r := 0; r < repeats; r++ {
			cost, err := trial(tctx, params)
			if err != nil {
				ch <- outcome{err: err}
				return
			}
			if r == 0 || cost < min {
				min = cost
			}
		}
		ch <- outcome{cost: min}
	}()

	select {
	case <-tctx.Done():
		return 0, zerr.Wrap(tctx.Err(), "trial timed out")
	case out := <-ch:
		return out.cost, out.err
	}
}
