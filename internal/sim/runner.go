package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/DavidS48/opening-simulator/internal/book"
	"github.com/DavidS48/opening-simulator/internal/policy"
)

// ErrNoResults is reported when an entire batch yields zero usable trials.
// It is never raised for batches of valid zero-depth results.
var ErrNoResults = errors.New("batch produced no usable trials")

// RunConfig describes one batch of independent fragment generations.
type RunConfig struct {
	ID          string
	NumTrials   int
	MaxDepth    int
	Concurrency int
	Seed        int64
	StartFEN    string
}

func (cfg RunConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("run config needs an id")
	}
	if cfg.NumTrials <= 0 {
		return fmt.Errorf("num_trials must be positive, got %d", cfg.NumTrials)
	}
	if cfg.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", cfg.MaxDepth)
	}
	return nil
}

// Runner executes batches of trials against one (table, policy) pairing. The
// table is shared read-only across all workers; every trial gets its own
// policy instance from the factory.
type Runner struct {
	table   *book.Table
	factory policy.Factory
}

func NewRunner(table *book.Table, factory policy.Factory) *Runner {
	return &Runner{table: table, factory: factory}
}

// Run generates cfg.NumTrials fragments across a bounded worker pool and
// reduces them to a Summary. A trial that fails is logged, counted as
// skipped and excluded from the statistics; it never aborts the batch.
// Cancelling the context stops the batch between trials, and the results
// merged so far are still summarized.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (Summary, error) {
	if err := cfg.validate(); err != nil {
		return Summary{}, err
	}
	workers := cfg.Concurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > cfg.NumTrials {
		workers = cfg.NumTrials
	}

	tasks := make(chan int, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		tasks <- trial
	}
	close(tasks)

	partials := make([]*accumulator, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		acc := newAccumulator()
		partials[w] = acc
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range tasks {
				select {
				case <-ctx.Done():
					return
				default:
				}

				pol := r.factory.ForTrial(trial)
				frag, err := GenerateFrom(r.table, pol, cfg.MaxDepth, cfg.StartFEN)
				if err != nil {
					log.Warn().Err(err).Str("config", cfg.ID).Int("trial", trial).
						Msg("trial skipped")
					acc.skip()
					continue
				}
				acc.add(TrialResult{Trial: trial, Depth: frag.Depth, Status: frag.Status})
			}
		}()
	}
	wg.Wait()

	merged := newAccumulator()
	for _, acc := range partials {
		merged.merge(acc)
	}

	summary := merged.summarize(cfg.ID)
	if summary.TrialCount == 0 {
		return summary, fmt.Errorf("config %s: %w", cfg.ID, ErrNoResults)
	}

	log.Info().Str("config", cfg.ID).
		Int("trials", summary.TrialCount).
		Int("skipped", summary.SkippedTrials).
		Float64("mean_depth", summary.MeanDepth).
		Msg("batch complete")
	return summary, nil
}

// Batch pairs a runner with its configuration, so differently sourced player
// models can be compared side by side in one call.
type Batch struct {
	Config RunConfig
	Runner *Runner
}

// RunAll executes each batch in turn and returns the summaries keyed by
// config ID. A batch that yields no usable trials contributes an error but
// does not stop the remaining batches.
func RunAll(ctx context.Context, batches []Batch) (map[string]Summary, error) {
	summaries := make(map[string]Summary, len(batches))
	var errs []error
	for _, b := range batches {
		summary, err := b.Runner.Run(ctx, b.Config)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		summaries[summary.ConfigID] = summary
	}
	return summaries, errors.Join(errs...)
}
