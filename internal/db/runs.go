package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DavidS48/opening-simulator/internal/sim"
)

// InsertRun stores a completed batch alongside the configuration that
// produced it, returning the newly assigned row ID.
func (s *Store) InsertRun(ctx context.Context, cfg sim.RunConfig, summary sim.Summary) (int64, error) {
	histogram, err := json.Marshal(summary.DepthHistogram)
	if err != nil {
		return 0, fmt.Errorf("marshal histogram: %w", err)
	}
	statuses, err := json.Marshal(summary.StatusCounts)
	if err != nil {
		return 0, fmt.Errorf("marshal status counts: %w", err)
	}

	row := RunRow{
		ConfigID:       summary.ConfigID,
		NumTrials:      cfg.NumTrials,
		MaxDepth:       cfg.MaxDepth,
		Concurrency:    cfg.Concurrency,
		RandomSeed:     cfg.Seed,
		StartFEN:       cfg.StartFEN,
		TrialCount:     summary.TrialCount,
		SkippedTrials:  summary.SkippedTrials,
		MeanDepth:      summary.MeanDepth,
		DepthHistogram: string(histogram),
		StatusCounts:   string(statuses),
	}

	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO runs (config_id, num_trials, max_depth, concurrency, random_seed, start_fen,
			trial_count, skipped_trials, mean_depth, depth_histogram, status_counts)
		VALUES (:config_id, :num_trials, :max_depth, :concurrency, :random_seed, :start_fen,
			:trial_count, :skipped_trials, :mean_depth, :depth_histogram, :status_counts)
	`, row)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRow, error) {
	var out []RunRow
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, created_at, config_id, num_trials, max_depth, concurrency, random_seed, start_fen,
			trial_count, skipped_trials, mean_depth, depth_histogram, status_counts
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	return out, err
}

// RunByID finds a single stored run.
func (s *Store) RunByID(ctx context.Context, id int64) (RunRow, error) {
	var row RunRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, created_at, config_id, num_trials, max_depth, concurrency, random_seed, start_fen,
			trial_count, skipped_trials, mean_depth, depth_histogram, status_counts
		FROM runs
		WHERE id = ?
	`, id)
	return row, err
}

// Summary rebuilds the aggregated statistics stored in a run row.
func (r RunRow) Summary() (sim.Summary, error) {
	summary := sim.Summary{
		ConfigID:      r.ConfigID,
		TrialCount:    r.TrialCount,
		SkippedTrials: r.SkippedTrials,
		MeanDepth:     r.MeanDepth,
	}
	if err := json.Unmarshal([]byte(r.DepthHistogram), &summary.DepthHistogram); err != nil {
		return sim.Summary{}, fmt.Errorf("parse histogram: %w", err)
	}
	if err := json.Unmarshal([]byte(r.StatusCounts), &summary.StatusCounts); err != nil {
		return sim.Summary{}, fmt.Errorf("parse status counts: %w", err)
	}
	return summary, nil
}
