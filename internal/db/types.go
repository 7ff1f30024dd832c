package db

type OpeningRow struct {
	ID       int64  `db:"id"`
	Source   string `db:"source"`
	Position string `db:"position"`
	Move     string `db:"move"`
	Weight   int64  `db:"weight"`
}

type RunRow struct {
	ID             int64   `db:"id"`
	CreatedAt      string  `db:"created_at"`
	ConfigID       string  `db:"config_id"`
	NumTrials      int     `db:"num_trials"`
	MaxDepth       int     `db:"max_depth"`
	Concurrency    int     `db:"concurrency"`
	RandomSeed     int64   `db:"random_seed"`
	StartFEN       string  `db:"start_fen"`
	TrialCount     int     `db:"trial_count"`
	SkippedTrials  int     `db:"skipped_trials"`
	MeanDepth      float64 `db:"mean_depth"`
	DepthHistogram string  `db:"depth_histogram"`
	StatusCounts   string  `db:"status_counts"`
}
