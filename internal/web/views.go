package web

import (
	"github.com/DavidS48/opening-simulator/internal/db"
	"github.com/DavidS48/opening-simulator/internal/sim"
)

type runView struct {
	ID          int64       `json:"id"`
	CreatedAt   string      `json:"created_at"`
	NumTrials   int         `json:"num_trials"`
	MaxDepth    int         `json:"max_depth"`
	Concurrency int         `json:"concurrency"`
	RandomSeed  int64       `json:"random_seed"`
	StartFEN    string      `json:"start_fen,omitempty"`
	Summary     sim.Summary `json:"summary"`
}

func newRunView(row db.RunRow) (runView, error) {
	summary, err := row.Summary()
	if err != nil {
		return runView{}, err
	}
	return runView{
		ID:          row.ID,
		CreatedAt:   row.CreatedAt,
		NumTrials:   row.NumTrials,
		MaxDepth:    row.MaxDepth,
		Concurrency: row.Concurrency,
		RandomSeed:  row.RandomSeed,
		StartFEN:    row.StartFEN,
		Summary:     summary,
	}, nil
}

type openingsView struct {
	Source   string        `json:"source"`
	Position string        `json:"position"`
	Moves    []openingView `json:"moves"`
}

type openingView struct {
	Move   string `json:"move"`
	Weight int64  `json:"weight"`
}
