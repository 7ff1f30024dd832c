package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/DavidS48/opening-simulator/internal/book"
	"github.com/DavidS48/opening-simulator/internal/config"
	"github.com/DavidS48/opening-simulator/internal/db"
	"github.com/DavidS48/opening-simulator/internal/policy"
	"github.com/DavidS48/opening-simulator/internal/sim"
)

// openingsim replays the configured batches against the stored opening
// tables and reports how deep each player model stays in book.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.FromEnv()
	runStore, err := config.NewRunStore(cfg.RunConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("run config")
	}
	settings := runStore.Get()

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batches, err := buildBatches(ctx, store, settings)
	if err != nil {
		log.Fatal().Err(err).Msg("setup failed")
	}

	summaries, err := sim.RunAll(ctx, batches)
	if err != nil {
		log.Error().Err(err).Msg("batch errors")
	}
	if len(summaries) == 0 {
		os.Exit(1)
	}

	for _, b := range batches {
		summary, ok := summaries[b.Config.ID]
		if !ok {
			continue
		}
		if _, err := store.InsertRun(ctx, b.Config, summary); err != nil {
			log.Error().Err(err).Str("config", b.Config.ID).Msg("store run")
		}
	}

	out, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("encode summaries")
	}
	fmt.Println(string(out))
}

func buildBatches(ctx context.Context, store *db.Store, settings config.RunSettings) ([]sim.Batch, error) {
	var batches []sim.Batch
	for _, name := range settings.Policies {
		var source book.Source
		var factory policy.Factory
		switch policy.Kind(name) {
		case policy.KindWeighted:
			source = book.SourceOnline
			factory = policy.WeightedFactory{BaseSeed: settings.RandomSeed}
		case policy.KindTop:
			source = book.SourceMasters
			factory = policy.TopFactory{}
		default:
			return nil, fmt.Errorf("unknown policy %q", name)
		}

		entries, err := store.LoadOpenings(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("load %s openings: %w", source, err)
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("no %s openings stored; run fetchbook first", source)
		}

		table, report := book.Build(source, entries)
		if report.Skipped > 0 {
			log.Warn().Str("source", string(source)).Int("skipped", report.Skipped).
				Msg("malformed opening rows skipped")
		}
		log.Info().Str("source", string(source)).
			Int("positions", table.Size()).
			Int("rows", report.Rows).
			Msg("table loaded")

		batches = append(batches, sim.Batch{
			Config: sim.RunConfig{
				ID:          fmt.Sprintf("%s-%s", name, source),
				NumTrials:   settings.NumTrials,
				MaxDepth:    settings.MaxDepth,
				Concurrency: settings.Concurrency,
				Seed:        settings.RandomSeed,
				StartFEN:    settings.StartFEN,
			},
			Runner: sim.NewRunner(table, factory),
		})
	}
	return batches, nil
}
