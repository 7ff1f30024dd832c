package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/DavidS48/opening-simulator/internal/book"
	"github.com/DavidS48/opening-simulator/internal/config"
	"github.com/DavidS48/opening-simulator/internal/db"
	"github.com/DavidS48/opening-simulator/internal/explorer"
)

// fetchbook crawls the opening-explorer databases and stores the resulting
// tables, so simulation runs never touch the network.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.FromEnv()
	runStore, err := config.NewRunStore(cfg.RunConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("run config")
	}
	settings := runStore.Get()

	crawlCfg := explorer.CrawlConfig{
		MaxDepth:  envInt("FETCHBOOK_MAX_DEPTH", 10),
		MaxBranch: envInt("FETCHBOOK_MAX_BRANCH", 4),
		MinGames:  int64(envInt("FETCHBOOK_MIN_GAMES", 100)),
		StartFEN:  settings.StartFEN,
	}

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, source := range []book.Source{book.SourceOnline, book.SourceMasters} {
		opts := []explorer.Option{
			explorer.WithBaseURL(cfg.ExplorerURL),
			explorer.WithSpeedRating(settings.Speed, settings.Rating),
		}
		client, err := explorer.New(source, opts...)
		if err != nil {
			log.Fatal().Err(err).Str("source", string(source)).Msg("explorer client")
		}

		log.Info().Str("source", string(source)).
			Int("max_depth", crawlCfg.MaxDepth).
			Int("max_branch", crawlCfg.MaxBranch).
			Int64("min_games", crawlCfg.MinGames).
			Msg("crawling")

		entries, err := client.Crawl(ctx, crawlCfg)
		if err != nil {
			log.Fatal().Err(err).Str("source", string(source)).Msg("crawl failed")
		}
		skipped, err := store.ReplaceOpenings(ctx, source, entries)
		if err != nil {
			log.Fatal().Err(err).Str("source", string(source)).Msg("store openings")
		}
		if skipped > 0 {
			log.Warn().Str("source", string(source)).Int("skipped", skipped).
				Msg("malformed rows skipped")
		}

		count, err := store.CountOpenings(ctx, source)
		if err != nil {
			log.Fatal().Err(err).Msg("count openings")
		}
		log.Info().Str("source", string(source)).Int("rows", count).Msg("book stored")
	}
}

func envInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatal().Str("var", key).Str("value", value).Msg("not an integer")
	}
	return n
}
