package explorer

import (
	"context"
	"fmt"
	"strings"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"

	"github.com/DavidS48/opening-simulator/internal/book"
)

// CrawlConfig bounds a walk of the explorer database.
type CrawlConfig struct {
	MaxDepth  int    // plies from the start position
	MaxBranch int    // continuations kept per position
	MinGames  int64  // positions and moves below this game count are pruned
	StartFEN  string // empty means the standard start
}

func (cfg CrawlConfig) withDefaults() CrawlConfig {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 10
	}
	if cfg.MaxBranch <= 0 {
		cfg.MaxBranch = 4
	}
	if cfg.MinGames <= 0 {
		cfg.MinGames = 100
	}
	return cfg
}

// Crawl walks the database depth-first from the start position, keeping the
// most played continuations at each node, and returns the visited book as
// normalized table rows. A fetch failure below the root logs a warning and
// prunes that subtree; a failing root is an error.
func (c *Client) Crawl(ctx context.Context, cfg CrawlConfig) ([]book.Entry, error) {
	cfg = cfg.withDefaults()

	pos, err := crawlStart(cfg.StartFEN)
	if err != nil {
		return nil, fmt.Errorf("crawl start: %w", err)
	}

	cr := &crawler{
		client:  c,
		cfg:     cfg,
		visited: make(map[book.Position]bool),
	}
	if err := cr.walk(ctx, pos, 0); err != nil {
		return nil, err
	}

	log.Info().Str("source", string(c.source)).
		Int("positions", len(cr.visited)).
		Int("rows", len(cr.entries)).
		Msg("crawl complete")
	return cr.entries, nil
}

type crawler struct {
	client  *Client
	cfg     CrawlConfig
	visited map[book.Position]bool
	entries []book.Entry
}

func (cr *crawler) walk(ctx context.Context, pos *chess.Position, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth >= cr.cfg.MaxDepth {
		return nil
	}

	key, err := book.NormalizePosition(pos.String())
	if err != nil {
		return err
	}
	// transpositions reach the same position along several move orders
	if cr.visited[key] {
		return nil
	}
	cr.visited[key] = true

	resp, err := cr.client.Moves(ctx, key.FullFEN())
	if err != nil {
		if depth == 0 || ctx.Err() != nil {
			return err
		}
		log.Warn().Err(err).Str("position", string(key)).Msg("pruning subtree after fetch failure")
		return nil
	}
	if resp.TotalGames() < cr.cfg.MinGames {
		return nil
	}

	kept := make([]Move, 0, cr.cfg.MaxBranch)
	for _, m := range resp.Moves {
		if m.Weight() < cr.cfg.MinGames {
			continue
		}
		cr.entries = append(cr.entries, book.Entry{
			Position: string(key),
			Move:     m.UCI,
			Weight:   m.Weight(),
		})
		kept = append(kept, m)
		if len(kept) >= cr.cfg.MaxBranch {
			break
		}
	}

	notation := chess.UCINotation{}
	for _, m := range kept {
		mv, err := notation.Decode(pos, m.UCI)
		if err != nil {
			log.Warn().Err(err).Str("move", m.UCI).Str("position", string(key)).
				Msg("skipping undecodable explorer move")
			continue
		}
		if err := cr.walk(ctx, pos.Update(mv), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func crawlStart(fen string) (*chess.Position, error) {
	if strings.TrimSpace(fen) == "" {
		return chess.StartingPosition(), nil
	}
	key, err := book.NormalizePosition(fen)
	if err != nil {
		return nil, err
	}
	opt, err := chess.FEN(key.FullFEN())
	if err != nil {
		return nil, err
	}
	return chess.NewGame(opt).Position(), nil
}
