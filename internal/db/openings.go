package db

import (
	"context"

	"github.com/DavidS48/opening-simulator/internal/book"
)

// ReplaceOpenings swaps out every stored row for a source with freshly
// fetched entries, in one transaction so readers never see a half-built
// table. Positions are stored under their normalized key; rows that fail to
// normalize, carry no move or a negative weight are skipped and counted.
// Duplicate (position, move) rows are folded by summing weights.
func (s *Store) ReplaceOpenings(ctx context.Context, source book.Source, entries []book.Entry) (skipped int, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM openings WHERE source = ?`, source); err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO openings (source, position, move, weight)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source, position, move) DO UPDATE SET weight = weight + excluded.weight
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.Move == "" || e.Weight < 0 {
			skipped++
			continue
		}
		pos, perr := book.NormalizePosition(e.Position)
		if perr != nil {
			skipped++
			continue
		}
		if _, err = stmt.ExecContext(ctx, source, pos, e.Move, e.Weight); err != nil {
			return skipped, err
		}
	}

	if err = tx.Commit(); err != nil {
		return skipped, err
	}
	return skipped, nil
}

// LoadOpenings returns every stored row for a source in insertion order,
// ready to be handed to book.Build.
func (s *Store) LoadOpenings(ctx context.Context, source book.Source) ([]book.Entry, error) {
	var rows []OpeningRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, source, position, move, weight
		FROM openings
		WHERE source = ?
		ORDER BY id ASC
	`, source)
	if err != nil {
		return nil, err
	}

	entries := make([]book.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, book.Entry{
			Position: row.Position,
			Move:     row.Move,
			Weight:   row.Weight,
		})
	}
	return entries, nil
}

// OpeningsForPosition lists the stored continuations for one position key.
func (s *Store) OpeningsForPosition(ctx context.Context, source book.Source, position book.Position) ([]OpeningRow, error) {
	var rows []OpeningRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, source, position, move, weight
		FROM openings
		WHERE source = ? AND position = ?
		ORDER BY id ASC
	`, source, position)
	return rows, err
}

// CountOpenings reports stored rows per source.
func (s *Store) CountOpenings(ctx context.Context, source book.Source) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM openings
		WHERE source = ?
	`, source)
	return count, err
}
