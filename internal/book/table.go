package book

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// Source identifies which reference database a table was built from.
type Source string

const (
	SourceOnline  Source = "online"
	SourceMasters Source = "masters"
)

// Position is a normalized key for a board state: the first four FEN fields
// (placement, side to move, castling rights, en passant square). The move
// counters are dropped so that equal positions compare equal no matter how
// they were reached or formatted in the source data.
type Position string

var startingKey Position

func init() {
	key, err := NormalizePosition(chess.StartingPosition().String())
	if err != nil {
		panic(err)
	}
	startingKey = key
}

// StartingPosition returns the key for the standard initial position.
func StartingPosition() Position {
	return startingKey
}

// NormalizePosition reduces a FEN to a Position key. An empty string is
// shorthand for the standard starting position.
func NormalizePosition(fen string) (Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return startingKey, nil
	}
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return "", fmt.Errorf("invalid FEN %q", fen)
	}
	key := strings.Join(parts[:4], " ")
	if _, err := chess.FEN(key + " 0 1"); err != nil {
		return "", fmt.Errorf("invalid FEN %q: %w", fen, err)
	}
	return Position(key), nil
}

// FullFEN expands the key back into a six-field FEN with zeroed counters.
func (p Position) FullFEN() string {
	return string(p) + " 0 1"
}

// Entry is one normalized input row as produced by an ingestion collaborator.
type Entry struct {
	Position string
	Move     string
	Weight   int64
}

// MoveRecord is one recorded continuation from a position.
type MoveRecord struct {
	Move   string
	Weight int64
}

// BuildReport counts what happened to the input rows during construction.
type BuildReport struct {
	Rows    int // rows accepted
	Merged  int // rows folded into an existing (position, move) pair
	Skipped int // malformed rows dropped
}

// Table maps positions to their recorded continuations for one source
// database. It is built once and read-only afterwards, so a single table may
// be shared across any number of concurrent readers.
type Table struct {
	source Source
	moves  map[Position][]MoveRecord
}

// Build constructs a table from normalized rows. Duplicate (position, move)
// pairs have their weights summed. Rows with a negative weight, an empty move
// or an unparsable position are skipped and counted, never fatal: one bad row
// must not cost us the whole table.
func Build(source Source, entries []Entry) (*Table, BuildReport) {
	t := &Table{
		source: source,
		moves:  make(map[Position][]MoveRecord),
	}
	index := make(map[Position]map[string]int)
	var report BuildReport

	for _, e := range entries {
		if e.Move == "" || e.Weight < 0 {
			report.Skipped++
			continue
		}
		pos, err := NormalizePosition(e.Position)
		if err != nil {
			report.Skipped++
			continue
		}

		byMove, ok := index[pos]
		if !ok {
			byMove = make(map[string]int)
			index[pos] = byMove
		}
		if i, ok := byMove[e.Move]; ok {
			t.moves[pos][i].Weight += e.Weight
			report.Merged++
			continue
		}
		byMove[e.Move] = len(t.moves[pos])
		t.moves[pos] = append(t.moves[pos], MoveRecord{Move: e.Move, Weight: e.Weight})
		report.Rows++
	}

	return t, report
}

// Source reports which database the table was built from.
func (t *Table) Source() Source {
	return t.source
}

// Lookup returns the recorded continuations for a position in stored order,
// or nil when the position is unknown. An unknown position is a normal
// outcome, not an error. Callers must not modify the returned slice.
func (t *Table) Lookup(pos Position) []MoveRecord {
	return t.moves[pos]
}

// Size is the number of distinct positions in the table.
func (t *Table) Size() int {
	return len(t.moves)
}
