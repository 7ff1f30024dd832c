package sim

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/DavidS48/opening-simulator/internal/book"
	"github.com/DavidS48/opening-simulator/internal/policy"
)

// Status is the terminal state of one generated fragment.
type Status string

const (
	// StatusOutOfBook means the next position had no recorded continuation.
	StatusOutOfBook Status = "out_of_book"
	// StatusMaxDepth means the depth ceiling was hit with data still available.
	StatusMaxDepth Status = "max_depth_reached"
	// StatusNoDataAtStart is out-of-book at depth zero.
	StatusNoDataAtStart Status = "no_data_at_start"
)

// Fragment is one simulated opening sequence: the moves played before the
// line left the reference data, in UCI notation.
type Fragment struct {
	Moves  []string
	Depth  int
	Status Status
}

// Generate plays out one fragment from the standard starting position,
// selecting every move with the same policy against the same table.
func Generate(table *book.Table, pol policy.Policy, maxDepth int) (Fragment, error) {
	return GenerateFrom(table, pol, maxDepth, "")
}

// GenerateFrom plays out one fragment from the given FEN, an empty string
// meaning the standard start. The walk looks up the current position,
// terminates out-of-book if nothing is recorded, and otherwise lets the
// policy pick a continuation. The table is never modified.
func GenerateFrom(table *book.Table, pol policy.Policy, maxDepth int, fen string) (Fragment, error) {
	side := SidePlayer{Table: table, Policy: pol}
	return GenerateAlternating([2]SidePlayer{side, side}, maxDepth, fen)
}

// SidePlayer binds a policy to the table it consults.
type SidePlayer struct {
	Table  *book.Table
	Policy policy.Policy
}

// GenerateAlternating plays the two sides of one fragment with different
// player models: players[0] moves first from the start position, players[1]
// answers. The fragment ends when the player to move finds no data.
func GenerateAlternating(players [2]SidePlayer, maxDepth int, fen string) (Fragment, error) {
	pos, err := positionFromFEN(fen)
	if err != nil {
		return Fragment{}, fmt.Errorf("start position: %w", err)
	}

	notation := chess.UCINotation{}
	frag := Fragment{Moves: make([]string, 0, 16)}

	for {
		key, err := book.NormalizePosition(pos.String())
		if err != nil {
			return frag, fmt.Errorf("position key at depth %d: %w", frag.Depth, err)
		}

		player := players[frag.Depth%2]
		records := player.Table.Lookup(key)
		if len(records) == 0 {
			frag.Status = outOfBookStatus(frag.Depth)
			return frag, nil
		}

		if frag.Depth >= maxDepth {
			frag.Status = StatusMaxDepth
			return frag, nil
		}

		move, ok := player.Policy.Select(records)
		if !ok {
			// recorded but unselectable, e.g. every weight is zero
			frag.Status = outOfBookStatus(frag.Depth)
			return frag, nil
		}

		mv, err := notation.Decode(pos, move)
		if err != nil {
			return frag, fmt.Errorf("decode book move %q at depth %d: %w", move, frag.Depth, err)
		}
		if !legalMove(pos, mv) {
			return frag, fmt.Errorf("illegal book move %q at depth %d", move, frag.Depth)
		}

		frag.Moves = append(frag.Moves, move)
		frag.Depth++
		pos = pos.Update(mv)
	}
}

// Decode only validates UCI syntax, so a recorded move must also be checked
// against the moves actually playable from the position. Applying an illegal
// move would corrupt every position after it.
func legalMove(pos *chess.Position, mv *chess.Move) bool {
	for _, valid := range pos.ValidMoves() {
		if valid.S1() == mv.S1() && valid.S2() == mv.S2() && valid.Promo() == mv.Promo() {
			return true
		}
	}
	return false
}

func outOfBookStatus(depth int) Status {
	if depth == 0 {
		return StatusNoDataAtStart
	}
	return StatusOutOfBook
}

func positionFromFEN(fen string) (*chess.Position, error) {
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
