package policy

import (
	"math/rand"

	"github.com/DavidS48/opening-simulator/internal/book"
)

// Kind names a move-selection strategy.
type Kind string

const (
	KindWeighted Kind = "weighted"
	KindTop      Kind = "top"
)

// Policy selects one move from the recorded continuations of a position.
// The boolean is false when the records carry no selectable data.
type Policy interface {
	Select(records []book.MoveRecord) (string, bool)
}

// Weighted draws moves proportionally to their recorded weight, modelling a
// player who follows the crowd: P(move) = weight / sum of weights. It owns
// its random source so a fixed seed reproduces the same draws.
type Weighted struct {
	rng *rand.Rand
}

func NewWeighted(seed int64) *Weighted {
	return &Weighted{rng: rand.New(rand.NewSource(seed))}
}

func (p *Weighted) Select(records []book.MoveRecord) (string, bool) {
	var total int64
	for _, r := range records {
		if r.Weight > 0 {
			total += r.Weight
		}
	}
	if total == 0 {
		// zero-weight records are valid data but never drawn
		return "", false
	}

	draw := p.rng.Int63n(total)
	for _, r := range records {
		if r.Weight <= 0 {
			continue
		}
		draw -= r.Weight
		if draw < 0 {
			return r.Move, true
		}
	}
	return "", false
}

// Top deterministically selects the record with the maximum weight, modelling
// a player who always follows mainline theory. Ties go to the record stored
// earliest, so repeated calls always agree.
type Top struct{}

func NewTop() Top {
	return Top{}
}

func (Top) Select(records []book.MoveRecord) (string, bool) {
	if len(records) == 0 {
		return "", false
	}
	best := 0
	for i := 1; i < len(records); i++ {
		if records[i].Weight > records[best].Weight {
			best = i
		}
	}
	return records[best].Move, true
}

// Factory builds a fresh policy per trial so parallel trials never share
// random state. Weighted trials are seeded base+trial, which keeps batch
// results independent of scheduling order.
type Factory interface {
	Kind() Kind
	ForTrial(trial int) Policy
}

type WeightedFactory struct {
	BaseSeed int64
}

func (f WeightedFactory) Kind() Kind {
	return KindWeighted
}

func (f WeightedFactory) ForTrial(trial int) Policy {
	return NewWeighted(f.BaseSeed + int64(trial))
}

type TopFactory struct{}

func (TopFactory) Kind() Kind {
	return KindTop
}

func (TopFactory) ForTrial(int) Policy {
	return NewTop()
}
