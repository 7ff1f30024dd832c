package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DavidS48/opening-simulator/internal/book"
)

func TestWeightedSelect(t *testing.T) {
	t.Run("no data on empty records", func(t *testing.T) {
		p := NewWeighted(1)
		_, ok := p.Select(nil)
		require.False(t, ok)
	})

	t.Run("no data when all weights are zero", func(t *testing.T) {
		p := NewWeighted(1)
		_, ok := p.Select([]book.MoveRecord{{Move: "e2e4", Weight: 0}})
		require.False(t, ok)
	})

	t.Run("single positive weight is always drawn", func(t *testing.T) {
		p := NewWeighted(1)
		for i := 0; i < 100; i++ {
			move, ok := p.Select([]book.MoveRecord{{Move: "e2e4", Weight: 7}})
			require.True(t, ok)
			require.Equal(t, "e2e4", move)
		}
	})

	t.Run("zero-weight records are never drawn", func(t *testing.T) {
		p := NewWeighted(42)
		records := []book.MoveRecord{
			{Move: "e2e4", Weight: 0},
			{Move: "d2d4", Weight: 3},
			{Move: "c2c4", Weight: 0},
		}
		for i := 0; i < 1000; i++ {
			move, ok := p.Select(records)
			require.True(t, ok)
			require.Equal(t, "d2d4", move)
		}
	})

	t.Run("draw frequencies converge to the recorded proportions", func(t *testing.T) {
		p := NewWeighted(1)
		records := []book.MoveRecord{
			{Move: "e2e4", Weight: 40},
			{Move: "d2d4", Weight: 35},
			{Move: "c2c4", Weight: 25},
		}

		const draws = 100000
		counts := make(map[string]int)
		for i := 0; i < draws; i++ {
			move, ok := p.Select(records)
			require.True(t, ok)
			counts[move]++
		}

		require.InDelta(t, 0.40, float64(counts["e2e4"])/draws, 0.01)
		require.InDelta(t, 0.35, float64(counts["d2d4"])/draws, 0.01)
		require.InDelta(t, 0.25, float64(counts["c2c4"])/draws, 0.01)
	})

	t.Run("identical seeds reproduce identical draws", func(t *testing.T) {
		records := []book.MoveRecord{
			{Move: "e2e4", Weight: 40},
			{Move: "d2d4", Weight: 35},
			{Move: "c2c4", Weight: 25},
		}
		a, b := NewWeighted(99), NewWeighted(99)
		for i := 0; i < 500; i++ {
			moveA, okA := a.Select(records)
			moveB, okB := b.Select(records)
			require.Equal(t, okA, okB)
			require.Equal(t, moveA, moveB)
		}
	})
}

func TestTopSelect(t *testing.T) {
	t.Run("no data on empty records", func(t *testing.T) {
		_, ok := NewTop().Select(nil)
		require.False(t, ok)
	})

	t.Run("selects the maximum weight", func(t *testing.T) {
		move, ok := NewTop().Select([]book.MoveRecord{
			{Move: "e2e4", Weight: 10},
			{Move: "d2d4", Weight: 30},
			{Move: "c2c4", Weight: 20},
		})
		require.True(t, ok)
		require.Equal(t, "d2d4", move)
	})

	t.Run("ties break to the earliest stored record", func(t *testing.T) {
		records := []book.MoveRecord{
			{Move: "e2e4", Weight: 10},
			{Move: "d2d4", Weight: 10},
		}
		for i := 0; i < 100; i++ {
			move, ok := NewTop().Select(records)
			require.True(t, ok)
			require.Equal(t, "e2e4", move)
		}
	})

	t.Run("all-zero weights still select the first record", func(t *testing.T) {
		move, ok := NewTop().Select([]book.MoveRecord{
			{Move: "g1f3", Weight: 0},
			{Move: "b1c3", Weight: 0},
		})
		require.True(t, ok)
		require.Equal(t, "g1f3", move)
	})
}

func TestFactories(t *testing.T) {
	t.Run("weighted trials are seeded base plus index", func(t *testing.T) {
		records := []book.MoveRecord{
			{Move: "e2e4", Weight: 1},
			{Move: "d2d4", Weight: 1},
			{Move: "c2c4", Weight: 1},
		}
		f := WeightedFactory{BaseSeed: 7}
		for trial := 0; trial < 20; trial++ {
			fromFactory, _ := f.ForTrial(trial).Select(records)
			direct, _ := NewWeighted(7 + int64(trial)).Select(records)
			require.Equal(t, direct, fromFactory)
		}
	})

	t.Run("kinds are reported", func(t *testing.T) {
		require.Equal(t, KindWeighted, WeightedFactory{}.Kind())
		require.Equal(t, KindTop, TopFactory{}.Kind())
	})
}
