package board_test

import (
	"testing"

	"github.com/qchess/engine/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributionCertain(t *testing.T) {
	d := board.NewCertain(board.E4)
	assert.True(t, d.IsCertainAt(board.E4))
	assert.False(t, d.IsSuperposed())
	assert.InDelta(t, 1.0, d.Mass(), 1e-9)
}

func TestDistributionNormalize(t *testing.T) {
	d := board.Distribution{board.A1: 2, board.A2: 2}
	norm, err := d.Normalize()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, norm.At(board.A1), 1e-9)
	assert.InDelta(t, 0.5, norm.At(board.A2), 1e-9)

	_, err = board.Distribution{}.Normalize()
	assert.Error(t, err)
}

func TestDistributionSquaresDeterministic(t *testing.T) {
	d := board.Distribution{board.H8: 0.2, board.A1: 0.3, board.D4: 0.5}
	assert.Equal(t, []board.Square{board.A1, board.D4, board.H8}, d.Squares())
}

func TestSample(t *testing.T) {
	d := board.Distribution{board.A1: 0.25, board.B1: 0.75}

	assert.Equal(t, board.A1, board.Sample(d, board.FixedSource(0)))
	assert.Equal(t, board.B1, board.Sample(d, board.FixedSource(0.99)))
}

func TestRandSourceDeterministic(t *testing.T) {
	a := board.NewRandSource(42)
	b := board.NewRandSource(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.NextFloat(), b.NextFloat())
	}
}
