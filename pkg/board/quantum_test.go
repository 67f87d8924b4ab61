package board_test

import (
	"testing"

	"github.com/qchess/engine/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAndMerge(t *testing.T) {
	d := board.NewCertain(board.E2)

	split, err := board.Split(d, board.E2, board.E3, board.E4, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, split.At(board.E3), 1e-9)
	assert.InDelta(t, 0.5, split.At(board.E4), 1e-9)
	assert.InDelta(t, 0, split.At(board.E2), 1e-9)

	merged, err := board.Merge(split, board.E3, board.E4, board.E2)
	require.NoError(t, err)
	assert.InDelta(t, 1, merged.At(board.E2), 1e-9)
}

func TestSplitRejectsBadPreconditions(t *testing.T) {
	d := board.NewCertain(board.E2)

	_, err := board.Split(d, board.E3, board.E4, board.E5, 0.5)
	assert.Error(t, err, "source not certain")

	_, err = board.Split(d, board.E2, board.E3, board.E3, 0.5)
	assert.Error(t, err, "duplicate targets")

	occupied := board.Distribution{board.E2: 1, board.E3: 0} // not passed to Split; no occupied-target case is checked here
	_ = occupied
	full := board.Distribution{board.E2: 0.5, board.E3: 0.5}
	_, err = board.Split(full, board.E2, board.E4, board.E5, 0.5)
	assert.Error(t, err, "source not certain (superposed)")
}

func TestMeasureOutcomes(t *testing.T) {
	certain := board.NewCertain(board.A1)
	dist, res := board.Measure(certain, board.A1, board.FixedSource(0.5))
	assert.True(t, res.Outcome)
	assert.True(t, dist.IsCertainAt(board.A1))

	absent := board.Distribution{board.A1: 1}
	dist, res = board.Measure(absent, board.B1, board.FixedSource(0.5))
	assert.False(t, res.Outcome)
	assert.Equal(t, absent, dist)

	super := board.Distribution{board.A1: 0.5, board.B1: 0.5}
	dist, res = board.Measure(super, board.A1, board.FixedSource(0))
	assert.True(t, res.Outcome)
	assert.True(t, dist.IsCertainAt(board.A1))

	dist, res = board.Measure(super, board.A1, board.FixedSource(0.99))
	assert.False(t, res.Outcome)
	assert.True(t, dist.IsCertainAt(board.B1))
}

func TestJointKeyRoundTrip(t *testing.T) {
	assign := map[board.PieceID]board.Square{3: board.A1, 1: board.H8, 2: board.D4}
	key := board.JointKey(assign)

	back, err := board.ParseJointKey(key)
	require.NoError(t, err)
	assert.Equal(t, assign, back)
}

func TestMarginalize(t *testing.T) {
	joint := map[string]float64{
		board.JointKey(map[board.PieceID]board.Square{1: board.A1, 2: board.B1}): 0.5,
		board.JointKey(map[board.PieceID]board.Square{1: board.A2, 2: board.B1}): 0.5,
	}

	marg, err := board.Marginalize(joint, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, marg.At(board.A1), 1e-9)
	assert.InDelta(t, 0.5, marg.At(board.A2), 1e-9)

	marg, err = board.Marginalize(joint, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1, marg.At(board.B1), 1e-9)
}

func TestBuildMoveEntanglementBlockedAndClear(t *testing.T) {
	blocker := board.BlockerBranch{ID: 2, Dist: board.Distribution{board.E4: 0.5, board.F4: 0.5}, BlockSquare: board.E4}

	ent, err := board.BuildMoveEntanglement(1, board.E2, board.E5, []board.BlockerBranch{blocker}, "test")
	require.NoError(t, err)

	moverMarg, err := board.Marginalize(ent.Joint, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, moverMarg.At(board.E2), 1e-9) // blocked half: stays home
	assert.InDelta(t, 0.5, moverMarg.At(board.E5), 1e-9) // clear half: reaches target
}

func TestCascadeCollapsePropagates(t *testing.T) {
	snap := board.NewEmptySnapshot()
	snap, idA := snap.WithPiece(board.Rook, board.White, board.Distribution{board.A1: 0.5, board.A2: 0.5})
	snap, idB := snap.WithPiece(board.Rook, board.Black, board.Distribution{board.H1: 0.5, board.H2: 0.5})

	joint := map[string]float64{
		board.JointKey(map[board.PieceID]board.Square{idA: board.A1, idB: board.H1}): 0.5,
		board.JointKey(map[board.PieceID]board.Square{idA: board.A2, idB: board.H2}): 0.5,
	}
	snap = snap.WithEntanglement(board.Entanglement{PieceIDs: []board.PieceID{idA, idB}, Joint: joint})

	snap, err := snap.WithDistribution(idA, board.NewCertain(board.A1))
	require.NoError(t, err)

	snap, err = board.CascadeCollapse(snap, idA)
	require.NoError(t, err)

	pb, ok := snap.Piece(idB)
	require.True(t, ok)
	assert.True(t, pb.Dist.IsCertainAt(board.H1), "B's branch must collapse to match A's correlated outcome")

	_, hasEnt := snap.EntanglementOf(idA)
	assert.False(t, hasEnt, "a fully collapsed entanglement is removed")
}
