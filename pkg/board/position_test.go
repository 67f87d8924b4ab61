package board_test

import (
	"testing"

	"github.com/qchess/engine/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutatorsDoNotAliasThePriorSnapshot(t *testing.T) {
	before := board.NewEmptySnapshot()
	before, id := before.WithPiece(board.Pawn, board.White, board.NewCertain(board.E2))

	after, err := before.WithDistribution(id, board.NewCertain(board.E4))
	require.NoError(t, err)

	beforePiece, ok := before.Piece(id)
	require.True(t, ok)
	assert.True(t, beforePiece.Dist.IsCertainAt(board.E2), "prior snapshot must be unaffected by a later mutation")

	afterPiece, ok := after.Piece(id)
	require.True(t, ok)
	assert.True(t, afterPiece.Dist.IsCertainAt(board.E4))
}

func TestOccupancyAndCertainlyEmpty(t *testing.T) {
	snap := board.NewEmptySnapshot()
	assert.True(t, snap.IsCertainlyEmpty(board.D4))

	snap, _ = snap.WithPiece(board.Knight, board.White, board.Distribution{board.D4: 0.3, board.E4: 0.7})
	assert.InDelta(t, 0.3, snap.Occupancy(board.D4), 1e-9)
	assert.False(t, snap.IsCertainlyEmpty(board.D4))

	_, ok := snap.PieceAt(board.D4)
	assert.False(t, ok, "partial occupancy does not count as certain")
}

func TestWithoutPieceRemovesFromEntanglement(t *testing.T) {
	snap := board.NewEmptySnapshot()
	snap, a := snap.WithPiece(board.Rook, board.White, board.Distribution{board.A1: 0.5, board.A2: 0.5})
	snap, b := snap.WithPiece(board.Rook, board.Black, board.Distribution{board.H1: 0.5, board.H2: 0.5})
	joint := map[string]float64{
		board.JointKey(map[board.PieceID]board.Square{a: board.A1, b: board.H1}): 0.5,
		board.JointKey(map[board.PieceID]board.Square{a: board.A2, b: board.H2}): 0.5,
	}
	snap = snap.WithEntanglement(board.Entanglement{PieceIDs: []board.PieceID{a, b}, Joint: joint})

	snap = snap.WithoutPiece(a)
	_, ok := snap.Piece(a)
	assert.False(t, ok)

	_, has := snap.EntanglementOf(b)
	assert.False(t, has, "removing one member drops the shared entanglement from the survivor too")
}

func TestCastlingRightMutation(t *testing.T) {
	snap := board.NewEmptySnapshot()
	assert.True(t, snap.Castling().IsAllowed(board.FullCastlingRights))

	snap = snap.WithCastlingRight(board.WhiteKingSide)
	assert.False(t, snap.Castling().IsAllowed(board.WhiteKingSide))
	assert.True(t, snap.Castling().IsAllowed(board.WhiteQueenSide))
}

func TestTurnSwitchAdvancesFullmoveOnBlackToWhite(t *testing.T) {
	snap := board.NewEmptySnapshot()
	assert.Equal(t, board.White, snap.ActiveColor())
	assert.Equal(t, 1, snap.FullmoveNumber())

	snap = snap.WithTurnSwitched()
	assert.Equal(t, board.Black, snap.ActiveColor())
	assert.Equal(t, 1, snap.FullmoveNumber())

	snap = snap.WithTurnSwitched()
	assert.Equal(t, board.White, snap.ActiveColor())
	assert.Equal(t, 2, snap.FullmoveNumber())
}
