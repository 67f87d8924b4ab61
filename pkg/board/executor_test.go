package board_test

import (
	"testing"

	"github.com/qchess/engine/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteNormalMove(t *testing.T) {
	snap := board.NewEmptySnapshot()
	snap, id := snap.WithPiece(board.Knight, board.White, board.NewCertain(board.B1))

	next, out, err := board.Execute(snap, board.NormalMove{Piece: id, From: board.B1, To: board.C3}, board.FixedSource(0))
	require.NoError(t, err)
	assert.False(t, out.TurnLost)
	assert.False(t, out.Entangled)

	p, ok := next.Piece(id)
	require.True(t, ok)
	assert.True(t, p.Dist.IsCertainAt(board.C3))
	assert.Equal(t, board.Black, next.ActiveColor())
}

func TestExecuteForcedMeasurementTurnLost(t *testing.T) {
	snap := board.NewEmptySnapshot()
	snap, id := snap.WithPiece(board.Rook, board.White, board.Distribution{board.A1: 0.5, board.A8: 0.5})

	// FixedSource(0.99) samples against {A1:0.5, A8:0.5} and lands past the
	// first cumulative bucket, i.e. on A8, not the claimed source A1.
	next, out, err := board.Execute(snap, board.NormalMove{Piece: id, From: board.A1, To: board.A4}, board.FixedSource(0.99))
	require.NoError(t, err)
	assert.True(t, out.TurnLost)
	assert.Len(t, out.Measurements, 1)

	p, ok := next.Piece(id)
	require.True(t, ok)
	assert.True(t, p.Dist.IsCertainAt(board.A8), "piece should have collapsed to A8, not moved")
	assert.Equal(t, board.Black, next.ActiveColor(), "turn is still consumed on a failed forced measurement")
}

func TestExecuteCaptureResolvesSuperposedDefender(t *testing.T) {
	snap := board.NewEmptySnapshot()
	snap, attacker := snap.WithPiece(board.Rook, board.White, board.NewCertain(board.A1))
	snap, defender := snap.WithPiece(board.Rook, board.Black, board.Distribution{board.A4: 0.5, board.H4: 0.5})

	next, out, err := board.Execute(snap, board.CaptureMove{Piece: attacker, From: board.A1, To: board.A4, CapturedPiece: defender}, board.FixedSource(0))
	require.NoError(t, err)
	assert.False(t, out.TurnLost)

	p, ok := next.Piece(attacker)
	require.True(t, ok)
	assert.True(t, p.Dist.IsCertainAt(board.A4))
	assert.Equal(t, defender, out.CapturedPiece)
	if _, stillThere := next.Piece(defender); stillThere {
		t.Fatalf("defender should have been removed on a resolved capture")
	}
}

func TestExecuteMoveThroughSuperposedBlockerEntangles(t *testing.T) {
	snap := board.NewEmptySnapshot()
	snap, mover := snap.WithPiece(board.Rook, board.White, board.NewCertain(board.A1))
	snap, _ = snap.WithPiece(board.Rook, board.Black, board.Distribution{board.A3: 0.5, board.H3: 0.5})

	next, out, err := board.Execute(snap, board.CaptureMove{Piece: mover, From: board.A1, To: board.A5}, board.FixedSource(0))
	require.NoError(t, err)
	assert.True(t, out.Entangled)

	p, ok := next.Piece(mover)
	require.True(t, ok)
	assert.True(t, p.Dist.IsSuperposed())
	assert.InDelta(t, 0.5, p.Dist.At(board.A1), 1e-9)
	assert.InDelta(t, 0.5, p.Dist.At(board.A5), 1e-9)
}

func TestExecutePawnForwardCannotCapture(t *testing.T) {
	snap := board.NewEmptySnapshot()
	snap, mover := snap.WithPiece(board.Pawn, board.White, board.NewCertain(board.E2))
	snap, _ = snap.WithPiece(board.Pawn, board.Black, board.Distribution{board.E3: 0.5, board.H3: 0.5})

	next, out, err := board.Execute(snap, board.NormalMove{Piece: mover, From: board.E2, To: board.E3}, board.FixedSource(0))
	require.NoError(t, err)
	assert.True(t, out.Entangled, "a pawn's forward path through a superposed piece entangles rather than captures")
	assert.Equal(t, board.NoPieceID, out.CapturedPiece)

	p, ok := next.Piece(mover)
	require.True(t, ok)
	assert.InDelta(t, 0.5, p.Dist.At(board.E2), 1e-9, "blocked branch: pawn stays put")
	assert.InDelta(t, 0.5, p.Dist.At(board.E3), 1e-9, "clear branch: pawn advances")
}

func TestExecuteCastling(t *testing.T) {
	snap := board.NewEmptySnapshot()
	snap, king := snap.WithPiece(board.King, board.White, board.NewCertain(board.E1))
	snap, rook := snap.WithPiece(board.Rook, board.White, board.NewCertain(board.H1))

	mv := board.CastlingMove{Piece: king, From: board.E1, To: board.G1, Rook: rook, RookFrom: board.H1, RookTo: board.F1, Side: board.WhiteKingSide}
	next, _, err := board.Execute(snap, mv, board.FixedSource(0))
	require.NoError(t, err)

	k, ok := next.Piece(king)
	require.True(t, ok)
	assert.True(t, k.Dist.IsCertainAt(board.G1))
	r, ok := next.Piece(rook)
	require.True(t, ok)
	assert.True(t, r.Dist.IsCertainAt(board.F1))
	assert.False(t, next.Castling().IsAllowed(board.WhiteKingSide))
	assert.False(t, next.Castling().IsAllowed(board.WhiteQueenSide))
}

func TestExecuteSplitThroughCertainBlockerCollapsesToClearBranch(t *testing.T) {
	snap := board.NewEmptySnapshot()
	snap, mover := snap.WithPiece(board.Rook, board.White, board.NewCertain(board.A1))
	snap, blocker := snap.WithPiece(board.Pawn, board.White, board.NewCertain(board.A2))

	// A1->A3 is blocked with certainty by the A2 pawn; A1->H1 is clear. A
	// split attempted toward both still executes: the blocked branch
	// contributes no weight and the mover collapses fully onto the clear one.
	mv := board.SplitMove{Piece: mover, From: board.A1, To1: board.A3, To2: board.H1, Probability: 0.5}
	next, out, err := board.Execute(snap, mv, board.FixedSource(0))
	require.NoError(t, err)
	assert.True(t, out.Entangled)

	p, ok := next.Piece(mover)
	require.True(t, ok)
	assert.True(t, p.Dist.IsCertainAt(board.H1), "the blocked branch collapses away, leaving the mover fully at the clear target")

	bp, ok := next.Piece(blocker)
	require.True(t, ok)
	assert.True(t, bp.Dist.IsCertainAt(board.A2), "the blocker itself is untouched by the collapse")
}

func TestExecuteSplitAndMerge(t *testing.T) {
	snap := board.NewEmptySnapshot()
	snap, id := snap.WithPiece(board.Bishop, board.White, board.NewCertain(board.C1))

	next, out, err := board.Execute(snap, board.SplitMove{Piece: id, From: board.C1, To1: board.B2, To2: board.D2, Probability: 0.5}, board.FixedSource(0))
	require.NoError(t, err)
	assert.False(t, out.Entangled)
	p, ok := next.Piece(id)
	require.True(t, ok)
	assert.InDelta(t, 0.5, p.Dist.At(board.B2), 1e-9)
	assert.InDelta(t, 0.5, p.Dist.At(board.D2), 1e-9)

	merged, out, err := board.Execute(next, board.MergeMove{Piece: id, From1: board.B2, From2: board.D2, To: board.C1}, board.FixedSource(0))
	require.NoError(t, err)
	assert.False(t, out.Entangled)
	p, ok = merged.Piece(id)
	require.True(t, ok)
	assert.True(t, p.Dist.IsCertainAt(board.C1))
}
