package wire_test

import (
	"testing"

	"github.com/qchess/engine/pkg/board"
	"github.com/qchess/engine/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	snap := board.NewEmptySnapshot()
	snap, a := snap.WithPiece(board.Rook, board.White, board.Distribution{board.A1: 0.5, board.A2: 0.5})
	snap, b := snap.WithPiece(board.Rook, board.Black, board.Distribution{board.H1: 0.5, board.H2: 0.5})
	joint := map[string]float64{
		board.JointKey(map[board.PieceID]board.Square{a: board.A1, b: board.H1}): 0.5,
		board.JointKey(map[board.PieceID]board.Square{a: board.A2, b: board.H2}): 0.5,
	}
	snap = snap.WithEntanglement(board.Entanglement{PieceIDs: []board.PieceID{a, b}, Joint: joint, Description: "test"})
	snap = snap.WithEnPassant(&board.EnPassantTarget{CaptureSquare: board.E3, PassedPawnSquare: board.E4, PassedPawnIdentity: a})
	snap = snap.WithHalfmoveClock(7)
	snap = snap.WithFullmoveNumber(12)
	snap = snap.WithActiveColor(board.Black)
	snap = snap.WithCastlingRight(board.WhiteKingSide)

	data, err := wire.MarshalSnapshot(snap)
	require.NoError(t, err)

	back, err := wire.UnmarshalSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, board.Black, back.ActiveColor())
	assert.Equal(t, 7, back.HalfmoveClock())
	assert.Equal(t, 12, back.FullmoveNumber())
	assert.False(t, back.Castling().IsAllowed(board.WhiteKingSide))
	assert.True(t, back.Castling().IsAllowed(board.WhiteQueenSide))

	ep, ok := back.EnPassant()
	require.True(t, ok)
	assert.Equal(t, board.E3, ep.CaptureSquare)
	assert.Equal(t, board.E4, ep.PassedPawnSquare)

	_, ok = back.PieceAt(board.A1)
	require.False(t, ok) // superposed, not certain

	rooks := back.PiecesByKind(board.White, board.Rook)
	require.Len(t, rooks, 1)
	p := rooks[0]
	assert.InDelta(t, 0.5, p.Dist.At(board.A1), 1e-9)
	assert.InDelta(t, 0.5, p.Dist.At(board.A2), 1e-9)

	ent, has := back.EntanglementOf(p.ID)
	require.True(t, has)
	assert.Len(t, ent.PieceIDs, 2)

	marg, err := board.Marginalize(ent.Joint, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, marg.At(board.A1), 1e-9)
	assert.InDelta(t, 0.5, marg.At(board.A2), 1e-9)
}

func TestMoveRoundTrip(t *testing.T) {
	cases := []board.Move{
		board.NormalMove{Piece: 1, From: board.E2, To: board.E4},
		board.CaptureMove{Piece: 1, From: board.E4, To: board.D5, CapturedPiece: 2},
		board.SplitMove{Piece: 1, From: board.C1, To1: board.B2, To2: board.D2, Probability: 0.3},
		board.MergeMove{Piece: 1, From1: board.B2, From2: board.D2, To: board.C1},
		board.CastlingMove{Piece: 1, From: board.E1, To: board.G1, Rook: 2, RookFrom: board.H1, RookTo: board.F1, Side: board.WhiteKingSide},
		board.EnPassantMove{Piece: 1, From: board.D5, To: board.E6, CapturedPawnSquare: board.E5, CapturedPiece: 3},
		board.PromotionMove{Piece: 1, From: board.E7, To: board.E8, PromoteTo: board.Queen, CapturedPiece: board.NoPieceID},
	}

	for _, mv := range cases {
		dto, err := wire.EncodeMove(mv)
		require.NoError(t, err)
		back, err := wire.DecodeMove(dto)
		require.NoError(t, err)
		assert.Equal(t, mv, back)
	}
}
