package game

import "github.com/qchess/engine/pkg/board"

// backRank is the standard piece order, file a through h.
var backRank = []board.Piece{
	board.Rook, board.Knight, board.Bishop, board.Queen,
	board.King, board.Bishop, board.Knight, board.Rook,
}

// StandardStartingPosition returns the classical chess starting position: no
// piece is in superposition, no entanglements, full castling rights, White to
// move (spec §4.1).
func StandardStartingPosition() *board.Snapshot {
	snap := board.NewEmptySnapshot()

	for file := board.FileA; file <= board.FileH; file++ {
		snap, _ = snap.WithPiece(backRank[file], board.White, board.NewCertain(board.NewSquare(file, board.Rank1)))
		snap, _ = snap.WithPiece(board.Pawn, board.White, board.NewCertain(board.NewSquare(file, board.Rank2)))
		snap, _ = snap.WithPiece(board.Pawn, board.Black, board.NewCertain(board.NewSquare(file, board.Rank7)))
		snap, _ = snap.WithPiece(backRank[file], board.Black, board.NewCertain(board.NewSquare(file, board.Rank8)))
	}

	return snap
}
