package board

import "fmt"

// Move is the exhaustive sum type spec §9 calls for: exactly one of the
// seven variants below. isMove is unexported so only this package can add
// variants, giving the executor's type switch compiler-checked exhaustiveness
// in spirit (a missing case falls to an explicit InvalidStateError rather
// than silently compiling away a new variant unnoticed).
//
// Grounded on pkg/board/move.go's Move/MoveType, but the teacher's single
// flat struct with a MoveType discriminator is replaced by one struct per
// variant, each carrying only the fields its kind needs (spec §9).
type Move interface {
	isMove()
	fmt.Stringer
}

// NormalMove moves a piece from one square to another with nothing captured.
type NormalMove struct {
	Piece    PieceID
	From, To Square
}

func (NormalMove) isMove() {}
func (m NormalMove) String() string {
	return fmt.Sprintf("normal %v %v-%v", m.Piece, m.From, m.To)
}

// CaptureMove moves a piece onto a square occupied by an opposing piece.
type CaptureMove struct {
	Piece           PieceID
	From, To        Square
	CapturedPiece   PieceID
}

func (CaptureMove) isMove() {}
func (m CaptureMove) String() string {
	return fmt.Sprintf("capture %v %vx%v (takes %v)", m.Piece, m.From, m.To, m.CapturedPiece)
}

// SplitMove puts a certain piece into superposition across two empty targets.
type SplitMove struct {
	Piece        PieceID
	From         Square
	To1, To2     Square
	Probability  float64 // mass assigned to To1; defaults to 0.5 if zero
}

func (SplitMove) isMove() {}
func (m SplitMove) String() string {
	return fmt.Sprintf("split %v %v->{%v,%v}@%.2f", m.Piece, m.From, m.To1, m.To2, m.Probability)
}

// MergeMove collapses two branches of one superposed piece into one square.
type MergeMove struct {
	Piece          PieceID
	From1, From2   Square
	To             Square
}

func (MergeMove) isMove() {}
func (m MergeMove) String() string {
	return fmt.Sprintf("merge %v {%v,%v}->%v", m.Piece, m.From1, m.From2, m.To)
}

// CastlingMove moves a king and rook together and revokes both of the
// color's castling rights.
type CastlingMove struct {
	Piece            PieceID
	From, To         Square
	Rook             PieceID
	RookFrom, RookTo Square
	Side             Castling // WhiteKingSide, WhiteQueenSide, etc.
}

func (CastlingMove) isMove() {}
func (m CastlingMove) String() string {
	return fmt.Sprintf("castle %v %v-%v (rook %v %v-%v)", m.Piece, m.From, m.To, m.Rook, m.RookFrom, m.RookTo)
}

// EnPassantMove captures a pawn that just made a double-step, landing one
// square behind it.
type EnPassantMove struct {
	Piece              PieceID
	From, To           Square
	CapturedPawnSquare Square
	CapturedPiece      PieceID
}

func (EnPassantMove) isMove() {}
func (m EnPassantMove) String() string {
	return fmt.Sprintf("enpassant %v %v-%v (takes %v@%v)", m.Piece, m.From, m.To, m.CapturedPiece, m.CapturedPawnSquare)
}

// PromotionMove is a pawn normal/capture move landing on the promotion rank.
type PromotionMove struct {
	Piece         PieceID
	From, To      Square
	PromoteTo     Piece
	CapturedPiece PieceID // NoPieceID if not a capture
}

func (PromotionMove) isMove() {}
func (m PromotionMove) String() string {
	if m.CapturedPiece == NoPieceID {
		return fmt.Sprintf("promotion %v %v-%v=%v", m.Piece, m.From, m.To, m.PromoteTo)
	}
	return fmt.Sprintf("promotion %v %vx%v=%v (takes %v)", m.Piece, m.From, m.To, m.PromoteTo, m.CapturedPiece)
}
