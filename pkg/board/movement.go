package board

// This file answers, for each piece kind, "what squares are geometrically
// reachable from here", ignoring occupancy entirely (spec §4.2). Occupancy
// (certainly-empty / holds-an-opponent) is layered on top by the move
// generator in movegen.go.

// Targets returns the squares reachable by a non-Pawn piece from sq, ignoring
// occupancy. For sliders this is every square on every ray to the board edge.
func Targets(kind Piece, sq Square) []Square {
	switch kind {
	case Knight:
		return KnightTargets(sq)
	case King:
		return KingTargets(sq)
	case Bishop, Rook, Queen:
		var ret []Square
		for _, ray := range SliderTargets(sq, kind) {
			ret = append(ret, ray...)
		}
		return ret
	default:
		return nil
	}
}

// PawnAdvanceTargets returns the pawn's forward (non-capturing) targets,
// ignoring occupancy: one square always, plus the two-square jump iff sq is
// on the color's starting rank.
func PawnAdvanceTargets(color Color, sq Square) []Square {
	dir := 1
	startRank := Rank2
	if color == Black {
		dir = -1
		startRank = Rank7
	}

	one, ok := step(sq, Direction{0, dir})
	if !ok {
		return nil
	}
	ret := []Square{one}

	if sq.Rank() == startRank {
		if two, ok := step(one, Direction{0, dir}); ok {
			ret = append(ret, two)
		}
	}
	return ret
}

// PawnCaptureTargets returns the pawn's two diagonal capture squares (those
// that are on the board).
func PawnCaptureTargets(color Color, sq Square) []Square {
	dir := 1
	if color == Black {
		dir = -1
	}

	var ret []Square
	for _, df := range []int{-1, 1} {
		if t, ok := step(sq, Direction{df, dir}); ok {
			ret = append(ret, t)
		}
	}
	return ret
}

// IsPromotionSquare returns true iff sq is on the color's promotion rank
// (Rank8 for White, Rank1 for Black).
func IsPromotionSquare(color Color, sq Square) bool {
	return sq.Rank() == color.PromotionRank()
}

// CastlingGeometry describes the squares involved in one side's castle for a
// color: the king's home/target squares, the rook's home/target squares, and
// the squares that must be certainly-empty (and, for the king's path,
// certainly-unattacked in a variant with a "through check" rule -- spec B2
// explicitly has none, so only emptiness is checked by the move generator).
type CastlingGeometry struct {
	Right           Castling
	KingFrom, KingTo Square
	RookFrom, RookTo Square
	Between          []Square // squares that must be certainly-empty
}

// CastlingGeometries returns the kingside and queenside castling geometry for
// a color.
func CastlingGeometries(color Color) (kingSide, queenSide CastlingGeometry) {
	home := color.HomeRank()
	kingFrom := NewSquare(FileE, home)

	kingSide = CastlingGeometry{
		Right:    KingSide(color),
		KingFrom: kingFrom,
		KingTo:   NewSquare(FileG, home),
		RookFrom: NewSquare(FileH, home),
		RookTo:   NewSquare(FileF, home),
		Between:  []Square{NewSquare(FileF, home), NewSquare(FileG, home)},
	}
	queenSide = CastlingGeometry{
		Right:    QueenSide(color),
		KingFrom: kingFrom,
		KingTo:   NewSquare(FileC, home),
		RookFrom: NewSquare(FileA, home),
		RookTo:   NewSquare(FileD, home),
		Between:  []Square{NewSquare(FileB, home), NewSquare(FileC, home), NewSquare(FileD, home)},
	}
	return kingSide, queenSide
}
