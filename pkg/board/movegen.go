package board

import "golang.org/x/exp/slices"

// This file implements spec §4.5: legal move generation from a square, and
// move validation. Grounded on pkg/board/position.go's PseudoLegalMoves stub
// (never actually implemented in the teacher repo -- its body is a checked-in
// TODO/comment-only stub) and on the push/pop-to-probe pattern
// cmd/livechess-uci/main.go uses to test candidate moves against the legal
// set.

// GenerateLegalMoves returns every legal move (spec: normal/capture, castle,
// en passant, split, merge) available to the piece with identity id
// currently claimed to be at from.
func GenerateLegalMoves(snap *Snapshot, id PieceID, from Square) ([]Move, error) {
	p, ok := snap.Piece(id)
	if !ok {
		return nil, invalidState("no such piece: %v", id)
	}

	var moves []Move
	if p.Dist.IsCertainAt(from) {
		moves = append(moves, generateActorMoves(snap, p, from)...)
		moves = append(moves, generateCastling(snap, p, from)...)
	}
	moves = append(moves, generateSplits(snap, p, from)...)
	moves = append(moves, generateMerges(snap, p)...)
	return moves, nil
}

// generateActorMoves enumerates normal/capture/en-passant/promotion moves for
// a piece certain at from.
func generateActorMoves(snap *Snapshot, p PieceRecord, from Square) []Move {
	if p.Kind == Pawn {
		return generatePawnMoves(snap, p, from)
	}
	if p.Kind.IsSlider() {
		return generateSliderMoves(snap, p, from)
	}
	return generateStepMoves(snap, p, from, Targets(p.Kind, from))
}

func generateStepMoves(snap *Snapshot, p PieceRecord, from Square, targets []Square) []Move {
	var moves []Move
	for _, to := range targets {
		moves = append(moves, classicalOrCapture(snap, p, from, to)...)
	}
	return moves
}

// generateSliderMoves walks each ray to the board edge. A square that is
// certainly occupied stops the ray (classically, as normal chess movegen
// does); a square that merely has partial (superposed) mass on it does not
// stop the ray -- the mover might not really be blocked there, so the move is
// offered and the executor resolves the uncertainty into an entanglement.
func generateSliderMoves(snap *Snapshot, p PieceRecord, from Square) []Move {
	var moves []Move
	for _, ray := range SliderTargets(from, p.Kind) {
		for _, to := range ray {
			if occ, ok := snap.PieceAt(to); ok {
				if occ.Color != p.Color {
					moves = append(moves, asFinalMove(p, from, to, occ.ID))
				}
				break
			}
			if target, ok := opposingPieceAt(snap, p.Color, to); ok {
				moves = append(moves, asFinalMove(p, from, to, target.ID))
			} else if !ownPieceAt(snap, p.Color, to) {
				moves = append(moves, asFinalMove(p, from, to, NoPieceID))
			}
			// ray continues regardless: a partial blocker does not stop it
		}
	}
	return moves
}

func ownPieceAt(snap *Snapshot, mover Color, sq Square) bool {
	for _, p := range snap.AllPiecesAt(sq) {
		if p.Color == mover {
			return true
		}
	}
	return false
}

// classicalOrCapture emits a Normal move if to is certainly-empty, a Capture
// if it holds an opposing piece, or nothing otherwise (own piece present, or
// an ambiguous partial-occupancy square -- no move generated to avoid ever
// producing a double-occupancy result, invariant X1).
func classicalOrCapture(snap *Snapshot, p PieceRecord, from, to Square) []Move {
	if snap.IsCertainlyEmpty(to) {
		return []Move{asFinalMove(p, from, to, NoPieceID)}
	}
	if target, ok := opposingPieceAt(snap, p.Color, to); ok {
		return []Move{asFinalMove(p, from, to, target.ID)}
	}
	return nil
}

// asFinalMove wraps a geometric from/to (and optional captured piece) into the
// right tagged variant: Promotion if landing on the promotion rank, Capture
// if something is captured, Normal otherwise.
func asFinalMove(p PieceRecord, from, to Square, captured PieceID) Move {
	if p.Kind == Pawn && IsPromotionSquare(p.Color, to) {
		return PromotionMove{Piece: p.ID, From: from, To: to, PromoteTo: Queen, CapturedPiece: captured}
	}
	if captured != NoPieceID {
		return CaptureMove{Piece: p.ID, From: from, To: to, CapturedPiece: captured}
	}
	return NormalMove{Piece: p.ID, From: from, To: to}
}

func opposingPieceAt(snap *Snapshot, mover Color, sq Square) (PieceRecord, bool) {
	for _, p := range snap.AllPiecesAt(sq) {
		if p.Color != mover {
			return p, true
		}
	}
	return PieceRecord{}, false
}

func generatePawnMoves(snap *Snapshot, p PieceRecord, from Square) []Move {
	var moves []Move

	// Forward advances never capture, so a certainly-occupied square (by
	// either color) stops them; a merely superposed square does not -- the
	// executor resolves whether the pawn actually gets through.
	advances := PawnAdvanceTargets(p.Color, from)
	for _, to := range advances {
		if _, ok := snap.PieceAt(to); ok {
			break
		}
		moves = append(moves, asFinalMove(p, from, to, NoPieceID))
	}

	for _, to := range PawnCaptureTargets(p.Color, from) {
		if target, ok := opposingPieceAt(snap, p.Color, to); ok {
			moves = append(moves, asFinalMove(p, from, to, target.ID))
			continue
		}
		if ep, ok := snap.EnPassant(); ok && ep.CaptureSquare == to {
			moves = append(moves, EnPassantMove{
				Piece: p.ID, From: from, To: to,
				CapturedPawnSquare: ep.PassedPawnSquare,
				CapturedPiece:      ep.PassedPawnIdentity,
			})
		}
	}
	return moves
}

func generateCastling(snap *Snapshot, p PieceRecord, from Square) []Move {
	if p.Kind != King {
		return nil
	}
	var moves []Move
	kingSide, queenSide := CastlingGeometries(p.Color)
	for _, g := range []CastlingGeometry{kingSide, queenSide} {
		if g.KingFrom != from || !snap.Castling().IsAllowed(g.Right) {
			continue
		}
		rook, ok := snap.PieceAt(g.RookFrom)
		if !ok || rook.Kind != Rook || rook.Color != p.Color {
			continue
		}
		if !allCertainlyEmpty(snap, g.Between) {
			continue
		}
		moves = append(moves, CastlingMove{
			Piece: p.ID, From: g.KingFrom, To: g.KingTo,
			Rook: rook.ID, RookFrom: g.RookFrom, RookTo: g.RookTo,
			Side: g.Right,
		})
	}
	return moves
}

func allCertainlyEmpty(snap *Snapshot, squares []Square) bool {
	for _, sq := range squares {
		if !snap.IsCertainlyEmpty(sq) {
			return false
		}
	}
	return true
}

// movementTargets returns the non-capturing movement-rule target squares for
// a piece kind/color at sq, reachable via a path with no certainly-occupied
// intervening square (used by split/merge generation). A slider's ray stops
// at the first certainly-occupied square exactly as generateSliderMoves
// stops an actor move there; a square with only superposed occupancy does
// not stop it -- the executor resolves that uncertainty into an
// entanglement with the blocker (spec §4.5's "ray to each target must be
// passable").
func movementTargets(snap *Snapshot, kind Piece, color Color, sq Square) []Square {
	if kind == Pawn {
		var out []Square
		for _, to := range PawnAdvanceTargets(color, sq) {
			if _, ok := snap.PieceAt(to); ok {
				break
			}
			out = append(out, to)
		}
		return out
	}
	if kind.IsSlider() {
		var out []Square
		for _, ray := range SliderTargets(sq, kind) {
			for _, to := range ray {
				if _, ok := snap.PieceAt(to); ok {
					break
				}
				out = append(out, to)
			}
		}
		return out
	}
	return Targets(kind, sq)
}

func generateSplits(snap *Snapshot, p PieceRecord, from Square) []Move {
	if !p.Dist.IsCertainAt(from) {
		return nil
	}

	targets := movementTargets(snap, p.Kind, p.Color, from)
	var moves []Move
	for i := 0; i < len(targets); i++ {
		for j := i + 1; j < len(targets); j++ {
			t1, t2 := targets[i], targets[j]
			if !snap.IsCertainlyEmpty(t1) || !snap.IsCertainlyEmpty(t2) {
				continue
			}
			moves = append(moves, SplitMove{Piece: p.ID, From: from, To1: t1, To2: t2, Probability: 0.5})
		}
	}
	return moves
}

func generateMerges(snap *Snapshot, p PieceRecord) []Move {
	if !p.Dist.IsSuperposed() {
		return nil
	}

	squares := p.Dist.Squares()
	var moves []Move
	for i := 0; i < len(squares); i++ {
		for j := i + 1; j < len(squares); j++ {
			s1, s2 := squares[i], squares[j]
			t1 := movementTargets(snap, p.Kind, p.Color, s1)
			t2 := movementTargets(snap, p.Kind, p.Color, s2)
			for _, to := range t1 {
				if !slices.Contains(t2, to) {
					continue
				}
				if !snap.IsCertainlyEmpty(to) {
					continue
				}
				moves = append(moves, MergeMove{Piece: p.ID, From1: s1, From2: s2, To: to})
			}
		}
	}
	return moves
}

// --- validation ---

// ValidationStatus classifies the outcome of Validate (spec §4.5).
type ValidationStatus int

const (
	Legal ValidationStatus = iota
	RequiresMeasurement
	Illegal
)

// ValidationResult is the result of validating a proposed move.
type ValidationResult struct {
	Status ValidationStatus
	Square Square // set iff Status == RequiresMeasurement
	Reason string // set iff Status == Illegal
}

func illegalResult(reason string) ValidationResult {
	return ValidationResult{Status: Illegal, Reason: reason}
}

// Validate classifies a proposed move against the current snapshot. It never
// mutates snap.
func Validate(snap *Snapshot, mv Move) ValidationResult {
	id, from, ok := actorOf(mv)
	if !ok {
		return illegalResult("unrecognized move variant")
	}

	p, ok := snap.Piece(id)
	if !ok {
		return illegalResult("no such piece")
	}
	if p.Color != snap.ActiveColor() {
		return illegalResult("wrong color to move")
	}

	switch mv.(type) {
	case SplitMove, MergeMove:
		return validateAgainstGenerated(snap, id, from, mv)
	}

	if !p.Dist.IsCertainAt(from) {
		if p.Dist.At(from) <= massEpsilon {
			return illegalResult("piece has no mass at claimed source")
		}
		return ValidationResult{Status: RequiresMeasurement, Square: from}
	}
	return validateAgainstGenerated(snap, id, from, mv)
}

func validateAgainstGenerated(snap *Snapshot, id PieceID, from Square, mv Move) ValidationResult {
	candidates, err := GenerateLegalMoves(snap, id, from)
	if err != nil {
		return illegalResult(err.Error())
	}
	for _, c := range candidates {
		if sameShape(c, mv) {
			return ValidationResult{Status: Legal}
		}
	}
	return illegalResult("move not among legal moves from this square")
}

// actorOf returns the move's actor identity and claimed source square.
func actorOf(mv Move) (PieceID, Square, bool) {
	switch m := mv.(type) {
	case NormalMove:
		return m.Piece, m.From, true
	case CaptureMove:
		return m.Piece, m.From, true
	case SplitMove:
		return m.Piece, m.From, true
	case MergeMove:
		return m.Piece, m.From1, true
	case CastlingMove:
		return m.Piece, m.From, true
	case EnPassantMove:
		return m.Piece, m.From, true
	case PromotionMove:
		return m.Piece, m.From, true
	default:
		return 0, 0, false
	}
}

// sameShape compares moves by their geometric shape (from/to endpoints),
// ignoring incidental fields like a capture's resolved target identity, which
// may legitimately differ between a caller's guess and what the board
// actually has there (spec: captures resolve at execution time).
func sameShape(a, b Move) bool {
	switch x := a.(type) {
	case NormalMove:
		y, ok := b.(NormalMove)
		return ok && x.Piece == y.Piece && x.From == y.From && x.To == y.To
	case CaptureMove:
		y, ok := b.(CaptureMove)
		return ok && x.Piece == y.Piece && x.From == y.From && x.To == y.To
	case SplitMove:
		y, ok := b.(SplitMove)
		return ok && x.Piece == y.Piece && x.From == y.From && sameTargetPair(x.To1, x.To2, y.To1, y.To2)
	case MergeMove:
		y, ok := b.(MergeMove)
		return ok && x.Piece == y.Piece && x.To == y.To && sameTargetPair(x.From1, x.From2, y.From1, y.From2)
	case CastlingMove:
		y, ok := b.(CastlingMove)
		return ok && x.Piece == y.Piece && x.From == y.From && x.To == y.To
	case EnPassantMove:
		y, ok := b.(EnPassantMove)
		return ok && x.Piece == y.Piece && x.From == y.From && x.To == y.To
	case PromotionMove:
		y, ok := b.(PromotionMove)
		return ok && x.Piece == y.Piece && x.From == y.From && x.To == y.To
	default:
		return false
	}
}

func sameTargetPair(a1, a2, b1, b2 Square) bool {
	return (a1 == b1 && a2 == b2) || (a1 == b2 && a2 == b1)
}
