package board

// This file implements spec §4.6: applying a validated move to a snapshot.
// Grounded on pkg/board/board.go's MakeMove/UnmakeMove (the copy-on-write
// push/pop pair that was otherwise the search engine's hot path -- dropped
// along with search, but its "build the next immutable position, update
// clocks/rights/en-passant, flip the turn" shape survives here), generalized
// so that an actor's own measurement -- and, for sliders, its path -- can
// turn a plain move into a cascading collapse or a fresh entanglement.

// Outcome reports what actually happened when a move was executed: a
// measurement may have consumed the turn without completing the intended
// move (spec's measurement-on-move scenario), or the move may have produced
// a new entanglement instead of a definite result.
type Outcome struct {
	Measurements  []MeasurementResult
	TurnLost      bool // a forced measurement resolved away from the intended square
	CapturedPiece PieceID
	Entangled     bool
}

// Execute applies mv to snap and returns the resulting snapshot. mv must
// already have validated as Legal or RequiresMeasurement (see Validate); a
// RequiresMeasurement move is executed by performing the measurement first --
// if it resolves away from the move's claimed source, the turn is consumed
// and Outcome.TurnLost is true.
func Execute(snap *Snapshot, mv Move, src Source) (*Snapshot, Outcome, error) {
	switch m := mv.(type) {
	case NormalMove:
		return executeActorMove(snap, m.Piece, m.From, m.To, NoPieceID, NoPiece, src)
	case CaptureMove:
		return executeActorMove(snap, m.Piece, m.From, m.To, m.CapturedPiece, NoPiece, src)
	case PromotionMove:
		return executeActorMove(snap, m.Piece, m.From, m.To, m.CapturedPiece, m.PromoteTo, src)
	case EnPassantMove:
		return executeEnPassant(snap, m, src)
	case CastlingMove:
		return executeCastling(snap, m)
	case SplitMove:
		return executeSplit(snap, m)
	case MergeMove:
		return executeMerge(snap, m)
	default:
		return nil, Outcome{}, invalidState("unrecognized move variant")
	}
}

// measurePieceAt measures id's distribution at sq and propagates any
// resulting cascade. It is the single choke point through which every forced
// measurement (actor at its source, superposed defender at the destination)
// flows; path blockers are entangled, not measured.
func measurePieceAt(cur *Snapshot, id PieceID, sq Square, src Source) (*Snapshot, MeasurementResult, error) {
	p, ok := cur.Piece(id)
	if !ok {
		return nil, MeasurementResult{}, invalidState("no such piece: %v", id)
	}
	dist, res := Measure(p.Dist, sq, src)
	next, err := cur.WithDistribution(id, dist)
	if err != nil {
		return nil, res, err
	}
	next, err = CascadeCollapse(next, id)
	return next, res, err
}

// executeActorMove handles Normal/Capture/Promotion: it is the shared path
// for any piece whose source is a single square and whose destination may be
// a plain move, a capture of a certain or superposed defender, or obstructed
// along the way by superposed blockers.
func executeActorMove(snap *Snapshot, id PieceID, from, to Square, declaredCapture PieceID, promoteTo Piece, src Source) (*Snapshot, Outcome, error) {
	var out Outcome
	cur := snap

	mover, ok := cur.Piece(id)
	if !ok {
		return nil, out, invalidState("no such piece: %v", id)
	}
	if !mover.Dist.IsCertainAt(from) {
		next, res, err := measurePieceAt(cur, id, from, src)
		if err != nil {
			return nil, out, err
		}
		out.Measurements = append(out.Measurements, res)
		cur = next
		if !res.Outcome {
			out.TurnLost = true
			return cur.WithTurnSwitched(), out, nil
		}
		mover, _ = cur.Piece(id)
	}

	// A pawn moving straight ahead can never capture; every other move (and a
	// pawn's diagonal) can. This decides whether the destination is resolved
	// as a possible capture or treated as a non-capturing obstruction.
	canCapture := mover.Kind != Pawn || from.File() != to.File()

	out.CapturedPiece = NoPieceID
	if canCapture {
		// Resolve any superposed defender at the destination before deciding
		// whether this is a capture (spec's capture-degrading scenario).
		for _, occ := range cur.AllPiecesAt(to) {
			if occ.ID == id || occ.Dist.IsCertainAt(to) {
				continue
			}
			next, res, err := measurePieceAt(cur, occ.ID, to, src)
			if err != nil {
				return nil, out, err
			}
			out.Measurements = append(out.Measurements, res)
			cur = next
		}

		if occ, ok := cur.PieceAt(to); ok && occ.ID != id {
			if occ.Color == mover.Color {
				return nil, out, invalidState("destination %v holds a piece of the mover's own color", to)
			}
			cur = cur.WithoutPiece(occ.ID)
			out.CapturedPiece = occ.ID
		}
	}
	_ = declaredCapture // the resolved occupant, not the caller's guess, is authoritative

	path := PathBetween(from, to)
	blockers := gatherPathBlockers(cur, id, path)
	if !canCapture {
		// A pawn's forward target is itself a non-capturable obstruction if
		// anything short of certainty sits there.
		blockers = append(blockers, gatherPathBlockers(cur, id, []Square{to})...)
	}

	var err error
	if len(blockers) == 0 {
		cur, err = cur.WithDistribution(id, NewCertain(to))
		if err != nil {
			return nil, out, err
		}
	} else {
		ent, err := BuildMoveEntanglement(id, from, to, blockers, "move through superposed blocker")
		if err != nil {
			return nil, out, err
		}
		cur = cur.WithEntanglement(ent)
		marg, err := Marginalize(ent.Joint, id)
		if err != nil {
			return nil, out, err
		}
		cur, err = cur.WithDistribution(id, marg)
		if err != nil {
			return nil, out, err
		}
		out.Entangled = true
	}

	if promoteTo != NoPiece {
		cur, err = cur.WithKind(id, promoteTo)
		if err != nil {
			return nil, out, err
		}
	}

	cur = applyBookkeeping(cur, mover, from, to, out.CapturedPiece != NoPieceID)
	return cur.WithTurnSwitched(), out, nil
}

// gatherPathBlockers collects the pieces (other than the mover) with any
// mass on the strictly-intermediate squares of path. A blocker certain at
// its square is a normal, single-valued branch like any other -- the
// movement generator stops a ray at a certain occupant when it has no
// alternate destination to fold the collapsed branch into, but a split or
// merge has a second path to redirect probability to, so a certain blocker
// there still reaches BuildSplitEntanglement/BuildMergeEntanglement, which
// resolves it to a fully-determined joint outcome rather than rejecting the
// move.
func gatherPathBlockers(cur *Snapshot, moverID PieceID, path []Square) []BlockerBranch {
	var blockers []BlockerBranch
	for _, sq := range path {
		for _, p := range cur.AllPiecesAt(sq) {
			if p.ID == moverID {
				continue
			}
			blockers = append(blockers, BlockerBranch{ID: p.ID, Dist: p.Dist, BlockSquare: sq})
		}
	}
	return blockers
}

func executeEnPassant(snap *Snapshot, m EnPassantMove, src Source) (*Snapshot, Outcome, error) {
	var out Outcome
	cur := snap

	mover, ok := cur.Piece(m.Piece)
	if !ok {
		return nil, out, invalidState("no such piece: %v", m.Piece)
	}
	if !mover.Dist.IsCertainAt(m.From) {
		next, res, err := measurePieceAt(cur, m.Piece, m.From, src)
		if err != nil {
			return nil, out, err
		}
		out.Measurements = append(out.Measurements, res)
		cur = next
		if !res.Outcome {
			out.TurnLost = true
			return cur.WithTurnSwitched(), out, nil
		}
	}

	cur = cur.WithoutPiece(m.CapturedPiece)
	out.CapturedPiece = m.CapturedPiece

	var err error
	cur, err = cur.WithDistribution(m.Piece, NewCertain(m.To))
	if err != nil {
		return nil, out, err
	}

	cur = applyBookkeeping(cur, mover, m.From, m.To, true)
	return cur.WithTurnSwitched(), out, nil
}

func executeCastling(snap *Snapshot, m CastlingMove) (*Snapshot, Outcome, error) {
	var out Outcome
	cur := snap

	king, ok := cur.Piece(m.Piece)
	if !ok {
		return nil, out, invalidState("no such piece: %v", m.Piece)
	}

	var err error
	cur, err = cur.WithDistribution(m.Piece, NewCertain(m.To))
	if err != nil {
		return nil, out, err
	}
	cur, err = cur.WithDistribution(m.Rook, NewCertain(m.RookTo))
	if err != nil {
		return nil, out, err
	}

	out.CapturedPiece = NoPieceID
	cur = cur.WithCastlingRight(KingSide(king.Color) | QueenSide(king.Color))
	cur = cur.WithEnPassant(nil)
	cur = cur.WithHalfmoveClock(cur.HalfmoveClock() + 1)
	return cur.WithTurnSwitched(), out, nil
}

func executeSplit(snap *Snapshot, m SplitMove) (*Snapshot, Outcome, error) {
	var out Outcome
	cur := snap

	p, ok := cur.Piece(m.Piece)
	if !ok {
		return nil, out, invalidState("no such piece: %v", m.Piece)
	}
	ratio := m.Probability
	if ratio <= 0 {
		ratio = 0.5
	}

	path1 := PathBetween(m.From, m.To1)
	path2 := PathBetween(m.From, m.To2)
	blockers1 := gatherPathBlockers(cur, m.Piece, path1)
	blockers2 := gatherPathBlockers(cur, m.Piece, path2)

	if len(blockers1) == 0 && len(blockers2) == 0 {
		dist, err := Split(p.Dist, m.From, m.To1, m.To2, ratio)
		if err != nil {
			return nil, out, err
		}
		cur, err = cur.WithDistribution(m.Piece, dist)
		if err != nil {
			return nil, out, err
		}
	} else {
		ent, err := BuildSplitEntanglement(m.Piece, m.From, m.To1, m.To2, path1, blockers1, path2, blockers2, ratio, "split through superposed blocker")
		if err != nil {
			return nil, out, err
		}
		cur = cur.WithEntanglement(ent)
		marg, err := Marginalize(ent.Joint, m.Piece)
		if err != nil {
			return nil, out, err
		}
		cur, err = cur.WithDistribution(m.Piece, marg)
		if err != nil {
			return nil, out, err
		}
		out.Entangled = true
	}

	cur = applyBookkeeping(cur, p, m.From, NoSquare, false)
	return cur.WithTurnSwitched(), out, nil
}

func executeMerge(snap *Snapshot, m MergeMove) (*Snapshot, Outcome, error) {
	var out Outcome
	cur := snap

	p, ok := cur.Piece(m.Piece)
	if !ok {
		return nil, out, invalidState("no such piece: %v", m.Piece)
	}
	p1, p2 := p.Dist.At(m.From1), p.Dist.At(m.From2)

	other := p.Dist.Clone()
	delete(other, m.From1)
	delete(other, m.From2)

	path1 := PathBetween(m.From1, m.To)
	path2 := PathBetween(m.From2, m.To)
	blockers1 := gatherPathBlockers(cur, m.Piece, path1)
	blockers2 := gatherPathBlockers(cur, m.Piece, path2)

	if len(blockers1) == 0 && len(blockers2) == 0 {
		dist, err := Merge(p.Dist, m.From1, m.From2, m.To)
		if err != nil {
			return nil, out, err
		}
		cur, err = cur.WithDistribution(m.Piece, dist)
		if err != nil {
			return nil, out, err
		}
	} else {
		ent, err := BuildMergeEntanglement(m.Piece, m.From1, p1, path1, blockers1, m.From2, p2, path2, blockers2, m.To, other, "merge through superposed blocker")
		if err != nil {
			return nil, out, err
		}
		cur = cur.WithEntanglement(ent)
		marg, err := Marginalize(ent.Joint, m.Piece)
		if err != nil {
			return nil, out, err
		}
		cur, err = cur.WithDistribution(m.Piece, marg)
		if err != nil {
			return nil, out, err
		}
		out.Entangled = true
	}

	cur = applyBookkeeping(cur, p, m.From1, m.To, false)
	return cur.WithTurnSwitched(), out, nil
}

// applyBookkeeping updates castling rights, the en passant target and the
// halfmove clock for a resolved (non-superposed-outcome) actor move. to may
// be NoSquare for moves that do not have a single definite destination
// (split).
func applyBookkeeping(cur *Snapshot, mover PieceRecord, from, to Square, progressed bool) *Snapshot {
	if mover.Kind == King {
		cur = cur.WithCastlingRight(KingSide(mover.Color) | QueenSide(mover.Color))
	}
	if right := squareCastlingRight(from); right != NoCastlingRights {
		cur = cur.WithCastlingRight(right)
	}
	if to != NoSquare {
		if right := squareCastlingRight(to); right != NoCastlingRights {
			cur = cur.WithCastlingRight(right)
		}
	}

	cur = cur.WithEnPassant(nil)
	if mover.Kind == Pawn && to != NoSquare && rankDistance(from, to) == 2 {
		mid := Square((int(from) + int(to)) / 2)
		cur = cur.WithEnPassant(&EnPassantTarget{CaptureSquare: mid, PassedPawnSquare: to, PassedPawnIdentity: mover.ID})
	}

	if progressed || mover.Kind == Pawn {
		cur = cur.WithHalfmoveClock(0)
	} else {
		cur = cur.WithHalfmoveClock(cur.HalfmoveClock() + 1)
	}
	return cur
}

func rankDistance(a, b Square) int {
	d := int(a.Rank()) - int(b.Rank())
	if d < 0 {
		d = -d
	}
	return d
}

// squareCastlingRight returns the single castling right anchored at sq (a
// rook's home corner), or NoCastlingRights if sq is not one of the four.
func squareCastlingRight(sq Square) Castling {
	switch sq {
	case NewSquare(FileA, Rank1):
		return WhiteQueenSide
	case NewSquare(FileH, Rank1):
		return WhiteKingSide
	case NewSquare(FileA, Rank8):
		return BlackQueenSide
	case NewSquare(FileH, Rank8):
		return BlackKingSide
	default:
		return NoCastlingRights
	}
}
