package board

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// PieceID is a stable opaque identifier for a piece, unique for the lifetime
// of the piece on the board. A piece retains its identity across splits and
// merges (spec §3); positions are not a valid identity because they are
// non-unique under superposition and mutate every move.
//
// A language with manual memory management would back this with a
// generational index into a piece table with recycled slots (spec §9); Go's
// GC makes recycling unnecessary, so a monotonically increasing counter on
// the snapshot serves the same "never reused, never ambiguous" role.
type PieceID int64

// NoPieceID marks the absence of a piece identity (e.g., a degraded capture
// that captured nothing).
const NoPieceID PieceID = -1

// PieceRecord is an immutable record of one piece's kind, color and distribution.
type PieceRecord struct {
	ID    PieceID
	Kind  Piece
	Color Color
	Dist  Distribution
}

func (p PieceRecord) clone() PieceRecord {
	return PieceRecord{ID: p.ID, Kind: p.Kind, Color: p.Color, Dist: p.Dist.Clone()}
}

// EnPassantTarget records the pending en passant capture opportunity created
// by the most recent pawn double-step. It is cleared on every other move.
type EnPassantTarget struct {
	CaptureSquare      Square // where a capturing pawn would land
	PassedPawnSquare   Square // where the jumped pawn actually sits
	PassedPawnIdentity PieceID
}

// Entanglement is a joint distribution over two or more pieces' positions
// that does not factor into independent per-piece distributions (spec §3).
// Invariant E1: a piece identity appears in at most one entanglement.
type Entanglement struct {
	PieceIDs    []PieceID // sorted ascending; the entanglement's piece-set
	Joint       map[string]float64
	Description string
}

func (e Entanglement) clone() Entanglement {
	ids := append([]PieceID(nil), e.PieceIDs...)
	joint := make(map[string]float64, len(e.Joint))
	for k, v := range e.Joint {
		joint[k] = v
	}
	return Entanglement{PieceIDs: ids, Joint: joint, Description: e.Description}
}

// HasMember returns true iff id is a member of this entanglement's piece-set.
func (e Entanglement) HasMember(id PieceID) bool {
	_, found := slices.BinarySearch(e.PieceIDs, id)
	return found
}

// Snapshot is an immutable board state: pieces, whose turn it is, castling
// rights, en passant target, clocks, and active entanglements (spec §3). All
// mutators on Snapshot clone before writing; nothing in this package mutates
// a Snapshot value that has already been published (spec §5).
type Snapshot struct {
	pieces   map[PieceID]PieceRecord
	nextID   PieceID
	entangle []Entanglement

	activeColor Color
	castling    Castling
	enPassant   *EnPassantTarget

	halfmoveClock  int
	fullmoveNumber int
}

// NewEmptySnapshot returns a snapshot with no pieces, White to move, full
// castling rights, and no en passant target, ready for pieces to be added.
func NewEmptySnapshot() *Snapshot {
	return &Snapshot{
		pieces:         map[PieceID]PieceRecord{},
		activeColor:    White,
		castling:       FullCastlingRights,
		halfmoveClock:  0,
		fullmoveNumber: 1,
	}
}

// clone deep-copies the snapshot. Mandatory on every mutator (spec §4.3):
// history navigation relies on snapshot equality of prior versions, so no
// mutator may let a past and present snapshot alias the same map.
func (s *Snapshot) clone() *Snapshot {
	pieces := make(map[PieceID]PieceRecord, len(s.pieces))
	for id, p := range s.pieces {
		pieces[id] = p.clone()
	}
	entangle := make([]Entanglement, len(s.entangle))
	for i, e := range s.entangle {
		entangle[i] = e.clone()
	}
	var ep *EnPassantTarget
	if s.enPassant != nil {
		cp := *s.enPassant
		ep = &cp
	}

	return &Snapshot{
		pieces:         pieces,
		nextID:         s.nextID,
		entangle:       entangle,
		activeColor:    s.activeColor,
		castling:       s.castling,
		enPassant:      ep,
		halfmoveClock:  s.halfmoveClock,
		fullmoveNumber: s.fullmoveNumber,
	}
}

// Equal reports deep structural equality, used by history/replay (spec P7,
// R2, R3) instead of a position hash: this spec has no repetition rule to
// accelerate (see DESIGN.md), so a Zobrist-style hash would have no consumer.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s.activeColor != o.activeColor || s.castling != o.castling ||
		s.halfmoveClock != o.halfmoveClock || s.fullmoveNumber != o.fullmoveNumber {
		return false
	}
	if (s.enPassant == nil) != (o.enPassant == nil) {
		return false
	}
	if s.enPassant != nil && *s.enPassant != *o.enPassant {
		return false
	}
	if len(s.pieces) != len(o.pieces) {
		return false
	}
	for id, p := range s.pieces {
		op, ok := o.pieces[id]
		if !ok || p.Kind != op.Kind || p.Color != op.Color || !distEqual(p.Dist, op.Dist) {
			return false
		}
	}
	if len(s.entangle) != len(o.entangle) {
		return false
	}
	for i, e := range s.entangle {
		oe := o.entangle[i]
		if !slices.Equal(e.PieceIDs, oe.PieceIDs) || len(e.Joint) != len(oe.Joint) {
			return false
		}
		for k, v := range e.Joint {
			if ov, ok := oe.Joint[k]; !ok || abs64(v-ov) > massEpsilon {
				return false
			}
		}
	}
	return true
}

func distEqual(a, b Distribution) bool {
	if len(a) != len(b) {
		return false
	}
	for sq, p := range a {
		if bp, ok := b[sq]; !ok || abs64(p-bp) > massEpsilon {
			return false
		}
	}
	return true
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// --- read queries ---

// ActiveColor returns the color to move.
func (s *Snapshot) ActiveColor() Color { return s.activeColor }

// Castling returns the castling rights.
func (s *Snapshot) Castling() Castling { return s.castling }

// EnPassant returns the pending en passant target, if any.
func (s *Snapshot) EnPassant() (EnPassantTarget, bool) {
	if s.enPassant == nil {
		return EnPassantTarget{}, false
	}
	return *s.enPassant, true
}

func (s *Snapshot) HalfmoveClock() int  { return s.halfmoveClock }
func (s *Snapshot) FullmoveNumber() int { return s.fullmoveNumber }

// Piece returns the piece record for id.
func (s *Snapshot) Piece(id PieceID) (PieceRecord, bool) {
	p, ok := s.pieces[id]
	return p, ok
}

// Pieces returns all piece records, in ascending-ID order (deterministic).
func (s *Snapshot) Pieces() []PieceRecord {
	ids := make([]PieceID, 0, len(s.pieces))
	for id := range s.pieces {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	ret := make([]PieceRecord, len(ids))
	for i, id := range ids {
		ret[i] = s.pieces[id]
	}
	return ret
}

// PieceAt returns the piece with mass (approximately) 1 at sq, if any.
func (s *Snapshot) PieceAt(sq Square) (PieceRecord, bool) {
	for _, p := range s.Pieces() {
		if p.Dist.IsCertainAt(sq) {
			return p, true
		}
	}
	return PieceRecord{}, false
}

// AllPiecesAt returns every piece with nonzero mass at sq.
func (s *Snapshot) AllPiecesAt(sq Square) []PieceRecord {
	var ret []PieceRecord
	for _, p := range s.Pieces() {
		if p.Dist.At(sq) > massEpsilon {
			ret = append(ret, p)
		}
	}
	return ret
}

// Occupancy returns the total probability mass of any piece at sq.
func (s *Snapshot) Occupancy(sq Square) float64 {
	var total float64
	for _, p := range s.pieces {
		total += p.Dist.At(sq)
	}
	return total
}

// IsCertainlyEmpty returns true iff no piece has any mass at sq.
func (s *Snapshot) IsCertainlyEmpty(sq Square) bool {
	return s.Occupancy(sq) < massEpsilon
}

// KingTotalProbability returns the total probability mass of the color's
// king across all squares (spec §4.7's win condition).
func (s *Snapshot) KingTotalProbability(c Color) float64 {
	for _, p := range s.pieces {
		if p.Kind == King && p.Color == c {
			return p.Dist.Mass()
		}
	}
	return 0
}

// PiecesByColor returns all piece records of the given color.
func (s *Snapshot) PiecesByColor(c Color) []PieceRecord {
	var ret []PieceRecord
	for _, p := range s.Pieces() {
		if p.Color == c {
			ret = append(ret, p)
		}
	}
	return ret
}

// PiecesByKind returns all piece records of the given kind and color.
func (s *Snapshot) PiecesByKind(c Color, k Piece) []PieceRecord {
	var ret []PieceRecord
	for _, p := range s.Pieces() {
		if p.Color == c && p.Kind == k {
			ret = append(ret, p)
		}
	}
	return ret
}

// EntanglementOf returns the entanglement id is a member of, if any.
func (s *Snapshot) EntanglementOf(id PieceID) (Entanglement, bool) {
	for _, e := range s.entangle {
		if e.HasMember(id) {
			return e, true
		}
	}
	return Entanglement{}, false
}

// Entanglements returns all active entanglements.
func (s *Snapshot) Entanglements() []Entanglement {
	return s.entangle
}

// --- focused mutators: each returns a new snapshot, never mutating the receiver ---

// WithPiece returns a snapshot with a new piece added and its freshly minted
// identity.
func (s *Snapshot) WithPiece(kind Piece, color Color, dist Distribution) (*Snapshot, PieceID) {
	ret := s.clone()
	id := ret.nextID
	ret.nextID++
	ret.pieces[id] = PieceRecord{ID: id, Kind: kind, Color: color, Dist: dist.Clone()}
	return ret, id
}

// WithoutPiece returns a snapshot with the piece removed entirely (and
// dropped from any entanglement it belonged to).
func (s *Snapshot) WithoutPiece(id PieceID) *Snapshot {
	ret := s.clone()
	delete(ret.pieces, id)
	ret.entangle = removeMember(ret.entangle, id)
	return ret
}

// WithDistribution returns a snapshot with id's distribution replaced.
func (s *Snapshot) WithDistribution(id PieceID, dist Distribution) (*Snapshot, error) {
	ret := s.clone()
	p, ok := ret.pieces[id]
	if !ok {
		return nil, invalidState("no such piece: %v", id)
	}
	p.Dist = dist.Clone()
	ret.pieces[id] = p
	return ret, nil
}

// WithKind returns a snapshot with id's kind changed (used by promotion).
func (s *Snapshot) WithKind(id PieceID, kind Piece) (*Snapshot, error) {
	ret := s.clone()
	p, ok := ret.pieces[id]
	if !ok {
		return nil, invalidState("no such piece: %v", id)
	}
	p.Kind = kind
	ret.pieces[id] = p
	return ret, nil
}

// WithTurnSwitched returns a snapshot with the active color flipped,
// incrementing the fullmove number on the transition back to White.
func (s *Snapshot) WithTurnSwitched() *Snapshot {
	ret := s.clone()
	ret.activeColor = ret.activeColor.Opponent()
	if ret.activeColor == White {
		ret.fullmoveNumber++
	}
	return ret
}

// WithCastlingRight returns a snapshot with the given right(s) revoked (rights
// are only ever lost, never regained, so this always clears bits).
func (s *Snapshot) WithCastlingRight(remove Castling) *Snapshot {
	ret := s.clone()
	ret.castling = ret.castling.Without(remove)
	return ret
}

// WithEnPassant returns a snapshot with the en passant target set (or cleared
// if ep is nil).
func (s *Snapshot) WithEnPassant(ep *EnPassantTarget) *Snapshot {
	ret := s.clone()
	if ep == nil {
		ret.enPassant = nil
	} else {
		cp := *ep
		ret.enPassant = &cp
	}
	return ret
}

// WithHalfmoveClock returns a snapshot with the halfmove (no-progress) clock
// set to the given value.
func (s *Snapshot) WithHalfmoveClock(v int) *Snapshot {
	ret := s.clone()
	ret.halfmoveClock = v
	return ret
}

// WithFullmoveNumber returns a snapshot with the fullmove counter set to the
// given value (used to reconstruct a snapshot from its wire form).
func (s *Snapshot) WithFullmoveNumber(v int) *Snapshot {
	ret := s.clone()
	ret.fullmoveNumber = v
	return ret
}

// WithActiveColor returns a snapshot with the active color set directly
// (used to reconstruct a snapshot from its wire form; WithTurnSwitched is
// for normal play, where the transition also manages the fullmove counter).
func (s *Snapshot) WithActiveColor(c Color) *Snapshot {
	ret := s.clone()
	ret.activeColor = c
	return ret
}

// WithEntanglement returns a snapshot with the given entanglement upserted:
// any existing entanglement sharing a member is replaced by it (callers are
// responsible for having already merged/validated membership; see quantum.go).
func (s *Snapshot) WithEntanglement(e Entanglement) *Snapshot {
	ret := s.clone()
	ids := append([]PieceID(nil), e.PieceIDs...)
	slices.Sort(ids)
	e.PieceIDs = ids

	var kept []Entanglement
	for _, existing := range ret.entangle {
		if !entanglementsShareMember(existing, e) {
			kept = append(kept, existing)
		}
	}
	ret.entangle = append(kept, e)
	return ret
}

// WithoutEntanglement drops the entanglement containing id, if any.
func (s *Snapshot) WithoutEntanglement(id PieceID) *Snapshot {
	ret := s.clone()
	ret.entangle = removeMember(ret.entangle, id)
	return ret
}

func entanglementsShareMember(a, b Entanglement) bool {
	for _, id := range b.PieceIDs {
		if a.HasMember(id) {
			return true
		}
	}
	return false
}

func removeMember(list []Entanglement, id PieceID) []Entanglement {
	var ret []Entanglement
	for _, e := range list {
		if !e.HasMember(id) {
			ret = append(ret, e)
		}
	}
	return ret
}

func (s *Snapshot) String() string {
	return fmt.Sprintf("snapshot{pieces=%d, turn=%v, castling=%v, entanglements=%d}",
		len(s.pieces), s.activeColor, s.castling, len(s.entangle))
}
