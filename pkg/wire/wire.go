// Package wire is the JSON encoding of snapshots, moves and entanglements
// used to move game state across a process boundary (spec §6). Grounded on
// pkg/board/fen's Encode/Decode pair -- the same "walk the structured value
// field by field, fail with a descriptive error the moment something does
// not parse" discipline -- but JSON replaces FEN text, since a snapshot's
// per-piece distributions and joint entanglement states have no compact
// textual board notation to borrow (see DESIGN.md: no third-party codec in
// the example corpus covers this shape, so encoding/json is used directly).
package wire

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/qchess/engine/pkg/board"
)

// PieceDTO is the wire form of a board.PieceRecord.
type PieceDTO struct {
	ID           int64              `json:"id"`
	Kind         string             `json:"kind"`
	Color        string             `json:"color"`
	Distribution map[string]float64 `json:"distribution"`
}

// EnPassantDTO is the wire form of a board.EnPassantTarget.
type EnPassantDTO struct {
	CaptureSquare      string `json:"captureSquare"`
	PassedPawnSquare   string `json:"passedPawnSquare"`
	PassedPawnIdentity int64  `json:"passedPawnIdentity"`
}

// EntanglementDTO is the wire form of a board.Entanglement.
type EntanglementDTO struct {
	PieceIDs    []int64            `json:"pieceIds"`
	Joint       map[string]float64 `json:"joint"`
	Description string             `json:"description,omitempty"`
}

// SideCastlingRightsDTO is one color's half of CastlingRightsDTO.
type SideCastlingRightsDTO struct {
	KingSide  bool `json:"kingside"`
	QueenSide bool `json:"queenside"`
}

// CastlingRightsDTO is the wire form of a board.Castling (spec §6's
// `castlingRights:{white:{kingside,queenside}, black:{kingside,queenside}}`).
type CastlingRightsDTO struct {
	White SideCastlingRightsDTO `json:"white"`
	Black SideCastlingRightsDTO `json:"black"`
}

// SnapshotDTO is the wire form of a board.Snapshot.
type SnapshotDTO struct {
	Pieces         []PieceDTO        `json:"pieces"`
	ActiveColor    string            `json:"activeColor"`
	CastlingRights CastlingRightsDTO `json:"castlingRights"`
	EnPassant      *EnPassantDTO     `json:"enPassant,omitempty"`
	HalfmoveClock  int               `json:"halfmoveClock"`
	FullmoveNumber int               `json:"fullmoveNumber"`
	Entanglements  []EntanglementDTO `json:"entanglements,omitempty"`
}

// EncodeSnapshot converts a board.Snapshot to its wire form.
func EncodeSnapshot(snap *board.Snapshot) *SnapshotDTO {
	rights := snap.Castling()
	dto := &SnapshotDTO{
		ActiveColor: snap.ActiveColor().String(),
		CastlingRights: CastlingRightsDTO{
			White: SideCastlingRightsDTO{
				KingSide:  rights.IsAllowed(board.WhiteKingSide),
				QueenSide: rights.IsAllowed(board.WhiteQueenSide),
			},
			Black: SideCastlingRightsDTO{
				KingSide:  rights.IsAllowed(board.BlackKingSide),
				QueenSide: rights.IsAllowed(board.BlackQueenSide),
			},
		},
		HalfmoveClock:  snap.HalfmoveClock(),
		FullmoveNumber: snap.FullmoveNumber(),
	}

	for _, p := range snap.Pieces() {
		dist := make(map[string]float64, len(p.Dist))
		for _, sq := range p.Dist.Squares() {
			dist[sq.String()] = p.Dist.At(sq)
		}
		dto.Pieces = append(dto.Pieces, PieceDTO{
			ID:           int64(p.ID),
			Kind:         p.Kind.String(),
			Color:        p.Color.String(),
			Distribution: dist,
		})
	}

	if ep, ok := snap.EnPassant(); ok {
		dto.EnPassant = &EnPassantDTO{
			CaptureSquare:      ep.CaptureSquare.String(),
			PassedPawnSquare:   ep.PassedPawnSquare.String(),
			PassedPawnIdentity: int64(ep.PassedPawnIdentity),
		}
	}

	for _, e := range snap.Entanglements() {
		ids := make([]int64, len(e.PieceIDs))
		for i, id := range e.PieceIDs {
			ids[i] = int64(id)
		}
		dto.Entanglements = append(dto.Entanglements, EntanglementDTO{
			PieceIDs:    ids,
			Joint:       e.Joint,
			Description: e.Description,
		})
	}

	return dto
}

// MarshalSnapshot encodes snap as indented JSON.
func MarshalSnapshot(snap *board.Snapshot) ([]byte, error) {
	return json.MarshalIndent(EncodeSnapshot(snap), "", "  ")
}

// DecodeSnapshot reconstructs a board.Snapshot from its wire form. Piece
// identities are re-minted in ascending DTO-ID order so that cross-process
// replay stays deterministic (spec P7) without relying on the wire form
// preserving the exact original counter value.
func DecodeSnapshot(dto *SnapshotDTO) (*board.Snapshot, error) {
	color, ok := board.ParseColor(dto.ActiveColor)
	if !ok {
		return nil, fmt.Errorf("wire: invalid active color %q", dto.ActiveColor)
	}

	var castling board.Castling
	if dto.CastlingRights.White.KingSide {
		castling |= board.WhiteKingSide
	}
	if dto.CastlingRights.White.QueenSide {
		castling |= board.WhiteQueenSide
	}
	if dto.CastlingRights.Black.KingSide {
		castling |= board.BlackKingSide
	}
	if dto.CastlingRights.Black.QueenSide {
		castling |= board.BlackQueenSide
	}

	snap := board.NewEmptySnapshot()
	idMap := map[int64]board.PieceID{}

	sorted := append([]PieceDTO(nil), dto.Pieces...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, pd := range sorted {
		kind, ok := board.ParsePiece([]rune(pd.Kind)[0])
		if !ok {
			return nil, fmt.Errorf("wire: invalid piece kind %q", pd.Kind)
		}
		pc, ok := board.ParseColor(pd.Color)
		if !ok {
			return nil, fmt.Errorf("wire: invalid piece color %q", pd.Color)
		}
		dist := board.Distribution{}
		for s, p := range pd.Distribution {
			sq, err := board.ParseSquareStr(s)
			if err != nil {
				return nil, fmt.Errorf("wire: %w", err)
			}
			dist[sq] = p
		}

		var id board.PieceID
		snap, id = snap.WithPiece(kind, pc, dist)
		idMap[pd.ID] = id
	}

	snap = snap.WithActiveColor(color)
	snap = snap.WithCastlingRight(board.FullCastlingRights.Without(castling))
	snap = snap.WithHalfmoveClock(dto.HalfmoveClock)
	snap = snap.WithFullmoveNumber(dto.FullmoveNumber)

	if dto.EnPassant != nil {
		capSq, err := board.ParseSquareStr(dto.EnPassant.CaptureSquare)
		if err != nil {
			return nil, fmt.Errorf("wire: %w", err)
		}
		passedSq, err := board.ParseSquareStr(dto.EnPassant.PassedPawnSquare)
		if err != nil {
			return nil, fmt.Errorf("wire: %w", err)
		}
		passedID, ok := idMap[dto.EnPassant.PassedPawnIdentity]
		if !ok {
			return nil, fmt.Errorf("wire: en passant identity %d not among pieces", dto.EnPassant.PassedPawnIdentity)
		}
		snap = snap.WithEnPassant(&board.EnPassantTarget{
			CaptureSquare:      capSq,
			PassedPawnSquare:   passedSq,
			PassedPawnIdentity: passedID,
		})
	}

	for _, ed := range dto.Entanglements {
		ids := make([]board.PieceID, len(ed.PieceIDs))
		for i, rawID := range ed.PieceIDs {
			id, ok := idMap[rawID]
			if !ok {
				return nil, fmt.Errorf("wire: entanglement identity %d not among pieces", rawID)
			}
			ids[i] = id
		}
		remapped, err := remapJoint(ed.Joint, idMap)
		if err != nil {
			return nil, err
		}
		snap = snap.WithEntanglement(board.Entanglement{PieceIDs: ids, Joint: remapped, Description: ed.Description})
	}

	return snap, nil
}

// remapJoint rewrites a joint map's composite keys, which embed wire piece
// IDs, to use the freshly minted snapshot identities.
func remapJoint(joint map[string]float64, idMap map[int64]board.PieceID) (map[string]float64, error) {
	ret := make(map[string]float64, len(joint))
	for key, p := range joint {
		assign, err := board.ParseJointKey(key)
		if err != nil {
			return nil, err
		}
		remapped := map[board.PieceID]board.Square{}
		for wireID, sq := range assign {
			id, ok := idMap[int64(wireID)]
			if !ok {
				return nil, fmt.Errorf("wire: joint key identity %d not among pieces", wireID)
			}
			remapped[id] = sq
		}
		ret[board.JointKey(remapped)] = p
	}
	return ret, nil
}

// UnmarshalSnapshot decodes JSON into a board.Snapshot.
func UnmarshalSnapshot(data []byte) (*board.Snapshot, error) {
	var dto SnapshotDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}
	return DecodeSnapshot(&dto)
}
