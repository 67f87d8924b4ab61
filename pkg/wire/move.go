package wire

import (
	"fmt"

	"github.com/qchess/engine/pkg/board"
)

// MoveDTO is the wire form of a board.Move: a flat struct tagged by Type,
// carrying only the fields that variant needs (spec §6's move record shape,
// field-for-field: pieceId/capturedPieceId, and "en-passant" as the type
// tag). RookID is not part of that record -- castling's wire shape only
// fixes pieceId/from/to/rookFrom/rookTo/side -- but DecodeMove has no
// snapshot to resolve the rook's identity from rookFrom, so it is carried
// as an additive field alongside the fixed ones.
type MoveDTO struct {
	Type    string `json:"type"`
	PieceID int64  `json:"pieceId"`

	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	CapturedPieceID *int64 `json:"capturedPieceId,omitempty"`

	To1         string   `json:"to1,omitempty"`
	To2         string   `json:"to2,omitempty"`
	Probability *float64 `json:"probability,omitempty"`

	From1 string `json:"from1,omitempty"`
	From2 string `json:"from2,omitempty"`

	RookID   *int64 `json:"rookId,omitempty"`
	RookFrom string `json:"rookFrom,omitempty"`
	RookTo   string `json:"rookTo,omitempty"`
	Side     string `json:"side,omitempty"`

	CapturedPawnSquare string `json:"capturedPawnSquare,omitempty"`

	PromoteTo string `json:"promoteTo,omitempty"`
}

// EncodeMove converts a board.Move to its wire form.
func EncodeMove(mv board.Move) (*MoveDTO, error) {
	switch m := mv.(type) {
	case board.NormalMove:
		return &MoveDTO{Type: "normal", PieceID: int64(m.Piece), From: m.From.String(), To: m.To.String()}, nil

	case board.CaptureMove:
		cap := int64(m.CapturedPiece)
		return &MoveDTO{Type: "capture", PieceID: int64(m.Piece), From: m.From.String(), To: m.To.String(), CapturedPieceID: &cap}, nil

	case board.SplitMove:
		p := m.Probability
		return &MoveDTO{Type: "split", PieceID: int64(m.Piece), From: m.From.String(), To1: m.To1.String(), To2: m.To2.String(), Probability: &p}, nil

	case board.MergeMove:
		return &MoveDTO{Type: "merge", PieceID: int64(m.Piece), From1: m.From1.String(), From2: m.From2.String(), To: m.To.String()}, nil

	case board.CastlingMove:
		rook := int64(m.Rook)
		return &MoveDTO{
			Type: "castling", PieceID: int64(m.Piece), From: m.From.String(), To: m.To.String(),
			RookID: &rook, RookFrom: m.RookFrom.String(), RookTo: m.RookTo.String(), Side: m.Side.String(),
		}, nil

	case board.EnPassantMove:
		cap := int64(m.CapturedPiece)
		return &MoveDTO{
			Type: "en-passant", PieceID: int64(m.Piece), From: m.From.String(), To: m.To.String(),
			CapturedPieceID: &cap, CapturedPawnSquare: m.CapturedPawnSquare.String(),
		}, nil

	case board.PromotionMove:
		dto := &MoveDTO{Type: "promotion", PieceID: int64(m.Piece), From: m.From.String(), To: m.To.String(), PromoteTo: m.PromoteTo.String()}
		if m.CapturedPiece != board.NoPieceID {
			cap := int64(m.CapturedPiece)
			dto.CapturedPieceID = &cap
		}
		return dto, nil

	default:
		return nil, fmt.Errorf("wire: unrecognized move variant %T", mv)
	}
}

// DecodeMove reconstructs a board.Move from its wire form. Piece identities
// are NOT remapped (unlike DecodeSnapshot): a move is only ever meaningful
// against the snapshot it was generated from, so callers are expected to
// decode moves in the same identity space as the snapshot they apply to.
func DecodeMove(dto *MoveDTO) (board.Move, error) {
	piece := board.PieceID(dto.PieceID)

	sq := func(s string) (board.Square, error) { return board.ParseSquareStr(s) }

	switch dto.Type {
	case "normal":
		from, err := sq(dto.From)
		if err != nil {
			return nil, err
		}
		to, err := sq(dto.To)
		if err != nil {
			return nil, err
		}
		return board.NormalMove{Piece: piece, From: from, To: to}, nil

	case "capture":
		from, err := sq(dto.From)
		if err != nil {
			return nil, err
		}
		to, err := sq(dto.To)
		if err != nil {
			return nil, err
		}
		if dto.CapturedPieceID == nil {
			return nil, fmt.Errorf("wire: capture move missing capturedPieceId")
		}
		return board.CaptureMove{Piece: piece, From: from, To: to, CapturedPiece: board.PieceID(*dto.CapturedPieceID)}, nil

	case "split":
		from, err := sq(dto.From)
		if err != nil {
			return nil, err
		}
		to1, err := sq(dto.To1)
		if err != nil {
			return nil, err
		}
		to2, err := sq(dto.To2)
		if err != nil {
			return nil, err
		}
		ratio := 0.5
		if dto.Probability != nil {
			ratio = *dto.Probability
		}
		return board.SplitMove{Piece: piece, From: from, To1: to1, To2: to2, Probability: ratio}, nil

	case "merge":
		from1, err := sq(dto.From1)
		if err != nil {
			return nil, err
		}
		from2, err := sq(dto.From2)
		if err != nil {
			return nil, err
		}
		to, err := sq(dto.To)
		if err != nil {
			return nil, err
		}
		return board.MergeMove{Piece: piece, From1: from1, From2: from2, To: to}, nil

	case "castling":
		from, err := sq(dto.From)
		if err != nil {
			return nil, err
		}
		to, err := sq(dto.To)
		if err != nil {
			return nil, err
		}
		rookFrom, err := sq(dto.RookFrom)
		if err != nil {
			return nil, err
		}
		rookTo, err := sq(dto.RookTo)
		if err != nil {
			return nil, err
		}
		side, err := board.ParseCastling(dto.Side)
		if err != nil {
			return nil, err
		}
		if dto.RookID == nil {
			return nil, fmt.Errorf("wire: castling move missing rookId")
		}
		return board.CastlingMove{
			Piece: piece, From: from, To: to,
			Rook: board.PieceID(*dto.RookID), RookFrom: rookFrom, RookTo: rookTo, Side: side,
		}, nil

	case "en-passant":
		from, err := sq(dto.From)
		if err != nil {
			return nil, err
		}
		to, err := sq(dto.To)
		if err != nil {
			return nil, err
		}
		capSq, err := sq(dto.CapturedPawnSquare)
		if err != nil {
			return nil, err
		}
		if dto.CapturedPieceID == nil {
			return nil, fmt.Errorf("wire: en-passant move missing capturedPieceId")
		}
		return board.EnPassantMove{
			Piece: piece, From: from, To: to,
			CapturedPawnSquare: capSq, CapturedPiece: board.PieceID(*dto.CapturedPieceID),
		}, nil

	case "promotion":
		from, err := sq(dto.From)
		if err != nil {
			return nil, err
		}
		to, err := sq(dto.To)
		if err != nil {
			return nil, err
		}
		promoteTo, ok := board.ParsePiece([]rune(dto.PromoteTo)[0])
		if !ok {
			return nil, fmt.Errorf("wire: invalid promoteTo %q", dto.PromoteTo)
		}
		captured := board.NoPieceID
		if dto.CapturedPieceID != nil {
			captured = board.PieceID(*dto.CapturedPieceID)
		}
		return board.PromotionMove{Piece: piece, From: from, To: to, PromoteTo: promoteTo, CapturedPiece: captured}, nil

	default:
		return nil, fmt.Errorf("wire: unrecognized move type %q", dto.Type)
	}
}
