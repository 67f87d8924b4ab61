// Package game is the controller layer: a navigable history of snapshots,
// move application with forced-measurement handling, and win/draw status
// evaluation (spec §4.7-§4.8).
package game

import (
	"context"
	"fmt"

	"github.com/qchess/engine/pkg/board"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

var version = build.NewVersion(1, 0, 0)

// Version identifies this build of the engine, for a binary's startup log
// line (spec's ambient stack; grounded on pkg/engine/engine.go's
// package-level `version` var surfaced through Engine.Name).
func Version() string {
	return version.String()
}

// Status classifies the terminal state of a game.
type Status int

const (
	InProgress Status = iota
	WhiteWins
	BlackWins
	Draw
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "in-progress"
	case WhiteWins:
		return "white wins"
	case BlackWins:
		return "black wins"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// Record is one entry of a game's history: the snapshot reached and, except
// for the initial entry, the move and outcome that produced it.
type Record struct {
	Snapshot *board.Snapshot
	Move     board.Move   // nil for the initial record
	Outcome  board.Outcome // zero value for the initial record
}

// Game is a move-indexable timeline of board snapshots, generalizing the
// linked-node history the teacher's Board keeps for repetition detection:
// this variant's win condition (king probability mass, spec §4.7) has no use
// for position hashing, but a user reviewing a game still needs to jump to
// any prior point, so history is kept as a directly-indexable slice rather
// than a backward-linked chain (grounded on pkg/board/board.go's node/Fork
// pattern, generalized for random-access Goto instead of only Push/Pop).
type Game struct {
	history  []Record
	cursor   int // index of the currently active record
	src      board.Source
	maxPlies lang.Optional[int]
}

// NewGame returns a new game in the standard starting position, with moves
// sampled from the given deterministic seed (spec P7: replay requires a
// fixed seed).
func NewGame(seed int64) *Game {
	return NewGameFrom(StandardStartingPosition(), board.NewRandSource(seed))
}

// NewGameFrom returns a new game starting from an arbitrary snapshot, using
// the given randomness source (a board.FixedSource is useful in tests that
// need to pin a measurement outcome).
func NewGameFrom(initial *board.Snapshot, src board.Source) *Game {
	return &Game{
		history: []Record{{Snapshot: initial}},
		cursor:  0,
		src:     src,
	}
}

// WithMaxPlies caps the game at the given number of plies past the initial
// record: Status reports Draw once the cursor reaches it, regardless of
// whether a legal move remains. Grounded on
// pkg/search/searchctl/launcher.go's optional DepthLimit/TimeControl
// fields -- an absent limit (the zero value) means unbounded, exactly as
// lang.Optional's zero value does there.
func (g *Game) WithMaxPlies(n int) *Game {
	g.maxPlies = lang.Some(n)
	return g
}

// Current returns the snapshot at the cursor.
func (g *Game) Current() *board.Snapshot {
	return g.history[g.cursor].Snapshot
}

// Cursor returns the current history index.
func (g *Game) Cursor() int { return g.cursor }

// Len returns the number of records in the history.
func (g *Game) Len() int { return len(g.history) }

// History returns the full recorded timeline, up to and including any moves
// made after the cursor was last wound back.
func (g *Game) History() []Record {
	return g.history
}

// Goto moves the cursor to index without discarding any history (pure time
// travel for review; contrast Undo, which truncates).
func (g *Game) Goto(index int) error {
	if index < 0 || index >= len(g.history) {
		return fmt.Errorf("game: index %d out of range [0,%d)", index, len(g.history))
	}
	g.cursor = index
	return nil
}

// Undo rewinds one ply and discards every record after it: a subsequent
// ApplyMove branches from there, replacing what came after.
func (g *Game) Undo() error {
	if g.cursor == 0 {
		return fmt.Errorf("game: no move to undo")
	}
	g.cursor--
	g.history = g.history[:g.cursor+1]
	return nil
}

// SelectSquare returns every legal move available to any piece with nonzero
// mass at sq belonging to the color to move -- the set a UI should offer
// after a player clicks a square, without needing to know a piece's stable
// identity up front.
func (g *Game) SelectSquare(sq board.Square) ([]board.Move, error) {
	snap := g.Current()
	var moves []board.Move
	for _, p := range snap.AllPiecesAt(sq) {
		if p.Color != snap.ActiveColor() {
			continue
		}
		ms, err := board.GenerateLegalMoves(snap, p.ID, sq)
		if err != nil {
			return nil, err
		}
		moves = append(moves, ms...)
	}
	return moves, nil
}

// ApplyMove validates and executes mv against the current snapshot, appends
// the resulting record (discarding any history beyond the cursor, as with a
// classic undo/redo branch), and returns what happened.
func (g *Game) ApplyMove(ctx context.Context, mv board.Move) (board.Outcome, error) {
	snap := g.Current()

	result := board.Validate(snap, mv)
	if result.Status == board.Illegal {
		return board.Outcome{}, fmt.Errorf("game: illegal move %v: %s", mv, result.Reason)
	}

	next, outcome, err := board.Execute(snap, mv, g.src)
	if err != nil {
		return board.Outcome{}, fmt.Errorf("game: execute %v: %w", mv, err)
	}

	g.history = g.history[:g.cursor+1]
	g.history = append(g.history, Record{Snapshot: next, Move: mv, Outcome: outcome})
	g.cursor++

	if outcome.TurnLost {
		logw.Infof(ctx, "move %v lost the turn to a forced measurement", mv)
	}
	if outcome.Entangled {
		logw.Infof(ctx, "move %v produced a new entanglement", mv)
	}
	return outcome, nil
}

// Status evaluates the current snapshot's king probability masses for a win
// or a draw (spec §4.7): draw if both kings have lost essentially all mass,
// White wins if Black's has, Black wins if White's has, otherwise the game
// is active. WithMaxPlies's optional cap is the only other source of a
// Draw verdict.
func (g *Game) Status() Status {
	snap := g.Current()

	const lostEpsilon = 1e-6
	whiteLost := snap.KingTotalProbability(board.White) < lostEpsilon
	blackLost := snap.KingTotalProbability(board.Black) < lostEpsilon
	switch {
	case whiteLost && blackLost:
		return Draw
	case blackLost:
		return WhiteWins
	case whiteLost:
		return BlackWins
	}

	if limit, ok := g.maxPlies.V(); ok && g.cursor >= limit {
		return Draw
	}
	return InProgress
}
