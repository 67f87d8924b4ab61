// Command quantumchess is a line-oriented console driver for the engine,
// grounded on bin/morlock/main.go's stdin-scanning loop and
// pkg/engine/console's command-parsing style (simplified: one process, no
// async driver wrapper, since there is no search engine running concurrently
// here).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/qchess/engine/pkg/board"
	"github.com/qchess/engine/pkg/game"
	"github.com/seekerror/logw"
)

var seed = flag.Int64("seed", 1, "Seed for the measurement/sampling randomness source")

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: quantumchess [options]

QUANTUMCHESS is a console driver for the quantum chess rules engine.
Commands (one per line):
  show                         print the board
  select <square>              list legal moves from a square
  move <piece-id> <from> <to>  play a normal/capture move
  split <piece-id> <from> <to1> <to2> [p]
  merge <piece-id> <from1> <from2> <to>
  undo                         undo the last move
  goto <index>                 jump to a point in history
  quit

Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	logw.Infof(ctx, "quantumchess %v starting (seed=%v)", game.Version(), *seed)

	g := game.NewGame(*seed)
	printBoard(ctx, g)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		logw.Debugf(ctx, "<< %v", line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "quit", "exit":
			return

		case "show":
			printBoard(ctx, g)

		case "select":
			handleSelect(ctx, g, args)

		case "move":
			handleMove(ctx, g, args)

		case "split":
			handleSplit(ctx, g, args)

		case "merge":
			handleMerge(ctx, g, args)

		case "undo":
			if err := g.Undo(); err != nil {
				logw.Errorf(ctx, "undo: %v", err)
				break
			}
			printBoard(ctx, g)

		case "goto":
			idx, err := strconv.Atoi(first(args))
			if err != nil {
				logw.Errorf(ctx, "goto: %v", err)
				break
			}
			if err := g.Goto(idx); err != nil {
				logw.Errorf(ctx, "goto: %v", err)
				break
			}
			printBoard(ctx, g)

		default:
			logw.Warningf(ctx, "unknown command %q", cmd)
		}
	}

	logw.Infof(ctx, "input stream closed, exiting")
}

func first(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func parseSquare(s string) (board.Square, error) {
	return board.ParseSquareStr(s)
}

func handleSelect(ctx context.Context, g *game.Game, args []string) {
	if len(args) != 1 {
		logw.Errorf(ctx, "usage: select <square>")
		return
	}
	sq, err := parseSquare(args[0])
	if err != nil {
		logw.Errorf(ctx, "select: %v", err)
		return
	}
	moves, err := g.SelectSquare(sq)
	if err != nil {
		logw.Errorf(ctx, "select: %v", err)
		return
	}
	for _, m := range moves {
		fmt.Println(m.String())
	}
}

func handleMove(ctx context.Context, g *game.Game, args []string) {
	if len(args) != 3 {
		logw.Errorf(ctx, "usage: move <piece-id> <from> <to>")
		return
	}
	id, from, to, ok := parsePieceFromTo(ctx, args[0], args[1], args[2])
	if !ok {
		return
	}

	snap := g.Current()
	p, ok := snap.Piece(id)
	if !ok {
		logw.Errorf(ctx, "move: no such piece %v", id)
		return
	}

	var mv board.Move = board.NormalMove{Piece: id, From: from, To: to}
	if occ, ok := snap.PieceAt(to); ok && occ.Color != p.Color {
		mv = board.CaptureMove{Piece: id, From: from, To: to, CapturedPiece: occ.ID}
	}

	applyAndReport(ctx, g, mv)
}

func handleSplit(ctx context.Context, g *game.Game, args []string) {
	if len(args) < 4 {
		logw.Errorf(ctx, "usage: split <piece-id> <from> <to1> <to2> [p]")
		return
	}
	id, from, to1, ok := parsePieceFromTo(ctx, args[0], args[1], args[2])
	if !ok {
		return
	}
	to2, err := parseSquare(args[3])
	if err != nil {
		logw.Errorf(ctx, "split: %v", err)
		return
	}
	ratio := 0.5
	if len(args) > 4 {
		if v, err := strconv.ParseFloat(args[4], 64); err == nil {
			ratio = v
		}
	}
	applyAndReport(ctx, g, board.SplitMove{Piece: id, From: from, To1: to1, To2: to2, Probability: ratio})
}

func handleMerge(ctx context.Context, g *game.Game, args []string) {
	if len(args) != 4 {
		logw.Errorf(ctx, "usage: merge <piece-id> <from1> <from2> <to>")
		return
	}
	id, from1, from2, ok := parsePieceFromTo(ctx, args[0], args[1], args[2])
	if !ok {
		return
	}
	to, err := parseSquare(args[3])
	if err != nil {
		logw.Errorf(ctx, "merge: %v", err)
		return
	}
	applyAndReport(ctx, g, board.MergeMove{Piece: id, From1: from1, From2: from2, To: to})
}

func parsePieceFromTo(ctx context.Context, idStr, fromStr, toStr string) (board.PieceID, board.Square, board.Square, bool) {
	raw, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		logw.Errorf(ctx, "invalid piece id %q: %v", idStr, err)
		return 0, 0, 0, false
	}
	from, err := parseSquare(fromStr)
	if err != nil {
		logw.Errorf(ctx, "invalid square %q: %v", fromStr, err)
		return 0, 0, 0, false
	}
	to, err := parseSquare(toStr)
	if err != nil {
		logw.Errorf(ctx, "invalid square %q: %v", toStr, err)
		return 0, 0, 0, false
	}
	return board.PieceID(raw), from, to, true
}

func applyAndReport(ctx context.Context, g *game.Game, mv board.Move) {
	outcome, err := g.ApplyMove(ctx, mv)
	if err != nil {
		logw.Errorf(ctx, "%v", err)
		return
	}
	if outcome.TurnLost {
		fmt.Println("measurement resolved away from the intended square; turn lost")
	}
	printBoard(ctx, g)

	if status := g.Status(); status != game.InProgress {
		logw.Infof(ctx, "game over: %v", status)
	}
}

func printBoard(ctx context.Context, g *game.Game) {
	snap := g.Current()
	fmt.Println(snap.String())
	for _, p := range snap.Pieces() {
		fmt.Printf("  #%d %v%v", p.ID, p.Color, p.Kind)
		for _, sq := range p.Dist.Squares() {
			fmt.Printf(" %v@%.2f", sq, p.Dist.At(sq))
		}
		fmt.Println()
	}
}
