// Command quantumchess-server streams game state over a WebSocket
// connection, one game per connection. Grounded on bin/morlock/main.go's
// read/write-line goroutine pair, generalized from stdin/stdout to a
// gorilla/websocket connection and from plain lines to the JSON wire
// schema (pkg/wire).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/qchess/engine/pkg/board"
	"github.com/qchess/engine/pkg/game"
	"github.com/qchess/engine/pkg/wire"
	"github.com/seekerror/logw"
)

var addr = flag.String("addr", ":8080", "Listen address")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// request is one inbound client message: "new" to start a game with a seed,
// or "apply" to submit a move.
type request struct {
	Command string        `json:"command"`
	Seed    int64         `json:"seed,omitempty"`
	Move    *wire.MoveDTO `json:"move,omitempty"`
}

// response mirrors a request back with the resulting snapshot, or an error.
type response struct {
	Snapshot *wire.SnapshotDTO `json:"snapshot,omitempty"`
	Status   string            `json:"status,omitempty"`
	TurnLost bool              `json:"turnLost,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func main() {
	flag.Parse()
	ctx := context.Background()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveConn(ctx, w, r)
	})

	logw.Infof(ctx, "quantumchess-server %v listening on %v", game.Version(), *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		logw.Exitf(ctx, "listen failed: %v", err)
	}
}

func serveConn(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logw.Errorf(ctx, "upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	logw.Infof(ctx, "connection opened from %v", conn.RemoteAddr())

	var g *game.Game
	for {
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			logw.Infof(ctx, "connection closed: %v", err)
			return
		}

		switch req.Command {
		case "new":
			g = game.NewGame(req.Seed)
			writeSnapshot(ctx, conn, g)

		case "apply":
			if g == nil {
				writeError(ctx, conn, fmt.Errorf("no game in progress; send \"new\" first"))
				continue
			}
			if req.Move == nil {
				writeError(ctx, conn, fmt.Errorf("apply requires a move"))
				continue
			}
			mv, err := wire.DecodeMove(req.Move)
			if err != nil {
				writeError(ctx, conn, err)
				continue
			}
			outcome, err := g.ApplyMove(ctx, mv)
			if err != nil {
				writeError(ctx, conn, err)
				continue
			}
			writeOutcome(ctx, conn, g, outcome)

		default:
			writeError(ctx, conn, fmt.Errorf("unrecognized command %q", req.Command))
		}
	}
}

func writeSnapshot(ctx context.Context, conn *websocket.Conn, g *game.Game) {
	resp := response{Snapshot: wire.EncodeSnapshot(g.Current()), Status: g.Status().String()}
	if err := conn.WriteJSON(resp); err != nil {
		logw.Errorf(ctx, "write failed: %v", err)
	}
}

func writeOutcome(ctx context.Context, conn *websocket.Conn, g *game.Game, outcome board.Outcome) {
	resp := response{Snapshot: wire.EncodeSnapshot(g.Current()), Status: g.Status().String(), TurnLost: outcome.TurnLost}
	if err := conn.WriteJSON(resp); err != nil {
		logw.Errorf(ctx, "write failed: %v", err)
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, err error) {
	logw.Warningf(ctx, "request error: %v", err)
	if werr := conn.WriteJSON(response{Error: err.Error()}); werr != nil {
		logw.Errorf(ctx, "write failed: %v", werr)
	}
}
