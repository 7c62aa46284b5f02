// internal/peer/gomoku.go
//
// Gomoku session. The host plays black and moves first. A move is
// applied locally, then broadcast; the receiver re-checks bounds,
// vacancy, color and turn before applying, and drops anything else.

package peer

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/blueooh/taja/internal/gomoku"
	"github.com/blueooh/taja/internal/transport"
)

const evMove = "move"

type movePayload struct {
	Row   int          `json:"row"`
	Col   int          `json:"col"`
	Color gomoku.Color `json:"color"`
}

// Gomoku is one participant's view of a gomoku match.
type Gomoku struct {
	session

	board        gomoku.Board
	turn         gomoku.Color
	color        gomoku.Color
	winningCells []int
}

// NewGomoku attaches a gomoku session to an open channel.
func NewGomoku(ch transport.Channel, role Role, self Player, log zerolog.Logger) *Gomoku {
	g := &Gomoku{
		session: newSession(ch, role, self, log.With().Str("game", "gomoku").Logger()),
		turn:    gomoku.Black,
		color:   gomoku.Black,
	}
	if role == RoleGuest {
		g.color = gomoku.White
	}

	g.registerShared(evGameStart, nil, nil)
	ch.On(evMove, g.onRemoteMove)
	return g
}

// Announce is the guest's arrival broadcast; the start event carries
// only the identity, the board starts empty on both sides.
func (g *Gomoku) Announce(host Player) error {
	return g.announceStart(evGameStart, host, startPayload{})
}

// Color returns the local player's stone color.
func (g *Gomoku) Color() gomoku.Color { return g.color }

// Turn returns whose color moves next.
func (g *Gomoku) Turn() gomoku.Color {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turn
}

// Board returns a snapshot of the board.
func (g *Gomoku) Board() gomoku.Board {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board
}

// WinningCells returns the five-or-more run that ended the match,
// or nil while it is still running.
func (g *Gomoku) WinningCells() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int(nil), g.winningCells...)
}

// Place plays a stone at (row, col) for the local player.
func (g *Gomoku) Place(row, col int) error {
	g.mu.Lock()
	if g.phase != PhasePlaying {
		g.mu.Unlock()
		return ErrPhase
	}
	if g.turn != g.color {
		g.mu.Unlock()
		return ErrNotYourTurn
	}
	if !gomoku.InBounds(row, col) || g.board[gomoku.Index(row, col)] != gomoku.Empty {
		g.mu.Unlock()
		return ErrInvalidMove
	}

	g.apply(row, col, g.color)
	g.mu.Unlock()

	if err := g.ch.Send(evMove, movePayload{Row: row, Col: col, Color: g.color}); err != nil {
		return err
	}
	g.notify()
	return nil
}

func (g *Gomoku) onRemoteMove(payload json.RawMessage) {
	var m movePayload
	if err := json.Unmarshal(payload, &m); err != nil {
		return
	}

	g.mu.Lock()
	valid := g.phase == PhasePlaying &&
		gomoku.ValidColor(m.Color) &&
		m.Color != g.color &&
		g.turn == m.Color &&
		gomoku.InBounds(m.Row, m.Col) &&
		g.board[gomoku.Index(m.Row, m.Col)] == gomoku.Empty
	if !valid {
		g.mu.Unlock()
		g.log.Debug().Int("row", m.Row).Int("col", m.Col).Msg("dropped invalid move")
		return
	}
	g.apply(m.Row, m.Col, m.Color)
	g.mu.Unlock()
	g.notify()
}

// apply mutates board and turn; caller holds the lock.
func (g *Gomoku) apply(row, col int, c gomoku.Color) {
	g.board.Apply(row, col, c)
	if cells := g.board.CheckWin(row, col, c); cells != nil {
		g.winningCells = cells
		winner := RoleHost
		if c == gomoku.White {
			winner = RoleGuest
		}
		g.finishLocked(winner, "win")
		return
	}
	if g.turn == gomoku.Black {
		g.turn = gomoku.White
	} else {
		g.turn = gomoku.Black
	}
}
