package peer

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/blueooh/taja/internal/gomoku"
)

func newGomokuMatch(t *testing.T) (host, guest *Gomoku) {
	t.Helper()
	hostCh, guestCh := openPair(t, "gomoku:r1")
	host = NewGomoku(hostCh, RoleHost, hostPlayer, zerolog.Nop())
	guest = NewGomoku(guestCh, RoleGuest, guestPlayer, zerolog.Nop())
	startPlaying(t, host, guest, func() error { return guest.Announce(hostPlayer) })
	return host, guest
}

// place makes a move on one session and waits for the other to see it.
func place(t *testing.T, actor, other *Gomoku, row, col int) {
	t.Helper()
	if err := actor.Place(row, col); err != nil {
		t.Fatalf("place (%d,%d): %v", row, col, err)
	}
	waitFor(t, func() bool {
		return other.Board()[gomoku.Index(row, col)] != gomoku.Empty
	})
}

func TestGomokuColors(t *testing.T) {
	host, guest := newGomokuMatch(t)
	if host.Color() != gomoku.Black {
		t.Fatalf("host color = %s, want black", host.Color())
	}
	if guest.Color() != gomoku.White {
		t.Fatalf("guest color = %s, want white", guest.Color())
	}
	if host.Turn() != gomoku.Black {
		t.Fatalf("opening turn = %s, want black", host.Turn())
	}
}

func TestGomokuHorizontalWin(t *testing.T) {
	host, guest := newGomokuMatch(t)

	// Black builds (7,7)..(7,11); white answers on row 0.
	for i := 0; i < 4; i++ {
		place(t, host, guest, 7, 7+i)
		place(t, guest, host, 0, i)
	}
	place(t, host, guest, 7, 11)

	waitFor(t, func() bool { return guest.Phase() == PhaseFinished })

	want := Outcome{Winner: RoleHost, Reason: "win"}
	if host.Outcome() != want || guest.Outcome() != want {
		t.Fatalf("outcomes: host=%+v guest=%+v", host.Outcome(), guest.Outcome())
	}

	cells := host.WinningCells()
	if len(cells) != 5 {
		t.Fatalf("winning run has %d cells", len(cells))
	}
	wantCells := map[int]bool{}
	for c := 7; c <= 11; c++ {
		wantCells[gomoku.Index(7, c)] = true
	}
	for _, c := range cells {
		if !wantCells[c] {
			t.Fatalf("unexpected winning cell %d", c)
		}
	}
}

func TestGomokuDiagonalWin(t *testing.T) {
	host, guest := newGomokuMatch(t)

	for i := 0; i < 4; i++ {
		place(t, host, guest, 3+i, 3+i)
		place(t, guest, host, 14, i)
	}
	place(t, host, guest, 7, 7)

	waitFor(t, func() bool { return guest.Phase() == PhaseFinished })
	if guest.Outcome().Winner != RoleHost {
		t.Fatalf("outcome = %+v", guest.Outcome())
	}
}

func TestGomokuLocalValidation(t *testing.T) {
	host, guest := newGomokuMatch(t)

	// Not the guest's turn.
	if err := guest.Place(5, 5); err != ErrNotYourTurn {
		t.Fatalf("out of turn: got %v", err)
	}
	// Out of bounds.
	if err := host.Place(15, 0); err != ErrInvalidMove {
		t.Fatalf("out of bounds: got %v", err)
	}
	// Occupied cell.
	place(t, host, guest, 7, 7)
	if err := guest.Place(7, 7); err != ErrInvalidMove {
		t.Fatalf("occupied: got %v", err)
	}
}

func TestGomokuDropsForgedMoves(t *testing.T) {
	hostCh, guestCh := openPair(t, "gomoku:r1")
	host := NewGomoku(hostCh, RoleHost, hostPlayer, zerolog.Nop())
	guest := NewGomoku(guestCh, RoleGuest, guestPlayer, zerolog.Nop())
	startPlaying(t, host, guest, func() error { return guest.Announce(hostPlayer) })

	// Black opens so that it is white's turn while the forgeries land.
	place(t, host, guest, 7, 7)

	// A guest claiming to play black is forged; black is the host.
	if err := guestCh.Send(evMove, movePayload{Row: 1, Col: 1, Color: gomoku.Black}); err != nil {
		t.Fatal(err)
	}
	// The opening cell is occupied, whoever claims it.
	if err := guestCh.Send(evMove, movePayload{Row: 7, Col: 7, Color: gomoku.White}); err != nil {
		t.Fatal(err)
	}
	// Off the board.
	if err := guestCh.Send(evMove, movePayload{Row: 99, Col: 0, Color: gomoku.White}); err != nil {
		t.Fatal(err)
	}
	// Garbage is dropped without crashing the session.
	if err := guestCh.Send(evMove, "not a move"); err != nil {
		t.Fatal(err)
	}

	// A real white move sent on the same channel is delivered after the
	// forgeries, so seeing it land means they were all processed.
	place(t, guest, host, 2, 2)

	b := host.Board()
	if b[gomoku.Index(1, 1)] != gomoku.Empty {
		t.Fatal("forged move was applied")
	}
	if b[gomoku.Index(7, 7)] != gomoku.Black {
		t.Fatal("forgery overwrote an occupied cell")
	}
	stones := 0
	for _, c := range b {
		if c != gomoku.Empty {
			stones++
		}
	}
	if stones != 2 {
		t.Fatalf("board has %d stones, want 2", stones)
	}
}
