// internal/peer/gostop.go
//
// Gostop session. The guest shuffles and broadcasts the full deal
// right after joining; the host then owns every pile draw and
// broadcasts each drawn card. Both peers keep a copy of the pile
// order, so the guest can verify that the host draws exactly the card
// it should. The host acts first and wins score ties.

package peer

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/blueooh/taja/internal/gostop"
	"github.com/blueooh/taja/internal/hwatu"
	"github.com/blueooh/taja/internal/transport"
)

const (
	evPlayCard   = "play_card"
	evDrawResult = "draw_result"
	evGoDecision = "go_decision"
)

type playPayload struct {
	CardID int `json:"cardId"`
}

type drawPayload struct {
	CardID int `json:"cardId"`
}

type goStopPayload struct {
	Decision string `json:"decision"` // "go" or "stop"
}

// gostopSide is one player's holdings.
type gostopSide struct {
	hand     []hwatu.Card
	captured gostop.CapturedPile
	goCount  int
	bonus    int // peok points collected from the opponent
}

// Gostop is one participant's view of a gostop match.
type Gostop struct {
	session

	dealt    bool
	field    []hwatu.Card
	drawPile []hwatu.Card
	sides    map[Role]*gostopSide
	turn     Role

	// awaitingDraw is set between a play and the host's draw broadcast.
	awaitingDraw bool
	// lastPlayed is the card resolved by the pending draw's peok check.
	lastPlayed        hwatu.Card
	lastPlayedMatched bool

	// deciding is non-empty while that role must declare go or stop.
	deciding Role

	finalScore int
}

// NewGostop attaches a gostop session to an open channel.
func NewGostop(ch transport.Channel, role Role, self Player, log zerolog.Logger) *Gostop {
	g := &Gostop{
		session: newSession(ch, role, self, log.With().Str("game", "gostop").Logger()),
		sides:   map[Role]*gostopSide{RoleHost: {}, RoleGuest: {}},
		turn:    RoleHost,
	}

	g.registerShared(evGameStart, g.onStartDeal, nil)
	ch.On(evPlayCard, g.onRemotePlay)
	ch.On(evDrawResult, g.onRemoteDraw)
	ch.On(evGoDecision, g.onRemoteGoStop)
	return g
}

// Announce broadcasts the guest's arrival with the full shuffled deal
// riding on the start event. Only the guest calls this.
func (g *Gostop) Announce(host Player) error {
	deck := hwatu.Shuffle()

	g.mu.Lock()
	g.applyDeal(deck)
	g.mu.Unlock()

	return g.announceStart(evGameStart, host, startPayload{Deck: hwatu.IDs(deck)})
}

// Dealt reports whether the deal exchange completed.
func (g *Gostop) Dealt() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dealt
}

// Hand returns the local player's hand.
func (g *Gostop) Hand() []hwatu.Card {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]hwatu.Card(nil), g.sides[g.role].hand...)
}

// Field returns the open field cards.
func (g *Gostop) Field() []hwatu.Card {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]hwatu.Card(nil), g.field...)
}

// Captured returns a role's captured pile.
func (g *Gostop) Captured(role Role) gostop.CapturedPile {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sides[role].captured
}

// Turn returns whose turn it is.
func (g *Gostop) Turn() Role {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turn
}

// Score returns a role's current score including peok bonuses.
func (g *Gostop) Score(role Role) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scoreLocked(role)
}

// FinalScore returns the winner's multiplied score once finished.
func (g *Gostop) FinalScore() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.finalScore
}

// Deciding returns the role that must declare go or stop, or "".
func (g *Gostop) Deciding() Role {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deciding
}

// AwaitingDraw reports whether a play is waiting on the host's draw.
func (g *Gostop) AwaitingDraw() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.awaitingDraw
}

// PlayCard plays a card from the local hand. The host follows up with
// the pile draw immediately; the guest's turn completes when the
// host's draw broadcast arrives.
func (g *Gostop) PlayCard(cardID int) error {
	g.mu.Lock()
	if g.phase != PhasePlaying || !g.dealt {
		g.mu.Unlock()
		return ErrPhase
	}
	if g.turn != g.role || g.deciding != "" || g.awaitingDraw {
		g.mu.Unlock()
		return ErrNotYourTurn
	}
	if !g.holds(g.role, cardID) {
		g.mu.Unlock()
		return ErrInvalidMove
	}
	g.applyPlay(g.role, cardID)
	g.mu.Unlock()

	if err := g.ch.Send(evPlayCard, playPayload{CardID: cardID}); err != nil {
		return err
	}
	g.notify()

	if g.role == RoleHost {
		return g.hostDraw(RoleHost)
	}
	return nil
}

// DeclareGo keeps playing for a bigger multiplier.
func (g *Gostop) DeclareGo() error {
	g.mu.Lock()
	if g.phase != PhasePlaying || g.deciding != g.role {
		g.mu.Unlock()
		return ErrPhase
	}
	g.applyGo(g.role)
	g.mu.Unlock()

	if err := g.ch.Send(evGoDecision, goStopPayload{Decision: "go"}); err != nil {
		return err
	}
	g.notify()
	return nil
}

// DeclareStop ends the match and banks the score.
func (g *Gostop) DeclareStop() error {
	g.mu.Lock()
	if g.phase != PhasePlaying || g.deciding != g.role {
		g.mu.Unlock()
		return ErrPhase
	}
	g.applyStop(g.role)
	g.mu.Unlock()

	if err := g.ch.Send(evGoDecision, goStopPayload{Decision: "stop"}); err != nil {
		return err
	}
	g.notify()
	return nil
}

// hostDraw pops the pile, applies the draw and broadcasts it.
func (g *Gostop) hostDraw(turnOf Role) error {
	g.mu.Lock()
	if g.phase != PhasePlaying || !g.awaitingDraw || len(g.drawPile) == 0 {
		g.mu.Unlock()
		return nil
	}
	drawn := g.drawPile[0]
	g.applyDraw(turnOf, drawn)
	g.mu.Unlock()

	if err := g.ch.Send(evDrawResult, drawPayload{CardID: drawn.ID}); err != nil {
		return err
	}
	g.notify()
	return nil
}

// ----------------------------- remote events -------------------------------

// onStartDeal validates the deck riding on the start event and applies
// it. Runs under the lock; returning false drops the whole start.
func (g *Gostop) onStartDeal(p startPayload) bool {
	if g.role != RoleHost || g.dealt {
		return false
	}
	deck, ok := hwatu.FromIDs(p.Deck)
	if !ok || len(deck) != len(hwatu.Deck) {
		return false
	}
	seen := make(map[int]bool, len(deck))
	for _, c := range deck {
		if seen[c.ID] {
			return false
		}
		seen[c.ID] = true
	}
	g.applyDeal(deck)
	return true
}

func (g *Gostop) onRemotePlay(payload json.RawMessage) {
	var p playPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	from := g.role.Opponent()

	g.mu.Lock()
	valid := g.phase == PhasePlaying && g.dealt && g.turn == from &&
		g.deciding == "" && !g.awaitingDraw && g.holds(from, p.CardID)
	if !valid {
		g.mu.Unlock()
		g.log.Debug().Int("card", p.CardID).Msg("dropped invalid play")
		return
	}
	g.applyPlay(from, p.CardID)
	g.mu.Unlock()
	g.notify()

	// The host resolves the guest's draw too.
	if g.role == RoleHost {
		_ = g.hostDraw(from)
	}
}

func (g *Gostop) onRemoteDraw(payload json.RawMessage) {
	var d drawPayload
	if err := json.Unmarshal(payload, &d); err != nil {
		return
	}

	g.mu.Lock()
	// Only the host deals out draws, and only the pile's next card is
	// an honest one.
	valid := g.role == RoleGuest && g.phase == PhasePlaying && g.awaitingDraw &&
		len(g.drawPile) > 0 && g.drawPile[0].ID == d.CardID
	if !valid {
		g.mu.Unlock()
		g.log.Debug().Int("card", d.CardID).Msg("dropped invalid draw")
		return
	}
	g.applyDraw(g.turn, g.drawPile[0])
	g.mu.Unlock()
	g.notify()
}

func (g *Gostop) onRemoteGoStop(payload json.RawMessage) {
	var p goStopPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	from := g.role.Opponent()

	g.mu.Lock()
	if g.phase != PhasePlaying || g.deciding != from {
		g.mu.Unlock()
		return
	}
	switch p.Decision {
	case "go":
		g.applyGo(from)
	case "stop":
		g.applyStop(from)
	default:
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()
	g.notify()
}

// ------------------------------ rule driver --------------------------------
// All appliers run under the lock and identically on both peers.

func (g *Gostop) applyDeal(deck []hwatu.Card) {
	deal := hwatu.Deal(deck)
	g.sides[RoleHost].hand = deal.HostHand
	g.sides[RoleGuest].hand = deal.GuestHand
	g.field = deal.Field
	g.drawPile = deal.DrawPile
	g.dealt = true
}

func (g *Gostop) holds(role Role, cardID int) bool {
	for _, c := range g.sides[role].hand {
		if c.ID == cardID {
			return true
		}
	}
	return false
}

// applyPlay resolves the hand card and leaves the turn waiting on the
// pile draw.
func (g *Gostop) applyPlay(role Role, cardID int) {
	side := g.sides[role]

	var played hwatu.Card
	for i, c := range side.hand {
		if c.ID == cardID {
			played = c
			side.hand = append(side.hand[:i], side.hand[i+1:]...)
			break
		}
	}

	matches := gostop.FindMatches(g.field, played)
	res := gostop.ResolvePlay(g.field, played)
	g.field = res.NewField
	side.captured.Add(res.Taken)

	g.lastPlayed = played
	g.lastPlayedMatched = len(matches) > 0
	g.awaitingDraw = true
}

// applyDraw resolves the pile card and completes the turn.
func (g *Gostop) applyDraw(role Role, drawn hwatu.Card) {
	side := g.sides[role]
	g.drawPile = g.drawPile[1:]
	g.awaitingDraw = false

	drawnMatches := gostop.FindMatches(g.field, drawn)
	res := gostop.ResolvePlay(g.field, drawn)
	g.field = res.NewField
	side.captured.Add(res.Taken)

	var playedMatches []hwatu.Card
	if g.lastPlayedMatched {
		playedMatches = []hwatu.Card{g.lastPlayed}
	}
	if gostop.IsPeok(playedMatches, drawnMatches, g.lastPlayed, drawn) {
		g.sides[role.Opponent()].bonus++
	}

	// Deck exhausted: compare scores, host takes ties.
	if len(g.sides[RoleHost].hand) == 0 && len(g.sides[RoleGuest].hand) == 0 {
		g.finishExhausted()
		return
	}

	if g.scoreLocked(role) >= 3 {
		g.deciding = role
		return
	}
	g.turn = role.Opponent()
}

func (g *Gostop) applyGo(role Role) {
	g.sides[role].goCount++
	g.deciding = ""
	g.turn = role.Opponent()
}

func (g *Gostop) applyStop(role Role) {
	score := g.scoreLocked(role)
	total := g.sides[RoleHost].goCount + g.sides[RoleGuest].goCount
	g.finalScore = gostop.FinalScore(score, total)
	g.deciding = ""
	g.finishLocked(role, "win")
}

// finishExhausted ends the hand when both hands run dry. Higher score
// wins; the host takes ties.
func (g *Gostop) finishExhausted() {
	host := g.scoreLocked(RoleHost)
	guest := g.scoreLocked(RoleGuest)
	winner, best := RoleHost, host
	if guest > host {
		winner, best = RoleGuest, guest
	}
	total := g.sides[RoleHost].goCount + g.sides[RoleGuest].goCount
	g.finalScore = gostop.FinalScore(best, total)
	g.deciding = ""
	g.finishLocked(winner, "win")
}

func (g *Gostop) scoreLocked(role Role) int {
	side := g.sides[role]
	return gostop.CalculateScore(side.captured, side.bonus)
}
