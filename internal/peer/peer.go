// internal/peer/peer.go
//
// Shared machinery for peer-authoritative match sessions. There is no
// referee: both participants run the same deterministic rules, apply
// their own actions optimistically, and broadcast them. Incoming
// actions are revalidated structurally and dropped silently when they
// make no sense; a well-behaved opponent never triggers a drop.
//
// Lifecycle: waiting -> countdown -> playing -> finished. The guest
// announces itself after subscribing; both sides then run a local
// three tick countdown and start playing simultaneously.

package peer

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/blueooh/taja/internal/transport"
)

// Phase is the match lifecycle stage.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseFinished  Phase = "finished"
)

// Role identifies a participant. The room creator (or first queue
// entrant) is the host and owns tie-breaking decisions.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Opponent returns the other role.
func (r Role) Opponent() Role {
	if r == RoleHost {
		return RoleGuest
	}
	return RoleHost
}

// Player is one participant's public identity.
type Player struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// Outcome describes how a finished match ended.
type Outcome struct {
	Winner Role   `json:"winner"`
	Reason string `json:"reason"` // "win", "surrender", "opponent_left", "draw"
}

// Shared event names. Game-specific events live with their sessions.
// opponent_left is the single terminal signal; the sender records its
// own reason (surrender vs leaving) locally.
const (
	evGameStart    = "game_start"
	evBattleStart  = "battle_start"
	evOpponentLeft = "opponent_left"
)

// startPayload is the body of game_start/battle_start: the announcing
// guest's identity plus whatever shared state the game needs agreed on
// before play (the shuffled deck for cards, the sentence for races).
type startPayload struct {
	Player   Player `json:"player"`
	Deck     []int  `json:"deck,omitempty"`
	Sentence string `json:"sentence,omitempty"`
}

// countdownTicks is how many local ticks separate join from play.
const countdownTicks = 3

// leaveGrace is how long a dead transport may stay silent before the
// opponent is declared gone.
const leaveGrace = 10 * time.Second

// session is the state shared by every game type. Embedders hold its
// mutex while mutating their own state so phase and game state always
// change together.
type session struct {
	mu sync.Mutex

	ch        transport.Channel
	role      Role
	phase     Phase
	self      Player
	opponent  Player
	countdown int
	outcome   Outcome
	log       zerolog.Logger

	graceTimer *time.Timer

	// onChange fires after every state transition, outside the lock.
	onChange func()

	// onPlayingHook runs under the lock when the countdown completes.
	onPlayingHook func()
}

func newSession(ch transport.Channel, role Role, self Player, log zerolog.Logger) session {
	s := session{
		ch:        ch,
		role:      role,
		phase:     PhaseWaiting,
		self:      self,
		countdown: countdownTicks,
		log:       log,
	}
	return s
}

// Phase returns the current lifecycle stage.
func (s *session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Role returns this participant's role.
func (s *session) Role() Role { return s.role }

// Opponent returns the opponent's identity, zero until they join.
func (s *session) Opponent() Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opponent
}

// Outcome returns the result; only meaningful once finished.
func (s *session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Countdown returns the remaining ticks before play starts.
func (s *session) Countdown() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown
}

// OnChange registers a callback fired after every state change.
// Register before any remote traffic can arrive.
func (s *session) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *session) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// registerShared wires the lifecycle events every game shares.
// startEvent is game_start or battle_start; onStart runs under the
// lock and may reject the payload by returning false. The onPlaying
// hook runs (under the lock) when the countdown completes.
func (s *session) registerShared(startEvent string, onStart func(startPayload) bool, onPlaying func()) {
	s.ch.On(startEvent, func(payload json.RawMessage) {
		var p startPayload
		if err := json.Unmarshal(payload, &p); err != nil || p.Player.ID == "" {
			return
		}
		s.mu.Lock()
		if s.phase != PhaseWaiting {
			s.mu.Unlock()
			return
		}
		if onStart != nil && !onStart(p) {
			s.mu.Unlock()
			s.log.Debug().Str("event", startEvent).Msg("dropped invalid start")
			return
		}
		s.opponent = p.Player
		s.phase = PhaseCountdown
		s.countdown = countdownTicks
		s.mu.Unlock()
		s.notify()
	})

	s.ch.On(evOpponentLeft, func(json.RawMessage) { s.opponentLeft() })

	s.ch.OnError(func(err error) {
		s.log.Warn().Err(err).Msg("transport failed")
		s.mu.Lock()
		if s.graceTimer == nil {
			s.graceTimer = time.AfterFunc(leaveGrace, s.opponentLeft)
		}
		s.mu.Unlock()
	})

	s.mu.Lock()
	s.onPlayingHook = onPlaying
	s.mu.Unlock()
}

// announceStart broadcasts the guest's arrival (plus any shared state
// the game rides on the start event) and moves the guest into
// countdown. The guest calls this once right after subscribing.
func (s *session) announceStart(event string, host Player, p startPayload) error {
	p.Player = s.self
	s.mu.Lock()
	s.opponent = host
	s.phase = PhaseCountdown
	s.countdown = countdownTicks
	s.mu.Unlock()
	if err := s.ch.Send(event, p); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Tick advances the countdown by one step. The last tick flips the
// session to playing. Ticks outside the countdown phase are ignored.
func (s *session) Tick() {
	s.mu.Lock()
	if s.phase != PhaseCountdown {
		s.mu.Unlock()
		return
	}
	s.countdown--
	if s.countdown > 0 {
		s.mu.Unlock()
		s.notify()
		return
	}
	s.phase = PhasePlaying
	if s.onPlayingHook != nil {
		s.onPlayingHook()
	}
	s.mu.Unlock()
	s.notify()
}

// RunCountdown drives Tick on a wall-clock interval until play starts.
func (s *session) RunCountdown(interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for range t.C {
			s.Tick()
			if s.Phase() != PhaseCountdown {
				return
			}
		}
	}()
}

// Surrender concedes the match. The opponent only sees opponent_left;
// the surrender reason is recorded locally.
func (s *session) Surrender() error {
	s.mu.Lock()
	if s.phase != PhasePlaying {
		s.mu.Unlock()
		return ErrPhase
	}
	s.phase = PhaseFinished
	s.outcome = Outcome{Winner: s.role.Opponent(), Reason: "surrender"}
	s.mu.Unlock()
	if err := s.ch.Send(evOpponentLeft, struct{}{}); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Leave tells the opponent we are gone and closes the channel.
func (s *session) Leave() error {
	_ = s.ch.Send(evOpponentLeft, struct{}{})
	return s.ch.Close()
}

// opponentLeft finishes the match in our favor if it was still live.
func (s *session) opponentLeft() {
	s.mu.Lock()
	switch s.phase {
	case PhaseWaiting, PhaseCountdown, PhasePlaying:
		s.phase = PhaseFinished
		s.outcome = Outcome{Winner: s.role, Reason: "opponent_left"}
	default:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.notify()
}

// finish records an outcome reached through normal play.
func (s *session) finishLocked(winner Role, reason string) {
	s.phase = PhaseFinished
	s.outcome = Outcome{Winner: winner, Reason: reason}
}
