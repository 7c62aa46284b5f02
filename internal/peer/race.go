// internal/peer/race.go
//
// Typing race session. Both peers type the same sentence (carried on
// the room record); progress updates are broadcast as the local player
// types. The first peer to finish wins, since both clocks started at
// the same countdown.

package peer

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/blueooh/taja/internal/race"
	"github.com/blueooh/taja/internal/transport"
)

const evProgress = "progress"

// Race is one participant's view of a typing race.
type Race struct {
	session

	sentence string
	mine     race.Progress
	theirs   race.Progress
}

// NewRace attaches a race session to an open channel. sentence is the
// shared target text from the room record.
func NewRace(ch transport.Channel, role Role, self Player, sentence string, log zerolog.Logger) *Race {
	r := &Race{
		session:  newSession(ch, role, self, log.With().Str("game", "race").Logger()),
		sentence: sentence,
	}

	r.registerShared(evBattleStart, r.onStart, nil)
	ch.On(evProgress, r.onRemoteProgress)
	return r
}

// Announce is the guest's arrival broadcast; the start event carries
// the target sentence so a host without a room record still converges.
func (r *Race) Announce(host Player) error {
	r.mu.Lock()
	sentence := r.sentence
	r.mu.Unlock()
	return r.announceStart(evBattleStart, host, startPayload{Sentence: sentence})
}

// onStart adopts the sentence when we have none; a conflicting one
// means the peers disagree on the room record and the start is dropped.
func (r *Race) onStart(p startPayload) bool {
	if p.Sentence == "" {
		return false
	}
	if r.sentence == "" {
		r.sentence = p.Sentence
		return true
	}
	return r.sentence == p.Sentence
}

// Sentence returns the shared target text.
func (r *Race) Sentence() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sentence
}

// Mine returns the local player's progress.
func (r *Race) Mine() race.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mine
}

// Theirs returns the opponent's last reported progress.
func (r *Race) Theirs() race.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.theirs
}

// Type reports the local player's current input. elapsed is seconds
// since play started and only matters at the finishing keystroke.
func (r *Race) Type(typed string, elapsed float64) error {
	r.mu.Lock()
	if r.phase != PhasePlaying {
		r.mu.Unlock()
		return ErrPhase
	}

	p := race.Progress{Percent: race.Percent(typed, r.sentence)}
	if race.Finished(typed, r.sentence) {
		p.Finished = true
		p.Time = elapsed
	}
	r.mine = p

	if p.Finished {
		r.resolveLocked()
	}
	r.mu.Unlock()

	if err := r.ch.Send(evProgress, p); err != nil {
		return err
	}
	r.notify()
	return nil
}

func (r *Race) onRemoteProgress(payload json.RawMessage) {
	var p race.Progress
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	if p.Percent < 0 || p.Percent > 100 || p.Time < 0 {
		r.log.Debug().Int("percent", p.Percent).Msg("dropped invalid progress")
		return
	}

	r.mu.Lock()
	if r.phase != PhasePlaying && r.phase != PhaseFinished {
		r.mu.Unlock()
		return
	}
	// Progress never goes backwards.
	if p.Percent < r.theirs.Percent && !p.Finished {
		r.mu.Unlock()
		return
	}
	r.theirs = p
	// Re-resolve even after finishing: a near-simultaneous opposing
	// finish with a better time must flip the result the same way on
	// both peers.
	if p.Finished && r.outcome.Reason != "surrender" && r.outcome.Reason != "opponent_left" {
		r.resolveLocked()
	}
	r.mu.Unlock()
	r.notify()
}

// resolveLocked decides the winner once at least one side finished.
// Both peers run the same comparison, so they agree; an exact time tie
// goes to the host.
func (r *Race) resolveLocked() {
	switch {
	case r.mine.Finished && r.theirs.Finished:
		switch {
		case race.Beats(r.mine.Time, r.theirs):
			r.finishLocked(r.role, "win")
		case race.Beats(r.theirs.Time, r.mine):
			r.finishLocked(r.role.Opponent(), "win")
		default:
			r.finishLocked(RoleHost, "win")
		}
	case r.mine.Finished:
		r.finishLocked(r.role, "win")
	case r.theirs.Finished:
		r.finishLocked(r.role.Opponent(), "win")
	}
}
