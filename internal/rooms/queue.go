// internal/rooms/queue.go
//
// Single-slot quick match queue. The slot key {gameType}:waiting holds
// the first waiting player as JSON with a 60 second TTL. The second
// player claims the slot atomically and both converge on the room id
// the first player generated; the first player is always the host.

package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const queueTTL = 60 * time.Second

// Ticket is the queue slot contents: who is waiting, on what room, and
// any shared seed (the race sentence) the match rides on.
type Ticket struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	RoomID   string `json:"roomId"`
	Sentence string `json:"sentence,omitempty"`
}

// Match is the outcome of one Enqueue call. A waiting caller holds the
// slot and hosts the room; a matched caller is the guest on the waiting
// player's room.
type Match struct {
	Status   string `json:"status"` // "waiting" or "matched"
	RoomID   string `json:"roomId"`
	Opponent string `json:"opponent,omitempty"` // waiting host's nickname, matched only
	Role     string `json:"role,omitempty"`     // "guest" when matched
	Sentence string `json:"sentence,omitempty"`
}

const (
	StatusWaiting = "waiting"
	StatusMatched = "matched"
)

// Queue implements quick matchmaking for one or more game types.
type Queue struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewQueue wraps a connected Redis client.
func NewQueue(rdb *redis.Client, log zerolog.Logger) *Queue {
	return &Queue{rdb: rdb, log: log.With().Str("component", "queue").Logger()}
}

func slotKey(gameType string) string { return gameType + ":waiting" }

// claimScript deletes the slot only if it still holds the value the
// claimant read, so two simultaneous guests cannot both claim it.
var claimScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

// Enqueue joins the queue for a game type. An empty slot makes the
// caller the waiting host; an occupied slot (by someone else) matches
// the caller as guest. Re-enqueueing while already waiting refreshes
// the TTL and stays on the same room id. seed is the shared game seed
// (race sentence) a fresh slot should carry, empty for other games.
func (q *Queue) Enqueue(ctx context.Context, gameType, playerID, nickname, seed string) (Match, error) {
	key := slotKey(gameType)

	blob, err := q.rdb.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return q.takeSlot(ctx, gameType, playerID, nickname, seed)
	case err != nil:
		return Match{}, err
	}

	var ticket Ticket
	if err := json.Unmarshal([]byte(blob), &ticket); err != nil {
		// Corrupt slot; overwrite it.
		return q.takeSlot(ctx, gameType, playerID, nickname, seed)
	}

	if ticket.PlayerID == playerID {
		// Idempotent re-enqueue: keep waiting on the same room.
		if err := q.rdb.Expire(ctx, key, queueTTL).Err(); err != nil {
			return Match{}, err
		}
		return Match{Status: StatusWaiting, RoomID: ticket.RoomID, Sentence: ticket.Sentence}, nil
	}

	claimed, err := claimScript.Run(ctx, q.rdb, []string{key}, blob).Int()
	if err != nil {
		return Match{}, err
	}
	if claimed == 0 {
		// Lost the race to another guest; start a fresh slot.
		return q.takeSlot(ctx, gameType, playerID, nickname, seed)
	}

	q.log.Info().Str("game", gameType).Str("room", ticket.RoomID).Msg("queue matched")
	return Match{
		Status:   StatusMatched,
		RoomID:   ticket.RoomID,
		Opponent: ticket.Nickname,
		Role:     "guest",
		Sentence: ticket.Sentence,
	}, nil
}

func (q *Queue) takeSlot(ctx context.Context, gameType, playerID, nickname, seed string) (Match, error) {
	ticket := Ticket{PlayerID: playerID, Nickname: nickname, RoomID: uuid.NewString(), Sentence: seed}
	data, err := json.Marshal(ticket)
	if err != nil {
		return Match{}, err
	}
	// SET NX so a slot appearing between our GET and now is not clobbered.
	ok, err := q.rdb.SetNX(ctx, slotKey(gameType), data, queueTTL).Result()
	if err != nil {
		return Match{}, err
	}
	if !ok {
		// Someone else took the slot first; try to match against them.
		return q.Enqueue(ctx, gameType, playerID, nickname, seed)
	}
	return Match{Status: StatusWaiting, RoomID: ticket.RoomID, Sentence: ticket.Sentence}, nil
}

// Status reports whether the caller is still the waiting slot holder.
// A missing slot or a slot owned by someone else means the caller was
// either matched and the guest claimed the slot, or the slot expired.
func (q *Queue) Status(ctx context.Context, gameType, playerID string) (waiting bool, ticket Ticket, err error) {
	blob, err := q.rdb.Get(ctx, slotKey(gameType)).Result()
	if errors.Is(err, redis.Nil) {
		return false, Ticket{}, nil
	}
	if err != nil {
		return false, Ticket{}, err
	}
	if err := json.Unmarshal([]byte(blob), &ticket); err != nil {
		return false, Ticket{}, nil
	}
	return ticket.PlayerID == playerID, ticket, nil
}

// Cancel removes the caller's slot. Cancelling a slot the caller does
// not own is a no-op.
var cancelScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then
  return 0
end
local t = cjson.decode(cur)
if t.playerId == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

func (q *Queue) Cancel(ctx context.Context, gameType, playerID string) error {
	return cancelScript.Run(ctx, q.rdb, []string{slotKey(gameType)}, playerID).Err()
}
