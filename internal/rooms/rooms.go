// internal/rooms/rooms.go
//
// Room directory on Redis. A room is a JSON blob under room:{id} plus a
// membership entry in the per-game sorted set rooms:{gameType} scored by
// creation time. Waiting rooms expire after five minutes; a joined room
// is re-written with a one hour TTL so the match can play out.

package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	waitingTTL = 5 * time.Minute
	playingTTL = time.Hour
)

var (
	// ErrNotFound is returned when a room id resolves to nothing,
	// typically because the room expired or was already joined away.
	ErrNotFound = errors.New("rooms: room not found")

	// ErrAlreadyPlaying is returned when a second guest races the first.
	ErrAlreadyPlaying = errors.New("rooms: room already playing")

	// ErrSelfJoin is returned when the host tries to join its own room.
	ErrSelfJoin = errors.New("rooms: cannot join own room")

	// ErrNotHost is returned when a non-host tries to delete a room.
	ErrNotHost = errors.New("rooms: only the host may delete a room")
)

// Room is the directory record for one open or playing room.
type Room struct {
	ID           string `json:"id"`
	GameType     string `json:"gameType"`
	HostID       string `json:"hostId"`
	HostNickname string `json:"hostNickname"`
	Status       string `json:"status"` // "waiting" or "playing"
	CreatedAt    int64  `json:"createdAt"`
	Sentence     string `json:"sentence,omitempty"`
}

// Directory lists, creates, joins and deletes rooms.
type Directory struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewDirectory wraps a connected Redis client.
func NewDirectory(rdb *redis.Client, log zerolog.Logger) *Directory {
	return &Directory{rdb: rdb, log: log.With().Str("component", "rooms").Logger()}
}

func roomKey(id string) string        { return "room:" + id }
func indexKey(gameType string) string { return "rooms:" + gameType }

// Create registers a new waiting room and returns it. sentence is only
// meaningful for the typing race and may be empty otherwise.
func (d *Directory) Create(ctx context.Context, gameType, hostID, hostNickname, sentence string) (Room, error) {
	room := Room{
		ID:           uuid.NewString(),
		GameType:     gameType,
		HostID:       hostID,
		HostNickname: hostNickname,
		Status:       "waiting",
		CreatedAt:    time.Now().UnixMilli(),
		Sentence:     sentence,
	}
	data, err := json.Marshal(room)
	if err != nil {
		return Room{}, err
	}

	pipe := d.rdb.TxPipeline()
	pipe.Set(ctx, roomKey(room.ID), data, waitingTTL)
	pipe.ZAdd(ctx, indexKey(gameType), redis.Z{Score: float64(room.CreatedAt), Member: room.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return Room{}, err
	}

	d.log.Info().Str("room", room.ID).Str("game", gameType).Msg("room created")
	return room, nil
}

// List returns the open rooms for a game type, newest first. Index
// entries older than the waiting TTL are purged, and ids whose room key
// has already expired are pruned from the index as a side effect.
func (d *Directory) List(ctx context.Context, gameType string) ([]Room, error) {
	idx := indexKey(gameType)
	cutoff := time.Now().Add(-waitingTTL).UnixMilli()
	if err := d.rdb.ZRemRangeByScore(ctx, idx, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return nil, err
	}

	ids, err := d.rdb.ZRevRangeByScore(ctx, idx, &redis.ZRangeBy{Min: "-inf", Max: "+inf"}).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Room{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKey(id)
	}
	blobs, err := d.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rooms := make([]Room, 0, len(ids))
	var stale []any
	for i, blob := range blobs {
		s, ok := blob.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var room Room
		if err := json.Unmarshal([]byte(s), &room); err != nil {
			stale = append(stale, ids[i])
			continue
		}
		if room.Status != "waiting" {
			continue
		}
		rooms = append(rooms, room)
	}
	if len(stale) > 0 {
		if err := d.rdb.ZRem(ctx, idx, stale...).Err(); err != nil {
			d.log.Warn().Err(err).Msg("stale index prune failed")
		}
	}
	return rooms, nil
}

// Get fetches one room by id.
func (d *Directory) Get(ctx context.Context, id string) (Room, error) {
	blob, err := d.rdb.Get(ctx, roomKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return Room{}, ErrNotFound
	}
	if err != nil {
		return Room{}, err
	}
	var room Room
	if err := json.Unmarshal([]byte(blob), &room); err != nil {
		return Room{}, ErrNotFound
	}
	return room, nil
}

// joinScript flips a waiting room to playing in one atomic step so two
// guests cannot both claim it. KEYS[1] is the room key; ARGV[1] is the
// joiner id, ARGV[2] the playing TTL in seconds. The index entry is
// removed here as well so the room vanishes from listings immediately.
var joinScript = redis.NewScript(`
local blob = redis.call('GET', KEYS[1])
if not blob then
  return 'not_found'
end
local room = cjson.decode(blob)
if room.status == 'playing' then
  return 'already_playing'
end
if room.hostId == ARGV[1] then
  return 'self_join'
end
room.status = 'playing'
local updated = cjson.encode(room)
redis.call('SET', KEYS[1], updated, 'EX', ARGV[2])
redis.call('ZREM', 'rooms:' .. room.gameType, room.id)
return updated
`)

// Join claims a waiting room for guestID. Exactly one caller wins a
// race; losers get ErrAlreadyPlaying or ErrNotFound.
func (d *Directory) Join(ctx context.Context, id, guestID string) (Room, error) {
	res, err := joinScript.Run(ctx, d.rdb,
		[]string{roomKey(id)}, guestID, int(playingTTL.Seconds())).Text()
	if err != nil {
		return Room{}, err
	}
	switch res {
	case "not_found":
		return Room{}, ErrNotFound
	case "already_playing":
		return Room{}, ErrAlreadyPlaying
	case "self_join":
		return Room{}, ErrSelfJoin
	}
	var room Room
	if err := json.Unmarshal([]byte(res), &room); err != nil {
		return Room{}, ErrNotFound
	}
	d.log.Info().Str("room", room.ID).Str("guest", guestID).Msg("room joined")
	return room, nil
}

// Delete removes a waiting room. Only the host may delete; deleting a
// room that no longer exists is not an error.
func (d *Directory) Delete(ctx context.Context, id, callerID string) error {
	room, err := d.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if room.HostID != callerID {
		return ErrNotHost
	}

	pipe := d.rdb.TxPipeline()
	pipe.Del(ctx, roomKey(id))
	pipe.ZRem(ctx, indexKey(room.GameType), id)
	_, err = pipe.Exec(ctx)
	return err
}
