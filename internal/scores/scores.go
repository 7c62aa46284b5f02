// internal/scores/scores.go
//
// Typing race leaderboard. Entries live in a per-game sorted set scored
// by wpm*1000+accuracy so accuracy breaks wpm ties; the set is trimmed
// to the top twenty after every submit. Submissions are rate limited
// per client address.

package scores

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	keepTop       = 20
	rateLimit     = 10
	rateWindow    = time.Minute
	maxWPM        = 400
	maxAccuracy   = 100
	nicknameLimit = 20
)

var (
	// ErrInvalid is returned for out-of-range or malformed submissions.
	ErrInvalid = errors.New("scores: invalid submission")

	// ErrRateLimited is returned when a client submits too often.
	ErrRateLimited = errors.New("scores: rate limited")
)

var nicknameRe = regexp.MustCompile(`^[a-zA-Z0-9가-힣_ ]{1,20}$`)

// Entry is one leaderboard row.
type Entry struct {
	ID       string  `json:"id"`
	Nickname string  `json:"nickname"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
	SavedAt  int64   `json:"savedAt"`
}

// Board stores and lists leaderboard entries.
type Board struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewBoard wraps a connected Redis client.
func NewBoard(rdb *redis.Client, log zerolog.Logger) *Board {
	return &Board{rdb: rdb, log: log.With().Str("component", "scores").Logger()}
}

func boardKey(gameType string) string     { return "scores:" + gameType }
func entryKey(gameType, id string) string { return "score:" + gameType + ":" + id }
func rateKey(addr string) string          { return "scores:rate:" + addr }

func rank(wpm, accuracy float64) float64 { return wpm*1000 + accuracy }

// Submit validates and stores one result. addr identifies the client
// for rate limiting.
func (b *Board) Submit(ctx context.Context, gameType, nickname string, wpm, accuracy float64, addr string) (Entry, error) {
	if !nicknameRe.MatchString(nickname) {
		return Entry{}, fmt.Errorf("%w: bad nickname", ErrInvalid)
	}
	if wpm <= 0 || wpm > maxWPM || accuracy < 0 || accuracy > maxAccuracy {
		return Entry{}, fmt.Errorf("%w: wpm or accuracy out of range", ErrInvalid)
	}

	if err := b.checkRate(ctx, addr); err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ID:       uuid.NewString(),
		Nickname: nickname,
		WPM:      wpm,
		Accuracy: accuracy,
		SavedAt:  time.Now().UnixMilli(),
	}

	pipe := b.rdb.TxPipeline()
	pipe.HSet(ctx, entryKey(gameType, entry.ID), map[string]any{
		"nickname": entry.Nickname,
		"wpm":      entry.WPM,
		"accuracy": entry.Accuracy,
		"savedAt":  entry.SavedAt,
	})
	pipe.ZAdd(ctx, boardKey(gameType), redis.Z{Score: rank(wpm, accuracy), Member: entry.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return Entry{}, err
	}

	if err := b.trim(ctx, gameType); err != nil {
		b.log.Warn().Err(err).Msg("leaderboard trim failed")
	}
	return entry, nil
}

// Top returns the best entries, highest rank first.
func (b *Board) Top(ctx context.Context, gameType string) ([]Entry, error) {
	ids, err := b.rdb.ZRevRange(ctx, boardKey(gameType), 0, keepTop-1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		fields, err := b.rdb.HGetAll(ctx, entryKey(gameType, id)).Result()
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			continue
		}
		e := Entry{ID: id, Nickname: fields["nickname"]}
		fmt.Sscanf(fields["wpm"], "%g", &e.WPM)
		fmt.Sscanf(fields["accuracy"], "%g", &e.Accuracy)
		fmt.Sscanf(fields["savedAt"], "%d", &e.SavedAt)
		entries = append(entries, e)
	}
	return entries, nil
}

func (b *Board) checkRate(ctx context.Context, addr string) error {
	key := rateKey(addr)
	n, err := b.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		if err := b.rdb.Expire(ctx, key, rateWindow).Err(); err != nil {
			return err
		}
	}
	if n > rateLimit {
		return ErrRateLimited
	}
	return nil
}

// trim drops entries below the top twenty, removing their hashes too.
func (b *Board) trim(ctx context.Context, gameType string) error {
	key := boardKey(gameType)
	total, err := b.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return err
	}
	if total <= keepTop {
		return nil
	}

	evicted, err := b.rdb.ZRange(ctx, key, 0, total-keepTop-1).Result()
	if err != nil {
		return err
	}
	pipe := b.rdb.TxPipeline()
	pipe.ZRemRangeByRank(ctx, key, 0, total-keepTop-1)
	for _, id := range evicted {
		pipe.Del(ctx, entryKey(gameType, id))
	}
	_, err = pipe.Exec(ctx)
	return err
}
