package rooms

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewQueue(rdb, zerolog.Nop()), mr
}

func TestEnqueueFirstWaits(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	m, err := q.Enqueue(ctx, "gostop", "p1", "alice", "")
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != StatusWaiting {
		t.Fatalf("status = %q, want waiting", m.Status)
	}
	if m.RoomID == "" {
		t.Fatal("no room id assigned")
	}
}

func TestEnqueuePairMatches(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, "gostop", "p1", "alice", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := q.Enqueue(ctx, "gostop", "p2", "bob", "")
	if err != nil {
		t.Fatal(err)
	}

	if second.Status != StatusMatched {
		t.Fatalf("status = %q, want matched", second.Status)
	}
	if second.Role != "guest" {
		t.Fatalf("role = %q, want guest", second.Role)
	}
	if second.RoomID != first.RoomID {
		t.Fatalf("room ids diverged: %q vs %q", first.RoomID, second.RoomID)
	}
	if second.Opponent != "alice" {
		t.Fatalf("opponent = %q, want alice", second.Opponent)
	}
}

func TestEnqueueCarriesSeed(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, "battle", "p1", "alice", "the quick brown fox")
	if err != nil {
		t.Fatal(err)
	}
	if first.Sentence != "the quick brown fox" {
		t.Fatalf("waiting sentence = %q", first.Sentence)
	}

	// The guest inherits the waiting player's seed, not its own.
	second, err := q.Enqueue(ctx, "battle", "p2", "bob", "a different sentence")
	if err != nil {
		t.Fatal(err)
	}
	if second.Sentence != "the quick brown fox" {
		t.Fatalf("matched sentence = %q", second.Sentence)
	}
}

func TestEnqueueIdempotent(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, "battle", "p1", "alice", "shared text")
	if err != nil {
		t.Fatal(err)
	}
	again, err := q.Enqueue(ctx, "battle", "p1", "alice", "other text")
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != StatusWaiting {
		t.Fatal("player matched against itself")
	}
	if again.RoomID != first.RoomID {
		t.Fatalf("re-enqueue changed room: %q vs %q", first.RoomID, again.RoomID)
	}
	if again.Sentence != first.Sentence {
		t.Fatalf("re-enqueue changed sentence: %q vs %q", first.Sentence, again.Sentence)
	}
}

func TestEnqueueConcurrentGuests(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, "gomoku", "host", "alice", "")
	if err != nil {
		t.Fatal(err)
	}

	// Losers of the claim race take fresh slots, so later guests may
	// legitimately pair with each other. What must hold: every slot is
	// claimed at most once, and every match points at a real waiter.
	const guests = 6
	names := make([]string, guests)
	results := make([]Match, guests)
	errs := make([]error, guests)
	var wg sync.WaitGroup
	for i := 0; i < guests; i++ {
		names[i] = "guest-" + string(rune('a'+i))
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = q.Enqueue(ctx, "gomoku", names[i], names[i], "")
		}(i)
	}
	wg.Wait()

	// Map every offered slot (the host's plus each waiting guest's) to
	// its owner's nickname.
	waiters := map[string]string{first.RoomID: "alice"}
	matched := 0
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("enqueue error: %v", errs[i])
		}
		switch results[i].Status {
		case StatusWaiting:
			waiters[results[i].RoomID] = names[i]
		case StatusMatched:
			matched++
		default:
			t.Fatalf("unexpected status %q", results[i].Status)
		}
	}

	claimed := map[string]bool{}
	aliceClaims := 0
	for i := range results {
		if results[i].Status != StatusMatched {
			continue
		}
		m := results[i]
		if claimed[m.RoomID] {
			t.Fatalf("room %q was claimed twice", m.RoomID)
		}
		claimed[m.RoomID] = true
		owner, ok := waiters[m.RoomID]
		if !ok {
			t.Fatalf("matched into unknown room %q", m.RoomID)
		}
		if m.Opponent != owner {
			t.Fatalf("opponent = %q, want %q for room %q", m.Opponent, owner, m.RoomID)
		}
		if m.Role != "guest" {
			t.Fatalf("role = %q, want guest", m.Role)
		}
		if m.RoomID == first.RoomID {
			aliceClaims++
		}
	}
	if aliceClaims != 1 {
		t.Fatalf("host slot claimed %d times, want exactly 1", aliceClaims)
	}
	if matched < 1 || matched > guests/2+1 {
		t.Fatalf("matched = %d out of %d guests", matched, guests)
	}
}

func TestQueueStatusAndCancel(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	m, err := q.Enqueue(ctx, "gostop", "p1", "alice", "")
	if err != nil {
		t.Fatal(err)
	}

	waiting, ticket, err := q.Status(ctx, "gostop", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !waiting || ticket.RoomID != m.RoomID {
		t.Fatalf("status = %v %+v", waiting, ticket)
	}

	// A stranger cannot cancel someone else's slot.
	if err := q.Cancel(ctx, "gostop", "p2"); err != nil {
		t.Fatal(err)
	}
	if waiting, _, _ := q.Status(ctx, "gostop", "p1"); !waiting {
		t.Fatal("foreign cancel removed the slot")
	}

	if err := q.Cancel(ctx, "gostop", "p1"); err != nil {
		t.Fatal(err)
	}
	if waiting, _, _ := q.Status(ctx, "gostop", "p1"); waiting {
		t.Fatal("slot survived cancel")
	}
}

func TestQueueSlotExpires(t *testing.T) {
	q, mr := newQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, "gostop", "p1", "alice", ""); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(queueTTL + time.Second)

	waiting, _, err := q.Status(ctx, "gostop", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if waiting {
		t.Fatal("expired slot still reported waiting")
	}

	// A later arrival becomes a fresh host instead of matching a ghost.
	m, err := q.Enqueue(ctx, "gostop", "p2", "bob", "")
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != StatusWaiting {
		t.Fatal("matched against an expired slot")
	}
}
