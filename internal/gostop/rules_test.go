package gostop

import (
	"testing"

	"github.com/blueooh/taja/internal/hwatu"
)

func card(t *testing.T, id int) hwatu.Card {
	t.Helper()
	c, ok := hwatu.ByID(id)
	if !ok {
		t.Fatalf("no card with id %d", id)
	}
	return c
}

func cards(t *testing.T, ids ...int) []hwatu.Card {
	t.Helper()
	out := make([]hwatu.Card, len(ids))
	for i, id := range ids {
		out[i] = card(t, id)
	}
	return out
}

func TestResolvePlayNoMatch(t *testing.T) {
	field := cards(t, 4, 8) // month 2, month 3
	played := card(t, 0)    // month 1

	res := ResolvePlay(field, played)
	if len(res.Taken) != 0 {
		t.Fatalf("took %d cards with no match", len(res.Taken))
	}
	if len(res.NewField) != 3 || res.NewField[2].ID != 0 {
		t.Fatalf("played card did not join field: %v", hwatu.IDs(res.NewField))
	}
}

func TestResolvePlayMatches(t *testing.T) {
	cases := []struct {
		name      string
		fieldIDs  []int
		playedID  int
		wantTaken int
		wantField int
	}{
		{"one match takes two", []int{1, 4}, 0, 2, 1},
		{"two matches take three", []int{1, 2, 4}, 0, 3, 1},
		{"three matches take four", []int{1, 2, 3}, 0, 4, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ResolvePlay(cards(t, tc.fieldIDs...), card(t, tc.playedID))
			if len(res.Taken) != tc.wantTaken {
				t.Fatalf("taken = %d, want %d", len(res.Taken), tc.wantTaken)
			}
			if len(res.NewField) != tc.wantField {
				t.Fatalf("field = %d, want %d", len(res.NewField), tc.wantField)
			}
			if res.Taken[0].ID != tc.playedID {
				t.Fatalf("played card not first in taken: %v", hwatu.IDs(res.Taken))
			}
		})
	}
}

func TestIsPeok(t *testing.T) {
	m1a, m1b := card(t, 0), card(t, 1) // both month 1
	m2 := card(t, 4)                   // month 2

	if !IsPeok(nil, nil, m1a, m1b) {
		t.Fatal("matching months with no captures is a peok")
	}
	if IsPeok(nil, nil, m1a, m2) {
		t.Fatal("different months cannot peok")
	}
	if IsPeok([]hwatu.Card{m2}, nil, m1a, m1b) {
		t.Fatal("a capturing play cannot peok")
	}
	if IsPeok(nil, []hwatu.Card{m2}, m1a, m1b) {
		t.Fatal("a capturing draw cannot peok")
	}
}

// Bright ids: 0 (Jan), 8 (Mar), 28 (Aug), 40 (Nov), 44 (Dec rain).
func TestCalculateScoreBrights(t *testing.T) {
	cases := []struct {
		name string
		ids  []int
		want int
	}{
		{"two brights nothing", []int{0, 8}, 0},
		{"three brights", []int{0, 8, 28}, 3},
		{"three with rain", []int{0, 8, 44}, 2},
		{"four brights", []int{0, 8, 28, 40}, 4},
		{"five brights", []int{0, 8, 28, 40, 44}, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var pile CapturedPile
			pile.Add(cards(t, tc.ids...))
			if got := CalculateScore(pile, 0); got != tc.want {
				t.Fatalf("score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCalculateScoreAnimalsAndRibbons(t *testing.T) {
	var pile CapturedPile
	// Five animals score one, six score two.
	pile.Add(cards(t, 16, 20, 24, 29, 32)) // five animals
	if got := CalculateScore(pile, 0); got != 1 {
		t.Fatalf("five animals = %d, want 1", got)
	}
	pile.Add(cards(t, 36))
	if got := CalculateScore(pile, 0); got != 2 {
		t.Fatalf("six animals = %d, want 2", got)
	}
}

func TestCalculateScoreRibbonCombos(t *testing.T) {
	cases := []struct {
		name string
		ids  []int
		want int
	}{
		{"hong combo", []int{1, 5, 9}, 3},    // months 1,2,3 red
		{"blue combo", []int{21, 33, 37}, 3}, // months 6,9,10 blue
		{"grass combo", []int{17, 25}, 3},    // months 5,7 grass
		{"partial hong", []int{1, 5}, 0},
		{"mixed no combo", []int{1, 21, 17}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var pile CapturedPile
			pile.Add(cards(t, tc.ids...))
			if got := CalculateScore(pile, 0); got != tc.want {
				t.Fatalf("score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCalculateScoreChaff(t *testing.T) {
	// Nine singles score nothing.
	var pile CapturedPile
	pile.Add(cards(t, 2, 3, 6, 7, 10, 11, 14, 15, 18))
	if got := CalculateScore(pile, 0); got != 0 {
		t.Fatalf("nine chaff = %d, want 0", got)
	}
	// The tenth starts counting: total-9.
	pile.Add(cards(t, 19))
	if got := CalculateScore(pile, 0); got != 1 {
		t.Fatalf("ten chaff = %d, want 1", got)
	}
	// A double chaff counts as two.
	var dbl CapturedPile
	dbl.Add(cards(t, 2, 3, 6, 7, 10, 11, 14, 15, 43)) // 8 singles + ssangpi
	if got := CalculateScore(dbl, 0); got != 1 {
		t.Fatalf("eight singles plus ssangpi = %d, want 1", got)
	}
}

func TestCalculateScoreBonusAndCombination(t *testing.T) {
	var pile CapturedPile
	pile.Add(cards(t, 0, 8, 28)) // three brights = 3
	pile.Add(cards(t, 1, 5, 9))  // hong combo = 3
	if got := CalculateScore(pile, 2); got != 8 {
		t.Fatalf("combined score = %d, want 8", got)
	}
}

func TestFinalScore(t *testing.T) {
	cases := []struct {
		score, goCount, want int
	}{
		{3, 0, 3},
		{3, 1, 6},
		{5, 2, 15},
		{4, -1, 4}, // defensive clamp
	}
	for _, tc := range cases {
		if got := FinalScore(tc.score, tc.goCount); got != tc.want {
			t.Fatalf("FinalScore(%d,%d) = %d, want %d", tc.score, tc.goCount, got, tc.want)
		}
	}
}
