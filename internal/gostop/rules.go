// internal/gostop/rules.go
//
// Deterministic gostop rule engine. Both peers run exactly this code on
// the same inputs; any divergence here desyncs the match, so every
// function is pure and depends only on its arguments.

package gostop

import "github.com/blueooh/taja/internal/hwatu"

// CapturedPile holds a player's captured cards grouped by type. Piles
// only grow during a hand.
type CapturedPile struct {
	Brights []hwatu.Card
	Animals []hwatu.Card
	Ribbons []hwatu.Card
	Chaff   []hwatu.Card
}

// Add appends cards to the pile, routing each by its type.
func (p *CapturedPile) Add(cards []hwatu.Card) {
	for _, c := range cards {
		switch c.Type {
		case hwatu.Bright:
			p.Brights = append(p.Brights, c)
		case hwatu.Animal:
			p.Animals = append(p.Animals, c)
		case hwatu.Ribbon:
			p.Ribbons = append(p.Ribbons, c)
		default:
			p.Chaff = append(p.Chaff, c)
		}
	}
}

// Count returns the total number of captured cards.
func (p *CapturedPile) Count() int {
	return len(p.Brights) + len(p.Animals) + len(p.Ribbons) + len(p.Chaff)
}

// FindMatches returns the field cards sharing the played card's month.
func FindMatches(field []hwatu.Card, card hwatu.Card) []hwatu.Card {
	var out []hwatu.Card
	for _, f := range field {
		if f.Month == card.Month {
			out = append(out, f)
		}
	}
	return out
}

// PlayResult is the outcome of dropping one card onto the field.
type PlayResult struct {
	Taken    []hwatu.Card // played card + its matches; empty when no match
	NewField []hwatu.Card
}

// ResolvePlay applies one card to the field. With zero matches the card
// joins the field and nothing is captured. With one or more matches the
// card and all matches are captured together (1 match takes 2 cards,
// 2 take 3, 3 take 4). The same function resolves both the hand play
// and the follow-up draw, using the post-play field for the latter.
func ResolvePlay(field []hwatu.Card, card hwatu.Card) PlayResult {
	matches := FindMatches(field, card)
	if len(matches) == 0 {
		newField := make([]hwatu.Card, 0, len(field)+1)
		newField = append(newField, field...)
		newField = append(newField, card)
		return PlayResult{NewField: newField}
	}

	taken := make([]hwatu.Card, 0, len(matches)+1)
	taken = append(taken, card)
	taken = append(taken, matches...)

	matched := make(map[int]bool, len(matches))
	for _, m := range matches {
		matched[m.ID] = true
	}
	newField := make([]hwatu.Card, 0, len(field)-len(matches))
	for _, f := range field {
		if !matched[f.ID] {
			newField = append(newField, f)
		}
	}
	return PlayResult{Taken: taken, NewField: newField}
}

// IsPeok reports a stuck pair: the played card matched nothing, the card
// drawn right after also matched nothing, and both share a month. The
// opponent collects a bonus point for it.
func IsPeok(playedMatches, drawnMatches []hwatu.Card, played, drawn hwatu.Card) bool {
	return len(playedMatches) == 0 && len(drawnMatches) == 0 && played.Month == drawn.Month
}

// CalculateScore totals a pile. bonus carries accumulated peok points.
//
// Brights: 3 score 3 (2 when one is the rain bright), 4 score 4, 5 score
// 15. Animals and ribbons: count-4 once at least 5 are held. The three
// ribbon combos (hong 1/2/3, blue 6/9/10, grass 5/7) each add a flat 3
// when fully owned. Chaff: double-chaff counts as 2; a total of 10 or
// more scores total-9. Contributions sum with no cap.
func CalculateScore(pile CapturedPile, bonus int) int {
	score := bonus

	brightCount := len(pile.Brights)
	hasRain := false
	for _, b := range pile.Brights {
		if b.RainBright {
			hasRain = true
		}
	}
	switch {
	case brightCount >= 5:
		score += 15
	case brightCount == 4:
		score += 4
	case brightCount == 3:
		if hasRain {
			score += 2
		} else {
			score += 3
		}
	}

	if n := len(pile.Animals); n >= 5 {
		score += n - 4
	}
	if n := len(pile.Ribbons); n >= 5 {
		score += n - 4
	}

	if hasRibbons(pile.Ribbons, hwatu.RibbonHong, 1, 2, 3) {
		score += 3
	}
	if hasRibbons(pile.Ribbons, hwatu.RibbonBlue, 6, 9, 10) {
		score += 3
	}
	if hasRibbons(pile.Ribbons, hwatu.RibbonGrass, 5, 7) {
		score += 3
	}

	chaffValue := 0
	for _, c := range pile.Chaff {
		if c.DoubleChaff {
			chaffValue += 2
		} else {
			chaffValue++
		}
	}
	if chaffValue >= 10 {
		score += chaffValue - 9
	}

	return score
}

// FinalScore applies the go multiplier: base score times the combined
// go count of both players plus one.
func FinalScore(score, totalGoCount int) int {
	mult := totalGoCount + 1
	if mult < 1 {
		mult = 1
	}
	return score * mult
}

func hasRibbons(ribbons []hwatu.Card, group hwatu.RibbonGroup, months ...int) bool {
	for _, m := range months {
		found := false
		for _, r := range ribbons {
			if r.Month == m && r.RibbonGroup == group {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
