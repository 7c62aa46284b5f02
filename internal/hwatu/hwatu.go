// internal/hwatu/hwatu.go
//
// The 48-card hwatu (flower card) deck used by the gostop engine.
// Cards are identified by stable integer ids 0..47 so that peers can
// exchange deals and captures as id lists without shipping card data.

package hwatu

import "math/rand"

// CardType classifies a card for capture-pile sorting and scoring.
type CardType string

const (
	Bright CardType = "bright"
	Animal CardType = "animal"
	Ribbon CardType = "ribbon"
	Chaff  CardType = "chaff"
)

// RibbonGroup identifies which ribbon combo a ribbon card belongs to.
type RibbonGroup string

const (
	RibbonHong  RibbonGroup = "hong"  // red poetry ribbons, months 1-3
	RibbonBlue  RibbonGroup = "blue"  // blue ribbons, months 6, 9, 10
	RibbonGrass RibbonGroup = "grass" // plain grass ribbons, months 5, 7
	RibbonPlain RibbonGroup = "plain" // no combo value
)

// Card is a single hwatu card. Cards are immutable; every peer holds the
// same table and refers to cards by ID only.
type Card struct {
	ID          int         `json:"id"`
	Month       int         `json:"month"` // 1..12
	Type        CardType    `json:"type"`
	RibbonGroup RibbonGroup `json:"ribbonGroup,omitempty"`
	DoubleChaff bool        `json:"doubleChaff,omitempty"` // ssangpi: counts as 2 chaff
	RainBright  bool        `json:"rainBright,omitempty"`  // the month-12 bright
}

func bright(id, month int) Card { return Card{ID: id, Month: month, Type: Bright} }
func animal(id, month int) Card { return Card{ID: id, Month: month, Type: Animal} }
func chaff(id, month int) Card  { return Card{ID: id, Month: month, Type: Chaff} }
func ribbon(id, month int, g RibbonGroup) Card {
	return Card{ID: id, Month: month, Type: Ribbon, RibbonGroup: g}
}

// Deck is the full 48-card table in id order. Four cards per month:
// months 1/3 carry a bright, 8/11 a bright and an animal, 12 the rain
// bright; months 11/12 each hold a double chaff.
var Deck = [48]Card{
	// 01 pine
	bright(0, 1), ribbon(1, 1, RibbonHong), chaff(2, 1), chaff(3, 1),
	// 02 plum
	animal(4, 2), ribbon(5, 2, RibbonHong), chaff(6, 2), chaff(7, 2),
	// 03 cherry
	bright(8, 3), ribbon(9, 3, RibbonHong), chaff(10, 3), chaff(11, 3),
	// 04 wisteria
	animal(12, 4), ribbon(13, 4, RibbonPlain), chaff(14, 4), chaff(15, 4),
	// 05 iris
	animal(16, 5), ribbon(17, 5, RibbonGrass), chaff(18, 5), chaff(19, 5),
	// 06 peony
	animal(20, 6), ribbon(21, 6, RibbonBlue), chaff(22, 6), chaff(23, 6),
	// 07 clover
	animal(24, 7), ribbon(25, 7, RibbonGrass), chaff(26, 7), chaff(27, 7),
	// 08 moon
	bright(28, 8), animal(29, 8), chaff(30, 8), chaff(31, 8),
	// 09 chrysanthemum
	animal(32, 9), ribbon(33, 9, RibbonBlue), chaff(34, 9), chaff(35, 9),
	// 10 maple
	animal(36, 10), ribbon(37, 10, RibbonBlue), chaff(38, 10), chaff(39, 10),
	// 11 paulownia
	bright(40, 11), animal(41, 11), chaff(42, 11),
	{ID: 43, Month: 11, Type: Chaff, DoubleChaff: true},
	// 12 rain
	{ID: 44, Month: 12, Type: Bright, RainBright: true},
	animal(45, 12), ribbon(46, 12, RibbonPlain),
	{ID: 47, Month: 12, Type: Chaff, DoubleChaff: true},
}

// ByID returns the card with the given id, or false when the id is not a
// valid card. Remote payloads must be checked through this before use.
func ByID(id int) (Card, bool) {
	if id < 0 || id >= len(Deck) {
		return Card{}, false
	}
	return Deck[id], true
}

// IDs converts a card slice to its id list for broadcasting.
func IDs(cards []Card) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

// FromIDs resolves an id list back to cards. Returns false if any id is
// out of range; callers drop the whole payload in that case.
func FromIDs(ids []int) ([]Card, bool) {
	out := make([]Card, len(ids))
	for i, id := range ids {
		c, ok := ByID(id)
		if !ok {
			return nil, false
		}
		out[i] = c
	}
	return out, true
}

// Shuffle returns a shuffled copy of the full deck.
func Shuffle() []Card {
	out := make([]Card, len(Deck))
	copy(out, Deck[:])
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// DealResult is the opening layout: ten cards per hand, eight on the
// field, the remaining twenty face down as the draw pile.
type DealResult struct {
	HostHand  []Card
	GuestHand []Card
	Field     []Card
	DrawPile  []Card
}

// Deal splits a shuffled deck into the opening layout. The four slices
// partition the 48 ids exactly once.
func Deal(deck []Card) DealResult {
	return DealResult{
		HostHand:  deck[0:10],
		GuestHand: deck[10:20],
		Field:     deck[20:28],
		DrawPile:  deck[28:],
	}
}
