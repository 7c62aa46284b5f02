// internal/race/progress.go
//
// Progress and finish computation for the typing race. Shared by both
// peers so progress bars and the final result always agree.

package race

import "math"

// Progress is one player's race state. Percent never decreases until
// the player finishes.
type Progress struct {
	Percent  int     `json:"progress"` // 0..100
	Finished bool    `json:"finished"`
	Time     float64 `json:"time"` // seconds at the finishing keystroke
}

// Percent computes completion as the typed length over the target
// length, rounded and clamped to 100. An empty target is 100% by
// definition (nothing left to type).
func Percent(typed, target string) int {
	if len(target) == 0 {
		return 100
	}
	p := int(math.Round(float64(len(typed)) / float64(len(target)) * 100))
	if p > 100 {
		p = 100
	}
	return p
}

// Finished reports whether the typed text exactly equals the target.
func Finished(typed, target string) bool { return typed == target }

// Beats reports whether a finished player with elapsed time mine wins
// against the opponent's progress: either the opponent never finished,
// or they finished slower.
func Beats(mine float64, opponent Progress) bool {
	return !opponent.Finished || mine < opponent.Time
}
