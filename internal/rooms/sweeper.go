// internal/rooms/sweeper.go
//
// Background index sweeper. Listing already prunes as a side effect,
// but a game type nobody is browsing would otherwise accumulate dead
// index entries until its next visitor.

package rooms

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// GameTypes are the directory partitions the sweeper walks.
var GameTypes = []string{"gomoku", "gostop", "battle"}

// Sweeper periodically prunes expired entries from every game index.
type Sweeper struct {
	dir       *Directory
	scheduler gocron.Scheduler
	log       zerolog.Logger
}

// NewSweeper builds a sweeper that prunes every interval.
func NewSweeper(dir *Directory, interval time.Duration, log zerolog.Logger) (*Sweeper, error) {
	s := &Sweeper{dir: dir, log: log.With().Str("component", "sweeper").Logger()}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.sweep),
	)
	if err != nil {
		return nil, err
	}
	s.scheduler = scheduler
	return s, nil
}

// Start begins sweeping in the background.
func (s *Sweeper) Start() { s.scheduler.Start() }

// Stop shuts the scheduler down and waits for a running sweep.
func (s *Sweeper) Stop() error { return s.scheduler.Shutdown() }

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, gt := range GameTypes {
		if _, err := s.dir.List(ctx, gt); err != nil {
			s.log.Warn().Err(err).Str("game", gt).Msg("sweep failed")
		}
	}
}
