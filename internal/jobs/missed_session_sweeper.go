package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = time.Minute

type missedSessionCanceller interface {
	CancelMissedSessions(ctx context.Context) (int, error)
}

// MissedSessionSweeper cancels sessions that were never checked in once
// their day has passed.
type MissedSessionSweeper struct {
	service missedSessionCanceller
}

func NewMissedSessionSweeper(service missedSessionCanceller) *MissedSessionSweeper {
	return &MissedSessionSweeper{service: service}
}

func (s *MissedSessionSweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	count, err := s.service.CancelMissedSessions(ctx)
	if err != nil {
		log.Printf("sweeper: cancel missed sessions: %v", err)
		return
	}
	if count > 0 {
		log.Printf("sweeper: cancelled %d missed session(s)", count)
	}
}

// Schedule registers the sweeper on a new cron scheduler. The caller starts
// and stops the returned scheduler.
func Schedule(spec string, loc *time.Location, sweeper *MissedSessionSweeper) (*cron.Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	scheduler := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	if _, err := scheduler.AddJob(spec, sweeper); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return scheduler, nil
}
