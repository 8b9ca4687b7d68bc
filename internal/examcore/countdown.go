package examcore

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Countdown decrements a session's remaining time once per second and fires
// the auto-submission when it reaches zero. One countdown is owned by one
// coordinator; its lifecycle is tied to the session, never to global state.
type Countdown struct {
	coord    *Coordinator
	interval time.Duration
	log      zerolog.Logger

	ticks    chan int
	stop     chan struct{}
	stopOnce sync.Once
}

// NewCountdown creates a countdown for the coordinator's session. The tick
// interval is one second; tests may shorten it via NewCountdownInterval.
func NewCountdown(coord *Coordinator, log zerolog.Logger) *Countdown {
	return NewCountdownInterval(coord, time.Second, log)
}

// NewCountdownInterval creates a countdown with a custom tick interval.
func NewCountdownInterval(coord *Coordinator, interval time.Duration, log zerolog.Logger) *Countdown {
	cd := &Countdown{
		coord:    coord,
		interval: interval,
		log: log.With().
			Str("component", "countdown").
			Int64("subject_id", coord.session.SubjectID).
			Int("student_id", coord.session.StudentID).
			Logger(),
		ticks: make(chan int, 1),
		stop:  make(chan struct{}),
	}
	coord.attachCountdown(cd)
	return cd
}

// Ticks delivers the remaining seconds after each tick. The channel has a
// one-slot buffer and stale values are dropped, so a slow consumer never
// blocks the timer.
func (cd *Countdown) Ticks() <-chan int {
	return cd.ticks
}

// Run loops until the session leaves InProgress, the countdown is stopped,
// or the context is cancelled. Call in a goroutine.
func (cd *Countdown) Run(ctx context.Context) {
	ticker := time.NewTicker(cd.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cd.stop:
			return
		case <-ticker.C:
			if cd.coord.State() != StateInProgress {
				return
			}

			remaining, expired := cd.coord.session.tick()
			cd.publish(remaining)

			if expired {
				cd.log.Info().Msg("Time expired, auto-submitting")
				if _, err := cd.coord.Submit(ctx, TriggerTimeout); err != nil && err != ErrAlreadySubmitting {
					cd.log.Error().Err(err).Msg("Auto-submission failed")
				}
				return
			}
		}
	}
}

// Stop halts the tick loop. Safe to call more than once and from any
// goroutine; the Submitting transition calls it so no tick can land after
// the state leaves InProgress.
func (cd *Countdown) Stop() {
	cd.stopOnce.Do(func() { close(cd.stop) })
}

// publish sends a tick value without ever blocking the timer loop.
func (cd *Countdown) publish(remaining int) {
	select {
	case cd.ticks <- remaining:
	default:
		// Drop the stale value and replace it with the fresh one.
		select {
		case <-cd.ticks:
		default:
		}
		select {
		case cd.ticks <- remaining:
		default:
		}
	}
}
