package util

import (
	"time"
)

// TimerWrapper guards time.Timer.Reset against a stale value left in the
// timer channel (https://github.com/golang/go/issues/11513).
// A stopped wrapper returns a nil channel so it can sit in a select.
type TimerWrapper struct {
	t       *time.Timer
	stopped bool
}

func NewTimerWrapper(d time.Duration) *TimerWrapper {
	t := &TimerWrapper{
		t:       time.NewTimer(d),
		stopped: true,
	}
	t.t.Stop()
	return t
}

func (t *TimerWrapper) GetTimeoutCh() <-chan time.Time {
	if t.stopped {
		return nil
	}
	return t.t.C
}

func (t *TimerWrapper) IsStopped() bool {
	return t.stopped
}

func (t *TimerWrapper) Stop() {
	if t.stopped {
		return
	}
	if !t.t.Stop() {
		select {
		case <-t.t.C:
		default:
		}
	}
	t.stopped = true
}

func (t *TimerWrapper) Reset(d time.Duration) {
	t.Stop()
	t.t.Reset(d)
	t.stopped = false
}

// Fired marks the timer stopped after its channel delivered.
func (t *TimerWrapper) Fired() {
	t.stopped = true
}
