// Package activity implements the input event source and activity sampler:
// a blocking OS-level input source feeding a single atomic "last activity"
// timestamp that a cadence-driven sampler reads.
package activity

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kasl-dev/kasl/internal/kerrors"
)

// EventKind discriminates the low-level input events the hook produces.
// No payload data is carried.
type EventKind int

const (
	KeyDown EventKind = iota
	KeyUp
	MouseButton
	MouseMove
	Wheel
)

// Event is a single kind-discriminated input event.
type Event struct {
	Kind EventKind
	At   time.Time
}

// Hook is the Event Source contract: a blocking global input hook. Open
// installs the hook and calls onEvent for every event until Close is
// called or the hook dies; Open itself blocks until then. Listen wraps an
// error from Open in ErrHookFailure, which is fatal to the daemon.
type Hook interface {
	Open(onEvent func(Event)) error
	Close() error
}

// Tracker maintains the single atomic last-activity timestamp shared
// between the (writer) hook goroutine and the (reader) sampler goroutine.
// It holds no other mutable state.
type Tracker struct {
	lastActivityUnixNano atomic.Int64
}

// NewTracker returns a Tracker initialized to the current time, so a
// sampler tick taken immediately after construction reports sa == 0
// rather than a spuriously large gap.
func NewTracker(now time.Time) *Tracker {
	t := &Tracker{}
	t.lastActivityUnixNano.Store(now.UnixNano())
	return t
}

// Mark records at as the most recent activity timestamp. Called by the
// hook goroutine on every event.
func (t *Tracker) Mark(at time.Time) {
	t.lastActivityUnixNano.Store(at.UnixNano())
}

// LastActivity returns the most recently marked timestamp.
func (t *Tracker) LastActivity() time.Time {
	return time.Unix(0, t.lastActivityUnixNano.Load())
}

// Listen installs hook and feeds every event into the tracker until the
// hook's Open call returns. Intended to run on its own dedicated
// goroutine, since the hook is inherently blocking on some platforms.
func Listen(hook Hook, tracker *Tracker) error {
	err := hook.Open(func(e Event) {
		tracker.Mark(e.At)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrHookFailure, err)
	}
	return nil
}
