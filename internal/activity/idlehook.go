package activity

import (
	"context"
	"time"
)

// IdleProvider reports how long the host has been idle of real keyboard
// and mouse input. A true global input hook is inherently platform-
// specific, low-level code that a portable Go module cannot carry
// idiomatically; a kind-discriminated event stream is all the rest of
// the package needs, not hardware access. IdleProvider is the seam a platform
// backend plugs into.
type IdleProvider interface {
	// IdleDuration returns how long it has been since the last detected
	// input, as observed right now.
	IdleDuration() (time.Duration, error)
}

// PollHook is a Hook implementation that turns a periodically-sampled
// IdleProvider into the same onEvent callback stream a real blocking
// hook would produce: whenever idle duration resets to (near) zero, it
// synthesizes a KeyDown event. It runs on its own goroutine exactly like
// the blocking hooks it stands in for, honoring ctx cancellation as its
// "Close".
type PollHook struct {
	Provider     IdleProvider
	PollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPollHook builds a PollHook sampling provider every interval.
func NewPollHook(provider IdleProvider, interval time.Duration) *PollHook {
	ctx, cancel := context.WithCancel(context.Background())
	return &PollHook{Provider: provider, PollInterval: interval, ctx: ctx, cancel: cancel}
}

// Open blocks, calling onEvent every time the provider reports fresh
// activity, until Close is called or the provider errors.
func (h *PollHook) Open(onEvent func(Event)) error {
	ticker := time.NewTicker(h.PollInterval)
	defer ticker.Stop()

	var lastIdle time.Duration
	for {
		select {
		case <-h.ctx.Done():
			return nil
		case now := <-ticker.C:
			idle, err := h.Provider.IdleDuration()
			if err != nil {
				return err
			}
			if idle < lastIdle || idle < h.PollInterval {
				onEvent(Event{Kind: KeyDown, At: now})
			}
			lastIdle = idle
		}
	}
}

// Close stops the polling loop.
func (h *PollHook) Close() error {
	h.cancel()
	return nil
}
