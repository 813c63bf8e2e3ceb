package panel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// RefreshState tells whether a refresh is awaiting acknowledgment by the panel.
//
// Negative values are idle, zero and up are pending.
type RefreshState int32

// Refresh states.
const (
	Idle    RefreshState = -1
	Pending RefreshState = 0
)

func (s RefreshState) String() string {
	if s < 0 {
		return "idle"
	}
	return "pending"
}

// Handshake serializes refresh requests with refresh completions, so that at
// most one refresh is outstanding.
//
// The state only moves Idle to Pending in Request and Pending to Idle in
// Complete. Complete may be called from any goroutine.
type Handshake struct {
	trigger func() error
	state   atomic.Int32

	mu   sync.Mutex
	idle chan struct{} // closed while the state is Idle
}

// NewHandshake returns an idle handshake issuing refreshes with trigger.
func NewHandshake(trigger func() error) *Handshake {
	h := &Handshake{
		trigger: trigger,
		idle:    make(chan struct{}),
	}
	close(h.idle)
	h.state.Store(int32(Idle))
	return h
}

// State returns the current refresh state.
func (h *Handshake) State() RefreshState {
	if h.state.Load() < 0 {
		return Idle
	}
	return Pending
}

// Request marks a refresh pending and issues it. It returns ErrRefreshPending
// without issuing anything when a refresh is already outstanding. If issuing
// the refresh fails the state returns to Idle.
func (h *Handshake) Request() error {
	h.mu.Lock()
	if !h.state.CompareAndSwap(int32(Idle), int32(Pending)) {
		h.mu.Unlock()
		return ErrRefreshPending
	}
	h.idle = make(chan struct{})
	h.mu.Unlock()

	if err := h.trigger(); err != nil {
		h.Complete()
		return err
	}
	return nil
}

// Complete acknowledges the outstanding refresh. It reports whether a refresh
// was pending; spurious completions are ignored.
func (h *Handshake) Complete() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.state.CompareAndSwap(int32(Pending), int32(Idle)) {
		return false
	}
	close(h.idle)
	return true
}

// PollAndResubmit issues a new refresh if none is outstanding and reports
// whether it did.
func (h *Handshake) PollAndResubmit() (bool, error) {
	if h.State() != Idle {
		return false, nil
	}
	if err := h.Request(); err != nil {
		if errors.Is(err, ErrRefreshPending) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Wait blocks until no refresh is outstanding or ctx is done.
func (h *Handshake) Wait(ctx context.Context) error {
	h.mu.Lock()
	idle := h.idle
	h.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
