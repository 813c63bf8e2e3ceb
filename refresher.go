package panel

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BeatGlow/panel/pixel"
)

// RefresherOptions tune the refresh loop.
type RefresherOptions struct {
	// Timeout is the longest wait for a refresh to complete, zero waits forever.
	Timeout time.Duration

	// Interval is the shortest time between two refreshes, zero refreshes as
	// soon as the previous one completed.
	Interval time.Duration
}

// DefaultRefresherOptions are the default loop options.
var DefaultRefresherOptions = RefresherOptions{
	Timeout: time.Second,
}

// Refresher keeps a Display refreshed and guards its framebuffer.
//
// The framebuffer may only be written through Update, which waits until no
// refresh is in flight and holds off new refreshes until the update is done.
type Refresher struct {
	d      Display
	h      *Handshake
	opts   RefresherOptions
	mu     sync.Mutex
	frames atomic.Uint64
}

// NewRefresher takes over the refresh completion handler of d.
func NewRefresher(d Display, opts *RefresherOptions) *Refresher {
	if opts == nil {
		opts = &DefaultRefresherOptions
	}
	r := &Refresher{
		d:    d,
		opts: *opts,
	}
	r.h = NewHandshake(d.Refresh)
	d.OnRefreshComplete(r.complete)
	return r
}

func (r *Refresher) complete() {
	if r.h.Complete() {
		r.frames.Add(1)
	} else if debug {
		log.Printf("panel: spurious refresh completion from %s", r.d)
	}
}

// State returns the refresh state.
func (r *Refresher) State() RefreshState {
	return r.h.State()
}

// Frames returns the number of completed refreshes.
func (r *Refresher) Frames() uint64 {
	return r.frames.Load()
}

// Run refreshes the display continuously: every time a refresh completes the
// next one is issued. It returns when ctx is done, when issuing a refresh
// fails, or with ErrRefreshTimeout when a refresh does not complete in time.
func (r *Refresher) Run(ctx context.Context) error {
	var last time.Time
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.pace(ctx, last); err != nil {
			return err
		}

		r.mu.Lock()
		issued, err := r.h.PollAndResubmit()
		r.mu.Unlock()
		if err != nil {
			return fmt.Errorf("panel: refresh %s: %w", r.d, err)
		}
		if issued {
			last = time.Now()
		}

		if err = r.wait(ctx); err != nil {
			return err
		}
	}
}

func (r *Refresher) pace(ctx context.Context, last time.Time) error {
	if r.opts.Interval <= 0 || last.IsZero() {
		return nil
	}
	delay := time.Until(last.Add(r.opts.Interval))
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Refresher) wait(ctx context.Context) error {
	if r.opts.Timeout <= 0 {
		return r.h.Wait(ctx)
	}

	wctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	if err := r.h.Wait(wctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s after %s", ErrRefreshTimeout, r.d, r.opts.Timeout)
	}
	return nil
}

// Update calls fn with the framebuffer once no refresh is in flight. No
// refresh is issued while fn runs.
func (r *Refresher) Update(ctx context.Context, fn func(*pixel.ARGB8888Image) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.h.Wait(ctx); err != nil {
		return err
	}
	return fn(r.d.Framebuffer())
}
