package panel

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BeatGlow/panel/pixel"
)

// fakeDisplay acknowledges every refresh from another goroutine after delay,
// or never when hang is set.
type fakeDisplay struct {
	Notifier
	fb    *pixel.ARGB8888Image
	delay time.Duration
	hang  bool
	err   error

	refreshes atomic.Int64

	mu       sync.Mutex
	inFlight bool
	snapshot []uint32
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{fb: pixel.NewARGB8888Image(4, 2)}
}

func (d *fakeDisplay) String() string { return "fake" }
func (d *fakeDisplay) Close() error { return nil }
func (d *fakeDisplay) Bounds() image.Rectangle { return d.fb.Bounds() }
func (d *fakeDisplay) ColorModel() color.Model { return d.fb.ColorModel() }
func (d *fakeDisplay) Framebuffer() *pixel.ARGB8888Image { return d.fb }
func (d *fakeDisplay) Show(bool) error { return nil }

func (d *fakeDisplay) Refresh() error {
	if d.err != nil {
		return d.err
	}
	d.refreshes.Add(1)

	d.mu.Lock()
	d.inFlight = true
	d.snapshot = append(d.snapshot[:0], d.fb.Pix...)
	d.mu.Unlock()

	if d.hang {
		return nil
	}
	go func() {
		time.Sleep(d.delay)
		d.mu.Lock()
		d.inFlight = false
		d.mu.Unlock()
		d.Notify()
	}()
	return nil
}

func (d *fakeDisplay) refreshing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

func TestRefresherRun(t *testing.T) {
	d := newFakeDisplay()
	d.delay = time.Millisecond
	r := NewRefresher(d, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- r.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for r.Frames() < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("expected continuous refreshes, got %d frames", r.Frames())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected %v, got %v", context.Canceled, err)
	}
	// Every issued refresh is acknowledged before the next one is issued.
	if issued, frames := uint64(d.refreshes.Load()), r.Frames(); issued > frames+1 {
		t.Errorf("expected at most one outstanding refresh, issued %d for %d frames", issued, frames)
	}
}

func TestRefresherTimeout(t *testing.T) {
	d := newFakeDisplay()
	d.hang = true
	r := NewRefresher(d, &RefresherOptions{Timeout: 20 * time.Millisecond})

	err := r.Run(context.Background())
	if !errors.Is(err, ErrRefreshTimeout) {
		t.Fatalf("expected %v, got %v", ErrRefreshTimeout, err)
	}
	if n := d.refreshes.Load(); n != 1 {
		t.Errorf("expected a single refresh, got %d", n)
	}
	if s := r.State(); s != Pending {
		t.Errorf("expected state %s, got %s", Pending, s)
	}

	// A late acknowledgment releases the handshake.
	d.Notify()
	if s := r.State(); s != Idle {
		t.Errorf("expected state %s, got %s", Idle, s)
	}
}

func TestRefresherTriggerError(t *testing.T) {
	d := newFakeDisplay()
	d.err = errors.New("link down")
	r := NewRefresher(d, nil)

	if err := r.Run(context.Background()); !errors.Is(err, d.err) {
		t.Fatalf("expected %v, got %v", d.err, err)
	}
	if s := r.State(); s != Idle {
		t.Errorf("expected state %s, got %s", Idle, s)
	}
}

func TestRefresherInterval(t *testing.T) {
	d := newFakeDisplay()
	r := NewRefresher(d, &RefresherOptions{Interval: 20 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected %v, got %v", context.DeadlineExceeded, err)
	}
	if n := d.refreshes.Load(); n < 2 || n > 5 {
		t.Errorf("expected refreshes to be paced, got %d in 70ms", n)
	}
}

func TestRefresherUpdate(t *testing.T) {
	d := newFakeDisplay()
	d.delay = 2 * time.Millisecond
	r := NewRefresher(d, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	for i := 0; i < 20; i++ {
		err := r.Update(ctx, func(fb *pixel.ARGB8888Image) error {
			if d.refreshing() {
				t.Error("framebuffer handed out while a refresh is in flight")
			}
			fb.Fill(color.NRGBA{R: uint8(i), A: 0xff})
			return nil
		})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
	}

	errUpdate := errors.New("draw failed")
	if err := r.Update(ctx, func(*pixel.ARGB8888Image) error { return errUpdate }); !errors.Is(err, errUpdate) {
		t.Errorf("expected %v, got %v", errUpdate, err)
	}
}

func TestRefresherSpuriousCompletion(t *testing.T) {
	d := newFakeDisplay()
	r := NewRefresher(d, nil)
	d.Notify()
	d.Notify()
	if n := r.Frames(); n != 0 {
		t.Errorf("expected spurious completions not to count as frames, got %d", n)
	}
	if s := r.State(); s != Idle {
		t.Errorf("expected state %s, got %s", Idle, s)
	}
}
