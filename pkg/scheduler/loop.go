package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-drift/fiber/pkg/errors"
)

const (
	// DefaultSliceBudget is the work budget of one idle slice.
	DefaultSliceBudget = 5 * time.Millisecond
	// DefaultFrameInterval is the animation-frame fallback period.
	DefaultFrameInterval = 16 * time.Millisecond
	// DefaultTimeout bounds how long a slice request may starve behind input.
	DefaultTimeout = 50 * time.Millisecond
)

var (
	// ErrLoopAlreadyRunning is returned when Run is called on a running loop.
	ErrLoopAlreadyRunning = errors.New("scheduler: loop is already running")
	// ErrLoopStopped is returned by WaitIdle after Run has returned.
	ErrLoopStopped = errors.New("scheduler: loop has stopped")
)

// LoopConfig configures a Loop. Zero fields take the package defaults.
type LoopConfig struct {
	// SliceBudget is the time granted to each slice.
	SliceBudget time.Duration
	// FrameInterval is the period of the animation-frame fallback.
	FrameInterval time.Duration
	// Timeout is how long a slice request may wait while input is pending
	// before it runs anyway with DidTimeout reporting true.
	Timeout time.Duration
	// FramesOnly disables idle slices; slices then run only on frame ticks,
	// as on hosts without an idle-callback primitive.
	FramesOnly bool
	// Clock supplies time for deadlines; SystemClock when nil.
	Clock Clock
	// OnInputPanic, when set, receives the value of a posted callback's
	// panic after it is reported. The loop keeps running.
	OnInputPanic func(r any)
}

func (c LoopConfig) withDefaults() LoopConfig {
	if c.SliceBudget <= 0 {
		c.SliceBudget = DefaultSliceBudget
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = DefaultFrameInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Clock == nil {
		c.Clock = SystemClock
	}
	return c
}

type pendingSlice struct {
	task      Task
	requested time.Time
}

// Loop is a real-time provider that owns one goroutine.
//
// Posted callbacks are treated as input and always run before slices.
// Slices run when the ingress queue is empty (idle callbacks), on frame
// ticks, or once their request has waited longer than Timeout.
type Loop struct {
	cfg LoopConfig

	mu      sync.Mutex
	ingress []func()
	slices  []pendingSlice
	waiters []chan struct{}
	stopped bool

	wake    chan struct{}
	running atomic.Bool
}

// NewLoop creates a loop. Call Run to start it.
func NewLoop(cfg LoopConfig) *Loop {
	return &Loop{
		cfg:  cfg.withDefaults(),
		wake: make(chan struct{}, 1),
	}
}

// Config returns the effective configuration.
func (l *Loop) Config() LoopConfig {
	return l.cfg
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// RequestSlice implements Provider.
func (l *Loop) RequestSlice(task Task) {
	l.mu.Lock()
	l.slices = append(l.slices, pendingSlice{task: task, requested: l.cfg.Clock.Now()})
	l.mu.Unlock()
	l.signal()
}

// Post implements Provider. It is safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.ingress = append(l.ingress, fn)
	l.mu.Unlock()
	l.signal()
}

// WaitIdle blocks until the loop has no queued input or slices.
func (l *Loop) WaitIdle(ctx context.Context) error {
	ch := make(chan struct{})
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrLoopStopped
	}
	l.waiters = append(l.waiters, ch)
	l.mu.Unlock()
	l.signal()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes work until ctx is done or a slice task fails. A task error
// (or a panic inside a slice) stops the loop and is returned wrapped.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopAlreadyRunning
	}
	defer l.running.Store(false)
	defer l.stop()

	ticker := time.NewTicker(l.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if fn := l.popIngress(); fn != nil {
			l.runInput(fn)
			if s, ok := l.popStarved(); ok {
				if err := l.runSlice(s, true); err != nil {
					return err
				}
			}
			continue
		}

		if !l.cfg.FramesOnly {
			if s, ok := l.popSlice(); ok {
				if err := l.runSlice(s, false); err != nil {
					return err
				}
				continue
			}
		}

		l.notifyIdle()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case <-ticker.C:
			if s, ok := l.popSlice(); ok {
				if err := l.runSlice(s, false); err != nil {
					return err
				}
			}
		}
	}
}

func (l *Loop) popIngress() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.ingress) == 0 {
		return nil
	}
	fn := l.ingress[0]
	l.ingress[0] = nil
	l.ingress = l.ingress[1:]
	return fn
}

func (l *Loop) popSlice() (pendingSlice, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.slices) == 0 {
		return pendingSlice{}, false
	}
	s := l.slices[0]
	l.slices = l.slices[1:]
	return s, true
}

// popStarved pops the oldest slice only if it has waited past Timeout.
func (l *Loop) popStarved() (pendingSlice, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.slices) == 0 {
		return pendingSlice{}, false
	}
	if l.cfg.Clock.Now().Sub(l.slices[0].requested) < l.cfg.Timeout {
		return pendingSlice{}, false
	}
	s := l.slices[0]
	l.slices = l.slices[1:]
	return s, true
}

func (l *Loop) notifyIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.ingress) > 0 || len(l.slices) > 0 {
		return
	}
	for _, ch := range l.waiters {
		close(ch)
	}
	l.waiters = nil
}

func (l *Loop) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	for _, ch := range l.waiters {
		close(ch)
	}
	l.waiters = nil
}

// runInput runs a posted callback; a panic is reported, handed to
// OnInputPanic and does not stop the loop.
func (l *Loop) runInput(fn func()) {
	defer errors.RecoverWithCallback("scheduler.Loop.input", l.cfg.OnInputPanic)
	fn()
}

func (l *Loop) runSlice(s pendingSlice, timedOut bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &errors.PanicError{
				Op:         "scheduler.Loop.slice",
				Value:      r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			}
		}
	}()
	start := l.cfg.Clock.Now()
	d := &clockDeadline{clock: l.cfg.Clock, end: start.Add(l.cfg.SliceBudget), timedOut: timedOut}
	if err := s.task(d); err != nil {
		return fmt.Errorf("scheduler slice: %w", err)
	}
	return nil
}

type clockDeadline struct {
	clock    Clock
	end      time.Time
	timedOut bool
}

func (d *clockDeadline) TimeRemaining() time.Duration {
	remaining := d.end.Sub(d.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (d *clockDeadline) DidTimeout() bool { return d.timedOut }
