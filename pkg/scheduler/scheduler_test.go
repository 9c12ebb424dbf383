package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-drift/fiber/pkg/scheduler"
	fibertest "github.com/go-drift/fiber/pkg/testing"
	"github.com/google/go-cmp/cmp"
)

func TestSyncRunsNestedRequestsInOrder(t *testing.T) {
	s := scheduler.NewSync()
	var order []string

	s.RequestSlice(func(d scheduler.Deadline) error {
		order = append(order, "first")
		s.Post(func() { order = append(order, "posted") })
		s.RequestSlice(func(scheduler.Deadline) error {
			order = append(order, "second")
			return nil
		})
		if d.TimeRemaining() <= 0 {
			t.Error("expected unbounded budget")
		}
		order = append(order, "first-end")
		return nil
	})

	want := []string{"first", "first-end", "second", "posted"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncKeepsFirstError(t *testing.T) {
	s := scheduler.NewSync()
	first := errors.New("first")
	var seen []error
	s.OnError = func(err error) { seen = append(seen, err) }

	s.RequestSlice(func(scheduler.Deadline) error { return first })
	s.RequestSlice(func(scheduler.Deadline) error { return errors.New("second") })

	if !errors.Is(s.Err(), first) {
		t.Errorf("expected first error, got %v", s.Err())
	}
	if len(seen) != 2 {
		t.Errorf("expected OnError twice, got %d", len(seen))
	}
}

func TestSyncPostWaitsForOwner(t *testing.T) {
	s := scheduler.NewSync()
	var order []string

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Post(func() { order = append(order, "from goroutine") })
	}()
	wg.Wait()
	if len(order) != 0 {
		t.Fatalf("expected Post to only enqueue, got %v", order)
	}
	if s.PendingPosts() != 1 {
		t.Errorf("expected 1 pending post, got %d", s.PendingPosts())
	}

	s.RequestSlice(func(scheduler.Deadline) error {
		order = append(order, "slice")
		return nil
	})
	s.Post(func() { order = append(order, "idle post") })
	if n := s.RunPosted(); n != 1 {
		t.Errorf("expected RunPosted to run 1 callback, got %d", n)
	}

	want := []string{"slice", "from goroutine", "idle post"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if n := s.RunPosted(); n != 0 {
		t.Errorf("expected nothing left to run, got %d", n)
	}
}

func TestManualStepBudget(t *testing.T) {
	m := scheduler.NewManual()
	work := 0
	m.RequestSlice(func(d scheduler.Deadline) error {
		for {
			work++
			if d.TimeRemaining() <= 0 {
				return nil
			}
		}
	})

	ran, err := m.Step(3)
	if !ran || err != nil {
		t.Fatalf("Step() = %v, %v", ran, err)
	}
	if work != 3 {
		t.Errorf("expected 3 units of work, got %d", work)
	}
	if ran, _ := m.Step(1); ran {
		t.Error("expected no slice left")
	}
}

func TestManualFlushSettles(t *testing.T) {
	m := scheduler.NewManual()
	count := 0
	var request func()
	request = func() {
		m.RequestSlice(func(scheduler.Deadline) error {
			count++
			if count < 3 {
				m.Post(request)
			}
			return nil
		})
	}
	request()

	if err := m.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 slices, got %d", count)
	}
	if m.PendingSlices() != 0 || m.PendingPosts() != 0 {
		t.Error("expected empty queues after Flush")
	}
}

func TestManualFlushDetectsRunaway(t *testing.T) {
	m := scheduler.NewManual()
	var again func(scheduler.Deadline) error
	again = func(scheduler.Deadline) error {
		m.RequestSlice(again)
		return nil
	}
	m.RequestSlice(again)

	if err := m.Flush(); !errors.Is(err, scheduler.ErrNotSettled) {
		t.Errorf("expected ErrNotSettled, got %v", err)
	}
}

func TestLoopRunsSlicesAndPosts(t *testing.T) {
	l := scheduler.NewLoop(scheduler.LoopConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}

	l.Post(func() {
		record("input")
		l.RequestSlice(func(d scheduler.Deadline) error {
			record("slice")
			if d.DidTimeout() {
				t.Error("slice should not time out on an idle loop")
			}
			return nil
		})
	})

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if err := l.WaitIdle(waitCtx); err != nil {
		t.Fatalf("WaitIdle() error: %v", err)
	}

	mu.Lock()
	got := append([]string(nil), order...)
	mu.Unlock()
	if diff := cmp.Diff([]string{"input", "slice"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoopDeadlineUsesClock(t *testing.T) {
	clk := fibertest.NewFakeClock()
	l := scheduler.NewLoop(scheduler.LoopConfig{SliceBudget: 10 * time.Millisecond, Clock: clk})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	remaining := make(chan [2]time.Duration, 1)
	l.RequestSlice(func(d scheduler.Deadline) error {
		before := d.TimeRemaining()
		clk.Advance(4 * time.Millisecond)
		remaining <- [2]time.Duration{before, d.TimeRemaining()}
		return nil
	})

	select {
	case got := <-remaining:
		if got[0] != 10*time.Millisecond || got[1] != 6*time.Millisecond {
			t.Errorf("expected 10ms then 6ms, got %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("slice never ran")
	}
}

func TestLoopStopsOnTaskError(t *testing.T) {
	l := scheduler.NewLoop(scheduler.LoopConfig{})
	boom := errors.New("boom")
	l.RequestSlice(func(scheduler.Deadline) error { return boom })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Run(ctx); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if err := l.WaitIdle(ctx); !errors.Is(err, scheduler.ErrLoopStopped) {
		t.Errorf("expected ErrLoopStopped, got %v", err)
	}
}

func TestLoopRejectsSecondRun(t *testing.T) {
	l := scheduler.NewLoop(scheduler.LoopConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	started := make(chan struct{})
	go func() {
		l.Post(func() { close(started) })
		_ = l.Run(ctx)
	}()
	<-started
	if err := l.Run(ctx); !errors.Is(err, scheduler.ErrLoopAlreadyRunning) {
		t.Errorf("expected ErrLoopAlreadyRunning, got %v", err)
	}
}

func TestLoopFramesOnly(t *testing.T) {
	l := scheduler.NewLoop(scheduler.LoopConfig{FramesOnly: true, FrameInterval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	ran := make(chan struct{})
	l.RequestSlice(func(scheduler.Deadline) error {
		close(ran)
		return nil
	})
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("frame fallback never ran the slice")
	}
}

func TestLoopStarvedSliceTimesOut(t *testing.T) {
	clk := fibertest.NewFakeClock()
	l := scheduler.NewLoop(scheduler.LoopConfig{Timeout: 5 * time.Millisecond, Clock: clk})

	timedOut := make(chan bool, 1)
	ran := false
	inputs := 0
	l.RequestSlice(func(d scheduler.Deadline) error {
		ran = true
		timedOut <- d.DidTimeout()
		return nil
	})
	// Keep input pending so the slice never gets an idle turn.
	var flood func()
	flood = func() {
		if ran {
			return
		}
		inputs++
		clk.Advance(time.Millisecond)
		l.Post(flood)
	}
	l.Post(flood)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	select {
	case got := <-timedOut:
		if !got {
			t.Error("expected a starved slice to report DidTimeout")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("starved slice never ran")
	}
	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if err := l.WaitIdle(waitCtx); err != nil {
		t.Fatal(err)
	}
	if inputs != 5 {
		t.Errorf("expected the slice to run after 5 inputs, got %d", inputs)
	}
}

func TestLoopInputPanicCallback(t *testing.T) {
	var (
		mu  sync.Mutex
		got []any
	)
	l := scheduler.NewLoop(scheduler.LoopConfig{
		OnInputPanic: func(r any) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, r)
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	after := false
	l.Post(func() { panic("bad input") })
	l.Post(func() { after = true })

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if err := l.WaitIdle(waitCtx); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]any{"bad input"}, got); diff != "" {
		t.Errorf("panic values mismatch (-want +got):\n%s", diff)
	}
	if !after {
		t.Error("expected the loop to keep running after a panicking input")
	}
}
