package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-drift/fiber/pkg/host/memdom"
	"github.com/go-drift/fiber/pkg/scheduler"
)

func TestManualSlicingDefersCommit(t *testing.T) {
	p := scheduler.NewManual()
	doc, container := newDocument()
	// root, List, ul, then li and text for each of three items
	root := Render(C(itemList, Props{"items": []string{"A", "B", "C"}}), doc, container, WithProvider(p))

	if ran, _ := p.Step(1); !ran {
		t.Fatal("expected a slice to be requested")
	}
	if root.Phase() != PhaseWorkPending {
		t.Errorf("expected WORK_PENDING, got %v", root.Phase())
	}
	if _, err := p.Step(3); err != nil {
		t.Fatal(err)
	}
	if got := root.Stats().Units; got != 4 {
		t.Errorf("expected 4 units after two slices, got %d", got)
	}
	if len(container.Children) != 0 || len(doc.Journal()) != 0 {
		t.Error("expected no host mutations before the tree is complete")
	}

	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := memdom.HTML(container); got != "<ul><li>A</li><li>B</li><li>C</li></ul>" {
		t.Errorf("unexpected output %s", got)
	}
	stats := root.Stats()
	if stats.Units != 9 || stats.Slices != 3 || stats.Commits != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestRequestsDuringPassCoalesce(t *testing.T) {
	p := scheduler.NewManual()
	var set Setter[int]
	counter := NewComponent("Counter", func(ctx *RenderContext, props Props) any {
		n, s := UseState(ctx, 0)
		set = s
		return H("div", nil, H("p", nil, fmt.Sprint(n)))
	})
	doc, container := newDocument()
	root := Render(C(counter, nil), doc, container, WithProvider(p))
	p.Flush()

	set.Set(1)
	p.Step(1)
	set.Set(2)
	set.Set(3)
	if !root.queued {
		t.Error("expected requests during WORK_PENDING to be queued")
	}
	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}

	stats := root.Stats()
	if stats.Passes != 3 || stats.Commits != 3 {
		t.Errorf("expected three passes in total, got %+v", stats)
	}
	if got := memdom.HTML(container); got != "<div><p>3</p></div>" {
		t.Errorf("unexpected output %s", got)
	}
}

func TestLayoutEffectRequestRunsAfterCommit(t *testing.T) {
	var phases []Phase
	sized := NewComponent("Sized", func(ctx *RenderContext, props Props) any {
		width, setWidth := UseState(ctx, 0)
		UseLayoutEffect(ctx, func() func() {
			phases = append(phases, ctx.Root().Phase())
			setWidth.Set(100)
			return nil
		}, Deps())
		return H("div", Props{"width": width})
	})
	doc, container := newDocument()
	root := Render(C(sized, nil), doc, container)

	if len(phases) != 1 || phases[0] != PhaseCommitting {
		t.Errorf("expected layout effect during COMMITTING, got %v", phases)
	}
	if got := memdom.HTML(container); got != `<div width="100"></div>` {
		t.Errorf("unexpected output %s", got)
	}
	if root.Stats().Commits != 2 {
		t.Errorf("expected a follow-up commit, got %d", root.Stats().Commits)
	}
}

func TestLoopDrivesRootAndDispatch(t *testing.T) {
	loop := scheduler.NewLoop(scheduler.LoopConfig{SliceBudget: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	var set Setter[string]
	greeter := NewComponent("Greeter", func(rc *RenderContext, props Props) any {
		name, s := UseState(rc, "world")
		set = s
		return H("p", nil, "hello ", name)
	})
	doc, container := newDocument()
	var root *Root
	loop.Post(func() {
		root = Render(C(greeter, nil), doc, container, WithProvider(loop))
	})
	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if err := loop.WaitIdle(waitCtx); err != nil {
		t.Fatal(err)
	}

	go func() {
		root.Dispatch(func() { set.Set("fiber") })
	}()
	deadline := time.Now().Add(2 * time.Second)
	for {
		var html string
		done := make(chan struct{})
		loop.Post(func() {
			html = memdom.HTML(container)
			close(done)
		})
		<-done
		if html == "<p>hello fiber</p>" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected dispatched update to render, got %s", html)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestUseIntervalTicksUntilUnmount(t *testing.T) {
	loop := scheduler.NewLoop(scheduler.LoopConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	ticks := make(chan struct{}, 16)
	clock := NewComponent("Clock", func(rc *RenderContext, props Props) any {
		n, set := UseState(rc, 0)
		UseInterval(rc, func() {
			set.Update(func(v int) int { return v + 1 })
			select {
			case ticks <- struct{}{}:
			default:
			}
		}, time.Millisecond)
		return H("time", nil, fmt.Sprint(n))
	})
	doc, container := newDocument()
	var root *Root
	loop.Post(func() {
		root = Render(C(clock, nil), doc, container, WithProvider(loop))
	})

	for i := 0; i < 3; i++ {
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d never arrived", i+1)
		}
	}
	loop.Post(func() { root.Unmount() })
	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if err := loop.WaitIdle(waitCtx); err != nil {
		t.Fatal(err)
	}
	if got := memdom.HTML(container); got != "" {
		t.Errorf("expected empty container after unmount, got %s", got)
	}
}

func TestSyncIntervalRunsOnOwner(t *testing.T) {
	p := scheduler.NewSync()
	var ticks int
	ticker := NewComponent("Ticker", func(rc *RenderContext, props Props) any {
		n, set := UseState(rc, 0)
		UseInterval(rc, func() {
			ticks++
			set.Update(func(v int) int { return v + 1 })
		}, time.Millisecond)
		return H("span", nil, fmt.Sprint(props["label"]), fmt.Sprint(n))
	})
	doc, container := newDocument()
	root := Render(C(ticker, Props{"label": "a"}), doc, container, WithProvider(p))

	deadline := time.Now().Add(2 * time.Second)
	for i := 0; ticks < 3; i++ {
		root.Render(C(ticker, Props{"label": fmt.Sprint(i % 2)}))
		p.RunPosted()
		if time.Now().After(deadline) {
			t.Fatalf("expected ticks to run on RunPosted, got %d", ticks)
		}
		time.Sleep(time.Millisecond)
	}

	root.Unmount()
	seen := ticks
	time.Sleep(5 * time.Millisecond)
	p.RunPosted()
	if ticks != seen {
		t.Errorf("expected no ticks after unmount, got %d more", ticks-seen)
	}
	if got := memdom.HTML(container); got != "" {
		t.Errorf("expected empty container after unmount, got %s", got)
	}
}

func TestQueuedTickDroppedAfterUnmount(t *testing.T) {
	p := scheduler.NewManual()
	ran := 0
	ticker := NewComponent("Ticker", func(rc *RenderContext, props Props) any {
		UseInterval(rc, func() { ran++ }, time.Millisecond)
		return H("span", nil)
	})
	doc, container := newDocument()
	root := Render(C(ticker, nil), doc, container, WithProvider(p))
	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for p.PendingPosts() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected a tick to be posted")
		}
		time.Sleep(time.Millisecond)
	}
	root.Unmount()
	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}
	if ran != 0 {
		t.Errorf("expected queued ticks to be dropped after unmount, got %d runs", ran)
	}
}
