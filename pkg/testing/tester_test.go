package testing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/host"
	"github.com/google/go-cmp/cmp"
)

var counter = core.NewComponent("Counter", func(ctx *core.RenderContext, props core.Props) any {
	n, set := core.UseState(ctx, core.Prop[int](props, "initial"))
	return core.H("div", core.Props{"className": "counter"},
		core.H("span", core.Props{"className": "value"}, fmt.Sprint(n)),
		core.H("button", core.Props{"onClick": func() { set.Update(func(v int) int { return v + 1 }) }}, "+"),
	)
})

var echo = core.NewComponent("Echo", func(ctx *core.RenderContext, props core.Props) any {
	text, set := core.UseState(ctx, "")
	return core.H("label", nil,
		core.H("input", core.Props{"onInput": func(ev *host.Event) { set.Set(ev.Value.(string)) }}),
		core.H("output", nil, text),
	)
})

func TestRenderMountsTree(t *testing.T) {
	tester := NewTesterWithT(t)
	if tester.Root() != nil {
		t.Fatal("expected no root before Render")
	}
	if err := tester.Render(core.C(counter, core.Props{"initial": 3})); err != nil {
		t.Fatal(err)
	}
	want := `<div class="counter"><span class="value">3</span><button>+</button></div>`
	if got := tester.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if tester.Root().Phase() != core.PhaseIdle {
		t.Errorf("expected IDLE, got %v", tester.Root().Phase())
	}
}

func TestRenderReusesRoot(t *testing.T) {
	tester := NewTesterWithT(t)
	tester.Render(core.C(counter, nil))
	first := tester.Root()
	tester.Render(core.C(counter, core.Props{"initial": 9}))

	if tester.Root() != first {
		t.Error("expected Render to reuse the root")
	}
	// State survives re-render; the initial value only seeds the first pass.
	if got := tester.Find(ByClass("value")).Text(); got != "0" {
		t.Errorf("expected retained state 0, got %q", got)
	}
}

func TestClickUpdatesState(t *testing.T) {
	tester := NewTesterWithT(t)
	tester.Render(core.C(counter, nil))

	for i := 0; i < 3; i++ {
		if err := tester.Click(ByTag("button")); err != nil {
			t.Fatal(err)
		}
	}
	if got := tester.Find(ByClass("value")).Text(); got != "3" {
		t.Errorf("expected 3, got %q", got)
	}
}

func TestInputDeliversValue(t *testing.T) {
	tester := NewTesterWithT(t)
	tester.Render(core.C(echo, nil))

	if err := tester.Input(ByTag("input"), "hello"); err != nil {
		t.Fatal(err)
	}
	if got := tester.Find(ByTag("output")).Text(); got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
}

func TestDispatchNoMatch(t *testing.T) {
	tester := NewTesterWithT(t)
	tester.Render(core.C(counter, nil))

	err := tester.Click(ByTag("a"))
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("expected ErrNoMatch, got %v", err)
	}
}

func TestStepDefersCommit(t *testing.T) {
	tester := NewTesterWithT(t)
	tester.Render(core.C(counter, nil))
	tester.Document().ResetJournal()

	tester.Document().Dispatch(tester.Find(ByTag("button")).First(), "click", nil)
	if ran, err := tester.Step(1); err != nil || !ran {
		t.Fatalf("expected a slice to run, got ran=%v err=%v", ran, err)
	}
	if len(tester.Document().Journal()) != 0 {
		t.Error("expected no mutations before the pass completes")
	}
	if got := tester.Root().Phase(); got != core.PhaseWorkPending {
		t.Errorf("expected WORK_PENDING, got %v", got)
	}
	if err := tester.Pump(); err != nil {
		t.Fatal(err)
	}
	if got := tester.Find(ByClass("value")).Text(); got != "1" {
		t.Errorf("expected 1, got %q", got)
	}
}

func TestPumpSettleTimeout(t *testing.T) {
	runaway := core.NewComponent("Runaway", func(ctx *core.RenderContext, props core.Props) any {
		n, set := core.UseState(ctx, 0)
		core.UseEffect(ctx, func() func() {
			set.Set(n + 1)
			return nil
		}, nil)
		return core.H("p", nil, fmt.Sprint(n))
	})
	tester := NewTesterWithT(t)

	if err := tester.Render(core.C(runaway, nil)); !errors.Is(err, ErrSettleTimeout) {
		t.Errorf("expected ErrSettleTimeout, got %v", err)
	}
}

func TestErrorsAreRecorded(t *testing.T) {
	broken := core.NewComponent("Broken", func(ctx *core.RenderContext, props core.Props) any {
		panic("boom")
	})
	app := core.NewComponent("App", func(ctx *core.RenderContext, props core.Props) any {
		return core.H("main", nil, core.C(broken, nil))
	})
	tester := NewTesterWithT(t)
	if err := tester.Render(core.C(app, nil)); err != nil {
		t.Fatalf("render errors must not fail the pump, got %v", err)
	}

	if diff := cmp.Diff([]string{"App/Broken"}, tester.Errors().Paths()); diff != "" {
		t.Errorf("paths (-want +got):\n%s", diff)
	}
	if len(tester.Errors().Errors()) != 1 {
		t.Errorf("expected one error, got %v", tester.Errors().Errors())
	}
	if !tester.Find(ByClass("fiber-error")).Exists() {
		t.Error("expected the error placeholder")
	}
}

func TestCleanupRunsEffectCleanups(t *testing.T) {
	var cleaned bool
	tracked := core.NewComponent("Tracked", func(ctx *core.RenderContext, props core.Props) any {
		core.UseEffect(ctx, func() func() {
			return func() { cleaned = true }
		}, core.Deps())
		return core.H("p", nil, "x")
	})
	tester := NewTester()
	tester.Render(core.C(tracked, nil))
	tester.Cleanup()

	if !cleaned {
		t.Error("expected cleanup to run on unmount")
	}
	if tester.HTML() != "" {
		t.Errorf("expected empty output, got %s", tester.HTML())
	}
}
