package core

import (
	"fmt"

	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host"
)

// RenderContext is handed to a component while it renders. Hooks take it
// as their first argument and are only valid until the render returns.
type RenderContext struct {
	root   *Root
	fiber  int32
	hooks  *hookList
	cursor int
	active bool
}

// Root returns the root that is rendering.
func (ctx *RenderContext) Root() *Root { return ctx.root }

func (ctx *RenderContext) check(hook string) {
	if ctx == nil || !ctx.active {
		panic(&errors.HookContextError{Hook: hook})
	}
}

// hookList is the ordered hook storage of one component position. Each
// generation's fiber shares the list with its alternate.
type hookList struct {
	cells []any
	// armed records the effect cells the render in progress scheduled,
	// with their prior state, so a failed render can take them back.
	armed []armedEffect
	// readsContext is set once the component calls UseContext.
	readsContext bool
}

// updateQueue is implemented by cells that buffer updates for the next
// render.
type updateQueue interface {
	hasUpdates() bool
}

func (h *hookList) hasUpdates() bool {
	for _, c := range h.cells {
		if q, ok := c.(updateQueue); ok && q.hasUpdates() {
			return true
		}
	}
	return false
}

type armedEffect struct {
	cell    *effectCell
	seeded  bool
	deps    []any
	pending EffectFunc
}

// disarm restores every effect cell the failed render touched.
func (h *hookList) disarm() {
	for _, a := range h.armed {
		a.cell.seeded, a.cell.deps, a.cell.pending = a.seeded, a.deps, a.pending
	}
	h.armed = nil
}

// hookAt returns the cell for the next hook call, creating it with init
// on first render. Calling hooks in a different order between renders
// panics.
func hookAt[C any](ctx *RenderContext, hook string, init func() C) C {
	ctx.check(hook)
	i := ctx.cursor
	ctx.cursor++
	if i < len(ctx.hooks.cells) {
		c, ok := ctx.hooks.cells[i].(C)
		if !ok {
			panic(fmt.Errorf("%s: hook %d was %T on the previous render; hooks must be called in the same order every render", hook, i, ctx.hooks.cells[i]))
		}
		return c
	}
	c := init()
	ctx.hooks.cells = append(ctx.hooks.cells, c)
	return c
}

type stateCell[T any] struct {
	value T
	queue []func(T) T
}

// Setter updates a state slot. Calls are queued and folded in order at the
// slot's next render. Setters are not safe for concurrent use; call them
// from the goroutine that drives the scheduler, or via Root.Dispatch.
type Setter[T any] struct {
	cell *stateCell[T]
	root *Root
}

// Set replaces the value.
func (s Setter[T]) Set(v T) {
	s.Update(func(T) T { return v })
}

// Update applies fn to the latest value.
func (s Setter[T]) Update(fn func(prev T) T) {
	s.cell.queue = append(s.cell.queue, fn)
	s.root.requestRender()
}

// UseState returns the slot's current value and its setter. initial is
// used only on first render.
func UseState[T any](ctx *RenderContext, initial T) (T, Setter[T]) {
	cell := hookAt(ctx, "UseState", func() *stateCell[T] {
		return &stateCell[T]{value: initial}
	})
	return cell.fold(), Setter[T]{cell: cell, root: ctx.root}
}

// UseLazyState is UseState with an initializer that runs once.
func UseLazyState[T any](ctx *RenderContext, init func() T) (T, Setter[T]) {
	cell := hookAt(ctx, "UseLazyState", func() *stateCell[T] {
		return &stateCell[T]{value: init()}
	})
	return cell.fold(), Setter[T]{cell: cell, root: ctx.root}
}

func (c *stateCell[T]) hasUpdates() bool { return len(c.queue) > 0 }

func (c *stateCell[T]) fold() T {
	for _, fn := range c.queue {
		c.value = fn(c.value)
	}
	c.queue = nil
	return c.value
}

type reducerCell[S, A any] struct {
	state S
	queue []A
}

func (c *reducerCell[S, A]) hasUpdates() bool { return len(c.queue) > 0 }

// Dispatch sends an action to a reducer slot.
type Dispatch[A any] func(action A)

// UseReducer folds queued actions through reducer at each render. The
// reducer passed on the current render is the one applied.
func UseReducer[S, A any](ctx *RenderContext, reducer func(S, A) S, initial S) (S, Dispatch[A]) {
	cell := hookAt(ctx, "UseReducer", func() *reducerCell[S, A] {
		return &reducerCell[S, A]{state: initial}
	})
	for _, a := range cell.queue {
		cell.state = reducer(cell.state, a)
	}
	cell.queue = nil
	root := ctx.root
	return cell.state, func(action A) {
		cell.queue = append(cell.queue, action)
		root.requestRender()
	}
}

// EffectFunc is an effect body. It may return a cleanup that runs before
// the next body or when the component is removed.
type EffectFunc func() (cleanup func())

type effectCell struct {
	layout  bool
	seeded  bool
	deps    []any
	pending EffectFunc
	cleanup func()
	dead    bool
}

// Deps builds a dependency list. Deps() with no values runs an effect once;
// passing a nil list runs it after every render.
func Deps(values ...any) []any {
	if values == nil {
		return []any{}
	}
	return values
}

// UseEffect schedules fn to run after the commit that follows this render,
// outside the commit itself. It runs when deps differ from the previous
// render's by identity.
func UseEffect(ctx *RenderContext, fn EffectFunc, deps []any) {
	useEffect(ctx, "UseEffect", false, fn, deps)
}

// UseLayoutEffect is UseEffect, but fn runs synchronously right after the
// commit's mutations, before anything else is scheduled.
func UseLayoutEffect(ctx *RenderContext, fn EffectFunc, deps []any) {
	useEffect(ctx, "UseLayoutEffect", true, fn, deps)
}

func useEffect(ctx *RenderContext, hook string, layout bool, fn EffectFunc, deps []any) {
	cell := hookAt(ctx, hook, func() *effectCell {
		return &effectCell{layout: layout}
	})
	if !cell.seeded || deps == nil || depsChanged(cell.deps, deps) {
		ctx.hooks.armed = append(ctx.hooks.armed, armedEffect{
			cell: cell, seeded: cell.seeded, deps: cell.deps, pending: cell.pending,
		})
		cell.pending = fn
	}
	cell.deps = deps
	cell.seeded = true
}

type memoCell[T any] struct {
	seeded bool
	value  T
	deps   []any
}

// UseMemo returns factory's result, recomputed only when deps change.
func UseMemo[T any](ctx *RenderContext, factory func() T, deps []any) T {
	cell := hookAt(ctx, "UseMemo", func() *memoCell[T] {
		return &memoCell[T]{}
	})
	if !cell.seeded || deps == nil || depsChanged(cell.deps, deps) {
		cell.value = factory()
		cell.seeded = true
	}
	cell.deps = deps
	return cell.value
}

// UseCallback returns fn as it was when deps last changed.
func UseCallback[F any](ctx *RenderContext, fn F, deps []any) F {
	cell := hookAt(ctx, "UseCallback", func() *memoCell[F] {
		return &memoCell[F]{}
	})
	if !cell.seeded || deps == nil || depsChanged(cell.deps, deps) {
		cell.value = fn
		cell.seeded = true
	}
	cell.deps = deps
	return cell.value
}

// Ref is a mutable box that survives renders without triggering them.
// Passed as the "ref" prop of a host element, it receives the output node
// when that node's type is T.
type Ref[T any] struct {
	Current T
}

func (r *Ref[T]) attach(node host.Node) {
	if v, ok := node.(T); ok {
		r.Current = v
	}
}

type nodeRef interface {
	attach(node host.Node)
}

// UseRef returns the same *Ref on every render.
func UseRef[T any](ctx *RenderContext, initial T) *Ref[T] {
	return hookAt(ctx, "UseRef", func() *Ref[T] {
		return &Ref[T]{Current: initial}
	})
}
