// Package core is an incremental UI runtime built on a fiber reconciler.
//
// Components are plain functions that receive a *RenderContext and props
// and return elements:
//
//	var Counter = core.NewComponent("Counter", func(ctx *core.RenderContext, props core.Props) any {
//	    count, setCount := core.UseState(ctx, 0)
//	    return core.H("button", core.Props{
//	        "onClick": func() { setCount.Update(func(n int) int { return n + 1 }) },
//	    }, fmt.Sprintf("clicked %d times", count))
//	})
//
//	root := core.Render(core.C(Counter, nil), doc, container)
//
// # Render and commit
//
// A render pass walks a work-in-progress fiber tree one fiber per unit of
// work, yielding to the scheduler.Provider whenever the slice deadline runs
// out. Children are matched to the previous generation by key, or by
// position when unkeyed. Nothing reaches the host.Host until the whole tree
// is built; the commit then applies deletions, placements and updates in
// one uninterrupted step. Elements under an "svg" element are created in
// the SVG namespace on hosts that implement host.NamespaceHost.
//
// # Hooks
//
// Hooks (UseState, UseReducer, UseEffect, UseLayoutEffect, UseMemo,
// UseCallback, UseRef, UseContext) must be called in the same order on
// every render. Using a RenderContext outside its render panics with
// *errors.HookContextError. UseQuery fetches off the render goroutine and
// hands results back through Root.Dispatch.
//
// Memo wraps a component so it keeps its previous output while its props
// are shallow-equal.
//
// # Errors
//
// A component that panics or returns an error is replaced by the element
// from the ErrorElementBuilder and reported once to the root's
// errors.Reporter. The rest of the tree commits normally. Host failures
// during commit stop the root; see Root.Err.
package core
