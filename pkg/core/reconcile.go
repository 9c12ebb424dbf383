package core

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-drift/fiber/pkg/errors"
)

// performUnit renders one fiber and reconciles its children, returning the
// next fiber in depth-first order.
func (r *Root) performUnit(i int32) int32 {
	f := r.wip.at(i)
	switch f.kind.typ {
	case KindComponent:
		if alt, ok := r.canBail(f); ok {
			f.output, f.rendered = alt.output, true
			r.stats.Bailouts++
			r.reconcileChildren(i, f.output)
			break
		}
		r.reconcileChildren(i, r.renderComponent(i, f))
	case KindHost:
		r.reconcileChildren(i, f.props.Children())
	}
	return r.wip.next(i, noFiber, true)
}

// resolve returns the fiber ref points to, or nil once its generation is
// gone.
func (r *Root) resolve(ref fiberRef) (*arena, *fiber) {
	switch {
	case ref.gen == 0:
		return nil, nil
	case r.current != nil && ref.gen == r.current.gen:
		return r.current, r.current.at(ref.index)
	case r.wip != nil && ref.gen == r.wip.gen:
		return r.wip, r.wip.at(ref.index)
	default:
		return nil, nil
	}
}

func (r *Root) renderComponent(i int32, f *fiber) []Element {
	if f.hooks == nil {
		f.hooks = &hookList{}
	}
	f.hooks.armed = nil
	ctx := &RenderContext{root: r, fiber: i, hooks: f.hooks}
	children, renderErr := safeRender(ctx, f)
	if renderErr == nil {
		f.hooks.armed = nil
		f.output, f.rendered = children, true
		return children
	}
	// Effects scheduled by a render that never completed must not run.
	f.hooks.disarm()
	renderErr.Path = r.componentPath(i)
	r.reporter.ReportError(renderErr, renderErr.Path)
	placeholder := GetErrorElementBuilder()(renderErr)
	if placeholder.IsZero() {
		return nil
	}
	return []Element{placeholder}
}

// safeRender invokes the component body, converting a panic or a returned
// error into a RenderError.
func safeRender(ctx *RenderContext, f *fiber) (children []Element, renderErr *errors.RenderError) {
	comp := f.kind.comp
	defer func() {
		ctx.active = false
		if rec := recover(); rec != nil {
			renderErr = &errors.RenderError{
				Component:  comp.Name,
				Recovered:  rec,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			}
			if err, ok := rec.(error); ok {
				renderErr.Err = err
			}
			children = nil
		}
	}()
	ctx.active = true
	out := comp.Render(ctx, f.props)
	if err, ok := out.(error); ok {
		return nil, &errors.RenderError{
			Component: comp.Name,
			Err:       err,
			Timestamp: time.Now(),
		}
	}
	return normalizeChildren([]any{out}), nil
}

// componentPath names the component ancestry of i, outermost first, for
// example "App/List/Item".
func (r *Root) componentPath(i int32) string {
	var names []string
	for p := i; p != noFiber; p = r.wip.at(p).parent {
		if f := r.wip.at(p); f.kind.typ == KindComponent {
			names = append(names, f.kind.comp.Name)
		}
	}
	slices.Reverse(names)
	return strings.Join(names, "/")
}

// matchKey separates explicit keys from positional indices, so the key 0
// never matches the first unkeyed child.
type matchKey struct {
	explicit bool
	value    any
}

func keyFor(key any, index int) matchKey {
	if key != nil {
		return matchKey{explicit: true, value: key}
	}
	return matchKey{value: index}
}

// reconcileChildren diffs elements against the previous children of the
// fiber at parentIdx, builds the new child chain and records deletions.
func (r *Root) reconcileChildren(parentIdx int32, elements []Element) {
	parent := r.wip.at(parentIdx)
	parent.child = noFiber

	old, oldParent := r.resolve(parent.alternate)
	existing := make(map[matchKey]int32)
	if oldParent != nil {
		pos := 0
		for oi := oldParent.child; oi != noFiber; oi = old.at(oi).sibling {
			k := keyFor(old.at(oi).key, pos)
			if _, dup := existing[k]; dup {
				r.markDeleted(oi)
			} else {
				existing[k] = oi
			}
			pos++
		}
	}

	prev := noFiber
	for idx, el := range elements {
		k := keyFor(el.Key, idx)
		nf := &fiber{
			kind:    el.Kind,
			props:   el.Props,
			key:     el.Key,
			parent:  parentIdx,
			child:   noFiber,
			sibling: noFiber,
			effect:  EffectPlace,
		}
		if oi, ok := existing[k]; ok {
			delete(existing, k)
			if of := old.at(oi); of.kind == el.Kind {
				nf.node = of.node
				nf.hooks = of.hooks
				nf.alternate = fiberRef{gen: old.gen, index: oi}
				nf.effect = EffectUpdate
			} else {
				r.markDeleted(oi)
			}
		}
		ni := r.wip.alloc(nf)
		if prev == noFiber {
			parent.child = ni
		} else {
			r.wip.at(prev).sibling = ni
		}
		prev = ni
	}

	if len(existing) > 0 {
		rest := make([]int32, 0, len(existing))
		for _, oi := range existing {
			rest = append(rest, oi)
		}
		slices.Sort(rest)
		for _, oi := range rest {
			r.markDeleted(oi)
		}
	}
}

func (r *Root) markDeleted(oi int32) {
	r.current.at(oi).effect = EffectDelete
	r.deletions = append(r.deletions, oi)
}

func fiberLabel(f *fiber) string {
	switch f.kind.typ {
	case KindText:
		return fmt.Sprintf("#text %q", Prop[string](f.props, "nodeValue"))
	case KindComponent:
		return f.kind.comp.Name
	default:
		return "<" + f.kind.tag + ">"
	}
}
