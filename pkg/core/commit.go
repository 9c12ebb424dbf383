package core

import (
	"fmt"
	"slices"

	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host"
)

// listenerBox is installed once per (node, event). Handler changes swap
// the boxed value instead of touching the host, since funcs cannot be
// compared.
type listenerBox struct {
	handler any
}

func (b *listenerBox) dispatch(ev *host.Event) {
	defer errors.Recover("core.listener." + ev.Type)
	switch h := b.handler.(type) {
	case func():
		h()
	case func(*host.Event):
		h(ev)
	case host.Listener:
		h(ev)
	default:
		panic(fmt.Sprintf("unsupported handler type %T", b.handler))
	}
}

// commit applies the finished work-in-progress tree to the host: deletions
// first, then placements and updates in depth-first order. It returns the
// layout effects to run once mutations are done.
func (r *Root) commit() ([]*effectCell, error) {
	for _, oi := range r.deletions {
		if err := r.commitDeletion(oi); err != nil {
			return nil, err
		}
	}

	var layout []*effectCell
	cursors := make(map[host.Node]host.Node)
	wip := r.wip
	for i := wip.at(0).child; i != noFiber; i = wip.next(i, 0, true) {
		f := wip.at(i)
		if f.kind.typ == KindComponent {
			layout = r.collectEffects(f, layout)
			continue
		}
		var err error
		switch f.effect {
		case EffectPlace:
			err = r.commitPlacement(i, f, cursors)
		case EffectUpdate:
			err = r.commitUpdate(i, f, cursors)
		}
		if err != nil {
			return nil, err
		}
	}
	return layout, nil
}

func (r *Root) collectEffects(f *fiber, layout []*effectCell) []*effectCell {
	for _, c := range f.hooks.cells {
		cell, ok := c.(*effectCell)
		if !ok || cell.pending == nil {
			continue
		}
		if cell.layout {
			layout = append(layout, cell)
		} else {
			r.passive = append(r.passive, cell)
		}
	}
	return layout
}

func (r *Root) commitPlacement(i int32, f *fiber, cursors map[host.Node]host.Node) error {
	var node host.Node
	var err error
	if f.kind.typ == KindText {
		text := Prop[string](f.props, "nodeValue")
		if node, err = r.host.CreateText(text); err != nil {
			return &errors.HostError{Op: "CreateText", Target: fmt.Sprintf("%q", text), Err: err}
		}
	} else {
		if node, err = r.createElement(i, f.kind.tag); err != nil {
			return err
		}
		if err := r.applyProps(node, nil, f.props); err != nil {
			return err
		}
	}
	f.node = node
	return r.place(i, f, cursors)
}

// createElement creates the node for a host fiber, in the SVG namespace
// when the fiber is an svg element or sits inside one.
func (r *Root) createElement(i int32, tag string) (host.Node, error) {
	if nh, ok := r.host.(host.NamespaceHost); ok && r.inSVG(i) {
		node, err := nh.CreateElementNS(host.SVGNamespace, tag)
		if err != nil {
			return nil, &errors.HostError{Op: "CreateElementNS", Target: tag, Err: err}
		}
		return node, nil
	}
	node, err := r.host.CreateElement(tag)
	if err != nil {
		return nil, &errors.HostError{Op: "CreateElement", Target: tag, Err: err}
	}
	return node, nil
}

func (r *Root) inSVG(i int32) bool {
	for p := i; p != noFiber; p = r.wip.at(p).parent {
		if k := r.wip.at(p).kind; k.typ == KindHost && k.tag == "svg" {
			return true
		}
	}
	return false
}

func (r *Root) commitUpdate(i int32, f *fiber, cursors map[host.Node]host.Node) error {
	_, alt := r.resolve(f.alternate)
	var prev Props
	if alt != nil {
		prev = alt.props
	}
	if f.kind.typ == KindText {
		text := Prop[string](f.props, "nodeValue")
		if prev == nil || Prop[string](prev, "nodeValue") != text {
			if err := r.host.SetText(f.node, text); err != nil {
				return &errors.HostError{Op: "SetText", Target: fmt.Sprint(f.node), Err: err}
			}
		}
	} else if err := r.applyProps(f.node, prev, f.props); err != nil {
		return err
	}
	return r.place(i, f, cursors)
}

// place keeps the node at its position among the host parent's managed
// children. cursors tracks the last node placed under each parent in this
// commit, so a node is moved only when it is not already where it belongs.
func (r *Root) place(i int32, f *fiber, cursors map[host.Node]host.Node) error {
	parent := r.wip.hostParent(i)
	var expected host.Node
	if last, ok := cursors[parent]; ok {
		expected = r.host.NextSibling(last)
	} else {
		expected = r.host.FirstChild(parent)
	}
	if f.effect == EffectPlace || expected != f.node {
		if err := r.host.InsertBefore(parent, f.node, expected); err != nil {
			return &errors.HostError{Op: "InsertBefore", Target: fmt.Sprint(f.node), Err: err}
		}
	}
	cursors[parent] = f.node
	return nil
}

// applyProps diffs prev against next on node. prev is nil for a new node.
func (r *Root) applyProps(node host.Node, prev, next Props) error {
	for _, name := range sortedNames(prev) {
		if name == "children" || name == "key" {
			continue
		}
		if present(next, name) {
			continue
		}
		if name == "ref" {
			continue
		}
		if isEventProp(name) {
			ev := eventName(name)
			if r.listenerFor(node, ev) == nil {
				continue
			}
			delete(r.listeners[node], ev)
			if err := r.host.RemoveListener(node, ev); err != nil {
				return &errors.HostError{Op: "RemoveListener", Target: name, Err: err}
			}
			continue
		}
		if err := r.host.RemoveProperty(node, name); err != nil {
			return &errors.HostError{Op: "RemoveProperty", Target: name, Err: err}
		}
	}

	for _, name := range sortedNames(next) {
		if name == "children" || name == "key" {
			continue
		}
		v := next[name]
		if name == "ref" {
			if ref, ok := v.(nodeRef); ok && (prev == nil || !sameValue(prev[name], v)) {
				ref.attach(node)
			}
			continue
		}
		if isEventProp(name) {
			ev := eventName(name)
			if v == nil {
				if r.listenerFor(node, ev) != nil {
					delete(r.listeners[node], ev)
					if err := r.host.RemoveListener(node, ev); err != nil {
						return &errors.HostError{Op: "RemoveListener", Target: name, Err: err}
					}
				}
				continue
			}
			if box := r.listenerFor(node, ev); box != nil {
				box.handler = v
				continue
			}
			box := &listenerBox{handler: v}
			if err := r.host.SetListener(node, ev, box.dispatch); err != nil {
				return &errors.HostError{Op: "SetListener", Target: name, Err: err}
			}
			if r.listeners[node] == nil {
				r.listeners[node] = make(map[string]*listenerBox)
			}
			r.listeners[node][ev] = box
			continue
		}
		if old, had := prev[name]; had && sameValue(old, v) {
			continue
		}
		if err := r.host.SetProperty(node, name, v); err != nil {
			return &errors.HostError{Op: "SetProperty", Target: name, Err: err}
		}
	}
	return nil
}

func (r *Root) listenerFor(node host.Node, ev string) *listenerBox {
	return r.listeners[node][ev]
}

func present(p Props, name string) bool {
	v, ok := p[name]
	if !ok {
		return false
	}
	return v != nil || !isEventProp(name)
}

func sortedNames(p Props) []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// commitDeletion removes the old fiber at oi. Every effect cleanup in the
// subtree runs exactly once before any of its nodes leave the host.
func (r *Root) commitDeletion(oi int32) error {
	old := r.current
	for i := oi; i != noFiber; i = old.next(i, oi, true) {
		f := old.at(i)
		if f.node != nil {
			delete(r.listeners, f.node)
		}
		if f.hooks == nil {
			continue
		}
		for _, c := range f.hooks.cells {
			cell, ok := c.(*effectCell)
			if !ok || cell.dead {
				continue
			}
			cell.dead = true
			cell.pending = nil
			if cleanup := cell.cleanup; cleanup != nil {
				cell.cleanup = nil
				r.guard("core.effect.cleanup", cleanup)
			}
		}
	}

	parent := old.hostParent(oi)
	stack := []int32{oi}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		f := old.at(i)
		if f.node != nil {
			if err := r.host.RemoveChild(parent, f.node); err != nil {
				return &errors.HostError{Op: "RemoveChild", Target: fmt.Sprint(f.node), Err: err}
			}
			continue
		}
		var children []int32
		for c := f.child; c != noFiber; c = old.at(c).sibling {
			children = append(children, c)
		}
		for j := len(children) - 1; j >= 0; j-- {
			stack = append(stack, children[j])
		}
	}
	return nil
}
