package core

import "github.com/go-drift/fiber/pkg/host"

// EffectTag is the commit action recorded on a fiber during render.
type EffectTag int

const (
	EffectNone EffectTag = iota
	EffectPlace
	EffectUpdate
	EffectDelete
)

func (t EffectTag) String() string {
	switch t {
	case EffectPlace:
		return "PLACE"
	case EffectUpdate:
		return "UPDATE"
	case EffectDelete:
		return "DELETE"
	default:
		return "NONE"
	}
}

// noFiber terminates parent, child and sibling links.
const noFiber int32 = -1

// fiberRef addresses a fiber in a specific generation. It resolves only
// while that generation is the current or work-in-progress tree, which
// bounds retention to two generations.
type fiberRef struct {
	gen   uint64
	index int32
}

// fiber is one unit of work and the persistent identity of a tree
// position. Links are indices into the owning arena.
type fiber struct {
	kind  Kind
	props Props
	key   any

	node host.Node

	parent  int32
	child   int32
	sibling int32

	alternate fiberRef
	effect    EffectTag
	hooks     *hookList

	// output is the last element list the component produced; rendered
	// is set when that render completed without error.
	output   []Element
	rendered bool
}

// arena holds every fiber of one generation.
type arena struct {
	gen    uint64
	fibers []*fiber
}

func newArena(gen uint64) *arena {
	return &arena{gen: gen}
}

func (a *arena) alloc(f *fiber) int32 {
	a.fibers = append(a.fibers, f)
	return int32(len(a.fibers) - 1)
}

func (a *arena) at(i int32) *fiber {
	return a.fibers[i]
}

func (a *arena) len() int {
	return len(a.fibers)
}

// next returns the fiber after i in depth-first pre-order, never leaving
// the subtree rooted at stop.
func (a *arena) next(i, stop int32, descend bool) int32 {
	if descend {
		if c := a.at(i).child; c != noFiber {
			return c
		}
	}
	for i != noFiber && i != stop {
		f := a.at(i)
		if f.sibling != noFiber {
			return f.sibling
		}
		i = f.parent
	}
	return noFiber
}

// hostParent returns the output node of the nearest ancestor of i that
// owns one.
func (a *arena) hostParent(i int32) host.Node {
	for p := a.at(i).parent; p != noFiber; p = a.at(p).parent {
		if n := a.at(p).node; n != nil {
			return n
		}
	}
	return nil
}
