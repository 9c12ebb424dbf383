package core

import (
	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host"
	"github.com/go-drift/fiber/pkg/scheduler"
	"github.com/go-drift/fiber/pkg/storage"
)

// Phase is the root's scheduling state.
type Phase int

const (
	// PhaseIdle means no pass is in flight.
	PhaseIdle Phase = iota
	// PhaseWorkPending means a render pass is being built across slices.
	PhaseWorkPending
	// PhaseCommitting means the finished tree is being applied to the host.
	PhaseCommitting
)

func (p Phase) String() string {
	switch p {
	case PhaseWorkPending:
		return "WORK_PENDING"
	case PhaseCommitting:
		return "COMMITTING"
	default:
		return "IDLE"
	}
}

// Stats counts the work a root has done.
type Stats struct {
	// Passes is the number of render passes started.
	Passes int
	// Commits is the number of passes applied to the host.
	Commits int
	// Slices is the number of scheduler slices that did work.
	Slices int
	// Units is the number of fibers processed.
	Units int
	// Bailouts is the number of memoized renders skipped.
	Bailouts int
}

// Option configures a Root.
type Option func(*Root)

// WithProvider sets the scheduler. The default is scheduler.NewSync().
func WithProvider(p scheduler.Provider) Option {
	return func(r *Root) { r.provider = p }
}

// WithReporter sets where render errors are reported. The default is
// errors.GlobalReporter.
func WithReporter(rep errors.Reporter) Option {
	return func(r *Root) { r.reporter = rep }
}

// WithStore sets the store used by UseStorage.
func WithStore(s storage.Store) Option {
	return func(r *Root) { r.store = s }
}

// WithQueryCache sets the cache UseQuery reads and fills. The default is
// DefaultQueryCache.
func WithQueryCache(c *QueryCache) Option {
	return func(r *Root) { r.queries = c }
}

// Root owns one rendered tree and drives it through the scheduler.
//
// A Root is confined to the goroutine that runs its scheduler. Other
// goroutines hand work over with Dispatch.
type Root struct {
	host      host.Host
	container host.Node
	provider  scheduler.Provider
	reporter  errors.Reporter
	store     storage.Store
	queries   *QueryCache

	element Element
	phase   Phase
	queued  bool
	err     error

	gen       uint64
	current   *arena
	wip       *arena
	next      int32
	deletions []int32

	listeners map[host.Node]map[string]*listenerBox
	passive   []*effectCell
	stats     Stats
}

// NewRoot creates a root that renders into container, which must start
// empty.
func NewRoot(h host.Host, container host.Node, opts ...Option) *Root {
	r := &Root{
		host:      h,
		container: container,
		next:      noFiber,
		listeners: make(map[host.Node]map[string]*listenerBox),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.provider == nil {
		r.provider = scheduler.NewSync()
	}
	if r.reporter == nil {
		r.reporter = errors.GlobalReporter
	}
	if r.queries == nil {
		r.queries = DefaultQueryCache
	}
	return r
}

// Render creates a root and schedules element's first render.
func Render(element Element, h host.Host, container host.Node, opts ...Option) *Root {
	r := NewRoot(h, container, opts...)
	r.Render(element)
	return r
}

// Render replaces the root element and schedules a pass.
func (r *Root) Render(element Element) {
	r.element = element
	r.requestRender()
}

// Unmount renders nothing, removing every node and running every cleanup.
func (r *Root) Unmount() {
	r.Render(Element{})
}

// Dispatch posts fn to the scheduler, which runs it on the root's
// goroutine. It is the way to call setters from other goroutines. With the
// default Sync provider fn waits until the owning goroutine next renders or
// calls RunPosted.
func (r *Root) Dispatch(fn func()) {
	r.provider.Post(fn)
}

// Phase returns the scheduling state.
func (r *Root) Phase() Phase { return r.phase }

// Err returns the host error that stopped the root, if any.
func (r *Root) Err() error { return r.err }

// Stats returns work counters.
func (r *Root) Stats() Stats { return r.stats }

// Host returns the output backend.
func (r *Root) Host() host.Host { return r.host }

// Container returns the node the tree renders into.
func (r *Root) Container() host.Node { return r.container }

// Provider returns the scheduler.
func (r *Root) Provider() scheduler.Provider { return r.provider }

// requestRender starts a pass when idle. During a pass the request is
// remembered and coalesced into a single follow-up pass.
func (r *Root) requestRender() {
	if r.err != nil {
		return
	}
	if r.phase != PhaseIdle {
		r.queued = true
		return
	}
	r.startPass()
}

var rootKind = HostKind("#root")

func (r *Root) startPass() {
	r.gen++
	r.wip = newArena(r.gen)
	var children []Element
	if !r.element.IsZero() {
		children = []Element{r.element}
	}
	root := &fiber{
		kind:    rootKind,
		props:   Props{"children": children},
		node:    r.container,
		parent:  noFiber,
		child:   noFiber,
		sibling: noFiber,
	}
	if r.current != nil {
		root.alternate = fiberRef{gen: r.current.gen, index: 0}
	}
	r.next = r.wip.alloc(root)
	r.deletions = nil
	r.phase = PhaseWorkPending
	r.stats.Passes++
	r.provider.RequestSlice(r.workLoop)
}

// workLoop performs units of work until the deadline runs out, then either
// yields by requesting another slice or commits the finished tree. At
// least one unit runs per slice.
func (r *Root) workLoop(d scheduler.Deadline) error {
	if r.phase != PhaseWorkPending || r.wip == nil {
		return nil
	}
	r.stats.Slices++
	for r.next != noFiber {
		r.next = r.performUnit(r.next)
		r.stats.Units++
		if r.next == noFiber || d.TimeRemaining() <= 0 {
			break
		}
	}
	if r.next != noFiber {
		r.provider.RequestSlice(r.workLoop)
		return nil
	}
	return r.commitRoot()
}

func (r *Root) commitRoot() error {
	r.phase = PhaseCommitting
	layout, err := r.commit()
	if err != nil {
		r.err = err
		r.wip = nil
		r.deletions = nil
		r.passive = nil
		r.phase = PhaseIdle
		r.queued = false
		return err
	}
	r.current = r.wip
	r.wip = nil
	r.deletions = nil
	r.stats.Commits++

	for _, cell := range layout {
		r.runEffect(cell)
	}
	if passive := r.passive; len(passive) > 0 {
		r.passive = nil
		r.provider.Post(func() {
			for _, cell := range passive {
				r.runEffect(cell)
			}
		})
	}

	r.phase = PhaseIdle
	if r.queued {
		r.queued = false
		r.startPass()
	}
	return nil
}

// runEffect runs a cell's cleanup then its pending body. Cells of removed
// components are skipped.
func (r *Root) runEffect(cell *effectCell) {
	if cell.dead || cell.pending == nil {
		return
	}
	fn := cell.pending
	cell.pending = nil
	if cleanup := cell.cleanup; cleanup != nil {
		cell.cleanup = nil
		r.guard("core.effect.cleanup", cleanup)
	}
	r.guard("core.effect", func() { cell.cleanup = fn() })
}

// guard runs fn, reporting a panic instead of propagating it.
func (r *Root) guard(op string, fn func()) {
	defer errors.Recover(op)
	fn()
}
