package testing

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/host/memdom"
	"github.com/go-drift/fiber/pkg/scheduler"
)

var (
	// ErrNoMatch is returned by event helpers when the finder matches nothing.
	ErrNoMatch = errors.New("finder matched no nodes")
	// ErrSettleTimeout is returned when Pump cannot drain the scheduler.
	ErrSettleTimeout = errors.New("Pump did not settle: work keeps rescheduling")
)

// ErrorRecorder is an errors.Reporter that keeps every report.
type ErrorRecorder struct {
	mu    sync.Mutex
	errs  []error
	paths []string
}

// ReportError implements errors.Reporter.
func (r *ErrorRecorder) ReportError(err error, componentPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.paths = append(r.paths, componentPath)
}

// Errors returns the reported errors in order.
func (r *ErrorRecorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// Paths returns the component paths of the reported errors.
func (r *ErrorRecorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// Tester renders components into an in-memory document on a manual
// scheduler, so every pass, slice and effect happens when the test says.
type Tester struct {
	doc       *memdom.Document
	container *memdom.Node
	provider  *scheduler.Manual
	errors    *ErrorRecorder
	root      *core.Root
	opts      []core.Option
}

// NewTester creates a tester. Call Cleanup when done, or use
// NewTesterWithT instead.
func NewTester(opts ...core.Option) *Tester {
	doc := memdom.NewDocument()
	return &Tester{
		doc:       doc,
		container: doc.CreateContainer("main"),
		provider:  scheduler.NewManual(),
		errors:    &ErrorRecorder{},
		opts:      opts,
	}
}

// NewTesterWithT creates a tester that unmounts via t.Cleanup.
// This is the recommended constructor for tests.
func NewTesterWithT(t testing.TB, opts ...core.Option) *Tester {
	tester := NewTester(opts...)
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup unmounts the tree, running every effect cleanup.
func (t *Tester) Cleanup() {
	if t.root == nil {
		return
	}
	t.root.Unmount()
	_ = t.provider.Flush()
}

// Render mounts el (or replaces the mounted element) and pumps until idle.
func (t *Tester) Render(el core.Element) error {
	if t.root == nil {
		opts := append([]core.Option{
			core.WithProvider(t.provider),
			core.WithReporter(t.errors),
		}, t.opts...)
		t.root = core.NewRoot(t.doc, t.container, opts...)
	}
	t.root.Render(el)
	return t.Pump()
}

// Pump runs queued slices and posted callbacks until nothing is pending.
// It returns the root's host error, or ErrSettleTimeout when work keeps
// rescheduling itself.
func (t *Tester) Pump() error {
	if err := t.provider.Flush(); err != nil {
		if errors.Is(err, scheduler.ErrNotSettled) {
			return ErrSettleTimeout
		}
		return err
	}
	if t.root != nil {
		return t.root.Err()
	}
	return nil
}

// Step runs one slice with a budget of units fibers, without posted
// callbacks. It reports whether a slice ran.
func (t *Tester) Step(units int) (bool, error) {
	return t.provider.Step(units)
}

// Find evaluates a finder against the rendered output.
func (t *Tester) Find(f Finder) FinderResult {
	return FinderResult{nodes: f.Evaluate(t.container), finder: f}
}

// Dispatch sends an event to the first node f matches, bubbling to its
// ancestors, then pumps.
func (t *Tester) Dispatch(f Finder, event string, value any) error {
	node := t.Find(f).FirstOrNil()
	if node == nil {
		return fmt.Errorf("%w: %s", ErrNoMatch, f.Description())
	}
	t.doc.Dispatch(node, event, value)
	return t.Pump()
}

// Click dispatches a click event.
func (t *Tester) Click(f Finder) error {
	return t.Dispatch(f, "click", nil)
}

// Input dispatches an input event carrying value.
func (t *Tester) Input(f Finder, value string) error {
	return t.Dispatch(f, "input", value)
}

// HTML returns the rendered markup.
func (t *Tester) HTML() string {
	return memdom.HTML(t.container)
}

// Root returns the render root, or nil before the first Render.
func (t *Tester) Root() *core.Root { return t.root }

// Document returns the in-memory host.
func (t *Tester) Document() *memdom.Document { return t.doc }

// Container returns the node the tree renders into.
func (t *Tester) Container() *memdom.Node { return t.container }

// Provider returns the manual scheduler.
func (t *Tester) Provider() *scheduler.Manual { return t.provider }

// Errors returns the render errors reported so far.
func (t *Tester) Errors() *ErrorRecorder { return t.errors }
