package scheduler

import (
	"sync"
	"time"
)

// Manual is a deterministic provider for tests. Nothing runs until the test
// calls Step, Flush, or RunPosted.
type Manual struct {
	mu     sync.Mutex
	slices []Task
	posted []func()
}

// NewManual creates a manual provider.
func NewManual() *Manual {
	return &Manual{}
}

// RequestSlice implements Provider.
func (m *Manual) RequestSlice(task Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slices = append(m.slices, task)
}

// Post implements Provider.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, fn)
}

// PendingSlices returns the number of queued slices.
func (m *Manual) PendingSlices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slices)
}

// PendingPosts returns the number of queued posted callbacks.
func (m *Manual) PendingPosts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted)
}

// Step runs the oldest queued slice with a budget of units. Each
// TimeRemaining call made by the task consumes one unit, so a render root
// performs exactly units fibers of work (at least one) before yielding.
// It reports whether a slice ran.
func (m *Manual) Step(units int) (bool, error) {
	m.mu.Lock()
	if len(m.slices) == 0 {
		m.mu.Unlock()
		return false, nil
	}
	task := m.slices[0]
	m.slices = m.slices[1:]
	m.mu.Unlock()
	return true, task(&unitDeadline{left: units - 1})
}

// RunPosted runs the callbacks queued so far and returns how many ran.
// Callbacks posted while running wait for the next call.
func (m *Manual) RunPosted() int {
	m.mu.Lock()
	posted := m.posted
	m.posted = nil
	m.mu.Unlock()
	for _, fn := range posted {
		fn()
	}
	return len(posted)
}

// Flush runs slices with unbounded budgets, then posted callbacks, until
// both queues are empty. It returns the first task error, or ErrNotSettled
// when work keeps rescheduling itself.
func (m *Manual) Flush() error {
	const maxTasks = 10000
	for n := 0; n < maxTasks; n++ {
		m.mu.Lock()
		switch {
		case len(m.slices) > 0:
			task := m.slices[0]
			m.slices = m.slices[1:]
			m.mu.Unlock()
			if err := task(Unbounded); err != nil {
				return err
			}
		case len(m.posted) > 0:
			fn := m.posted[0]
			m.posted = m.posted[1:]
			m.mu.Unlock()
			fn()
		default:
			m.mu.Unlock()
			return nil
		}
	}
	return ErrNotSettled
}

type unitDeadline struct {
	left int
}

func (d *unitDeadline) TimeRemaining() time.Duration {
	if d.left <= 0 {
		return 0
	}
	d.left--
	return time.Millisecond
}

func (d *unitDeadline) DidTimeout() bool { return false }
