package scheduler

import "sync"

// Sync runs slices to completion as soon as they are requested.
//
// Sync has no goroutine of its own: work runs on the goroutine that calls
// RequestSlice or RunPosted, which owns the root. Requests made while a task
// is running are queued and drained by the outermost call, so work never
// nests. Posted callbacks run once no slice is pending. Post only enqueues;
// a callback posted while Sync is idle waits for the owner's next
// RequestSlice or RunPosted, so other goroutines never run work.
type Sync struct {
	mu       sync.Mutex
	slices   []Task
	posted   []func()
	draining bool
	err      error

	// OnError, when set, receives every task error as it happens.
	OnError func(error)
}

// NewSync creates a synchronous provider.
func NewSync() *Sync {
	return &Sync{}
}

// RequestSlice implements Provider.
func (s *Sync) RequestSlice(task Task) {
	s.mu.Lock()
	s.slices = append(s.slices, task)
	s.mu.Unlock()
	s.drain()
}

// Post implements Provider. It is safe to call from any goroutine. A
// drain in progress runs fn before it returns.
func (s *Sync) Post(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posted = append(s.posted, fn)
}

// RunPosted drains queued callbacks, and any slices they request, on the
// calling goroutine. It reports how many callbacks ran.
func (s *Sync) RunPosted() int {
	return s.drain()
}

// PendingPosts returns the number of callbacks waiting for a drain.
func (s *Sync) PendingPosts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posted)
}

// Err returns the first task error seen.
func (s *Sync) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Sync) next() (Task, func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slices) > 0 {
		task := s.slices[0]
		s.slices = s.slices[1:]
		return task, nil, true
	}
	if len(s.posted) > 0 {
		fn := s.posted[0]
		s.posted = s.posted[1:]
		return nil, fn, true
	}
	s.draining = false
	return nil, nil, false
}

func (s *Sync) drain() int {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return 0
	}
	s.draining = true
	s.mu.Unlock()

	ran := 0
	for {
		task, fn, ok := s.next()
		if !ok {
			return ran
		}
		if fn != nil {
			fn()
			ran++
			continue
		}
		if err := task(Unbounded); err != nil {
			s.mu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.mu.Unlock()
			if s.OnError != nil {
				s.OnError(err)
			}
		}
	}
}
