// Package scheduler provides time-slice providers for render roots.
//
// A render root never runs reconciliation work on its own: it asks a
// Provider for a slice and performs units of work until the slice's
// Deadline reports no time remaining. Providers decide when slices run:
//
//   - Sync runs every slice to completion immediately on the caller's
//     goroutine; posts wait for the owner to drain them (deterministic).
//   - Manual queues slices until a test steps them with a unit budget.
//   - Loop runs slices on a dedicated goroutine between input tasks, with an
//     animation-frame fallback and a starvation timeout.
//
// Post schedules a callback on the provider's thread after the current task.
// It is the only Provider method that is safe to call from any goroutine.
package scheduler

import (
	"errors"
	"math"
	"time"
)

// ErrNotSettled is returned by Manual.Flush when work keeps rescheduling itself.
var ErrNotSettled = errors.New("scheduler: work did not settle")

// Deadline describes the budget of one slice.
type Deadline interface {
	// TimeRemaining reports how much of the slice budget is left.
	TimeRemaining() time.Duration
	// DidTimeout reports whether the slice ran because its request starved.
	DidTimeout() bool
}

// Task is a unit of slice work. A returned error is surfaced by the provider.
type Task func(Deadline) error

// Provider grants cooperative time slices.
type Provider interface {
	// RequestSlice schedules task to run in a future slice.
	RequestSlice(task Task)
	// Post schedules fn to run on the provider's thread after the current task.
	Post(fn func())
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

// unbounded never runs out of time.
type unbounded struct{}

func (unbounded) TimeRemaining() time.Duration { return time.Duration(math.MaxInt64) }
func (unbounded) DidTimeout() bool             { return false }

// Unbounded is a Deadline that never expires.
var Unbounded Deadline = unbounded{}
