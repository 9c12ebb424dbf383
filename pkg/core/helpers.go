package core

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/go-drift/fiber/pkg/errors"
)

// Array is a slice state slot with copy-on-write helpers.
type Array[T any] struct {
	Items []T
	set   Setter[[]T]
}

// Add appends item.
func (a Array[T]) Add(item T) {
	a.set.Update(func(prev []T) []T {
		return append(slices.Clip(prev), item)
	})
}

// Remove deletes the item at index. Out-of-range indices are ignored.
func (a Array[T]) Remove(index int) {
	a.set.Update(func(prev []T) []T {
		if index < 0 || index >= len(prev) {
			return prev
		}
		return slices.Delete(slices.Clone(prev), index, index+1)
	})
}

// Put replaces the item at index. Out-of-range indices are ignored.
func (a Array[T]) Put(index int, item T) {
	a.set.Update(func(prev []T) []T {
		if index < 0 || index >= len(prev) {
			return prev
		}
		next := slices.Clone(prev)
		next[index] = item
		return next
	})
}

// Set replaces the whole slice.
func (a Array[T]) Set(items []T) {
	a.set.Set(items)
}

// UseArray is UseState for slices.
func UseArray[T any](ctx *RenderContext, initial []T) Array[T] {
	items, set := UseState(ctx, initial)
	return Array[T]{Items: items, set: set}
}

// UseInterval calls fn every delay while the component is mounted. fn
// always sees the latest render's closure and runs on the scheduler
// goroutine; ticks still queued at unmount are dropped. A delay of zero or
// less pauses the interval. With the Sync provider ticks run when the owner
// next drains it.
func UseInterval(ctx *RenderContext, fn func(), delay time.Duration) {
	saved := UseRef(ctx, fn)
	saved.Current = fn
	root := ctx.root
	UseEffect(ctx, func() func() {
		if delay <= 0 {
			return nil
		}
		ticker := time.NewTicker(delay)
		done := make(chan struct{})
		// stopped is only touched on the root's goroutine, where both the
		// cleanup and dispatched ticks run. Ticks queued before the cleanup
		// drop out.
		stopped := false
		go func() {
			for {
				select {
				case <-ticker.C:
					root.Dispatch(func() {
						if !stopped && saved.Current != nil {
							saved.Current()
						}
					})
				case <-done:
					return
				}
			}
		}()
		return func() {
			stopped = true
			ticker.Stop()
			close(done)
		}
	}, Deps(delay))
}

// UseStorage is UseState persisted as JSON under key in the root's store.
// Without a store it behaves like UseState. Store and decode failures are
// reported and fall back to initial.
func UseStorage[T any](ctx *RenderContext, key string, initial T) (T, func(T)) {
	root := ctx.root
	value, set := UseLazyState(ctx, func() T {
		if root.store == nil {
			return initial
		}
		data, ok, err := root.store.Get(key)
		if err != nil {
			reportStorage("UseStorage.get", key, err)
			return initial
		}
		if !ok {
			return initial
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			reportStorage("UseStorage.decode", key, err)
			return initial
		}
		return v
	})
	return value, func(v T) {
		set.Set(v)
		if root.store == nil {
			return
		}
		data, err := json.Marshal(v)
		if err != nil {
			reportStorage("UseStorage.encode", key, err)
			return
		}
		if err := root.store.Set(key, data); err != nil {
			reportStorage("UseStorage.set", key, err)
		}
	}
}

func reportStorage(op, key string, err error) {
	errors.Report(&errors.FiberError{
		Op:   op + " " + key,
		Kind: errors.KindStorage,
		Err:  err,
	})
}
