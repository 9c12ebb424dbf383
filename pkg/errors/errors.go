// Package errors provides structured error handling for the fiber runtime.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindHookContext indicates a hook used outside a rendering component.
	KindHookContext
	// KindRender indicates a component function failed during render.
	KindRender
	// KindHost indicates an output tree mutation failed.
	KindHost
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindScheduler indicates a time-slice provider failure.
	KindScheduler
	// KindStorage indicates a persisted state failure.
	KindStorage
	// KindConfig indicates a configuration error.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindHookContext:
		return "hook-context"
	case KindRender:
		return "render"
	case KindHost:
		return "host"
	case KindPanic:
		return "panic"
	case KindScheduler:
		return "scheduler"
	case KindStorage:
		return "storage"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// ErrInvalidHookContext is the sentinel wrapped by HookContextError.
var ErrInvalidHookContext = errors.New("hooks can only be called while a component is rendering")

// FiberError represents a structured error in the fiber runtime.
type FiberError struct {
	// Op is the operation that failed (e.g., "storage.Bolt.Get").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *FiberError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *FiberError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "scheduler.Loop.runSlice").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// HookContextError is raised (as a panic value) when a hook is called
// while no component owned by its RenderContext is rendering.
type HookContextError struct {
	// Hook is the hook that was misused (e.g., "UseState").
	Hook string
}

func (e *HookContextError) Error() string {
	return fmt.Sprintf("%s: %v", e.Hook, ErrInvalidHookContext)
}

func (e *HookContextError) Unwrap() error {
	return ErrInvalidHookContext
}

// RenderError represents a failure while invoking a component function.
type RenderError struct {
	// Component is the name of the component that failed.
	Component string
	// Path is the slash-separated chain of component names from the root.
	Path string
	// Recovered is the panic value (nil for returned errors).
	Recovered any
	// Err is the underlying error (nil for panics that were not errors).
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *RenderError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic in %s render: %v", e.Component, e.Recovered)
	}
	if e.Err != nil {
		return fmt.Sprintf("error in %s render: %v", e.Component, e.Err)
	}
	return fmt.Sprintf("unknown error in %s render", e.Component)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// HostError represents a failed mutation of the output tree.
type HostError struct {
	// Op is the host operation (e.g., "InsertBefore").
	Op string
	// Target describes the fiber whose node was being mutated.
	Target string
	// Err is the error returned by the host.
	Err error
}

func (e *HostError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("host %s on %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("host %s: %v", e.Op, e.Err)
}

func (e *HostError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives errors reported by the fiber runtime.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *FiberError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleRenderError is called when a component render fails.
	HandleRenderError(err *RenderError)
}

// Reporter is the error reporting collaborator consulted by render roots.
type Reporter interface {
	ReportError(err error, componentPath string)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(err error, componentPath string)

// ReportError calls f(err, componentPath).
func (f ReporterFunc) ReportError(err error, componentPath string) {
	f(err, componentPath)
}

// Is, As and New re-export the standard library helpers so callers can
// import a single errors package.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)
