package errors

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// LogHandler is an ErrorHandler that writes one line per error.
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool

	out   io.Writer
	color bool
	mu    sync.Mutex
}

// NewLogHandler returns a LogHandler writing to w, or stderr when w is nil.
// Prefixes are colorized when w is a terminal.
func NewLogHandler(w io.Writer) *LogHandler {
	if w == nil {
		w = os.Stderr
	}
	h := &LogHandler{out: w}
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		h.color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return h
}

func (h *LogHandler) prefix(label string) string {
	if h.color {
		return "\x1b[31m[fiber " + label + "]\x1b[0m"
	}
	return "[fiber " + label + "]"
}

func (h *LogHandler) writer() io.Writer {
	if h.out == nil {
		return os.Stderr
	}
	return h.out
}

// HandleError logs a FiberError.
func (h *LogHandler) HandleError(err *FiberError) {
	if err == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	w := h.writer()
	if h.Verbose {
		fmt.Fprintf(w, "%s %s [%s]: %v\n", h.prefix("error"), err.Op, err.Kind, err.Err)
		if err.StackTrace != "" {
			fmt.Fprintf(w, "Stack trace:\n%s\n", err.StackTrace)
		}
	} else {
		fmt.Fprintf(w, "%s %s: %v\n", h.prefix("error"), err.Op, err.Err)
	}
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	w := h.writer()
	if err.Op != "" {
		fmt.Fprintf(w, "%s %s: %v\n", h.prefix("panic"), err.Op, err.Value)
	} else {
		fmt.Fprintf(w, "%s %v\n", h.prefix("panic"), err.Value)
	}
	if h.Verbose && err.StackTrace != "" {
		fmt.Fprintf(w, "Stack trace:\n%s\n", err.StackTrace)
	}
}

// HandleRenderError logs a RenderError with its component path.
func (h *LogHandler) HandleRenderError(err *RenderError) {
	if err == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	w := h.writer()
	fmt.Fprintf(w, "%s %s: %s\n", h.prefix("render error"), err.Path, err.Error())
	if h.Verbose && err.StackTrace != "" {
		fmt.Fprintf(w, "Stack trace:\n%s\n", err.StackTrace)
	}
}
