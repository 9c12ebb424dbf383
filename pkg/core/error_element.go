package core

import (
	"sync"

	"github.com/go-drift/fiber/pkg/errors"
)

// ErrorElementBuilder creates the element rendered in place of a component
// whose render failed. Returning the zero Element renders nothing.
type ErrorElementBuilder func(err *errors.RenderError) Element

var (
	errorElementBuilder ErrorElementBuilder = DefaultErrorElementBuilder
	errorBuilderMu      sync.RWMutex
)

// SetErrorElementBuilder configures the global error element builder.
// Pass nil to restore the default builder.
func SetErrorElementBuilder(builder ErrorElementBuilder) {
	errorBuilderMu.Lock()
	defer errorBuilderMu.Unlock()
	if builder == nil {
		errorElementBuilder = DefaultErrorElementBuilder
	} else {
		errorElementBuilder = builder
	}
}

// GetErrorElementBuilder returns the current error element builder.
func GetErrorElementBuilder() ErrorElementBuilder {
	errorBuilderMu.RLock()
	defer errorBuilderMu.RUnlock()
	return errorElementBuilder
}

// DefaultErrorElementBuilder renders an empty span marked with the failed
// component's name. In debug mode the span also shows the error message.
func DefaultErrorElementBuilder(err *errors.RenderError) Element {
	props := Props{"className": "fiber-error", "data-component": err.Component}
	if DebugMode {
		return H("span", props, err.Error())
	}
	return H("span", props)
}
