package core

// Context carries a value to every descendant of its Provider without
// threading it through props.
type Context[T any] struct {
	name     string
	def      T
	provider *Component
}

// CreateContext creates a context whose value is def where no Provider is
// above the reader.
func CreateContext[T any](name string, def T) *Context[T] {
	c := &Context[T]{name: name, def: def}
	c.provider = NewComponent(name+".Provider", func(_ *RenderContext, props Props) any {
		return props.Children()
	})
	return c
}

// Name returns the context's name.
func (c *Context[T]) Name() string { return c.name }

// Default returns the value seen outside any Provider.
func (c *Context[T]) Default() T { return c.def }

// Provider returns an element that supplies value to children and their
// descendants.
func (c *Context[T]) Provider(value T, children ...any) Element {
	return C(c.provider, Props{"value": value}, children...)
}

// UseContext returns the value of the nearest Provider of c above the
// rendering component, or c's default. It does not occupy a hook slot.
func UseContext[T any](ctx *RenderContext, c *Context[T]) T {
	ctx.check("UseContext")
	ctx.hooks.readsContext = true
	wip := ctx.root.wip
	for p := wip.at(ctx.fiber).parent; p != noFiber; p = wip.at(p).parent {
		if f := wip.at(p); f.kind.comp == c.provider {
			v, _ := f.props["value"].(T)
			return v
		}
	}
	return c.def
}
