// Package flow provides control-flow components for conditional rendering.
package flow

import "github.com/go-drift/fiber/pkg/core"

var (
	showComponent = core.NewComponent("Show", func(_ *core.RenderContext, props core.Props) any {
		if core.Prop[bool](props, "when") {
			return props.Children()
		}
		return props["fallback"]
	})

	matchComponent = core.NewComponent("Match", func(_ *core.RenderContext, props core.Props) any {
		if core.Prop[bool](props, "when") || core.Prop[bool](props, "default") {
			return props.Children()
		}
		return nil
	})

	switchComponent = core.NewComponent("Switch", func(_ *core.RenderContext, props core.Props) any {
		cases := props.Children()
		for i, c := range cases {
			if c.Kind == core.ComponentKind(matchComponent) && core.Prop[bool](c.Props, "when") {
				return keyed(c, i)
			}
		}
		for i, c := range cases {
			if c.Kind == core.ComponentKind(matchComponent) && core.Prop[bool](c.Props, "default") {
				return keyed(c, i)
			}
		}
		return nil
	})
)

// keyed keys a chosen case by its position so switching cases remounts
// instead of reusing the previous case's state.
func keyed(c core.Element, i int) core.Element {
	if c.Key == nil {
		c.Key = i
	}
	return c
}

// Show renders children when when is true, and nothing otherwise.
func Show(when bool, children ...any) core.Element {
	return core.C(showComponent, core.Props{"when": when}, children...)
}

// ShowElse renders children when when is true, and fallback otherwise.
func ShowElse(when bool, fallback any, children ...any) core.Element {
	return core.C(showComponent, core.Props{"when": when, "fallback": fallback}, children...)
}

// Match is a case of Switch.
func Match(when bool, children ...any) core.Element {
	return core.C(matchComponent, core.Props{"when": when}, children...)
}

// Default is the case Switch renders when no Match is true.
func Default(children ...any) core.Element {
	return core.C(matchComponent, core.Props{"default": true}, children...)
}

// Switch renders the first case whose condition holds, else the first
// Default, else nothing. Cases other than Match and Default are ignored.
func Switch(cases ...core.Element) core.Element {
	children := make([]any, len(cases))
	for i, c := range cases {
		children[i] = c
	}
	return core.C(switchComponent, nil, children...)
}
