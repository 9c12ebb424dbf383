package core

import (
	"fmt"
	"reflect"
	"strings"
)

// KindType is the variant tag of an element kind.
type KindType int

const (
	kindInvalid KindType = iota
	// KindHost is an output node identified by a tag, such as "div".
	KindHost
	// KindComponent is a component function.
	KindComponent
	// KindText is a text node.
	KindText
)

func (t KindType) String() string {
	switch t {
	case KindHost:
		return "host"
	case KindComponent:
		return "component"
	case KindText:
		return "text"
	default:
		return "invalid"
	}
}

// Kind identifies what an element renders. Kinds are comparable; two
// component kinds are equal only when they reference the same *Component.
type Kind struct {
	typ  KindType
	tag  string
	comp *Component
}

// HostKind returns the kind for a host node tag.
func HostKind(tag string) Kind { return Kind{typ: KindHost, tag: tag} }

// ComponentKind returns the kind for a component.
func ComponentKind(c *Component) Kind { return Kind{typ: KindComponent, comp: c} }

// TextKind is the kind of text elements.
var TextKind = Kind{typ: KindText}

// Type returns the variant tag.
func (k Kind) Type() KindType { return k.typ }

// Tag returns the host tag, or "" for other kinds.
func (k Kind) Tag() string { return k.tag }

// Component returns the component, or nil for other kinds.
func (k Kind) Component() *Component { return k.comp }

func (k Kind) String() string {
	switch k.typ {
	case KindHost:
		return k.tag
	case KindComponent:
		return k.comp.Name
	case KindText:
		return "#text"
	default:
		return "<invalid>"
	}
}

// RenderFunc is the body of a component. It may return an Element, a slice
// of elements or values (flattened like children), a string, nil, or an
// error, which is handled like a panic during render.
type RenderFunc func(ctx *RenderContext, props Props) any

// Component is a named render function. Component identity is the pointer,
// so create components once (typically as package-level variables).
type Component struct {
	Name   string
	Render RenderFunc

	memo bool
}

// NewComponent creates a component.
func NewComponent(name string, render RenderFunc) *Component {
	return &Component{Name: name, Render: render}
}

// Props holds element attributes. The "children" key holds []Element.
type Props map[string]any

// Children returns the element's children.
func (p Props) Children() []Element {
	children, _ := p["children"].([]Element)
	return children
}

// Prop returns props[name] as T, or the zero value when absent or of
// another type.
func Prop[T any](p Props, name string) T {
	v, _ := p[name].(T)
	return v
}

// Element is an immutable description of output. Never mutate an
// element's Props after creation.
type Element struct {
	Kind  Kind
	Props Props
	Key   any
}

// IsZero reports whether e is the zero Element.
func (e Element) IsZero() bool { return e.Kind.typ == kindInvalid }

// Children returns the element's children.
func (e Element) Children() []Element { return e.Props.Children() }

// Fragment groups elements without a wrapping node.
type Fragment []Element

// CreateElement builds an element. kind is a host tag string, a
// *Component, or a Kind. The "key" prop is lifted into Element.Key.
// Children are flattened; nil and bool children are dropped, any value
// that is not an element becomes a text element.
func CreateElement(kind any, props Props, children ...any) Element {
	el := Element{Kind: resolveKind(kind), Props: make(Props, len(props)+1)}
	for name, v := range props {
		if name == "key" {
			el.Key = normalizeKey(v)
			continue
		}
		el.Props[name] = v
	}
	if len(children) > 0 {
		el.Props["children"] = normalizeChildren(children)
	} else if existing, ok := props["children"]; ok {
		el.Props["children"] = normalizeChildren([]any{existing})
	} else {
		el.Props["children"] = []Element(nil)
	}
	return el
}

// H creates a host element.
func H(tag string, props Props, children ...any) Element {
	return CreateElement(HostKind(tag), props, children...)
}

// C creates a component element.
func C(c *Component, props Props, children ...any) Element {
	return CreateElement(ComponentKind(c), props, children...)
}

// Text creates a text element.
func Text(value any) Element {
	text, ok := value.(string)
	if !ok {
		text = fmt.Sprint(value)
	}
	return Element{Kind: TextKind, Props: Props{"nodeValue": text}}
}

func resolveKind(kind any) Kind {
	switch k := kind.(type) {
	case string:
		return HostKind(k)
	case *Component:
		if k == nil {
			panic("core: nil component")
		}
		return ComponentKind(k)
	case Kind:
		return k
	default:
		panic(fmt.Sprintf("core: unsupported element kind %T", kind))
	}
}

// normalizeKey keeps comparable keys and stringifies the rest so keys can
// index a map.
func normalizeKey(v any) any {
	if v == nil {
		return nil
	}
	if reflect.TypeOf(v).Comparable() {
		return v
	}
	return fmt.Sprint(v)
}

func normalizeChildren(children []any) []Element {
	var out []Element
	for _, c := range children {
		out = appendChild(out, c)
	}
	return out
}

func appendChild(out []Element, child any) []Element {
	switch c := child.(type) {
	case nil, bool:
		return out
	case Element:
		if c.IsZero() {
			return out
		}
		return append(out, c)
	case *Element:
		if c == nil || c.IsZero() {
			return out
		}
		return append(out, *c)
	case []Element:
		for _, e := range c {
			out = appendChild(out, e)
		}
		return out
	case Fragment:
		for _, e := range c {
			out = appendChild(out, e)
		}
		return out
	case []any:
		for _, e := range c {
			out = appendChild(out, e)
		}
		return out
	case []string:
		for _, s := range c {
			out = append(out, Text(s))
		}
		return out
	default:
		return append(out, Text(c))
	}
}

// isEventProp reports whether name is an event handler prop such as
// "onClick".
func isEventProp(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "on") && name[2] >= 'A' && name[2] <= 'Z'
}

// eventName maps "onClick" to "click".
func eventName(prop string) string {
	return strings.ToLower(prop[2:])
}
