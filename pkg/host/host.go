// Package host defines the output tree capability consumed by the runtime.
//
// A Host owns a DOM-like tree of opaque nodes. The runtime creates nodes,
// mutates their properties and listeners, and arranges them under parents.
// It only ever calls a Host from the commit phase, so implementations never
// observe a partially reconciled tree.
package host

// Node is an opaque handle to a live output node. Handles must be comparable;
// the runtime uses them as map keys and compares them for identity.
type Node any

// Event is delivered to listeners installed with SetListener.
type Event struct {
	// Type is the event name without the "on" prefix (e.g., "click").
	Type string
	// Target is the node the event was dispatched to.
	Target Node
	// Value carries event data such as an input value.
	Value any
}

// Listener receives events for one (node, event type) pair.
type Listener func(*Event)

// Host is the DOM-like output tree.
type Host interface {
	// CreateElement creates a detached element node for tag.
	CreateElement(tag string) (Node, error)
	// CreateText creates a detached text node.
	CreateText(text string) (Node, error)
	// SetText replaces the content of a text node.
	SetText(node Node, text string) error

	// SetProperty sets or replaces a property on an element node.
	SetProperty(node Node, name string, value any) error
	// RemoveProperty clears a property previously set.
	RemoveProperty(node Node, name string) error
	// SetListener installs the listener for an event type, replacing any
	// previous listener for the same type.
	SetListener(node Node, event string, listener Listener) error
	// RemoveListener uninstalls the listener for an event type.
	RemoveListener(node Node, event string) error

	// InsertBefore inserts child under parent before ref. A nil ref appends.
	// Inserting a node that already has a parent moves it.
	InsertBefore(parent, child, ref Node) error
	// RemoveChild detaches child from parent.
	RemoveChild(parent, child Node) error

	// FirstChild returns the first child of parent, or nil.
	FirstChild(parent Node) Node
	// NextSibling returns the sibling after node, or nil.
	NextSibling(node Node) Node
}

// SVGNamespace is the namespace of SVG elements.
const SVGNamespace = "http://www.w3.org/2000/svg"

// NamespaceHost is implemented by hosts that keep element namespaces apart.
// The runtime creates an "svg" element and every element below one with
// CreateElementNS; hosts without it get CreateElement for those too.
type NamespaceHost interface {
	Host
	// CreateElementNS creates a detached element node for tag in namespace.
	CreateElementNS(namespace, tag string) (Node, error)
}
