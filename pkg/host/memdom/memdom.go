// Package memdom implements host.Host as an in-memory node tree.
//
// It backs headless rendering, the CLI, and tests. Nodes can be read back
// as HTML or as a JSON-friendly snapshot, events can be dispatched to
// installed listeners, and every mutation is recorded in a journal.
package memdom

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-drift/fiber/pkg/host"
)

var (
	// ErrForeignNode is returned when a handle was not created by this package.
	ErrForeignNode = errors.New("memdom: node does not belong to memdom")
	// ErrNotChild is returned when a reference or removed node is not a child of the parent.
	ErrNotChild = errors.New("memdom: node is not a child of parent")
	// ErrNotText is returned by SetText for element nodes.
	ErrNotText = errors.New("memdom: not a text node")
	// ErrCycle is returned when a node would be inserted under itself.
	ErrCycle = errors.New("memdom: insertion would create a cycle")
)

// NodeType distinguishes element and text nodes.
type NodeType int

const (
	// ElementNode is a tagged node with properties and children.
	ElementNode NodeType = iota
	// TextNode holds text content only.
	TextNode
)

func (t NodeType) String() string {
	if t == TextNode {
		return "text"
	}
	return "element"
}

// Node is a live output node.
type Node struct {
	ID        int
	Type      NodeType
	Tag       string
	Namespace string
	Text      string
	Props     map[string]any
	Parent    *Node
	Children  []*Node

	listeners map[string]host.Listener
}

// String identifies the node in journals and errors, e.g. "li#4".
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Type == TextNode {
		return fmt.Sprintf("#text#%d", n.ID)
	}
	return fmt.Sprintf("%s#%d", n.Tag, n.ID)
}

// TextContent returns the concatenated text of the node and its descendants.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Text
	}
	var out []byte
	for _, c := range n.Children {
		out = append(out, c.TextContent()...)
	}
	return string(out)
}

// Prop returns a property value and whether it is set.
func (n *Node) Prop(name string) (any, bool) {
	v, ok := n.Props[name]
	return v, ok
}

// HasListener reports whether a listener is installed for event.
func (n *Node) HasListener(event string) bool {
	_, ok := n.listeners[event]
	return ok
}

// Index returns the position of n within its parent, or -1.
func (n *Node) Index() int {
	if n.Parent == nil {
		return -1
	}
	return slices.Index(n.Parent.Children, n)
}

// Document is an in-memory host.
type Document struct {
	nextID  int
	journal []string

	// Fail, when set, is consulted before every mutation; a non-nil error
	// aborts the mutation and is returned to the caller.
	Fail func(op string, node *Node) error
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

var _ host.NamespaceHost = (*Document)(nil)

// CreateContainer creates a detached element to render into. It is not
// recorded in the journal.
func (d *Document) CreateContainer(tag string) *Node {
	d.nextID++
	return &Node{ID: d.nextID, Type: ElementNode, Tag: tag, Props: map[string]any{}}
}

// Journal returns the mutations recorded so far.
func (d *Document) Journal() []string {
	return slices.Clone(d.journal)
}

// ResetJournal clears the mutation journal.
func (d *Document) ResetJournal() {
	d.journal = nil
}

func (d *Document) record(op string, node *Node, detail string) error {
	if d.Fail != nil {
		if err := d.Fail(op, node); err != nil {
			return err
		}
	}
	entry := op + " " + node.String()
	if detail != "" {
		entry += " " + detail
	}
	d.journal = append(d.journal, entry)
	return nil
}

func asNode(n host.Node) (*Node, error) {
	node, ok := n.(*Node)
	if !ok || node == nil {
		return nil, fmt.Errorf("%w: %T", ErrForeignNode, n)
	}
	return node, nil
}

// CreateElement implements host.Host.
func (d *Document) CreateElement(tag string) (host.Node, error) {
	d.nextID++
	node := &Node{ID: d.nextID, Type: ElementNode, Tag: tag, Props: map[string]any{}}
	if err := d.record("create", node, ""); err != nil {
		return nil, err
	}
	return node, nil
}

// CreateElementNS implements host.NamespaceHost.
func (d *Document) CreateElementNS(namespace, tag string) (host.Node, error) {
	d.nextID++
	node := &Node{ID: d.nextID, Type: ElementNode, Tag: tag, Namespace: namespace, Props: map[string]any{}}
	if err := d.record("create", node, namespace); err != nil {
		return nil, err
	}
	return node, nil
}

// CreateText implements host.Host.
func (d *Document) CreateText(text string) (host.Node, error) {
	d.nextID++
	node := &Node{ID: d.nextID, Type: TextNode, Text: text}
	if err := d.record("create", node, fmt.Sprintf("%q", text)); err != nil {
		return nil, err
	}
	return node, nil
}

// SetText implements host.Host.
func (d *Document) SetText(n host.Node, text string) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	if node.Type != TextNode {
		return ErrNotText
	}
	if err := d.record("text", node, fmt.Sprintf("%q", text)); err != nil {
		return err
	}
	node.Text = text
	return nil
}

// SetProperty implements host.Host.
func (d *Document) SetProperty(n host.Node, name string, value any) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	if err := d.record("set", node, name); err != nil {
		return err
	}
	if node.Props == nil {
		node.Props = map[string]any{}
	}
	node.Props[name] = value
	return nil
}

// RemoveProperty implements host.Host.
func (d *Document) RemoveProperty(n host.Node, name string) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	if err := d.record("unset", node, name); err != nil {
		return err
	}
	delete(node.Props, name)
	return nil
}

// SetListener implements host.Host.
func (d *Document) SetListener(n host.Node, event string, listener host.Listener) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	if err := d.record("listen", node, event); err != nil {
		return err
	}
	if node.listeners == nil {
		node.listeners = map[string]host.Listener{}
	}
	node.listeners[event] = listener
	return nil
}

// RemoveListener implements host.Host.
func (d *Document) RemoveListener(n host.Node, event string) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	if err := d.record("unlisten", node, event); err != nil {
		return err
	}
	delete(node.listeners, event)
	return nil
}

// InsertBefore implements host.Host.
func (d *Document) InsertBefore(p, c, r host.Node) error {
	parent, err := asNode(p)
	if err != nil {
		return err
	}
	child, err := asNode(c)
	if err != nil {
		return err
	}
	var ref *Node
	if r != nil {
		if ref, err = asNode(r); err != nil {
			return err
		}
		if ref.Parent != parent {
			return ErrNotChild
		}
	}
	if ref == child {
		return nil
	}
	for a := parent; a != nil; a = a.Parent {
		if a == child {
			return ErrCycle
		}
	}
	detail := "into " + parent.String()
	if ref != nil {
		detail += " before " + ref.String()
	}
	if err := d.record("insert", child, detail); err != nil {
		return err
	}
	if child.Parent != nil {
		detach(child)
	}
	child.Parent = parent
	if ref == nil {
		parent.Children = append(parent.Children, child)
		return nil
	}
	parent.Children = slices.Insert(parent.Children, slices.Index(parent.Children, ref), child)
	return nil
}

// RemoveChild implements host.Host.
func (d *Document) RemoveChild(p, c host.Node) error {
	parent, err := asNode(p)
	if err != nil {
		return err
	}
	child, err := asNode(c)
	if err != nil {
		return err
	}
	if child.Parent != parent {
		return ErrNotChild
	}
	if err := d.record("remove", child, "from "+parent.String()); err != nil {
		return err
	}
	detach(child)
	return nil
}

func detach(child *Node) {
	parent := child.Parent
	if i := slices.Index(parent.Children, child); i >= 0 {
		parent.Children = slices.Delete(parent.Children, i, i+1)
	}
	child.Parent = nil
}

// FirstChild implements host.Host.
func (d *Document) FirstChild(p host.Node) host.Node {
	parent, err := asNode(p)
	if err != nil || len(parent.Children) == 0 {
		return nil
	}
	return parent.Children[0]
}

// NextSibling implements host.Host.
func (d *Document) NextSibling(n host.Node) host.Node {
	node, err := asNode(n)
	if err != nil || node.Parent == nil {
		return nil
	}
	siblings := node.Parent.Children
	i := slices.Index(siblings, node)
	if i < 0 || i+1 >= len(siblings) {
		return nil
	}
	return siblings[i+1]
}

// Dispatch delivers an event to target and then to each ancestor that has a
// listener for the same type. It returns the number of listeners invoked.
func (d *Document) Dispatch(target *Node, eventType string, value any) int {
	ev := &host.Event{Type: eventType, Target: target, Value: value}
	invoked := 0
	for n := target; n != nil; n = n.Parent {
		if l, ok := n.listeners[eventType]; ok {
			l(ev)
			invoked++
		}
	}
	return invoked
}

// Walk visits n and its descendants depth-first in document order until
// visit returns false.
func Walk(n *Node, visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.Children {
		if !Walk(c, visit) {
			return false
		}
	}
	return true
}

// FindAll returns every node under root (inclusive) matching pred.
func FindAll(root *Node, pred func(*Node) bool) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}
