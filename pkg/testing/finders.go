package testing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-drift/fiber/pkg/host/memdom"
)

// Finder locates nodes in the rendered output tree.
type Finder interface {
	// Evaluate returns all matching nodes under root (depth-first pre-order),
	// excluding root itself.
	Evaluate(root *memdom.Node) []*memdom.Node
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []*memdom.Node
	finder Finder
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *memdom.Node {
	if len(r.nodes) == 0 {
		panic(fmt.Sprintf("Finder found no nodes: %s", r.description()))
	}
	return r.nodes[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *memdom.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *memdom.Node {
	if index < 0 || index >= len(r.nodes) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), r.description()))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*memdom.Node {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

// Text returns the text content of the first match. Panics if no matches.
func (r FinderResult) Text() string {
	return r.First().TextContent()
}

func descendants(root *memdom.Node, match func(*memdom.Node) bool) []*memdom.Node {
	var out []*memdom.Node
	memdom.Walk(root, func(n *memdom.Node) bool {
		if n != root && match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

type predicateFinder struct {
	match func(*memdom.Node) bool
	desc  string
}

func (f *predicateFinder) Evaluate(root *memdom.Node) []*memdom.Node {
	return descendants(root, f.match)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByTag matches element nodes with the given tag.
func ByTag(tag string) Finder {
	return &predicateFinder{
		desc: fmt.Sprintf("ByTag(%q)", tag),
		match: func(n *memdom.Node) bool {
			return n.Type == memdom.ElementNode && n.Tag == tag
		},
	}
}

// ByText matches element nodes whose text content is exactly text and
// that have no child element with the same content, so only the innermost
// element is returned.
func ByText(text string) Finder {
	return &predicateFinder{
		desc: fmt.Sprintf("ByText(%q)", text),
		match: func(n *memdom.Node) bool {
			if n.Type != memdom.ElementNode || n.TextContent() != text {
				return false
			}
			return !slices.ContainsFunc(n.Children, func(c *memdom.Node) bool {
				return c.Type == memdom.ElementNode && c.TextContent() == text
			})
		},
	}
}

// ByTextContaining matches innermost element nodes whose text content
// contains substr.
func ByTextContaining(substr string) Finder {
	return &predicateFinder{
		desc: fmt.Sprintf("ByTextContaining(%q)", substr),
		match: func(n *memdom.Node) bool {
			if n.Type != memdom.ElementNode || !strings.Contains(n.TextContent(), substr) {
				return false
			}
			return !slices.ContainsFunc(n.Children, func(c *memdom.Node) bool {
				return c.Type == memdom.ElementNode && strings.Contains(c.TextContent(), substr)
			})
		},
	}
}

// ByProp matches element nodes whose property name equals value.
func ByProp(name string, value any) Finder {
	return &predicateFinder{
		desc: fmt.Sprintf("ByProp(%q, %v)", name, value),
		match: func(n *memdom.Node) bool {
			v, ok := n.Prop(name)
			return ok && v == value
		},
	}
}

// ByClass matches element nodes whose className contains class.
func ByClass(class string) Finder {
	return &predicateFinder{
		desc: fmt.Sprintf("ByClass(%q)", class),
		match: func(n *memdom.Node) bool {
			v, _ := n.Prop("className")
			s, _ := v.(string)
			return slices.Contains(strings.Fields(s), class)
		},
	}
}

// ByPredicate matches nodes satisfying fn.
func ByPredicate(desc string, fn func(*memdom.Node) bool) Finder {
	return &predicateFinder{desc: fmt.Sprintf("ByPredicate(%s)", desc), match: fn}
}

type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *memdom.Node) []*memdom.Node {
	var out []*memdom.Node
	seen := make(map[*memdom.Node]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		for _, n := range f.matching.Evaluate(ancestor) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant matches nodes found by matching below any node found by of.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}
