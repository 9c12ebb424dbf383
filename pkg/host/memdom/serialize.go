package memdom

import (
	"fmt"
	"html"
	"maps"
	"slices"
	"strings"
)

// voidTags are serialized without a closing tag.
var voidTags = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true, "meta": true, "link": true,
}

// HTML serializes the children of n (not n itself) as markup.
func HTML(n *Node) string {
	var sb strings.Builder
	for _, c := range n.Children {
		writeHTML(&sb, c)
	}
	return sb.String()
}

// OuterHTML serializes n including its own tag.
func OuterHTML(n *Node) string {
	var sb strings.Builder
	writeHTML(&sb, n)
	return sb.String()
}

func writeHTML(sb *strings.Builder, n *Node) {
	if n.Type == TextNode {
		sb.WriteString(html.EscapeString(n.Text))
		return
	}
	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	for _, name := range slices.Sorted(maps.Keys(n.Props)) {
		value, ok := attrValue(n.Props[name])
		if !ok {
			continue
		}
		if name == "className" {
			name = "class"
		}
		sb.WriteByte(' ')
		sb.WriteString(name)
		if value != "" {
			sb.WriteString(`="`)
			sb.WriteString(html.EscapeString(value))
			sb.WriteByte('"')
		}
	}
	sb.WriteByte('>')
	if voidTags[n.Tag] && len(n.Children) == 0 {
		return
	}
	for _, c := range n.Children {
		writeHTML(sb, c)
	}
	sb.WriteString("</")
	sb.WriteString(n.Tag)
	sb.WriteByte('>')
}

// attrValue renders a property as attribute text. Values with no markup
// form (functions, false, nil) report ok=false.
func attrValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		return "", val
	case map[string]string:
		keys := slices.Sorted(maps.Keys(val))
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+val[k])
		}
		return strings.Join(parts, "; "), true
	case fmt.Stringer:
		return val.String(), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(val), true
	default:
		return "", false
	}
}

// SnapshotNode is a JSON-friendly copy of a node subtree.
type SnapshotNode struct {
	Tag      string            `json:"tag,omitempty"`
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Events   []string          `json:"events,omitempty"`
	Children []*SnapshotNode   `json:"children,omitempty"`
}

// Snapshot captures n and its descendants.
func Snapshot(n *Node) *SnapshotNode {
	if n.Type == TextNode {
		return &SnapshotNode{Text: n.Text}
	}
	snap := &SnapshotNode{Tag: n.Tag}
	for name, v := range n.Props {
		if value, ok := attrValue(v); ok {
			if snap.Attrs == nil {
				snap.Attrs = map[string]string{}
			}
			snap.Attrs[name] = value
		}
	}
	if len(n.listeners) > 0 {
		snap.Events = slices.Sorted(maps.Keys(n.listeners))
	}
	for _, c := range n.Children {
		snap.Children = append(snap.Children, Snapshot(c))
	}
	return snap
}
