package core

import (
	"fmt"
	"strings"
)

// DebugMode controls whether error placeholders show the error message.
var DebugMode = true

// SetDebugMode enables or disables debug mode.
func SetDebugMode(debug bool) {
	DebugMode = debug
}

// DumpTree returns an indented outline of the committed fiber tree, one
// fiber per line, with keys shown as key=value. It is empty before the
// first commit.
func (r *Root) DumpTree() string {
	tree := r.current
	if tree == nil {
		return ""
	}
	var sb strings.Builder
	depth := map[int32]int{0: -1}
	for i := tree.at(0).child; i != noFiber; i = tree.next(i, 0, true) {
		f := tree.at(i)
		d := depth[f.parent] + 1
		depth[i] = d
		sb.WriteString(strings.Repeat("  ", d))
		sb.WriteString(fiberLabel(f))
		if f.key != nil {
			fmt.Fprintf(&sb, " key=%v", f.key)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
