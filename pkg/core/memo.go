package core

// Memo returns a component that skips re-rendering while its props stay
// shallow-equal: the same key set with each value unchanged under the
// comparison used for hook dependencies. The component still renders for
// its own state updates, and always renders when it reads a context.
// Each call returns a distinct component.
func Memo(c *Component) *Component {
	return &Component{Name: c.Name, Render: c.Render, memo: true}
}

// canBail reports whether the memoized component at f may reuse its
// previous output instead of rendering.
func (r *Root) canBail(f *fiber) (*fiber, bool) {
	if !f.kind.comp.memo || f.effect != EffectUpdate || f.hooks == nil {
		return nil, false
	}
	_, alt := r.resolve(f.alternate)
	if alt == nil || !alt.rendered {
		return nil, false
	}
	if f.hooks.readsContext || f.hooks.hasUpdates() || !shallowEqual(alt.props, f.props) {
		return nil, false
	}
	return alt, true
}

func shallowEqual(a, b Props) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !sameValue(av, bv) {
			return false
		}
	}
	return true
}
