package genvalue

// Tree is a shrinkable handle on one drawn ParameterValue. Simplify
// never changes the value's Kind and never flips Active to true (spec
// §4.4); Complicate only restores the value held before the most
// recent Simplify. Each call returns false once no further step in
// that direction exists, and the driver (explore.Explorer) alternates
// between them without ever losing the association between a draw and
// its shrink path.
type Tree struct {
	Current ParameterValue
	history []ParameterValue
}

// NewTree wraps a freshly drawn value for shrinking.
func NewTree(v ParameterValue) *Tree {
	return &Tree{Current: v}
}

// Simplify makes Current strictly smaller, pushing the previous value
// so Complicate can undo the step. Returns false if Current is already
// minimal.
func (t *Tree) Simplify() bool {
	next, ok := simplifyOnce(t.Current)
	if !ok {
		return false
	}
	t.history = append(t.history, t.Current)
	t.Current = next
	return true
}

// Complicate undoes the most recent Simplify. Returns false if there is
// no recorded step to undo.
func (t *Tree) Complicate() bool {
	if len(t.history) == 0 {
		return false
	}
	t.Current = t.history[len(t.history)-1]
	t.history = t.history[:len(t.history)-1]
	return true
}

func simplifyOnce(v ParameterValue) (ParameterValue, bool) {
	if v.Active {
		v.Active = false
		return v, true
	}
	switch v.Kind {
	case KindString:
		if len(v.Str) == 0 {
			return v, false
		}
		v.Str = v.Str[:len(v.Str)-1]
		return v, true
	case KindInt:
		if v.Int == 0 {
			return v, false
		}
		v.Int = v.Int / 2
		return v, true
	case KindDouble:
		if v.Double == 0 {
			return v, false
		}
		v.Double = v.Double / 2
		return v, true
	case KindBool:
		if !v.Bool {
			return v, false
		}
		v.Bool = false
		return v, true
	case KindIPV4:
		for i, b := range v.IPV4 {
			if b != 0 {
				v.IPV4[i] = b / 2
				return v, true
			}
		}
		return v, false
	case KindFile:
		if v.File == 0 {
			return v, false
		}
		v.File = v.File / 2
		return v, true
	case KindArrayOfString:
		if len(v.Strs) == 0 {
			return v, false
		}
		v.Strs = v.Strs[:len(v.Strs)-1]
		return v, true
	default: // KindEmpty, KindReference (once deactivated)
		return v, false
	}
}
