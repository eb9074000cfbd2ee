package agents

// UID permanently names one agent. UIDs are issued monotonically from 0 by
// People.Grow and are never reused, even after the agent dies.
type UID int32

// UIDs is an ordered collection of agent identifiers. All operations are
// pure: no receiver or argument is mutated, callers rebind the result.
type UIDs []UID

// Arange returns the identifiers [start, stop).
func Arange(start, stop UID) UIDs {
	if stop <= start {
		return UIDs{}
	}
	out := make(UIDs, 0, stop-start)
	for u := start; u < stop; u++ {
		out = append(out, u)
	}
	return out
}

// Concat returns a new collection holding u followed by other.
func (u UIDs) Concat(other UIDs) UIDs {
	out := make(UIDs, 0, len(u)+len(other))
	out = append(out, u...)
	out = append(out, other...)
	return out
}

// Cat concatenates any number of collections, preserving order.
func Cat(parts ...UIDs) UIDs {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make(UIDs, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Remove returns u minus other (asymmetric set difference). Both operands
// are assumed to contain no duplicates; the order of u is preserved.
func (u UIDs) Remove(other UIDs) UIDs {
	if len(other) == 0 {
		out := make(UIDs, len(u))
		copy(out, u)
		return out
	}
	drop := make(map[UID]struct{}, len(other))
	for _, o := range other {
		drop[o] = struct{}{}
	}
	out := make(UIDs, 0, len(u))
	for _, v := range u {
		if _, ok := drop[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

// Intersect returns the identifiers present in both u and other, in the
// order of u. Both operands are assumed to contain no duplicates.
func (u UIDs) Intersect(other UIDs) UIDs {
	keep := make(map[UID]struct{}, len(other))
	for _, o := range other {
		keep[o] = struct{}{}
	}
	out := make(UIDs, 0)
	for _, v := range u {
		if _, ok := keep[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
