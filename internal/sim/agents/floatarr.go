package agents

import "math"

// FloatDefault is the default-value policy for float arrays: a constant, a
// size-taking callable, or a samplable distribution (which draws per
// identifier so values are stable under growth).
type FloatDefault interface {
	Fill(uids UIDs) []float64
}

// ConstFloat fills every new identifier with the same value.
type ConstFloat float64

func (c ConstFloat) Fill(uids UIDs) []float64 {
	out := make([]float64, len(uids))
	for i := range out {
		out[i] = float64(c)
	}
	return out
}

// FloatFunc fills new identifiers from a size-taking callable.
type FloatFunc func(n int) []float64

func (f FloatFunc) Fill(uids UIDs) []float64 { return f(len(uids)) }

// FloatArr stores one float state per agent. The raw buffer is indexed by
// UID and never compacts; the active view is raw projected through the
// People-owned active list.
type FloatArr struct {
	meta
	raw []float64
	nan float64
	def FloatDefault
}

// NewFloatArr creates an unbound float array. def may be nil, in which case
// new identifiers get the NaN sentinel.
func NewFloatArr(name string, def FloatDefault) *FloatArr {
	return &FloatArr{meta: meta{name: name}, nan: math.NaN(), def: def}
}

// Bind attaches the array to a People instance and registers it for
// lock-step growth. Calling Bind again on the same array is a no-op.
func (a *FloatArr) Bind(p *People) error { return a.bind(p, a) }

// At reads the raw buffer by identifier, regardless of aliveness.
func (a *FloatArr) At(uid UID) float64 { return a.raw[uid] }

// SetAt writes the raw buffer by identifier.
func (a *FloatArr) SetAt(uid UID, v float64) { a.raw[uid] = v }

// Get gathers raw values for the given identifiers.
func (a *FloatArr) Get(uids UIDs) []float64 { return gather(a.raw, uids) }

// Set writes v at every given identifier.
func (a *FloatArr) Set(uids UIDs, v float64) {
	for _, u := range uids {
		a.raw[u] = v
	}
}

// SetVals writes per-identifier values; lengths must match.
func (a *FloatArr) SetVals(uids UIDs, vals []float64) {
	for i, u := range uids {
		a.raw[u] = vals[i]
	}
}

// AddAt adds delta at every given identifier.
func (a *FloatArr) AddAt(uids UIDs, delta float64) {
	for _, u := range uids {
		a.raw[u] += delta
	}
}

// Values returns the active view as a fresh slice (raw[auids]).
func (a *FloatArr) Values() []float64 { return gather(a.raw, a.auids()) }

// Active reads the i-th currently-active agent's value.
func (a *FloatArr) Active(i int) float64 { return a.raw[a.auids()[i]] }

// SetActive writes by active-view position.
func (a *FloatArr) SetActive(i int, v float64) { a.raw[a.auids()[i]] = v }

// Select indexes the array dynamically: a UIDs key reads the raw buffer, an
// int position reads the active view, and anything else is rejected with an
// AmbiguousIndexError.
func (a *FloatArr) Select(key any) ([]float64, error) {
	uids, pos, useRaw, err := convertKey(a.name, key)
	if err != nil {
		return nil, err
	}
	if useRaw {
		return a.Get(uids), nil
	}
	return []float64{a.Active(pos)}, nil
}

// Grow extends the array for newly issued identifiers. vals may be nil, in
// which case the default policy (or the sentinel) supplies values. Normally
// called only via People.Grow.
func (a *FloatArr) growVals(newUIDs UIDs, vals []float64) {
	a.raw, a.lenTot = growRaw(a.raw, a.lenUsed, a.lenTot, len(newUIDs), a.nan)
	a.lenUsed += len(newUIDs)
	if vals != nil {
		a.SetVals(newUIDs, vals)
		return
	}
	if a.def != nil {
		a.SetVals(newUIDs, a.def.Fill(newUIDs))
		return
	}
	a.Set(newUIDs, a.nan)
}

func (a *FloatArr) Grow(newUIDs UIDs) { a.growVals(newUIDs, nil) }

// GrowVals grows with explicit values instead of the default policy.
func (a *FloatArr) GrowVals(newUIDs UIDs, vals []float64) { a.growVals(newUIDs, vals) }

// asnew builds a derived boolean array sharing this array's metadata but
// owning an independent buffer, so comparisons never alias the source.
func (a *FloatArr) asnewBool(pred func(v float64) bool) *BoolArr {
	out := &BoolArr{meta: a.meta, nan: false}
	out.derived = true
	out.bound = false
	out.raw = make([]bool, a.lenTot)
	for _, u := range a.auids() {
		out.raw[u] = pred(a.raw[u])
	}
	return out
}

// Comparison operators apply to the active view and yield boolean arrays.
// NaN compares false against everything, so unset sentinel entries never
// match.
func (a *FloatArr) Gt(x float64) *BoolArr { return a.asnewBool(func(v float64) bool { return v > x }) }
func (a *FloatArr) Ge(x float64) *BoolArr { return a.asnewBool(func(v float64) bool { return v >= x }) }
func (a *FloatArr) Lt(x float64) *BoolArr { return a.asnewBool(func(v float64) bool { return v < x }) }
func (a *FloatArr) Le(x float64) *BoolArr { return a.asnewBool(func(v float64) bool { return v <= x }) }
func (a *FloatArr) Eq(x float64) *BoolArr { return a.asnewBool(func(v float64) bool { return v == x }) }
func (a *FloatArr) Ne(x float64) *BoolArr { return a.asnewBool(func(v float64) bool { return v != x }) }

// IsNaN selects active agents whose value is the NaN sentinel.
func (a *FloatArr) IsNaN() *BoolArr { return a.asnewBool(math.IsNaN) }

// NotNaN selects active agents with a computed (non-sentinel) value.
func (a *FloatArr) NotNaN() *BoolArr {
	return a.asnewBool(func(v float64) bool { return !math.IsNaN(v) })
}

// Sum totals the active view.
func (a *FloatArr) Sum() float64 {
	var s float64
	for _, u := range a.auids() {
		s += a.raw[u]
	}
	return s
}

// Mean averages the active view; zero-length views yield 0.
func (a *FloatArr) Mean() float64 {
	n := a.Len()
	if n == 0 {
		return 0
	}
	return a.Sum() / float64(n)
}
