package agents

// BoolDefault is the default-value policy for boolean arrays.
type BoolDefault interface {
	Fill(uids UIDs) []bool
}

// ConstBool fills every new identifier with the same value.
type ConstBool bool

func (c ConstBool) Fill(uids UIDs) []bool {
	out := make([]bool, len(uids))
	for i := range out {
		out[i] = bool(c)
	}
	return out
}

// BoolFunc fills new identifiers from a size-taking callable.
type BoolFunc func(n int) []bool

func (f BoolFunc) Fill(uids UIDs) []bool { return f(len(uids)) }

// BoolArr stores one boolean state per agent. Booleans have no NaN analog,
// so false doubles as the sentinel.
type BoolArr struct {
	meta
	raw []bool
	nan bool
	def BoolDefault
}

// NewBoolArr creates an unbound boolean array. def may be nil (defaults to
// false).
func NewBoolArr(name string, def BoolDefault) *BoolArr {
	return &BoolArr{meta: meta{name: name}, def: def}
}

func (a *BoolArr) Bind(p *People) error { return a.bind(p, a) }

func (a *BoolArr) At(uid UID) bool       { return a.raw[uid] }
func (a *BoolArr) SetAt(uid UID, v bool) { a.raw[uid] = v }
func (a *BoolArr) Get(uids UIDs) []bool  { return gather(a.raw, uids) }

func (a *BoolArr) Set(uids UIDs, v bool) {
	for _, u := range uids {
		a.raw[u] = v
	}
}

func (a *BoolArr) SetVals(uids UIDs, vals []bool) {
	for i, u := range uids {
		a.raw[u] = vals[i]
	}
}

func (a *BoolArr) Values() []bool { return gather(a.raw, a.auids()) }

func (a *BoolArr) Active(i int) bool { return a.raw[a.auids()[i]] }

// Select indexes dynamically with the same raw/active disambiguation rules
// as FloatArr.Select.
func (a *BoolArr) Select(key any) ([]bool, error) {
	uids, pos, useRaw, err := convertKey(a.name, key)
	if err != nil {
		return nil, err
	}
	if useRaw {
		return a.Get(uids), nil
	}
	return []bool{a.Active(pos)}, nil
}

func (a *BoolArr) growVals(newUIDs UIDs, vals []bool) {
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

func (a *BoolArr) Grow(newUIDs UIDs) { a.growVals(newUIDs, nil) }

func (a *BoolArr) GrowVals(newUIDs UIDs, vals []bool) { a.growVals(newUIDs, vals) }

// UIDs returns the active identifiers whose value is true. This is the
// event-eligibility selector used throughout the modules.
func (a *BoolArr) UIDs() UIDs {
	out := make(UIDs, 0)
	for _, u := range a.auids() {
		if a.raw[u] {
			out = append(out, u)
		}
	}
	return out
}

// Count reports how many active agents are true.
func (a *BoolArr) Count() int {
	n := 0
	for _, u := range a.auids() {
		if a.raw[u] {
			n++
		}
	}
	return n
}

func (a *BoolArr) asnew(op func(v bool, u UID) bool) *BoolArr {
	out := &BoolArr{meta: a.meta, nan: false}
	out.derived = true
	out.bound = false
	out.raw = make([]bool, a.lenTot)
	for _, u := range a.auids() {
		out.raw[u] = op(a.raw[u], u)
	}
	return out
}

// Logical operators are defined only for boolean arrays; each returns a
// fresh derived array and never aliases either operand.
func (a *BoolArr) And(o *BoolArr) *BoolArr {
	return a.asnew(func(v bool, u UID) bool { return v && o.raw[u] })
}

func (a *BoolArr) Or(o *BoolArr) *BoolArr {
	return a.asnew(func(v bool, u UID) bool { return v || o.raw[u] })
}

func (a *BoolArr) Xor(o *BoolArr) *BoolArr {
	return a.asnew(func(v bool, u UID) bool { return v != o.raw[u] })
}

func (a *BoolArr) Not() *BoolArr {
	return a.asnew(func(v bool, u UID) bool { return !v })
}
