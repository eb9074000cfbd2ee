package agents

// IndexArr stores identifier-like integers (uid, slot). The sentinel is -1,
// reserved since identifiers are never negative.
type IndexArr struct {
	meta
	raw []UID
	nan UID
}

// NewIndexArr creates an unbound index array.
func NewIndexArr(name string) *IndexArr {
	return &IndexArr{meta: meta{name: name}, nan: -1}
}

func (a *IndexArr) Bind(p *People) error { return a.bind(p, a) }

func (a *IndexArr) At(uid UID) UID       { return a.raw[uid] }
func (a *IndexArr) SetAt(uid UID, v UID) { a.raw[uid] = v }
func (a *IndexArr) Get(uids UIDs) []UID  { return gather(a.raw, uids) }

func (a *IndexArr) Set(uids UIDs, v UID) {
	for _, u := range uids {
		a.raw[u] = v
	}
}

func (a *IndexArr) SetVals(uids UIDs, vals UIDs) {
	for i, u := range uids {
		a.raw[u] = vals[i]
	}
}

func (a *IndexArr) Values() []UID { return gather(a.raw, a.auids()) }

func (a *IndexArr) Active(i int) UID { return a.raw[a.auids()[i]] }

// UIDs returns the active values as an identifier set.
func (a *IndexArr) UIDs() UIDs { return UIDs(a.Values()) }

// Select indexes dynamically with the same raw/active disambiguation rules
// as FloatArr.Select.
func (a *IndexArr) Select(key any) ([]UID, error) {
	uids, pos, useRaw, err := convertKey(a.name, key)
	if err != nil {
		return nil, err
	}
	if useRaw {
		return a.Get(uids), nil
	}
	return []UID{a.Active(pos)}, nil
}

func (a *IndexArr) growVals(newUIDs UIDs, vals UIDs) {
	a.raw, a.lenTot = growRaw(a.raw, a.lenUsed, a.lenTot, len(newUIDs), a.nan)
	a.lenUsed += len(newUIDs)
	if vals != nil {
		a.SetVals(newUIDs, vals)
		return
	}
	a.Set(newUIDs, a.nan)
}

func (a *IndexArr) Grow(newUIDs UIDs) { a.growVals(newUIDs, nil) }

func (a *IndexArr) GrowVals(newUIDs UIDs, vals UIDs) { a.growVals(newUIDs, vals) }

// IsNaN selects active agents whose value is unset.
func (a *IndexArr) IsNaN() *BoolArr {
	out := &BoolArr{meta: a.meta, nan: false}
	out.derived = true
	out.bound = false
	out.raw = make([]bool, a.lenTot)
	for _, u := range a.auids() {
		out.raw[u] = a.raw[u] == a.nan
	}
	return out
}
