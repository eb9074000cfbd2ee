package agents

import "fmt"

// State is the contract every typed array satisfies so that People can grow
// all attached arrays in lock-step without knowing their element type.
// Grow extends the array for newly issued identifiers using the array's
// default-value policy; Bind attaches the array to a People instance
// (idempotent, see each array's Bind).
type State interface {
	Name() string
	Grow(newUIDs UIDs)
	Bind(p *People) error
	LenUsed() int
	LenTot() int
	Len() int
}

// AmbiguousIndexError is returned when an array is indexed dynamically with
// a key type that does not unambiguously select raw-vs-active semantics
// (e.g. a plain []int). Callers must disambiguate with a UIDs value (raw
// buffer) or an int position (active view).
type AmbiguousIndexError struct {
	Name string
	Key  any
}

func (e *AmbiguousIndexError) Error() string {
	return fmt.Sprintf("indexing array %q by %T is ambiguous: use agents.UIDs for raw access or an int position for the active view", e.Name, e.Key)
}

// BoolOpError is returned when a logical operation is attempted on a
// non-boolean array.
type BoolOpError struct {
	Name  string
	Dtype string
}

func (e *BoolOpError) Error() string {
	return fmt.Sprintf("logical operations are only valid on boolean arrays, not %s (array %q)", e.Dtype, e.Name)
}

// meta holds the fields shared by all typed arrays. The array owns its raw
// buffer; the active-identifier list is owned by People and only referenced
// here, so a single authoritative list is shared by every array.
type meta struct {
	name    string
	people  *People
	lenUsed int
	lenTot  int
	bound   bool
	derived bool // result of a comparison/logical op; never registered
}

func (m *meta) Name() string { return m.name }

// LenUsed reports how many identifiers have been issued to this array.
func (m *meta) LenUsed() int { return m.lenUsed }

// LenTot reports the physical capacity of the raw buffer.
func (m *meta) LenTot() int { return m.lenTot }

// Len reports the active (alive) length.
func (m *meta) Len() int { return len(m.auids()) }

func (m *meta) auids() UIDs {
	if m.people == nil {
		return Arange(0, UID(m.lenUsed))
	}
	return m.people.auids
}

func (m *meta) bind(p *People, s State) error {
	if m.bound {
		return nil
	}
	if err := p.register(s); err != nil {
		return err
	}
	m.people = p
	m.bound = true
	return nil
}

// growRaw extends raw for nNew new entries, growing capacity by at least
// 50% of the current total to amortize reallocation. Spare capacity beyond
// the requested entries is filled with the sentinel.
func growRaw[T any](raw []T, lenUsed, lenTot, nNew int, nan T) ([]T, int) {
	need := lenUsed + nNew
	if need > lenTot {
		nGrow := nNew
		if half := lenTot / 2; half > nGrow {
			nGrow = half
		}
		raw = append(raw, make([]T, nGrow)...)
		lenTot = len(raw)
		for i := need; i < lenTot; i++ {
			raw[i] = nan
		}
	}
	return raw, lenTot
}

// gather returns raw[uids] as a fresh slice.
func gather[T any](raw []T, uids UIDs) []T {
	out := make([]T, len(uids))
	for i, u := range uids {
		out[i] = raw[u]
	}
	return out
}

// convertKey resolves a dynamic index key into either a raw-buffer UID set
// or an active-view position. Empty non-UIDs keys are tolerated as "select
// nothing"; everything else is ambiguous.
func convertKey(name string, key any) (uids UIDs, pos int, useRaw bool, err error) {
	switch k := key.(type) {
	case UIDs:
		return k, 0, true, nil
	case *BoolArr:
		return k.UIDs(), 0, true, nil
	case *IndexArr:
		return k.UIDs(), 0, true, nil
	case int:
		return nil, k, false, nil
	case []UID:
		return UIDs(k), 0, true, nil
	case []int:
		if len(k) == 0 {
			return UIDs{}, 0, true, nil
		}
	case []int32:
		if len(k) == 0 {
			return UIDs{}, 0, true, nil
		}
	case []int64:
		if len(k) == 0 {
			return UIDs{}, 0, true, nil
		}
	case nil:
		return UIDs{}, 0, true, nil
	}
	return nil, 0, false, &AmbiguousIndexError{Name: name, Key: key}
}

// And returns x AND y when both operands are boolean arrays, and a
// BoolOpError otherwise.
func And(x, y State) (*BoolArr, error) {
	bx, by, err := bothBool(x, y)
	if err != nil {
		return nil, err
	}
	return bx.And(by), nil
}

// Or returns x OR y for boolean arrays.
func Or(x, y State) (*BoolArr, error) {
	bx, by, err := bothBool(x, y)
	if err != nil {
		return nil, err
	}
	return bx.Or(by), nil
}

// Xor returns x XOR y for boolean arrays.
func Xor(x, y State) (*BoolArr, error) {
	bx, by, err := bothBool(x, y)
	if err != nil {
		return nil, err
	}
	return bx.Xor(by), nil
}

// Not returns the logical inverse of a boolean array.
func Not(x State) (*BoolArr, error) {
	bx, ok := x.(*BoolArr)
	if !ok {
		return nil, &BoolOpError{Name: x.Name(), Dtype: dtypeOf(x)}
	}
	return bx.Not(), nil
}

func bothBool(x, y State) (*BoolArr, *BoolArr, error) {
	bx, ok := x.(*BoolArr)
	if !ok {
		return nil, nil, &BoolOpError{Name: x.Name(), Dtype: dtypeOf(x)}
	}
	by, ok := y.(*BoolArr)
	if !ok {
		return nil, nil, &BoolOpError{Name: y.Name(), Dtype: dtypeOf(y)}
	}
	return bx, by, nil
}

func dtypeOf(s State) string {
	switch s.(type) {
	case *FloatArr:
		return "float"
	case *IndexArr:
		return "int"
	case *BoolArr:
		return "bool"
	default:
		return fmt.Sprintf("%T", s)
	}
}
