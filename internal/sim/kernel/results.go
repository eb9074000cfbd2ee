package kernel

import "fmt"

// Result is a fixed-length numeric series indexed by tick. Scale marks the
// series for population-scale rescaling at finalization.
type Result struct {
	Name   string
	Values []float64
	Scale  bool
}

// Last returns the final entry of the series.
func (r *Result) Last() float64 {
	if len(r.Values) == 0 {
		return 0
	}
	return r.Values[len(r.Values)-1]
}

// Mean averages the series.
func (r *Result) Mean() float64 {
	if len(r.Values) == 0 {
		return 0
	}
	var s float64
	for _, v := range r.Values {
		s += v
	}
	return s / float64(len(r.Values))
}

// Results is an ordered named mapping from result key to series.
type Results struct {
	order  []*Result
	byName map[string]*Result
}

func NewResults() *Results {
	return &Results{byName: map[string]*Result{}}
}

// Add registers a new zero-filled series of length npts.
func (rs *Results) Add(name string, npts int, scale bool) (*Result, error) {
	if _, ok := rs.byName[name]; ok {
		return nil, fmt.Errorf("results: duplicate key %q", name)
	}
	r := &Result{Name: name, Values: make([]float64, npts), Scale: scale}
	rs.order = append(rs.order, r)
	rs.byName[name] = r
	return r, nil
}

// Get returns the series for a key, or nil.
func (rs *Results) Get(name string) *Result { return rs.byName[name] }

// All returns the series in registration order.
func (rs *Results) All() []*Result { return rs.order }

// scaleAll multiplies every Scale-flagged series by factor. Rescaling is
// in-place, which is why finalization must run exactly once.
func (rs *Results) scaleAll(factor float64) {
	for _, r := range rs.order {
		if !r.Scale {
			continue
		}
		for i := range r.Values {
			r.Values[i] *= factor
		}
	}
}

// Reduction collapses a series to a single summary number.
type Reduction func(vals []float64) float64

// ReduceMean and ReduceLast are the built-in reductions.
func ReduceMean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var s float64
	for _, v := range vals {
		s += v
	}
	return s / float64(len(vals))
}

func ReduceLast(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return vals[len(vals)-1]
}

// defaultReductions maps result-name prefixes to reductions: cumulative
// series keep their last value, count series are averaged.
var defaultReductions = []struct {
	prefix string
	fn     Reduction
}{
	{"cum_", ReduceLast},
	{"n_", ReduceMean},
	{"new_", ReduceMean},
}

// Summarize reduces every series to one number. Entries in how override the
// prefix defaults by exact key.
func (rs *Results) Summarize(how map[string]Reduction) map[string]float64 {
	out := make(map[string]float64, len(rs.order))
	for _, r := range rs.order {
		fn := reductionFor(r.Name, how)
		out[r.Name] = fn(r.Values)
	}
	return out
}

func reductionFor(key string, how map[string]Reduction) Reduction {
	if how != nil {
		if fn, ok := how[key]; ok {
			return fn
		}
	}
	for _, d := range defaultReductions {
		if matchPrefix(key, d.prefix) {
			return d.fn
		}
	}
	return ReduceMean
}

// matchPrefix checks the prefix against the key and against the segment
// after a module namespace ("sir.cum_infections" matches "cum_").
func matchPrefix(key, prefix string) bool {
	if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
		return true
	}
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			rest := key[i+1:]
			return len(rest) >= len(prefix) && rest[:len(prefix)] == prefix
		}
	}
	return false
}
