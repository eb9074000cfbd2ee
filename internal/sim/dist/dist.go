// Package dist provides the deterministic random-stream container used by
// the simulation kernel. Streams are counter-based: each draw mixes the
// stream seed, the current tick, a per-call counter, and the agent's slot,
// so results are reproducible across runs and independent of how many draws
// earlier ticks consumed.
package dist

import (
	"fmt"
	"math"

	"agentsim.dev/internal/sim/agents"
)

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hashName(name string) uint64 {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= 1099511628211
	}
	return h
}

// Container owns every stream in a simulation. The kernel advances it to
// the upcoming tick at the start of each step.
type Container struct {
	seed        int64
	streams     []*Stream
	initialized bool
}

func NewContainer(seed int64) *Container {
	return &Container{seed: seed}
}

// Register attaches a stream to the container. Streams may be registered at
// any point before Init.
func (c *Container) Register(streams ...*Stream) {
	for _, s := range streams {
		c.streams = append(c.streams, s)
		if c.initialized {
			s.bind(c.seed, nil)
		}
	}
}

// Init binds every registered stream to the agent store. Called once by the
// kernel after all modules and arrays are bound, since initial state values
// may be drawn from module-local streams.
func (c *Container) Init(p *agents.People) error {
	for _, s := range c.streams {
		s.bind(c.seed, p)
	}
	c.initialized = true
	return nil
}

// Jump advances every stream to the given tick, resetting per-tick draw
// counters. Reproducibility is keyed by tick number, not by prior draws.
func (c *Container) Jump(to int) {
	for _, s := range c.streams {
		s.tick = uint64(to)
		s.draw = 0
	}
}

// Stream is one named random stream. Per-agent draws key off the agent's
// slot (stable secondary identity), so an agent's randomness does not
// depend on its position in the population.
type Stream struct {
	name   string
	seed   uint64
	tick   uint64
	draw   uint64
	people *agents.People
	bound  bool
}

func NewStream(name string) *Stream {
	return &Stream{name: name}
}

func (s *Stream) Name() string { return s.name }

func (s *Stream) bind(seed int64, p *agents.People) {
	s.seed = uint64(seed) ^ hashName(s.name)
	if p != nil {
		s.people = p
	}
	s.bound = true
}

func (s *Stream) mustBound() {
	if !s.bound {
		panic(fmt.Sprintf("dist: stream %q used before container initialization", s.name))
	}
}

// u01 returns a uniform value in [0, 1) for the given slot at the current
// tick and draw counter.
func (s *Stream) u01(slot agents.UID, salt uint64) float64 {
	v := mix64(s.seed ^ mix64(s.tick) ^ mix64(salt) ^ (uint64(uint32(slot)) * 0xc2b2ae3d27d4eb4f))
	return float64(v>>11) / float64(1<<53)
}

func (s *Stream) slotOf(u agents.UID) agents.UID {
	if s.people != nil {
		return s.people.Slot.At(u)
	}
	return u
}

// Uniforms draws one uniform [0,1) value per identifier.
func (s *Stream) Uniforms(uids agents.UIDs) []float64 {
	s.mustBound()
	s.draw++
	salt := s.draw
	out := make([]float64, len(uids))
	for i, u := range uids {
		out[i] = s.u01(s.slotOf(u), salt)
	}
	return out
}

// UniformsN draws n uniform values without identifier association.
func (s *Stream) UniformsN(n int) []float64 {
	s.mustBound()
	s.draw++
	salt := s.draw
	out := make([]float64, n)
	for i := range out {
		out[i] = s.u01(agents.UID(i), salt)
	}
	return out
}

// Normals draws one standard normal per identifier (Box-Muller).
func (s *Stream) Normals(uids agents.UIDs) []float64 {
	s.mustBound()
	s.draw += 2
	saltA, saltB := s.draw-1, s.draw
	out := make([]float64, len(uids))
	for i, u := range uids {
		slot := s.slotOf(u)
		u1 := s.u01(slot, saltA)
		u2 := s.u01(slot, saltB)
		if u1 < 1e-300 {
			u1 = 1e-300
		}
		out[i] = math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	}
	return out
}

// IntN draws a single integer in [0, n) from the stream.
func (s *Stream) IntN(n int) int {
	s.mustBound()
	s.draw++
	v := mix64(s.seed ^ mix64(s.tick) ^ mix64(s.draw))
	return int(v % uint64(n))
}

// Shuffle permutes the slice deterministically (Fisher-Yates).
func (s *Stream) Shuffle(uids agents.UIDs) {
	s.mustBound()
	s.draw++
	base := s.seed ^ mix64(s.tick) ^ mix64(s.draw)
	for i := len(uids) - 1; i > 0; i-- {
		j := int(mix64(base^uint64(i)) % uint64(i+1))
		uids[i], uids[j] = uids[j], uids[i]
	}
}

// Bernoulli draws true with probability P.
type Bernoulli struct {
	P float64
	*Stream
}

func NewBernoulli(name string, p float64) *Bernoulli {
	return &Bernoulli{P: p, Stream: NewStream(name)}
}

// Draw returns one boolean per identifier.
func (b *Bernoulli) Draw(uids agents.UIDs) []bool {
	us := b.Uniforms(uids)
	out := make([]bool, len(uids))
	for i, v := range us {
		out[i] = v < b.P
	}
	return out
}

// DrawP is Draw with an overridden probability, for per-call probabilities
// (e.g. per-edge transmission).
func (b *Bernoulli) DrawP(uids agents.UIDs, ps []float64) []bool {
	us := b.Uniforms(uids)
	out := make([]bool, len(uids))
	for i, v := range us {
		out[i] = v < ps[i]
	}
	return out
}

// Filter returns the identifiers that drew true.
func (b *Bernoulli) Filter(uids agents.UIDs) agents.UIDs {
	mask := b.Draw(uids)
	out := make(agents.UIDs, 0, len(uids))
	for i, ok := range mask {
		if ok {
			out = append(out, uids[i])
		}
	}
	return out
}

// Fill implements the boolean default-value contract.
func (b *Bernoulli) Fill(uids agents.UIDs) []bool { return b.Draw(uids) }

// Uniform draws values in [Low, High).
type Uniform struct {
	Low, High float64
	*Stream
}

func NewUniform(name string, low, high float64) *Uniform {
	return &Uniform{Low: low, High: high, Stream: NewStream(name)}
}

func (u *Uniform) Draw(uids agents.UIDs) []float64 {
	out := u.Uniforms(uids)
	for i := range out {
		out[i] = u.Low + out[i]*(u.High-u.Low)
	}
	return out
}

// Fill implements the float default-value contract.
func (u *Uniform) Fill(uids agents.UIDs) []float64 { return u.Draw(uids) }

// LogNormal is parametrized by the mean and standard deviation of the
// resulting distribution (not of the underlying normal).
type LogNormal struct {
	Mean, Std float64
	*Stream
}

func NewLogNormal(name string, mean, std float64) *LogNormal {
	return &LogNormal{Mean: mean, Std: std, Stream: NewStream(name)}
}

func (l *LogNormal) Draw(uids agents.UIDs) []float64 {
	mean := l.Mean
	if mean <= 0 {
		mean = 1e-9
	}
	std := l.Std
	if std <= 0 {
		std = mean / 2
	}
	sigma2 := math.Log(1 + (std*std)/(mean*mean))
	mu := math.Log(mean) - sigma2/2
	sigma := math.Sqrt(sigma2)
	out := l.Normals(uids)
	for i := range out {
		out[i] = math.Exp(mu + sigma*out[i])
	}
	return out
}

func (l *LogNormal) Fill(uids agents.UIDs) []float64 { return l.Draw(uids) }

// Poisson draws counts with rate Lam (Knuth's method; Lam is expected to be
// small, e.g. births per tick).
type Poisson struct {
	Lam float64
	*Stream
}

func NewPoisson(name string, lam float64) *Poisson {
	return &Poisson{Lam: lam, Stream: NewStream(name)}
}

// DrawOne draws a single count using the given rate.
func (p *Poisson) DrawOne(lam float64) int {
	if lam <= 0 {
		return 0
	}
	limit := math.Exp(-lam)
	k := 0
	prod := 1.0
	for {
		prod *= p.UniformsN(1)[0]
		if prod <= limit {
			return k
		}
		k++
		if k > 1_000_000 {
			return k
		}
	}
}
