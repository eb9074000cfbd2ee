package kernel

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Digest returns a canonical sha256 digest of the live simulation state:
// the tick, the active-identifier list, and the core agent attributes.
// Equal digests across two runs mean the runs are in lockstep; used by the
// determinism tests and recorded in the tick log.
func (s *Sim) Digest() string {
	h := sha256.New()
	var buf [8]byte

	wu64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	wf64 := func(v float64) { wu64(math.Float64bits(v)) }

	wu64(uint64(s.TI))
	wu64(uint64(s.People.NIssued()))

	auids := s.People.AUIDs()
	wu64(uint64(len(auids)))
	for _, u := range auids {
		wu64(uint64(uint32(u)))
		if s.People.Alive.At(u) {
			wu64(1)
		} else {
			wu64(0)
		}
		wf64(s.People.Age.At(u))
		wf64(s.People.TiDead.At(u))
	}

	for _, r := range s.Results.All() {
		h.Write([]byte(r.Name))
		if s.TI > 0 && s.TI <= len(r.Values) {
			wf64(r.Values[s.TI-1])
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
