// Package dice provides the random source used for generation and replies.
package dice

import (
	"crypto/rand"
	"encoding/binary"
	"math/bits"
)

// Source draws uniform random integers.
type Source interface {
	// Intn returns a uniform integer in [0, n). n must be positive.
	Intn(n int64) int64
}

// Between returns a uniform integer in [lo, hi].
func Between(src Source, lo, hi int64) int64 {
	return lo + src.Intn(hi-lo+1)
}

// System returns a Source backed by the operating system's random generator,
// so bot behavior cannot be predicted from earlier runs.
func System() Source { return systemSource{} }

type systemSource struct{}

func (systemSource) Intn(n int64) int64 {
	if n <= 0 {
		panic("dice: Intn called with non-positive n")
	}
	un := uint64(n)
	// Lemire's rejection method keeps the result unbiased.
	hi, lo := bits.Mul64(uint64Random(), un)
	if lo < un {
		thresh := -un % un
		for lo < thresh {
			hi, lo = bits.Mul64(uint64Random(), un)
		}
	}
	return int64(hi)
}

func uint64Random() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("dice: system random source failed: " + err.Error())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Sequence replays fixed draws. Each value is reduced modulo n.
// It is meant for tests that need an exact walk.
type Sequence struct {
	Values []int64
	pos    int
}

func (s *Sequence) Intn(n int64) int64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.pos%len(s.Values)]
	s.pos++
	return v % n
}
