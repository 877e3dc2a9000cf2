// Package entropy provides the random sources consumed by every generator
// and simulator in the game. Nothing in the game reads a global RNG; a
// Source is always passed in explicitly.
package entropy

import (
	"io"
	"math/rand"
)

// Source is the randomness every stochastic rule draws from.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n). n must be positive.
	Intn(n int) int
}

// Seeded is a deterministic Source backed by math/rand.
type Seeded struct {
	rng *rand.Rand
}

// NewSeeded creates a reproducible source. Two sources with the same seed
// produce the same stream.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewSource(seed))}
}

func (s *Seeded) Float64() float64 { return s.rng.Float64() }

func (s *Seeded) Intn(n int) int { return s.rng.Intn(n) }

// Sequence replays a fixed list of floats, cycling when exhausted.
// Intn maps the next float onto [0, n). Used to pin exact outcomes in tests.
type Sequence struct {
	values []float64
	pos    int
}

// NewSequence creates a scripted source. An empty list always yields 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Float64() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}

func (s *Sequence) Intn(n int) int {
	return IntFromFloat(s.Float64(), n)
}

// IntFromFloat maps f in [0, 1) onto [0, n), clamping out-of-range input.
func IntFromFloat(f float64, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(f * float64(n))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Chance reports whether a draw from src falls under p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Reader adapts a Source into an io.Reader so identifiers (uuids) are
// drawn from the same reproducible stream as the gameplay.
func Reader(src Source) io.Reader {
	return reader{src: src}
}

type reader struct {
	src Source
}

func (r reader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.src.Intn(256))
	}
	return len(p), nil
}
