package combat

import "math/rand/v2"

// Rand is the random source every roll in this package goes through.
// Production code uses NewRand; tests inject fixed sources.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type stdRand struct {
	r *rand.Rand
}

// NewRand returns a Rand backed by math/rand/v2 seeded with seed.
func NewRand(seed uint64) Rand {
	return &stdRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *stdRand) Float64() float64 { return s.r.Float64() }

func (s *stdRand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.IntN(n)
}

// Chance reports whether a roll lands under p. Every call consumes exactly one
// Float64 so roll order stays stable for injected sources.
func Chance(r Rand, p float64) bool {
	return r.Float64() < p
}
