// Package testutil holds deterministic stand-ins shared by package tests.
package testutil

// FixedRand returns the same Float64 value on every call and IntN(n) = Int clamped to n-1.
type FixedRand struct {
	Float float64
	Int   int
}

func (f *FixedRand) Float64() float64 { return f.Float }

func (f *FixedRand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	if f.Int >= n {
		return n - 1
	}
	if f.Int < 0 {
		return 0
	}
	return f.Int
}

// SeqRand replays Floats (then Ints) in order, repeating the last value when exhausted.
type SeqRand struct {
	Floats []float64
	Ints   []int
	fi, ii int
}

func (s *SeqRand) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi]
	if s.fi < len(s.Floats)-1 {
		s.fi++
	}
	return v
}

func (s *SeqRand) IntN(n int) int {
	if n <= 0 || len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii]
	if s.ii < len(s.Ints)-1 {
		s.ii++
	}
	if v >= n {
		return n - 1
	}
	return v
}

// Steady rolls 0.5 on every chance check and the maximum on every range roll:
// hits land (hit chance >= 0.5), dodges (capped at 0.5) and low crit chances never fire.
func Steady() *FixedRand { return &FixedRand{Float: 0.5, Int: 1 << 30} }
