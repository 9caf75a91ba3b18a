package world

// Pool is one vitals resource (HP, mana or endurance).
type Pool struct {
	Cur int
	Max int
}

// Add applies delta clamped to [0, Max] and returns the change actually made.
func (p *Pool) Add(delta int) int {
	before := p.Cur
	p.Cur += delta
	if p.Cur > p.Max {
		p.Cur = p.Max
	}
	if p.Cur < 0 {
		p.Cur = 0
	}
	return p.Cur - before
}

// Full reports whether the pool is at its maximum.
func (p Pool) Full() bool { return p.Cur >= p.Max }

// Recompute installs a new maximum. Current is clamped down to it, and only
// follows a raised maximum when it was exactly at the previous one, so a
// temporary max buff never leaves banked overflow behind.
func (p *Pool) Recompute(newMax int) {
	if newMax < 0 {
		newMax = 0
	}
	atMax := p.Cur == p.Max
	p.Max = newMax
	if atMax || p.Cur > p.Max {
		p.Cur = p.Max
	}
}

// Fill sets current to maximum.
func (p *Pool) Fill() { p.Cur = p.Max }

// Regen flags for one world tick.
type RegenState struct {
	InCombat  bool
	Resting   bool
	Exhausted bool // flee exhaustion
}

// Regen base bonuses per world tick.
const (
	RegenInCombat  = 1
	RegenOutCombat = 3
)

// RegenAmount is base + (1 in combat | 3 out), multiplied by restMult while
// resting out of combat, halved under flee exhaustion, then plus flat
// modifiers from effects.
func RegenAmount(base int, st RegenState, restMult, flat int) int {
	r := base
	if st.InCombat {
		r += RegenInCombat
	} else {
		r += RegenOutCombat
		if st.Resting && restMult > 1 {
			r *= restMult
		}
	}
	if st.Exhausted {
		r /= 2
	}
	return r + flat
}
