package combat

import "math"

// Outcome of the hit roll sequence.
type Outcome int

const (
	OutcomeHit Outcome = iota
	OutcomeMiss
	OutcomeDodge
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeDodge:
		return "dodge"
	}
	return "unknown"
}

// Chance bounds.
const (
	baseHitChance = 0.90
	minHitChance  = 0.05
	maxHitChance  = 0.98
	maxDodge      = 0.5
	baseCrit      = 0.05
	maxCritGap    = 5

	// DefaultCritMultiplier doubles damage on a crit.
	DefaultCritMultiplier = 2.0
)

// HitChance returns the chance for attacker to land a hit on defender.
// 3%/level penalty when the defender is higher, 1%/level bonus when the attacker is higher.
func HitChance(attackerLevel, defenderLevel int) float64 {
	gap := defenderLevel - attackerLevel
	chance := baseHitChance
	if gap > 0 {
		chance -= 0.03 * float64(gap)
	} else if gap < 0 {
		chance += 0.01 * float64(-gap)
	}
	return clamp(chance, minHitChance, maxHitChance)
}

// DodgeChance returns min(0.5, agi/1000) shifted 1%/level toward the higher-level side.
func DodgeChance(attackerLevel, defenderLevel, defenderAgi int) float64 {
	chance := math.Min(maxDodge, float64(defenderAgi)/1000)
	chance += 0.01 * float64(defenderLevel-attackerLevel)
	return clamp(chance, 0, maxDodge)
}

// ResolveHit rolls hit, then dodge only when the hit roll lands.
func ResolveHit(r Rand, attackerLevel, defenderLevel, defenderAgi int) Outcome {
	if !Chance(r, HitChance(attackerLevel, defenderLevel)) {
		return OutcomeMiss
	}
	if Chance(r, DodgeChance(attackerLevel, defenderLevel, defenderAgi)) {
		return OutcomeDodge
	}
	return OutcomeHit
}

// CritChance is 5% + dex/1000, shifted 1%/level of gap (attacker minus defender)
// with the gap contribution capped at ±5%.
func CritChance(attackerDex, levelGap int) float64 {
	if levelGap > maxCritGap {
		levelGap = maxCritGap
	} else if levelGap < -maxCritGap {
		levelGap = -maxCritGap
	}
	chance := baseCrit + float64(attackerDex)/1000 + 0.01*float64(levelGap)
	return clamp(chance, 0, 1)
}

// LevelDamageMultiplier scales damage by level gap.
//
//	attacker <= defender: -2%/level, floored at 0.5
//	attacker >  defender: +2%/level for the first 10 levels, +8%/level beyond, capped at 5x
func LevelDamageMultiplier(attackerLevel, defenderLevel int) float64 {
	gap := attackerLevel - defenderLevel
	if gap <= 0 {
		return math.Max(0.5, 1+0.02*float64(gap))
	}
	low := gap
	if low > 10 {
		low = 10
	}
	high := gap - 10
	if high < 0 {
		high = 0
	}
	return math.Min(5.0, 1+0.02*float64(low)+0.08*float64(high))
}

// DamageInput is everything FinalDamage needs; no actor references.
type DamageInput struct {
	Base            int
	Spell           bool
	Mitigation      int // armor for physical, resist percent for spells
	LevelMultiplier float64
	CritChance      float64
	CritMultiplier  float64 // 0 means DefaultCritMultiplier
}

// DamageResult is the outcome of FinalDamage.
type DamageResult struct {
	Damage    int
	Crit      bool
	Mitigated int
}

// FinalDamage applies the level multiplier, rolls a crit, then mitigates.
// Physical damage loses min(damage-1, armor/10) and never drops below 1;
// spell damage loses floor(damage*resist/100) and never drops below 0.
func FinalDamage(r Rand, in DamageInput) DamageResult {
	mult := in.LevelMultiplier
	if mult <= 0 {
		mult = 1
	}
	dmg := int(math.Floor(float64(in.Base) * mult))
	if dmg < 0 {
		dmg = 0
	}

	var res DamageResult
	if Chance(r, in.CritChance) {
		cm := in.CritMultiplier
		if cm <= 0 {
			cm = DefaultCritMultiplier
		}
		dmg = int(math.Floor(float64(dmg) * cm))
		res.Crit = true
	}

	if in.Spell {
		resist := in.Mitigation
		if resist < 0 {
			resist = 0
		} else if resist > 100 {
			resist = 100
		}
		res.Mitigated = dmg * resist / 100
		dmg -= res.Mitigated
		if dmg < 0 {
			dmg = 0
		}
	} else {
		reduce := in.Mitigation / 10
		if reduce > dmg-1 {
			reduce = dmg - 1
		}
		if reduce < 0 {
			reduce = 0
		}
		res.Mitigated = reduce
		dmg -= reduce
		if dmg < 1 {
			dmg = 1
		}
	}
	res.Damage = dmg
	return res
}

// RollBase rolls a base damage value in [min, max].
func RollBase(r Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + r.IntN(max-min+1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
