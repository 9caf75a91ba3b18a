package effect

import (
	"time"

	"github.com/idlecamp/server/internal/combat"
)

// Record is the normalized runtime descriptor produced from a Program for one
// cast. Instant programs fill the Instant* fields; duration programs fill the
// periodic and lasting fields.
type Record struct {
	Duration     time.Duration
	TickInterval time.Duration
	School       string // periodic damage is resisted against it

	InstantDamage    int
	InstantHeal      int
	InstantMana      int
	InstantEndurance int

	PeriodicDamage   int
	PeriodicHeal     int
	ManaPerTick      int
	EndurancePerTick int

	StatMods     map[Stat]int
	Shield       int
	Control      Control
	MoveSpeedPct int

	// ControlResisted is set when a stun/mez line was dropped by the resist check.
	ControlResisted bool
}

// Lasting reports whether the record needs to be installed on the target.
func (r *Record) Lasting() bool { return r.Duration > 0 }

// AccumulateInput carries caster and target context for one cast.
type AccumulateInput struct {
	CasterStats  map[Stat]int // scaling lookups
	CasterCha    int
	School       string
	TargetResist int // target resistance (percent) against School
	Rand         combat.Rand
}

// CharismaBoost is the periodic damage/heal multiplier: 1 + cha/10/100.
func CharismaBoost(cha int) float64 {
	return 1 + float64(cha)/10/100
}

// ControlResisted rolls the crowd-control resist check. Resistance only
// applies when the skill has a school; caster charisma lowers it by cha/10.
func ControlResisted(r combat.Rand, school string, targetResist, casterCha int) bool {
	if school == "" {
		return false
	}
	effective := targetResist - casterCha/10
	if effective <= 0 {
		return false
	}
	return combat.Chance(r, float64(effective)/100)
}

// Accumulate folds a compiled program into a Record for one cast.
func Accumulate(p *Program, in AccumulateInput) Record {
	rec := Record{Duration: p.Duration, TickInterval: p.TickInterval, School: in.School}
	lasting := p.Duration > 0
	boost := CharismaBoost(in.CasterCha)

	controlChecked := false
	controlOK := true
	for _, e := range p.Effects {
		switch v := e.(type) {
		case DamageEffect:
			amt := scaled(v.Amount, v.Scaling, in.CasterStats)
			if lasting {
				rec.PeriodicDamage += int(float64(amt) * boost)
			} else {
				rec.InstantDamage += amt
			}
		case HealEffect:
			amt := scaled(v.Amount, v.Scaling, in.CasterStats)
			if lasting {
				rec.PeriodicHeal += int(float64(amt) * boost)
			} else {
				rec.InstantHeal += amt
			}
		case ResourceEffect:
			amt := scaled(v.Amount, v.Scaling, in.CasterStats)
			switch {
			case v.Resource == ResourceMana && lasting:
				rec.ManaPerTick += amt
			case v.Resource == ResourceMana:
				rec.InstantMana += amt
			case lasting:
				rec.EndurancePerTick += amt
			default:
				rec.InstantEndurance += amt
			}
		case StatModifierEffect:
			if rec.StatMods == nil {
				rec.StatMods = make(map[Stat]int)
			}
			rec.StatMods[v.Stat] += v.Amount
		case ShieldEffect:
			rec.Shield += scaled(v.Amount, v.Scaling, in.CasterStats)
		case MovementEffect:
			rec.MoveSpeedPct += v.Percent
		case CrowdControlEffect:
			if !controlChecked {
				controlChecked = true
				if in.Rand != nil && ControlResisted(in.Rand, in.School, in.TargetResist, in.CasterCha) {
					controlOK = false
					rec.ControlResisted = true
				}
			}
			if controlOK && v.Control > rec.Control {
				rec.Control = v.Control
			}
		}
	}
	return rec
}

// scaled adds a tenth of the scaling stat to base.
func scaled(base int, stat Stat, stats map[Stat]int) int {
	if stat == "" || stats == nil {
		return base
	}
	return base + stats[stat]/10
}
