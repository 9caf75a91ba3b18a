package world

import (
	"time"

	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/effect"
)

// minAttackDelay bounds haste stacking.
const minAttackDelay = 200 * time.Millisecond

// Gear is the flat contribution of worn equipment.
type Gear struct {
	Stats       data.Stats
	HP          int
	Mana        int
	Endurance   int
	Armor       int
	DamageBonus int
	AttackDelay time.Duration // weapon delay; 0 = use base
}

// Combatant is the part of an actor the combat formulas read. Player and Mob
// embed it.
type Combatant struct {
	Name      string
	Level     int
	HP        Pool
	Mana      Pool
	Endurance Pool

	Stats       data.Stats // base, before gear and effects
	Armor       int
	Resists     map[string]int
	AttackDelay time.Duration
	DamageMin   int
	DamageMax   int
	Gear        Gear

	Effects *effect.Tracker
}

// Alive reports whether HP is above zero.
func (c *Combatant) Alive() bool { return c.HP.Cur > 0 }

// EffectiveStats returns base + gear + active effect modifiers.
func (c *Combatant) EffectiveStats(now time.Time) data.Stats {
	base := data.Stats{
		Str: c.Stats.Str + c.Gear.Stats.Str,
		Sta: c.Stats.Sta + c.Gear.Stats.Sta,
		Agi: c.Stats.Agi + c.Gear.Stats.Agi,
		Dex: c.Stats.Dex + c.Gear.Stats.Dex,
		Int: c.Stats.Int + c.Gear.Stats.Int,
		Wis: c.Stats.Wis + c.Gear.Stats.Wis,
		Cha: c.Stats.Cha + c.Gear.Stats.Cha,
	}
	return base.Plus(c.Effects.StatModifiers(now))
}

// EffectiveArmor returns armor including gear and effects, never negative.
func (c *Combatant) EffectiveArmor(now time.Time) int {
	return max(0, c.Armor+c.Gear.Armor+c.Effects.Stat(now, effect.StatArmor))
}

// Resist returns the resistance percent against school.
func (c *Combatant) Resist(school string) int {
	if school == "" {
		return 0
	}
	return c.Resists[school]
}

// DamageBonus returns flat damage added to every landed hit.
func (c *Combatant) DamageBonus(now time.Time) int {
	return c.Gear.DamageBonus + c.Effects.Stat(now, effect.StatDamageBonus)
}

// EffectiveDelay is the current attack delay after haste (positive
// attack_speed) or slow (negative).
func (c *Combatant) EffectiveDelay(now time.Time) time.Duration {
	d := c.AttackDelay
	if c.Gear.AttackDelay > 0 {
		d = c.Gear.AttackDelay
	}
	pct := c.Effects.Stat(now, effect.StatAttackSpeed)
	if pct < -90 {
		pct = -90
	}
	d = d * 100 / time.Duration(100+pct)
	return max(d, minAttackDelay)
}

// Control returns the current crowd-control state.
func (c *Combatant) Control(now time.Time) effect.Control {
	return c.Effects.Control(now)
}

// Hit is the outcome of TakeDamage.
type Hit struct {
	Lost      int
	Absorbed  int
	MezBroken []*effect.Active
}

// TakeDamage runs dmg through shields then HP. Mesmerize breaks on any
// damage that lands; stuns and casts do not.
func (c *Combatant) TakeDamage(dmg int) Hit {
	if dmg <= 0 {
		return Hit{}
	}
	left, absorbed := c.Effects.Absorb(dmg)
	return Hit{
		Lost:      -c.HP.Add(-left),
		Absorbed:  absorbed,
		MezBroken: c.Effects.BreakMez(),
	}
}

// Heal restores HP and returns the amount gained.
func (c *Combatant) Heal(n int) int {
	if n <= 0 || !c.Alive() {
		return 0
	}
	return c.HP.Add(n)
}

// CanAfford reports whether both costs are covered.
func (c *Combatant) CanAfford(mana, endurance int) bool {
	return c.Mana.Cur >= mana && c.Endurance.Cur >= endurance
}

// Spend deducts both costs together or neither.
func (c *Combatant) Spend(mana, endurance int) bool {
	if !c.CanAfford(mana, endurance) {
		return false
	}
	c.Mana.Cur -= mana
	c.Endurance.Cur -= endurance
	return true
}
