package system

import (
	"time"

	coresys "github.com/idlecamp/server/internal/core/system"
	"github.com/idlecamp/server/internal/effect"
	"github.com/idlecamp/server/internal/world"
)

// RegenSystem restores the player's HP, mana and endurance once per world
// tick. Runs after EffectTickSystem so regen sees post-effect vitals.
type RegenSystem struct {
	deps *Deps
}

func NewRegenSystem(d *Deps) *RegenSystem {
	return &RegenSystem{deps: d}
}

func (s *RegenSystem) Phase() coresys.Phase { return coresys.PhaseRegen }

func (s *RegenSystem) Update(_ time.Duration) {
	p := s.deps.State.Player
	if p == nil || p.Dead || !p.Alive() {
		return
	}
	now := s.deps.now()
	st := world.RegenState{
		InCombat:  s.deps.State.Combat == world.InCombat,
		Resting:   p.Resting,
		Exhausted: p.Exhausted(now),
	}
	mult := s.deps.Config.Simulation.RestMultiplier
	fx := p.Effects

	p.HP.Add(world.RegenAmount(p.HPRegen, st, mult, fx.Stat(now, effect.StatHPRegen)))
	// 無法力職業不回魔
	if p.Mana.Max > 0 {
		p.Mana.Add(world.RegenAmount(p.ManaRegen, st, mult, fx.Stat(now, effect.StatManaRegen)))
	}
	if p.Endurance.Max > 0 {
		p.Endurance.Add(world.RegenAmount(p.EnduranceRegen, st, mult, fx.Stat(now, effect.StatEnduranceRegen)))
	}
}
