package system

import (
	"time"

	"github.com/idlecamp/server/internal/combatlog"
	coresys "github.com/idlecamp/server/internal/core/system"
	"github.com/idlecamp/server/internal/world"
)

// EffectTickSystem advances active effects on the player and the current mob.
// Phase 1 (Effects): periodic payouts, one combined resource delta, expiry.
type EffectTickSystem struct {
	deps *Deps
}

func NewEffectTickSystem(d *Deps) *EffectTickSystem {
	return &EffectTickSystem{deps: d}
}

func (s *EffectTickSystem) Phase() coresys.Phase { return coresys.PhaseEffects }

func (s *EffectTickSystem) Update(_ time.Duration) {
	now := s.deps.now()
	if p := s.deps.State.Player; p != nil && !p.Dead {
		s.tickPlayer(p, now)
	}
	if m := s.deps.State.LiveMob(); m != nil {
		s.tickMob(m, now)
	}
}

func (s *EffectTickSystem) tickPlayer(p *world.Player, now time.Time) {
	res := p.Effects.TickAgainst(now, p.Resist)
	if res.Damage > 0 {
		hit := p.TakeDamage(res.Damage)
		s.deps.logf(combatlog.KindEffect, "You take %d damage.", hit.Lost)
		s.deps.logBroken(hit.MezBroken)
	}
	if res.Heal > 0 {
		if n := p.Heal(res.Heal); n > 0 {
			s.deps.logf(combatlog.KindEffect, "You are healed for %d.", n)
		}
	}
	if res.Mana != 0 {
		p.Mana.Add(res.Mana)
	}
	if res.Endurance != 0 {
		p.Endurance.Add(res.Endurance)
	}
	s.deps.logFades(res.Expired)

	if !p.Alive() {
		s.deps.Death.KillPlayer("lingering effects")
		return
	}
	if len(res.Expired) > 0 {
		// expired modifiers may shrink max vitals or change attack delay
		RecomputeVitals(s.deps, p, now)
		s.deps.Combat.Sync()
	}
}

func (s *EffectTickSystem) tickMob(m *world.Mob, now time.Time) {
	res := m.Effects.TickAgainst(now, m.Resist)
	if res.Damage > 0 {
		hit := m.TakeDamage(res.Damage)
		s.deps.logf(combatlog.KindEffect, "%s takes %d damage.", m.Name, hit.Lost)
		s.deps.logBroken(hit.MezBroken)
	}
	if res.Heal > 0 {
		m.Heal(res.Heal)
	}
	if res.Mana != 0 {
		m.Mana.Add(res.Mana)
	}
	if res.Endurance != 0 {
		m.Endurance.Add(res.Endurance)
	}
	s.deps.logFades(res.Expired)

	// Life guard inside ResolveMob keeps this to one resolution per instance.
	if !m.Alive() {
		s.deps.Death.ResolveMob(m)
		return
	}
	if len(res.Expired) > 0 {
		s.deps.Combat.Sync()
	}
}
