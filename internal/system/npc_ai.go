package system

import (
	"time"

	"github.com/idlecamp/server/internal/combatlog"
	coresys "github.com/idlecamp/server/internal/core/system"
	"github.com/idlecamp/server/internal/effect"
)

// NpcAISystem runs the active mob's per-tick behavior: the one-time aggro
// check after spawning and closing distance toward the player. Phase 2 (AI).
type NpcAISystem struct {
	deps *Deps
}

func NewNpcAISystem(d *Deps) *NpcAISystem {
	return &NpcAISystem{deps: d}
}

func (s *NpcAISystem) Phase() coresys.Phase { return coresys.PhaseAI }

func (s *NpcAISystem) Update(dt time.Duration) {
	d := s.deps
	m := d.State.LiveMob()
	if m == nil || d.State.Player.Dead {
		return
	}
	now := d.now()

	// 仇恨只在生成後判定一次
	if !m.AggroChecked {
		m.AggroChecked = true
		if m.Hostile && m.Distance <= m.AggroRange {
			d.logf(combatlog.KindSystem, "%s notices you!", m.Name)
			d.Combat.Hostile()
		}
	}

	if m.Control(now) != effect.ControlNone {
		d.Combat.Sync()
		return
	}
	if !m.InMelee() {
		step := m.EffectiveSpeed(now) * dt.Seconds()
		m.Distance = max(m.MeleeRange, m.Distance-step)
		if m.InMelee() && m.Hostile {
			d.Combat.Hostile()
		}
	}
	d.Combat.Sync()
}
