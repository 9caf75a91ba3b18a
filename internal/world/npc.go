package world

import (
	"time"

	"github.com/idlecamp/server/internal/core/ecs"
	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/effect"
)

// Lifecycle is a mob instance's death state. Transitions only move forward.
type Lifecycle int

const (
	MobAlive Lifecycle = iota
	MobDying
	MobDead
)

func (l Lifecycle) String() string {
	switch l {
	case MobAlive:
		return "alive"
	case MobDying:
		return "dying"
	case MobDead:
		return "dead"
	}
	return "unknown"
}

// Mob holds runtime data for the single mob a session is fighting.
// Accessed only from the session goroutine.
type Mob struct {
	Combatant
	ID          ecs.EntityID
	TemplateID  int32
	AggroRange  float64
	MeleeRange  float64
	MoveSpeed   float64 // distance per second
	LootTableID int32
	BaseExp     int
	Hostile     bool
	LevelMin    int
	LevelMax    int

	Distance     float64 // to the player
	Life         Lifecycle
	AggroChecked bool // aggro-on-spawn already evaluated
	SpawnedAt    time.Time
	Ambusher     bool // spawned by a travel ambush
}

// NewMob instantiates a template at level (clamped to the template range)
// and distance. HP and damage scale with level relative to the template.
func NewMob(id ecs.EntityID, t *data.MobTemplate, level int, distance float64, now time.Time) *Mob {
	lo, hi := t.LevelMin, t.LevelMax
	if lo == 0 {
		lo = t.Level
	}
	if hi == 0 {
		hi = t.Level
	}
	level = min(max(level, lo), hi)
	scale := 1.0
	if t.Level > 0 {
		scale = float64(level) / float64(t.Level)
	}
	hp := max(1, int(float64(t.HP)*scale))

	return &Mob{
		Combatant: Combatant{
			Name:        t.Name,
			Level:       level,
			HP:          Pool{Cur: hp, Max: hp},
			Mana:        Pool{Cur: t.Mana, Max: t.Mana},
			Stats:       t.Stats,
			Armor:       t.Armor,
			Resists:     t.Resists,
			AttackDelay: time.Duration(t.AttackDelayMS) * time.Millisecond,
			DamageMin:   t.DamageMin,
			DamageMax:   max(t.DamageMin, int(float64(t.DamageMax)*scale)),
			Effects:     effect.NewTracker(),
		},
		ID:          id,
		TemplateID:  t.MobID,
		AggroRange:  t.AggroRange,
		MeleeRange:  t.MeleeRange,
		MoveSpeed:   t.MoveSpeed,
		LootTableID: t.LootTableID,
		BaseExp:     t.BaseExp,
		Hostile:     t.Hostile,
		LevelMin:    lo,
		LevelMax:    hi,
		Distance:    distance,
		SpawnedAt:   now,
	}
}

// InMelee reports whether the mob is within its melee range.
func (m *Mob) InMelee() bool { return m.Distance <= m.MeleeRange }

// BeginDeath moves Alive → Dying. It returns false if death resolution has
// already started for this instance.
func (m *Mob) BeginDeath() bool {
	if m.Life != MobAlive {
		return false
	}
	m.Life = MobDying
	return true
}

// FinishDeath moves Dying → Dead.
func (m *Mob) FinishDeath() {
	if m.Life == MobDying {
		m.Life = MobDead
	}
}

// EffectiveSpeed is move speed after movement effects (roots bottom out at 0).
func (m *Mob) EffectiveSpeed(now time.Time) float64 {
	pct := m.Effects.MoveSpeedPct(now)
	return max(0, m.MoveSpeed*float64(100+pct)/100)
}
