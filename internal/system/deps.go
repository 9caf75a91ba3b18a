package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/idlecamp/server/internal/combat"
	"github.com/idlecamp/server/internal/combatlog"
	"github.com/idlecamp/server/internal/config"
	"github.com/idlecamp/server/internal/core/event"
	coresys "github.com/idlecamp/server/internal/core/system"
	"github.com/idlecamp/server/internal/core/timer"
	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/effect"
	"github.com/idlecamp/server/internal/scripting"
	"github.com/idlecamp/server/internal/world"
)

// Formulas are the tunable curves kept in Lua. *scripting.Engine implements it.
type Formulas interface {
	ExpForLevel(level int) int64
	LevelFromExp(exp int64) int
	DeathExpPenalty(level int, exp int64) int64
	MaxVitals(ctx scripting.VitalsContext) scripting.Vitals
}

// Deps bundles everything the session systems share. Cross-system pointers
// are filled in by Wire after construction.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	State    *world.State
	Tables   *data.Tables
	Formulas Formulas
	Sched    *timer.Scheduler
	Bus      *event.Bus
	Rand     combat.Rand
	Journal  *combatlog.Log

	Combat *CombatController
	Death  *DeathSystem
	Skill  *SkillSystem
	Spawn  *SpawnSystem
	Travel *TravelSystem
}

// Systems is the full set built by Wire, in registration order for the runner.
type Systems struct {
	Events      *EventDispatchSystem
	Effects     *EffectTickSystem
	AI          *NpcAISystem
	Regen       *RegenSystem
	Persistence *PersistenceSystem
	Cleanup     *CleanupSystem
}

// Wire builds every system over d and links the cross references.
func Wire(d *Deps, saver Saver) *Systems {
	d.Combat = NewCombatController(d)
	d.Death = NewDeathSystem(d)
	d.Skill = NewSkillSystem(d)
	d.Spawn = NewSpawnSystem(d)
	d.Travel = NewTravelSystem(d)

	saveTicks := int(d.Config.Persistence.SaveInterval / d.Config.Simulation.TickRate)
	return &Systems{
		Events:      NewEventDispatchSystem(d.Bus),
		Effects:     NewEffectTickSystem(d),
		AI:          NewNpcAISystem(d),
		Regen:       NewRegenSystem(d),
		Persistence: NewPersistenceSystem(d, saveTicks, saver),
		Cleanup:     NewCleanupSystem(d),
	}
}

// Register adds every system to r.
func (s *Systems) Register(r *coresys.Runner) {
	r.Register(s.Events)
	r.Register(s.Effects)
	r.Register(s.AI)
	r.Register(s.Regen)
	r.Register(s.Persistence)
	r.Register(s.Cleanup)
}

func (d *Deps) now() time.Time { return d.Sched.Now() }

// logf appends one line to the combat log.
func (d *Deps) logf(kind combatlog.Kind, format string, args ...any) {
	if d.Journal == nil {
		return
	}
	d.Journal.Addf(d.now(), kind, format, args...)
}

func (d *Deps) logFades(expired []*effect.Active) {
	for _, a := range expired {
		if a.FadeMessage != "" {
			d.logf(combatlog.KindEffect, "%s", a.FadeMessage)
		}
	}
}

// logBroken reports mesmerize effects removed by damage.
func (d *Deps) logBroken(broken []*effect.Active) {
	for _, a := range broken {
		msg := a.FadeMessage
		if msg == "" {
			msg = "The mesmerize effect breaks."
		}
		d.logf(combatlog.KindEffect, "%s", msg)
	}
}

// Reason is why an action was refused.
type Reason string

const (
	ReasonDead         Reason = "dead"
	ReasonUnknownSkill Reason = "unknown_skill"
	ReasonControlled   Reason = "controlled"
	ReasonCasting      Reason = "casting"
	ReasonCooldown     Reason = "cooldown"
	ReasonNotReady     Reason = "attack_not_ready"
	ReasonResources    Reason = "insufficient_resources"
	ReasonNoTarget     Reason = "no_target"
	ReasonOutOfRange   Reason = "out_of_range"
	ReasonTraveling    Reason = "traveling"
	ReasonInCombat     Reason = "in_combat"
	ReasonSameCamp     Reason = "same_camp"
	ReasonNotEquipable Reason = "not_equipable"
)

// Rejection is a refused player action. It is a normal outcome, not an error.
type Rejection struct {
	SkillID int32
	Reason  Reason
	Detail  string
}

func (r *Rejection) String() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

var rejectText = map[Reason]string{
	ReasonDead:         "You are dead.",
	ReasonUnknownSkill: "You do not know that skill.",
	ReasonControlled:   "You can't do that right now.",
	ReasonCasting:      "You are already casting.",
	ReasonCooldown:     "You can't use that again yet.",
	ReasonNotReady:     "You are not ready to attack.",
	ReasonResources:    "You don't have enough mana or endurance.",
	ReasonNoTarget:     "You have no target.",
	ReasonOutOfRange:   "Your target is out of range.",
	ReasonTraveling:    "You are traveling.",
	ReasonInCombat:     "You can't do that while in combat.",
	ReasonSameCamp:     "You are already there.",
	ReasonNotEquipable: "You can't equip that.",
}

// reject logs r to the combat log and returns it.
func (d *Deps) reject(skillID int32, reason Reason, detail string) *Rejection {
	r := &Rejection{SkillID: skillID, Reason: reason, Detail: detail}
	d.logf(combatlog.KindReject, "%s", rejectText[reason])
	d.Log.Debug("action rejected", zap.Int32("skill", skillID), zap.String("reason", string(reason)), zap.String("detail", detail))
	return r
}

// modOr1 treats an unset (zero) multiplier as neutral.
func modOr1(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
