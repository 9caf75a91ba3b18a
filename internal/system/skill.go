package system

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/idlecamp/server/internal/combat"
	"github.com/idlecamp/server/internal/combatlog"
	"github.com/idlecamp/server/internal/core/ecs"
	"github.com/idlecamp/server/internal/core/timer"
	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/effect"
	"github.com/idlecamp/server/internal/world"
)

// SkillSystem validates and executes skill use for the player.
type SkillSystem struct {
	deps      *Deps
	castTimer *timer.Handle
}

func NewSkillSystem(d *Deps) *SkillSystem {
	return &SkillSystem{deps: d}
}

// UseSkill runs the full acceptance sequence for skillID. A refused use
// returns a Rejection and a nil error. A data fault returns an error
// wrapping data.ErrIntegrity and leaves the caster untouched.
func (s *SkillSystem) UseSkill(skillID int32) (*Rejection, error) {
	d := s.deps
	st := d.State
	p := st.Player
	now := d.now()

	sk := d.Tables.Skills.Get(skillID)
	if sk == nil {
		return nil, fmt.Errorf("use skill %d: %w", skillID,
			&data.IntegrityError{Kind: "skill", ID: skillID, Err: errors.New("skill not defined")})
	}
	// 資料錯誤先於任何扣除
	prog, err := sk.Program()
	if err != nil {
		d.Log.Error("skill data fault", zap.Int32("skill", skillID), zap.Error(err))
		return nil, fmt.Errorf("use skill %s: %w", sk.Name, err)
	}
	if sk.Category == data.CategoryTeleport {
		if _, _, err := d.Tables.Zones.ResolveCamp(sk.TeleportCamp); err != nil {
			d.Log.Error("teleport destination unresolved", zap.Int32("skill", skillID), zap.Error(err))
			return nil, fmt.Errorf("use skill %s: %w", sk.Name, err)
		}
	}

	if p.Dead {
		return d.reject(skillID, ReasonDead, ""), nil
	}
	if !p.Knows(skillID) {
		return d.reject(skillID, ReasonUnknownSkill, sk.Name), nil
	}
	// 1. crowd control
	if c := p.Control(now); c != effect.ControlNone {
		return d.reject(skillID, ReasonControlled, c.String()), nil
	}
	if st.Casting() {
		return d.reject(skillID, ReasonCasting, ""), nil
	}
	// 2. cooldown and attack gating
	if !p.Ready(skillID, now) {
		return d.reject(skillID, ReasonCooldown, p.Cooldowns[skillID].Sub(now).String()), nil
	}
	if sk.Category == data.CategoryAttack && !p.LastAttack.IsZero() &&
		now.Before(p.LastAttack.Add(p.EffectiveDelay(now))) {
		return d.reject(skillID, ReasonNotReady, ""), nil
	}
	// 3. resources
	if !p.CanAfford(sk.ManaCost, sk.EnduranceCost) {
		return d.reject(skillID, ReasonResources, ""), nil
	}
	// 4. target and range
	var target ecs.EntityID
	if sk.Target == data.TargetEnemy {
		mob := st.LiveMob()
		if mob == nil {
			return d.reject(skillID, ReasonNoTarget, ""), nil
		}
		reach := sk.Range
		if reach <= 0 {
			reach = mob.MeleeRange
		}
		if mob.Distance > reach {
			return d.reject(skillID, ReasonOutOfRange, fmt.Sprintf("%.1f > %.1f", mob.Distance, reach)), nil
		}
		target = mob.ID
	}
	if sk.Category == data.CategoryTeleport && st.Travel.Active() {
		return d.reject(skillID, ReasonTraveling, ""), nil
	}

	// 5. accept: deduct and start the cooldown together
	p.Spend(sk.ManaCost, sk.EnduranceCost)
	p.StartCooldown(skillID, sk.Cooldown(), now)
	p.Dirty = true
	if target != 0 {
		d.Combat.Hostile()
	}

	// 6. cast time
	if sk.CastTime() > 0 {
		c := &world.Cast{SkillID: skillID, Target: target, Started: now, Completes: now.Add(sk.CastTime())}
		st.Cast = c
		s.castTimer = d.Sched.After("cast", sk.CastTime(), func() { s.completeCast(c, sk, prog) })
		d.logf(combatlog.KindSpell, "You begin casting %s.", sk.Name)
		return nil, nil
	}

	// 7. dispatch
	s.dispatch(sk, prog, target)
	return nil, nil
}

// CancelCast aborts a pending cast. Its effect never fires; resources and
// cooldown stay spent.
func (s *SkillSystem) CancelCast(reason string) {
	st := s.deps.State
	if st.Cast == nil {
		return
	}
	s.castTimer.Cancel()
	s.castTimer = nil
	sk := s.deps.Tables.Skills.Get(st.Cast.SkillID)
	st.Cast = nil
	if sk != nil {
		s.deps.logf(combatlog.KindSpell, "Your %s spell is interrupted.", sk.Name)
	}
	s.deps.Log.Debug("cast cancelled", zap.String("reason", reason))
}

func (s *SkillSystem) completeCast(c *world.Cast, sk *data.SkillInfo, prog *effect.Program) {
	st := s.deps.State
	if st.Cast != c {
		return // superseded or cancelled
	}
	st.Cast = nil
	s.castTimer = nil
	if st.Player.Dead {
		return
	}
	if c.Target != 0 {
		mob := st.LiveMob()
		if mob == nil || mob.ID != c.Target {
			s.deps.logf(combatlog.KindSpell, "Your %s spell fizzles: your target is gone.", sk.Name)
			return
		}
	}
	s.dispatch(sk, prog, c.Target)
}

func (s *SkillSystem) dispatch(sk *data.SkillInfo, prog *effect.Program, target ecs.EntityID) {
	switch sk.Category {
	case data.CategoryAttack:
		s.deps.Combat.PlayerAttack()
	case data.CategoryFlee:
		s.flee(sk)
	case data.CategoryTeleport:
		s.deps.logf(combatlog.KindSpell, "You cast %s.", sk.Name)
		s.deps.Travel.Relocate(sk.TeleportCamp, "teleport")
	default:
		s.applyProgram(sk, prog, target)
	}
	s.deps.Combat.Sync()
}

// flee escapes to the bind camp unless the fixed failure roll hits.
func (s *SkillSystem) flee(sk *data.SkillInfo) {
	d := s.deps
	p := d.State.Player
	if combat.Chance(d.Rand, d.Config.Simulation.FleeFailChance) {
		d.logf(combatlog.KindSpell, "You fail to escape!")
		return
	}
	p.FleeExhaustedUntil = d.now().Add(d.Config.Simulation.FleeExhaustion)
	d.logf(combatlog.KindSpell, "You flee to safety. You feel exhausted.")
	d.Travel.Relocate(p.BindCamp, "flee")
}

// applyProgram resolves an ability or spell against its target.
func (s *SkillSystem) applyProgram(sk *data.SkillInfo, prog *effect.Program, targetID ecs.EntityID) {
	d := s.deps
	p := d.State.Player
	now := d.now()

	var (
		tgt *world.Combatant
		mob *world.Mob
	)
	if sk.Target == data.TargetEnemy {
		mob = d.State.LiveMob()
		if mob == nil || mob.ID != targetID {
			return
		}
		tgt = &mob.Combatant
	} else {
		tgt = &p.Combatant
	}

	stats := p.EffectiveStats(now)
	rec := effect.Accumulate(prog, effect.AccumulateInput{
		CasterStats:  stats.Map(),
		CasterCha:    stats.Cha,
		School:       sk.School,
		TargetResist: tgt.Resist(sk.School),
		Rand:         d.Rand,
	})

	if rec.InstantDamage > 0 && mob != nil {
		s.instantDamage(sk, mob, rec.InstantDamage, now)
		if !mob.Alive() {
			d.Death.ResolveMob(mob)
			return
		}
	}
	if rec.InstantHeal > 0 {
		n := tgt.Heal(rec.InstantHeal)
		if mob == nil {
			d.logf(combatlog.KindSpell, "You are healed for %d.", n)
		}
	}
	if rec.InstantMana != 0 {
		tgt.Mana.Add(rec.InstantMana)
	}
	if rec.InstantEndurance != 0 {
		tgt.Endurance.Add(rec.InstantEndurance)
	}
	if rec.ControlResisted {
		if mob != nil {
			d.logf(combatlog.KindSpell, "%s resists your %s spell!", mob.Name, sk.Name)
		} else {
			d.logf(combatlog.KindSpell, "You resist the %s spell!", sk.Name)
		}
	}

	if !rec.Lasting() {
		if prog.Instant() && rec.InstantDamage == 0 && rec.InstantHeal == 0 {
			d.logf(combatlog.KindSpell, "You use %s.", sk.Name)
		}
		return
	}
	if rec.ControlResisted && onlyControl(prog) {
		return
	}
	_, old := tgt.Effects.Apply(now, sk.SkillID, rec, sk.FadeMessage)
	if old != nil {
		d.Log.Debug("effect refreshed", zap.Int32("skill", sk.SkillID), zap.String("target", tgt.Name))
	}
	if mob != nil {
		d.logf(combatlog.KindSpell, "%s is affected by %s.", mob.Name, sk.Name)
	} else {
		d.logf(combatlog.KindSpell, "You are affected by %s.", sk.Name)
		RecomputeVitals(d, p, now)
	}
}

func (s *SkillSystem) instantDamage(sk *data.SkillInfo, mob *world.Mob, amount int, now time.Time) {
	d := s.deps
	p := d.State.Player
	if !sk.Spell() {
		// physical abilities roll to hit like a swing
		switch combat.ResolveHit(d.Rand, p.Level, mob.Level, mob.EffectiveStats(now).Agi) {
		case combat.OutcomeMiss:
			d.logf(combatlog.KindMiss, "Your %s misses %s.", sk.Name, mob.Name)
			return
		case combat.OutcomeDodge:
			d.logf(combatlog.KindMiss, "%s dodges your %s.", mob.Name, sk.Name)
			return
		}
	}
	mitigation := mob.EffectiveArmor(now)
	if sk.Spell() {
		mitigation = mob.Resist(sk.School)
	}
	res := combat.FinalDamage(d.Rand, combat.DamageInput{
		Base:            amount,
		Spell:           sk.Spell(),
		Mitigation:      mitigation,
		LevelMultiplier: combat.LevelDamageMultiplier(p.Level, mob.Level),
		CritChance:      combat.CritChance(p.EffectiveStats(now).Dex, p.Level-mob.Level),
	})
	hit := mob.TakeDamage(res.Damage)
	d.logf(combatlog.KindSpell, "Your %s hits %s for %d points of damage.", sk.Name, mob.Name, hit.Lost)
	d.logBroken(hit.MezBroken)
}

// onlyControl reports whether every lasting line of prog is crowd control,
// so a resisted cast leaves nothing to install.
func onlyControl(prog *effect.Program) bool {
	for _, e := range prog.Effects {
		if _, ok := e.(effect.CrowdControlEffect); !ok {
			return false
		}
	}
	return true
}
