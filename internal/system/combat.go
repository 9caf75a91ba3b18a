package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/idlecamp/server/internal/combat"
	"github.com/idlecamp/server/internal/combatlog"
	"github.com/idlecamp/server/internal/core/ecs"
	"github.com/idlecamp/server/internal/core/timer"
	"github.com/idlecamp/server/internal/effect"
	"github.com/idlecamp/server/internal/world"
)

// CombatController owns the in/out-of-combat state machine and the two
// autonomous loops: the player's auto-action loop and the mob's retaliation
// loop. Both loops are scheduler timers and re-read state on every firing.
type CombatController struct {
	deps *Deps

	timeout *timer.Handle

	playerLoop  *timer.Handle
	playerDelay time.Duration

	mobLoop  *timer.Handle
	mobDelay time.Duration
	mobID    ecs.EntityID
}

func NewCombatController(d *Deps) *CombatController {
	return &CombatController{deps: d}
}

// ==================== 戰鬥狀態 ====================

// Hostile records a hostile action by either side. It enters combat if
// needed and re-arms the exit timeout.
func (c *CombatController) Hostile() {
	st := c.deps.State
	now := c.deps.now()
	if st.MarkHostile(now) {
		c.deps.logf(combatlog.KindSystem, "You are now in combat.")
	}
	c.timeout.Cancel()
	c.timeout = c.deps.Sched.After("combat_timeout", c.deps.Config.Simulation.CombatTimeout, c.checkTimeout)
}

func (c *CombatController) checkTimeout() {
	if c.deps.State.CombatExpired(c.deps.now(), c.deps.Config.Simulation.CombatTimeout) {
		c.Exit()
	}
}

// Exit leaves combat: the retaliation loop stops and any pending cast is
// cancelled. The player loop keeps running if auto-attack still wants it.
func (c *CombatController) Exit() {
	st := c.deps.State
	c.timeout.Cancel()
	c.timeout = nil
	if st.Combat == world.OutOfCombat {
		return
	}
	st.Combat = world.OutOfCombat
	c.deps.Skill.CancelCast("combat ended")
	c.deps.logf(combatlog.KindSystem, "You are no longer in combat.")
	c.Sync()
}

// Stop cancels both loops and leaves combat. Used on death, travel and camp change.
func (c *CombatController) Stop() {
	c.stopPlayerLoop()
	c.stopMobLoop()
	c.timeout.Cancel()
	c.timeout = nil
	c.deps.State.Combat = world.OutOfCombat
}

// ==================== 自動循環 ====================

// Sync starts, stops or restarts the loops to match current state. A loop
// whose interval no longer matches the combatant's current delay is restarted.
func (c *CombatController) Sync() {
	st := c.deps.State
	p := st.Player
	mob := st.LiveMob()
	now := c.deps.now()

	if p != nil && !p.Dead && p.AutoAttack && mob != nil && !st.Travel.Active() {
		delay := p.EffectiveDelay(now)
		if !c.playerLoop.Active() || delay != c.playerDelay {
			c.startPlayerLoop(p, delay, now)
		}
	} else {
		c.stopPlayerLoop()
	}

	if p != nil && !p.Dead && mob != nil && st.Combat == world.InCombat && mob.InMelee() {
		delay := mob.EffectiveDelay(now)
		if !c.mobLoop.Active() || delay != c.mobDelay || mob.ID != c.mobID {
			c.startMobLoop(mob, delay)
		}
	} else {
		c.stopMobLoop()
	}
}

func (c *CombatController) startPlayerLoop(p *world.Player, delay time.Duration, now time.Time) {
	c.playerLoop.Cancel()
	first := now
	if !p.LastAttack.IsZero() {
		if next := p.LastAttack.Add(delay); next.After(now) {
			first = next
		}
	}
	c.playerDelay = delay
	c.playerLoop = c.deps.Sched.EveryFrom("player_loop", first, delay, c.playerTurn)
}

func (c *CombatController) stopPlayerLoop() {
	c.playerLoop.Cancel()
	c.playerLoop = nil
	c.playerDelay = 0
}

func (c *CombatController) startMobLoop(m *world.Mob, delay time.Duration) {
	c.mobLoop.Cancel()
	c.mobDelay = delay
	c.mobID = m.ID
	c.mobLoop = c.deps.Sched.Every("mob_loop", delay, c.mobTurn)
}

func (c *CombatController) stopMobLoop() {
	c.mobLoop.Cancel()
	c.mobLoop = nil
	c.mobDelay = 0
	c.mobID = ecs.EntityID(0)
}

// PlayerLoopDelay returns the running player loop interval, 0 if stopped.
func (c *CombatController) PlayerLoopDelay() time.Duration {
	if !c.playerLoop.Active() {
		return 0
	}
	return c.playerDelay
}

// MobLoopActive reports whether the retaliation loop is running.
func (c *CombatController) MobLoopActive() bool { return c.mobLoop.Active() }

// playerTurn fires the configured ability slots in order, then the base attack.
func (c *CombatController) playerTurn() {
	st := c.deps.State
	p := st.Player
	mob := st.LiveMob()
	now := c.deps.now()
	if p == nil || p.Dead || mob == nil || !p.AutoAttack {
		c.Sync()
		return
	}
	if p.Control(now) != effect.ControlNone || st.Casting() {
		return
	}
	if !mob.InMelee() {
		// pull: engaging draws the mob in even if it is not hostile
		c.Hostile()
		c.Sync()
		return
	}

	// A slot kill may respawn a mob at camp distance; the rest of this
	// turn belongs to the mob it started on.
	same := func() bool { return st.LiveMob() == mob && !st.Casting() && !p.Dead }
	for _, id := range p.Slots {
		if !same() {
			break
		}
		if !c.slotUsable(p, id, now) {
			continue
		}
		if _, err := c.deps.Skill.UseSkill(id); err != nil {
			c.deps.Log.Warn("auto slot failed", zap.Int32("skill", id), zap.Error(err))
		}
	}
	if !same() || !mob.InMelee() {
		c.Sync()
		return
	}
	c.PlayerAttack()
	c.Sync()
}

// slotUsable checks the cheap preconditions quietly so the auto loop does
// not flood the log with rejections.
func (c *CombatController) slotUsable(p *world.Player, id int32, now time.Time) bool {
	sk := c.deps.Tables.Skills.Get(id)
	if sk == nil || !p.Knows(id) || !p.Ready(id, now) {
		return false
	}
	return p.CanAfford(sk.ManaCost, sk.EnduranceCost)
}

// PlayerAttack performs one base melee swing at the current mob. The caller
// has already passed attack gating.
func (c *CombatController) PlayerAttack() {
	st := c.deps.State
	p := st.Player
	mob := st.LiveMob()
	if mob == nil || !mob.InMelee() {
		return
	}
	now := c.deps.now()
	p.LastAttack = now
	c.Hostile()

	pStats := p.EffectiveStats(now)
	mStats := mob.EffectiveStats(now)
	switch combat.ResolveHit(c.deps.Rand, p.Level, mob.Level, mStats.Agi) {
	case combat.OutcomeMiss:
		c.deps.logf(combatlog.KindMiss, "You try to hit %s, but miss!", mob.Name)
		return
	case combat.OutcomeDodge:
		c.deps.logf(combatlog.KindMiss, "%s dodges your attack!", mob.Name)
		return
	}

	base := combat.RollBase(c.deps.Rand, p.DamageMin, p.DamageMax) + p.DamageBonus(now)
	res := combat.FinalDamage(c.deps.Rand, combat.DamageInput{
		Base:            base,
		Mitigation:      mob.EffectiveArmor(now),
		LevelMultiplier: combat.LevelDamageMultiplier(p.Level, mob.Level),
		CritChance:      combat.CritChance(pStats.Dex, p.Level-mob.Level),
	})
	hit := mob.TakeDamage(res.Damage)
	if res.Crit {
		c.deps.logf(combatlog.KindHit, "You score a critical hit! (%d)", res.Damage)
	}
	c.deps.logf(combatlog.KindHit, "You hit %s for %d points of damage.", mob.Name, hit.Lost)
	c.deps.logBroken(hit.MezBroken)

	if !mob.Alive() {
		c.deps.Death.ResolveMob(mob)
	}
}

// mobTurn is one retaliation swing.
func (c *CombatController) mobTurn() {
	st := c.deps.State
	p := st.Player
	mob := st.LiveMob()
	now := c.deps.now()
	if p == nil || p.Dead || mob == nil || mob.ID != c.mobID ||
		st.Combat != world.InCombat || !mob.InMelee() {
		c.Sync()
		return
	}
	if mob.Control(now) != effect.ControlNone {
		return
	}
	c.Hostile()

	pStats := p.EffectiveStats(now)
	mStats := mob.EffectiveStats(now)
	switch combat.ResolveHit(c.deps.Rand, mob.Level, p.Level, pStats.Agi) {
	case combat.OutcomeMiss:
		c.deps.logf(combatlog.KindMiss, "%s tries to hit you, but misses!", mob.Name)
		return
	case combat.OutcomeDodge:
		c.deps.logf(combatlog.KindMiss, "You dodge %s's attack!", mob.Name)
		return
	}

	base := combat.RollBase(c.deps.Rand, mob.DamageMin, mob.DamageMax) + mob.DamageBonus(now)
	res := combat.FinalDamage(c.deps.Rand, combat.DamageInput{
		Base:            base,
		Mitigation:      p.EffectiveArmor(now),
		LevelMultiplier: combat.LevelDamageMultiplier(mob.Level, p.Level),
		CritChance:      combat.CritChance(mStats.Dex, mob.Level-p.Level),
	})
	hit := p.TakeDamage(res.Damage)
	if hit.Absorbed > 0 {
		c.deps.logf(combatlog.KindHit, "Your shield absorbs %d damage.", hit.Absorbed)
	}
	c.deps.logf(combatlog.KindHit, "%s hits you for %d points of damage.", mob.Name, hit.Lost)
	c.deps.logBroken(hit.MezBroken)

	if !p.Alive() {
		c.deps.Death.KillPlayer(mob.Name)
		return
	}
	c.Sync()
}

// SetAutoAttack toggles the player loop. Turning it on with no mob present
// spawns one at once.
func (c *CombatController) SetAutoAttack(on bool) {
	p := c.deps.State.Player
	if p.AutoAttack == on {
		return
	}
	p.AutoAttack = on
	p.Dirty = true
	if on {
		c.deps.logf(combatlog.KindSystem, "Auto attack on.")
		if c.deps.State.Mob == nil {
			c.deps.Spawn.SpawnNow()
		}
	} else {
		c.deps.logf(combatlog.KindSystem, "Auto attack off.")
	}
	c.Sync()
	c.deps.Log.Debug(fmt.Sprintf("自動攻擊切換  角色=%s  開啟=%v", p.Name, on))
}
