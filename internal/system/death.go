package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/idlecamp/server/internal/combatlog"
	"github.com/idlecamp/server/internal/core/event"
	"github.com/idlecamp/server/internal/world"
)

// DeathSystem resolves mob kills and player deaths.
type DeathSystem struct {
	deps *Deps
}

func NewDeathSystem(d *Deps) *DeathSystem {
	return &DeathSystem{deps: d}
}

// ==================== 怪物死亡 ====================

// ResolveMob awards the kill and clears the mob. The lifecycle guard makes
// repeated calls for one instance no-ops, whichever path reaches zero HP first.
func (s *DeathSystem) ResolveMob(m *world.Mob) {
	if !m.BeginDeath() {
		return
	}
	d := s.deps
	st := d.State
	p := st.Player
	now := d.now()

	d.logf(combatlog.KindDeath, "You have slain %s!", m.Name)

	var zoneMod, campMod float64
	var flat int
	if camp, zone, err := d.Tables.Zones.ResolveCamp(p.CampID); err == nil {
		zoneMod, campMod, flat = zone.ExpModifier, camp.ExpModifier, camp.FlatExpBonus
	}
	exp := KillExp(ExpInput{
		BaseExp:     m.BaseExp,
		MobLevel:    m.Level,
		PlayerLevel: p.Level,
		ClassMod:    p.ExpModifier,
		ZoneMod:     zoneMod,
		CampMod:     campMod,
		FlatBonus:   flat,
		Rate:        d.Config.Rates.ExpRate,
	})
	exp = max(exp, 0)
	addExp(d, p, exp)

	table := d.Tables.Loot.Table(m.LootTableID)
	gold := KillGold(table, d.Config.Rates.GoldRate)
	if gold > 0 {
		p.Gold += gold
		d.logf(combatlog.KindLoot, "You receive %d gold.", gold)
	}
	items := RollLoot(d.Rand, d.Tables.Loot, table, d.Config.Rates.DropRate)
	for _, id := range items {
		info := d.Tables.Items.Get(id)
		if info == nil {
			d.Log.Warn("loot item not defined", zap.Int32("item", id), zap.Int32("loot_table", m.LootTableID))
			continue
		}
		if !p.Inv.Add(id, 1, info.Stackable) {
			d.logf(combatlog.KindLoot, "Your inventory is full. %s is lost.", info.Name)
			continue
		}
		d.logf(combatlog.KindLoot, "You loot %s.", info.Name)
	}
	p.Kills++
	p.Dirty = true

	event.Emit(d.Bus, event.MobKilled{
		CharID:   p.CharID,
		MobID:    m.ID,
		MobName:  m.Name,
		MobLevel: m.Level,
		Exp:      exp,
		Gold:     gold,
		Items:    items,
		At:       now,
	})

	m.FinishDeath()
	if st.Cast != nil && st.Cast.Target == m.ID {
		d.Skill.CancelCast("target died")
	}
	st.ClearMob()
	d.Combat.Sync()

	// 自動攻擊中立即刷下一隻，否則走營地重生計時
	if p.AutoAttack && !p.Dead {
		d.Spawn.SpawnNow()
	} else {
		d.Spawn.Schedule()
	}

	d.Log.Info(fmt.Sprintf("怪物被擊殺  角色=%s  怪物=%s  等級=%d  經驗=%d  金幣=%d  物品=%d",
		p.Name, m.Name, m.Level, exp, gold, len(items)))
}

// ==================== 玩家死亡 ====================

// KillPlayer handles the player's death. Normal mode loses experience and
// respawns at bind; hardcore mode ends the run and starts over.
func (s *DeathSystem) KillPlayer(killedBy string) {
	d := s.deps
	st := d.State
	p := st.Player
	if p.Dead {
		return
	}
	now := d.now()
	p.Dead = true
	p.HP.Cur = 0
	p.Deaths++
	level, exp := p.Level, p.Exp

	// 死亡取消所有進行中的動作
	d.Skill.CancelCast("death")
	d.Combat.Stop()
	d.Travel.Cancel()
	d.Spawn.Cancel()
	st.ClearMob()
	p.Effects.Clear()
	p.Resting = false

	d.logf(combatlog.KindDeath, "You have been slain by %s!", killedBy)

	var lost int64
	if p.Mode == world.ModeHardcore {
		d.logf(combatlog.KindDeath, "Your hardcore run has ended at level %d.", level)
		s.resetHardcore(p)
	} else {
		lost = d.Formulas.DeathExpPenalty(p.Level, p.Exp)
		if lost > 0 {
			p.Exp -= lost
			d.logf(combatlog.KindExp, "You lose %d experience.", lost)
			setLevelFromExp(d, p)
		}
		p.CampID = p.BindCamp
	}

	event.Emit(d.Bus, event.PlayerDied{
		CharID:   p.CharID,
		Name:     p.Name,
		Level:    level,
		Exp:      exp,
		Hardcore: p.Mode == world.ModeHardcore,
		KilledBy: killedBy,
		ExpLost:  lost,
		At:       now,
	})

	s.respawn(p)
	d.Log.Info(fmt.Sprintf("玩家死亡  角色=%s  模式=%s  擊殺者=%s  經驗損失=%d", p.Name, p.Mode, killedBy, lost))
}

// respawn brings the player back at full vitals in their current camp.
func (s *DeathSystem) respawn(p *world.Player) {
	d := s.deps
	p.Dead = false
	p.LastAttack = time.Time{}
	RefreshGear(d, p)
	RecomputeVitals(d, p, d.now())
	p.HP.Fill()
	p.Mana.Fill()
	p.Endurance.Fill()
	p.Dirty = true

	if camp := d.Tables.Zones.Camp(p.CampID); camp != nil {
		d.logf(combatlog.KindSystem, "You return to %s.", camp.Name)
	}
	d.Spawn.Schedule()
}

// resetHardcore puts the character back to creation values. Mode is kept.
func (s *DeathSystem) resetHardcore(p *world.Player) {
	d := s.deps
	cfg := d.Config.Character
	p.Level = max(cfg.StartingLevel, 1)
	p.Exp = d.Formulas.ExpForLevel(p.Level)
	p.Gold = cfg.StartingGold
	p.Inv.Clear()
	p.Equip = world.Equipment{}
	for _, id := range cfg.StartingItems {
		stack := false
		if info := d.Tables.Items.Get(id); info != nil {
			stack = info.Stackable
		}
		p.Inv.Add(id, 1, stack)
	}
	clear(p.Cooldowns)
	p.FleeExhaustedUntil = time.Time{}
	p.CampID = cfg.StartingCamp
	p.BindCamp = cfg.StartingCamp
	if cls := d.Tables.Classes.Get(p.ClassID); cls != nil {
		p.KnownSkills = append(p.KnownSkills[:0], cls.StartingSkills...)
		p.Slots = p.Slots[:0]
	}
}
