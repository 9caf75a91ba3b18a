package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/idlecamp/server/internal/combatlog"
	"github.com/idlecamp/server/internal/core/event"
	"github.com/idlecamp/server/internal/effect"
	"github.com/idlecamp/server/internal/scripting"
	"github.com/idlecamp/server/internal/world"
)

// 等級上限（scripts/core/levelup.lua MAX_LEVEL 同步）
const maxLevel = 60

// RefreshGear recomputes gear bonuses from equipped items.
func RefreshGear(d *Deps, p *world.Player) {
	p.Gear = p.Equip.Gear(d.Tables.Items)
}

// RecomputeVitals installs new max HP/mana/endurance from the class curve,
// gear and active modifiers. Current values follow world.Pool.Recompute.
func RecomputeVitals(d *Deps, p *world.Player, now time.Time) {
	cls := d.Tables.Classes.Get(p.ClassID)
	if cls == nil {
		d.Log.Error("class not defined", zap.Int32("class", p.ClassID), zap.Int64("char", p.CharID))
		return
	}
	stats := p.EffectiveStats(now)
	v := d.Formulas.MaxVitals(scripting.VitalsContext{
		Level:         p.Level,
		BaseHP:        cls.BaseHP,
		HPPerLevel:    cls.HPPerLevel,
		BaseMana:      cls.BaseMana,
		ManaPerLevel:  cls.ManaPerLevel,
		BaseEndurance: cls.BaseEndurance,
		EndPerLevel:   cls.EndPerLevel,
		Sta:           stats.Sta,
		Wis:           stats.Wis,
		Int:           stats.Int,
	})
	fx := p.Effects
	p.HP.Recompute(max(1, v.HP+p.Gear.HP+fx.Stat(now, effect.StatMaxHP)))
	p.Mana.Recompute(v.Mana + p.Gear.Mana + fx.Stat(now, effect.StatMaxMana))
	p.Endurance.Recompute(v.Endurance + p.Gear.Endurance + fx.Stat(now, effect.StatMaxEndurance))
}

// addExp grants experience and applies any level-ups. Each level gained
// fully restores vitals.
func addExp(d *Deps, p *world.Player, gain int64) {
	if gain <= 0 {
		return
	}
	p.Exp += gain
	p.Dirty = true
	d.logf(combatlog.KindExp, "You gain %d experience.", gain)

	newLevel := d.Formulas.LevelFromExp(p.Exp)
	old := p.Level
	for newLevel > p.Level && p.Level < maxLevel {
		p.Level++
	}
	if p.Level == old {
		return
	}
	now := d.now()
	RecomputeVitals(d, p, now)
	p.HP.Fill()
	p.Mana.Fill()
	p.Endurance.Fill()

	d.logf(combatlog.KindExp, "You have reached level %d!", p.Level)
	event.Emit(d.Bus, event.LevelUp{CharID: p.CharID, OldLevel: old, NewLevel: p.Level})
	d.Log.Info(fmt.Sprintf("玩家升級  角色=%s  等級=%d  經驗=%d  最大HP=%d", p.Name, p.Level, p.Exp, p.HP.Max))
}

// setLevelFromExp moves the level to whatever the exp total supports, up or down.
func setLevelFromExp(d *Deps, p *world.Player) {
	lvl := min(max(d.Formulas.LevelFromExp(p.Exp), 1), maxLevel)
	if lvl != p.Level {
		p.Level = lvl
		RecomputeVitals(d, p, d.now())
	}
}
