package engine

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/effect"
	"github.com/idlecamp/server/internal/persist"
	"github.com/idlecamp/server/internal/system"
	"github.com/idlecamp/server/internal/world"
)

// toRow copies the player into a detached row safe to hand to another
// goroutine.
func toRow(p *world.Player) *persist.CharacterRow {
	row := &persist.CharacterRow{
		ID:          p.CharID,
		Name:        p.Name,
		ClassID:     p.ClassID,
		Mode:        int16(p.Mode),
		Level:       int32(p.Level),
		Exp:         p.Exp,
		Gold:        p.Gold,
		HP:          int32(p.HP.Cur),
		Mana:        int32(p.Mana.Cur),
		Endurance:   int32(p.Endurance.Cur),
		CampID:      p.CampID,
		BindCamp:    p.BindCamp,
		Resting:     p.Resting,
		AutoAttack:  p.AutoAttack,
		Equipment:   maps.Clone(p.Equip.Slots),
		KnownSkills: append([]int32(nil), p.KnownSkills...),
		Slots:       append([]int32(nil), p.Slots...),
		Cooldowns:   maps.Clone(p.Cooldowns),
		Effects:     p.Effects.Snapshot(),
		Kills:       p.Kills,
		Deaths:      p.Deaths,
		CreatedAt:   p.CreatedAt,
	}
	if !p.FleeExhaustedUntil.IsZero() {
		t := p.FleeExhaustedUntil
		row.FleeExhaustedUntil = &t
	}
	for _, it := range p.Inv.Items {
		row.Inventory = append(row.Inventory, *it)
	}
	// stat maps are shared with the live tracker
	for i := range row.Effects {
		row.Effects[i].StatMods = maps.Clone(row.Effects[i].StatMods)
	}
	return row
}

// fromRow rebuilds a player from a saved row. Effects are re-based against
// now and anything already expired is dropped; cooldowns stay absolute.
func fromRow(d *system.Deps, row *persist.CharacterRow, now time.Time) (*world.Player, int, error) {
	cls := d.Tables.Classes.Get(row.ClassID)
	if cls == nil {
		return nil, 0, fmt.Errorf("load %s: %w", row.Name,
			&data.IntegrityError{Kind: "class", ID: row.ClassID, Err: errors.New("class not defined")})
	}
	p := &world.Player{
		Combatant: world.Combatant{
			Name:        row.Name,
			Level:       max(int(row.Level), 1),
			HP:          world.Pool{Cur: int(row.HP)},
			Mana:        world.Pool{Cur: int(row.Mana)},
			Endurance:   world.Pool{Cur: int(row.Endurance)},
			Stats:       cls.Stats,
			Armor:       cls.Armor,
			AttackDelay: time.Duration(cls.AttackDelayMS) * time.Millisecond,
			DamageMin:   cls.DamageMin,
			DamageMax:   cls.DamageMax,
			Effects:     effect.NewTracker(),
		},
		CharID:      row.ID,
		ClassID:     row.ClassID,
		Mode:        world.Mode(row.Mode),
		Exp:         row.Exp,
		Gold:        row.Gold,
		Inv:         world.NewInventory(),
		Equip:       world.Equipment{Slots: maps.Clone(row.Equipment)},
		KnownSkills: append([]int32(nil), row.KnownSkills...),
		Slots:       append([]int32(nil), row.Slots...),
		Cooldowns:   maps.Clone(row.Cooldowns),
		CampID:      row.CampID,
		BindCamp:    row.BindCamp,
		Resting:     row.Resting,
		AutoAttack:  row.AutoAttack,
		Kills:       row.Kills,
		Deaths:      row.Deaths,
		CreatedAt:   row.CreatedAt,
	}
	if p.Cooldowns == nil {
		p.Cooldowns = make(map[int32]time.Time)
	}
	if row.FleeExhaustedUntil != nil {
		p.FleeExhaustedUntil = *row.FleeExhaustedUntil
	}
	for _, it := range row.Inventory {
		item := it
		p.Inv.Items = append(p.Inv.Items, &item)
	}
	if d.Tables.Zones.Camp(p.CampID) == nil {
		p.CampID = d.Config.Character.StartingCamp
	}
	if d.Tables.Zones.Camp(p.BindCamp) == nil {
		p.BindCamp = d.Config.Character.StartingCamp
	}
	system.ApplyClass(p, cls)
	p.PruneCooldowns(now)
	restored := p.Effects.Rehydrate(row.Effects, now)
	return p, restored, nil
}
