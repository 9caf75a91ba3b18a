package world

import (
	"time"

	"github.com/idlecamp/server/internal/data"
)

// Equipment maps a slot name to the equipped item template.
type Equipment struct {
	Slots map[string]int32
}

// Equip places itemID in slot, returning whatever was there.
func (e *Equipment) Equip(slot string, itemID int32) int32 {
	if e.Slots == nil {
		e.Slots = make(map[string]int32)
	}
	prev := e.Slots[slot]
	e.Slots[slot] = itemID
	return prev
}

// Unequip empties slot.
func (e *Equipment) Unequip(slot string) int32 {
	prev := e.Slots[slot]
	delete(e.Slots, slot)
	return prev
}

// Gear sums the bonuses of every equipped item known to items.
func (e *Equipment) Gear(items *data.ItemTable) Gear {
	var g Gear
	for _, id := range e.Slots {
		it := items.Get(id)
		if it == nil {
			continue
		}
		g.Stats.Str += it.Stats.Str
		g.Stats.Sta += it.Stats.Sta
		g.Stats.Agi += it.Stats.Agi
		g.Stats.Dex += it.Stats.Dex
		g.Stats.Int += it.Stats.Int
		g.Stats.Wis += it.Stats.Wis
		g.Stats.Cha += it.Stats.Cha
		g.HP += it.HP
		g.Mana += it.Mana
		g.Endurance += it.Endurance
		g.Armor += it.Armor
		g.DamageBonus += it.DamageBonus
		if it.AttackDelayMS > 0 {
			g.AttackDelay = time.Duration(it.AttackDelayMS) * time.Millisecond
		}
	}
	return g
}
