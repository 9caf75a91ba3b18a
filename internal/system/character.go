package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/idlecamp/server/internal/combatlog"
	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/effect"
	"github.com/idlecamp/server/internal/world"
)

// NewPlayer builds a fresh character of classID at the configured starting
// values. Mode cannot be changed afterwards.
func NewPlayer(d *Deps, name string, classID int32, mode world.Mode, now time.Time) (*world.Player, error) {
	cls := d.Tables.Classes.Get(classID)
	if cls == nil {
		return nil, fmt.Errorf("new player: %w",
			&data.IntegrityError{Kind: "class", ID: classID, Err: errors.New("class not defined")})
	}
	cfg := d.Config.Character
	p := &world.Player{
		Combatant: world.Combatant{
			Name:        name,
			Level:       max(cfg.StartingLevel, 1),
			Stats:       cls.Stats,
			Armor:       cls.Armor,
			AttackDelay: time.Duration(cls.AttackDelayMS) * time.Millisecond,
			DamageMin:   cls.DamageMin,
			DamageMax:   cls.DamageMax,
			Effects:     effect.NewTracker(),
		},
		ClassID:     classID,
		Mode:        mode,
		Gold:        cfg.StartingGold,
		Inv:         world.NewInventory(),
		KnownSkills: append([]int32(nil), cls.StartingSkills...),
		Cooldowns:   make(map[int32]time.Time),
		CampID:      cfg.StartingCamp,
		BindCamp:    cfg.StartingCamp,
		CreatedAt:   now,
		Dirty:       true,
	}
	ApplyClass(p, cls)
	p.Exp = d.Formulas.ExpForLevel(p.Level)
	for _, id := range cfg.StartingItems {
		stack := false
		if info := d.Tables.Items.Get(id); info != nil {
			stack = info.Stackable
		}
		p.Inv.Add(id, 1, stack)
	}
	return p, nil
}

// ApplyClass copies the class-derived regen and exp numbers onto p.
func ApplyClass(p *world.Player, cls *data.ClassInfo) {
	p.HPRegen = cls.HPRegen
	p.ManaRegen = cls.ManaRegen
	p.EnduranceRegen = cls.EnduranceRegen
	p.ExpModifier = cls.ExpModifier
	if p.AttackDelay <= 0 {
		p.AttackDelay = time.Duration(cls.AttackDelayMS) * time.Millisecond
	}
}

// Prepare derives gear and max vitals after a load or creation. A freshly
// created character starts full.
func Prepare(d *Deps, p *world.Player, fresh bool) {
	RefreshGear(d, p)
	RecomputeVitals(d, p, d.now())
	if fresh {
		p.HP.Fill()
		p.Mana.Fill()
		p.Endurance.Fill()
	}
}

// SetResting toggles resting. Resting only boosts regen out of combat.
func SetResting(d *Deps, on bool) *Rejection {
	p := d.State.Player
	if on && d.State.Travel.Active() {
		return d.reject(0, ReasonTraveling, "")
	}
	if p.Resting == on {
		return nil
	}
	p.Resting = on
	if on {
		d.logf(combatlog.KindSystem, "You sit down to rest.")
	} else {
		d.logf(combatlog.KindSystem, "You stand up.")
	}
	return nil
}

// SetSlots replaces the auto-loop ability slots. Unknown skills are dropped.
func SetSlots(d *Deps, ids []int32) []int32 {
	p := d.State.Player
	p.Slots = p.Slots[:0]
	for _, id := range ids {
		sk := d.Tables.Skills.Get(id)
		if sk == nil || !p.Knows(id) || sk.Category == data.CategoryAttack {
			continue
		}
		p.Slots = append(p.Slots, id)
	}
	p.Dirty = true
	return p.Slots
}

// EquipItem wears an inventory item in its slot. Max vitals and the attack
// loop pick up the change at once.
func EquipItem(d *Deps, itemID int32) (*Rejection, error) {
	p := d.State.Player
	info := d.Tables.Items.Get(itemID)
	if info == nil {
		return nil, fmt.Errorf("equip %d: %w", itemID,
			&data.IntegrityError{Kind: "item", ID: itemID, Err: errors.New("item not defined")})
	}
	if info.Slot == "" || p.Inv.Count(itemID) == 0 {
		return d.reject(0, ReasonNotEquipable, info.Name), nil
	}
	if d.State.Combat == world.InCombat {
		return d.reject(0, ReasonInCombat, ""), nil
	}
	p.Equip.Equip(info.Slot, itemID)
	RefreshGear(d, p)
	RecomputeVitals(d, p, d.now())
	p.Dirty = true
	d.logf(combatlog.KindSystem, "You equip %s.", info.Name)
	d.Combat.Sync()
	return nil, nil
}
