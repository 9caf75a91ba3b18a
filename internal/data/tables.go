package data

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Tables bundles every reference table the engine reads.
type Tables struct {
	Classes *ClassTable
	Mobs    *MobTable
	Skills  *SkillTable
	Loot    *DropTable
	Zones   *ZoneTable
	Items   *ItemTable

	// Faults lists integrity problems found at load time. Faulty records
	// stay loaded and fail closed at the point of use.
	Faults []error
}

// LoadAll reads every table from dir and cross-checks references.
func LoadAll(dir string) (*Tables, error) {
	var (
		t   Tables
		err error
	)
	if t.Classes, err = LoadClassTable(filepath.Join(dir, "class_list.yaml")); err != nil {
		return nil, err
	}
	if t.Mobs, err = LoadMobTable(filepath.Join(dir, "mob_list.yaml")); err != nil {
		return nil, err
	}
	if t.Skills, err = LoadSkillTable(filepath.Join(dir, "skill_list.yaml")); err != nil {
		return nil, err
	}
	if t.Loot, err = LoadDropTable(filepath.Join(dir, "loot_list.yaml")); err != nil {
		return nil, err
	}
	if t.Zones, err = LoadZoneTable(filepath.Join(dir, "zone_list.yaml")); err != nil {
		return nil, err
	}
	if t.Items, err = LoadItemTable(filepath.Join(dir, "item_list.yaml")); err != nil {
		return nil, err
	}
	t.Faults = t.Check()
	return &t, nil
}

// Check validates references between tables. Teleport skills whose
// destination cannot be resolved are marked faulty.
func (t *Tables) Check() []error {
	var faults []error
	faults = append(faults, t.Mobs.Faults()...)
	for _, m := range t.Mobs.templates {
		if m.LootTableID != 0 && t.Loot.Table(m.LootTableID) == nil {
			faults = append(faults, integrity("mob", m.MobID, "loot_table_id",
				fmt.Sprintf("loot table %d not defined", m.LootTableID)))
		}
	}
	for _, s := range t.Skills.skills {
		if s.Category == CategoryTeleport && s.Fault == nil {
			if _, _, err := t.Zones.ResolveCamp(s.TeleportCamp); err != nil {
				s.Fault = &IntegrityError{Kind: "skill", ID: s.SkillID, Field: "teleport_camp", Err: err}
			}
		}
	}
	faults = append(faults, t.Skills.Faults()...)
	faults = append(faults, t.Loot.validate()...)
	for _, c := range t.Zones.camps {
		if t.Zones.Zone(c.ZoneID) == nil {
			faults = append(faults, integrity("camp", c.CampID, "zone_id", "zone not defined"))
		}
		for _, sp := range c.Spawns {
			if t.Mobs.Get(sp.MobID) == nil {
				faults = append(faults, integrity("camp", c.CampID, "spawns",
					fmt.Sprintf("mob %d not defined", sp.MobID)))
			}
		}
	}
	return faults
}

// Err joins every load-time fault, or returns nil.
func (t *Tables) Err() error {
	return errors.Join(t.Faults...)
}
