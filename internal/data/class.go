package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ClassInfo holds the base numbers for one character class.
type ClassInfo struct {
	ClassID        int32   `yaml:"class_id"`
	Name           string  `yaml:"name"`
	BaseHP         int     `yaml:"base_hp"`
	HPPerLevel     int     `yaml:"hp_per_level"`
	BaseMana       int     `yaml:"base_mana"`
	ManaPerLevel   int     `yaml:"mana_per_level"`
	BaseEndurance  int     `yaml:"base_endurance"`
	EndPerLevel    int     `yaml:"endurance_per_level"`
	HPRegen        int     `yaml:"hp_regen"`
	ManaRegen      int     `yaml:"mana_regen"`
	EnduranceRegen int     `yaml:"endurance_regen"`
	Stats          Stats   `yaml:"stats"`
	Armor          int     `yaml:"armor"`
	AttackDelayMS  int     `yaml:"attack_delay_ms"`
	DamageMin      int     `yaml:"damage_min"`
	DamageMax      int     `yaml:"damage_max"`
	ExpModifier    float64 `yaml:"exp_modifier"`
	StartingSkills []int32 `yaml:"starting_skills"`
}

type classListFile struct {
	Classes []ClassInfo `yaml:"classes"`
}

// ClassTable holds classes indexed by ClassID.
type ClassTable struct {
	classes map[int32]*ClassInfo
}

// LoadClassTable loads class_list.yaml.
func LoadClassTable(path string) (*ClassTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class_list: %w", err)
	}
	return parseClassTable(raw)
}

func parseClassTable(raw []byte) (*ClassTable, error) {
	var f classListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse class_list: %w", err)
	}
	t := &ClassTable{classes: make(map[int32]*ClassInfo, len(f.Classes))}
	for i := range f.Classes {
		c := &f.Classes[i]
		if c.ExpModifier == 0 {
			c.ExpModifier = 1
		}
		t.classes[c.ClassID] = c
	}
	return t, nil
}

// Get returns a class by ID, or nil if not found.
func (t *ClassTable) Get(id int32) *ClassInfo {
	return t.classes[id]
}

// Count returns the number of loaded classes.
func (t *ClassTable) Count() int {
	return len(t.classes)
}
