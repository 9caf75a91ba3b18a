package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MobTemplate holds static data for a mob type loaded from YAML.
type MobTemplate struct {
	MobID         int32          `yaml:"mob_id"`
	Name          string         `yaml:"name"`
	Level         int            `yaml:"level"`
	LevelMin      int            `yaml:"level_min"` // spawn level range; 0 = Level
	LevelMax      int            `yaml:"level_max"`
	HP            int            `yaml:"hp"`
	Mana          int            `yaml:"mana"`
	Stats         Stats          `yaml:"stats"`
	Armor         int            `yaml:"armor"`
	Resists       map[string]int `yaml:"resists"` // school → percent
	AttackDelayMS int            `yaml:"attack_delay_ms"`
	DamageMin     int            `yaml:"damage_min"`
	DamageMax     int            `yaml:"damage_max"`
	AggroRange    float64        `yaml:"aggro_range"`
	MeleeRange    float64        `yaml:"melee_range"`
	MoveSpeed     float64        `yaml:"move_speed"` // distance per second
	LootTableID   int32          `yaml:"loot_table_id"`
	BaseExp       int            `yaml:"base_exp"`
	Hostile       bool           `yaml:"hostile"`

	// Fault is set at load time when the record cannot be spawned.
	Fault error `yaml:"-"`
}

// Resist returns the template's resistance percent against school.
func (m *MobTemplate) Resist(school string) int {
	if school == "" {
		return 0
	}
	return m.Resists[school]
}

func (m *MobTemplate) validate() error {
	switch {
	case m.MeleeRange <= 0:
		return integrity("mob", m.MobID, "melee_range", "must be positive")
	case m.HP <= 0:
		return integrity("mob", m.MobID, "hp", "must be positive")
	case m.AttackDelayMS <= 0:
		return integrity("mob", m.MobID, "attack_delay_ms", "must be positive")
	case m.DamageMax < m.DamageMin:
		return integrity("mob", m.MobID, "damage_max", "below damage_min")
	case m.LevelMax != 0 && m.LevelMax < m.LevelMin:
		return integrity("mob", m.MobID, "level_max", "below level_min")
	}
	return nil
}

type mobListFile struct {
	Mobs []MobTemplate `yaml:"mobs"`
}

// MobTable holds all mob templates indexed by MobID.
type MobTable struct {
	templates map[int32]*MobTemplate
}

// LoadMobTable loads mob_list.yaml.
func LoadMobTable(path string) (*MobTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mob_list: %w", err)
	}
	return parseMobTable(raw)
}

func parseMobTable(raw []byte) (*MobTable, error) {
	var f mobListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse mob_list: %w", err)
	}
	t := &MobTable{templates: make(map[int32]*MobTemplate, len(f.Mobs))}
	for i := range f.Mobs {
		m := &f.Mobs[i]
		m.Fault = m.validate()
		t.templates[m.MobID] = m
	}
	return t, nil
}

// Get returns a mob template by ID, or nil if not found.
func (t *MobTable) Get(mobID int32) *MobTemplate {
	return t.templates[mobID]
}

// Count returns the number of loaded templates.
func (t *MobTable) Count() int {
	return len(t.templates)
}

// Faults returns every template rejected at load time.
func (t *MobTable) Faults() []error {
	var out []error
	for _, m := range t.templates {
		if m.Fault != nil {
			out = append(out, m.Fault)
		}
	}
	return out
}
