package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemInfo holds an item template. Equippable items carry flat bonuses that
// feed the owner's derived stats and max vitals.
type ItemInfo struct {
	ItemID    int32  `yaml:"item_id"`
	Name      string `yaml:"name"`
	Slot      string `yaml:"slot"` // empty = not equippable
	Stackable bool   `yaml:"stackable"`
	Value     int    `yaml:"value"`

	Stats         Stats `yaml:"stats"`
	HP            int   `yaml:"hp"`
	Mana          int   `yaml:"mana"`
	Endurance     int   `yaml:"endurance"`
	Armor         int   `yaml:"armor"`
	DamageBonus   int   `yaml:"damage_bonus"`
	AttackDelayMS int   `yaml:"attack_delay_ms"` // weapons: replaces the class delay
}

type itemListFile struct {
	Items []ItemInfo `yaml:"items"`
}

// ItemTable holds item templates indexed by ItemID.
type ItemTable struct {
	items map[int32]*ItemInfo
}

// LoadItemTable loads item_list.yaml.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item_list: %w", err)
	}
	return parseItemTable(raw)
}

func parseItemTable(raw []byte) (*ItemTable, error) {
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item_list: %w", err)
	}
	t := &ItemTable{items: make(map[int32]*ItemInfo, len(f.Items))}
	for i := range f.Items {
		it := &f.Items[i]
		t.items[it.ItemID] = it
	}
	return t, nil
}

// Get returns an item template by ID, or nil if not found.
func (t *ItemTable) Get(itemID int32) *ItemInfo {
	return t.items[itemID]
}

// Count returns the number of loaded items.
func (t *ItemTable) Count() int {
	return len(t.items)
}
