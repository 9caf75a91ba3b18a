package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LootEntry is one roll on a loot table: with Probability the referenced
// lootdrop is awarded Multiplier times.
type LootEntry struct {
	LootDropID  int32   `yaml:"lootdrop_id"`
	Probability float64 `yaml:"probability"` // 0.0-1.0
	Multiplier  int     `yaml:"multiplier"`
	MinDrop     int     `yaml:"mindrop"`
	DropLimit   int     `yaml:"droplimit"` // 0 = unlimited
}

// LootTable is attached to a mob template by LootTableID.
type LootTable struct {
	LootTableID int32       `yaml:"loot_table_id"`
	AvgCoin     int         `yaml:"avg_coin"`
	Entries     []LootEntry `yaml:"entries"`
}

// LootDropItem is one line of a lootdrop pool.
type LootDropItem struct {
	ItemID int32   `yaml:"item_id"`
	Chance float64 `yaml:"chance"` // 0.0-1.0
}

// LootDrop is an item pool referenced by loot entries.
type LootDrop struct {
	LootDropID int32          `yaml:"lootdrop_id"`
	Items      []LootDropItem `yaml:"items"`
}

type lootFile struct {
	Tables []LootTable `yaml:"loot_tables"`
	Drops  []LootDrop  `yaml:"lootdrops"`
}

// DropTable holds loot tables and lootdrop pools.
type DropTable struct {
	tables map[int32]*LootTable
	drops  map[int32]*LootDrop
}

// Table returns a loot table by ID, or nil if none defined.
func (t *DropTable) Table(id int32) *LootTable {
	return t.tables[id]
}

// Drop returns a lootdrop pool by ID, or nil if none defined.
func (t *DropTable) Drop(id int32) *LootDrop {
	return t.drops[id]
}

// Count returns the number of loot tables.
func (t *DropTable) Count() int {
	return len(t.tables)
}

// LoadDropTable loads loot_list.yaml.
func LoadDropTable(path string) (*DropTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read loot_list: %w", err)
	}
	return parseDropTable(raw)
}

func parseDropTable(raw []byte) (*DropTable, error) {
	var f lootFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse loot_list: %w", err)
	}
	t := &DropTable{
		tables: make(map[int32]*LootTable, len(f.Tables)),
		drops:  make(map[int32]*LootDrop, len(f.Drops)),
	}
	for i := range f.Tables {
		lt := &f.Tables[i]
		for j := range lt.Entries {
			if lt.Entries[j].Multiplier <= 0 {
				lt.Entries[j].Multiplier = 1
			}
		}
		t.tables[lt.LootTableID] = lt
	}
	for i := range f.Drops {
		d := &f.Drops[i]
		t.drops[d.LootDropID] = d
	}
	return t, nil
}

// validate reports entries pointing at pools that do not exist.
func (t *DropTable) validate() []error {
	var errs []error
	for _, lt := range t.tables {
		for _, e := range lt.Entries {
			if t.drops[e.LootDropID] == nil {
				errs = append(errs, integrity("loot", lt.LootTableID, "lootdrop_id",
					fmt.Sprintf("lootdrop %d not defined", e.LootDropID)))
			}
		}
	}
	return errs
}
