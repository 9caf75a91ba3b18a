package data

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Zone groups camps and sets the ambush tier for travel that starts in it.
type Zone struct {
	ZoneID      int32   `yaml:"zone_id"`
	Name        string  `yaml:"name"`
	Hostility   int     `yaml:"hostility"` // 0 = safe
	ExpModifier float64 `yaml:"exp_modifier"`
	AmbushMobs  []int32 `yaml:"ambush_mobs"`
}

// CampSpawn is one weighted entry in a camp's spawn list.
type CampSpawn struct {
	MobID  int32 `yaml:"mob_id"`
	Weight int   `yaml:"weight"`
}

// Camp is a location a player fights at. X/Y place it on the travel map.
type Camp struct {
	CampID        int32       `yaml:"camp_id"`
	ZoneID        int32       `yaml:"zone_id"`
	Name          string      `yaml:"name"`
	X             float64     `yaml:"x"`
	Y             float64     `yaml:"y"`
	ExpModifier   float64     `yaml:"exp_modifier"`
	FlatExpBonus  int         `yaml:"flat_exp_bonus"`
	RespawnSec    int         `yaml:"respawn_sec"`
	SpawnDistance float64     `yaml:"spawn_distance"` // how far away new mobs appear
	Spawns        []CampSpawn `yaml:"spawns"`
	Bind          bool        `yaml:"bind"` // players may bind here
}

// DistanceTo is the straight-line travel distance between two camps.
func (c *Camp) DistanceTo(o *Camp) float64 {
	return math.Hypot(c.X-o.X, c.Y-o.Y)
}

type zoneFile struct {
	Zones []Zone `yaml:"zones"`
	Camps []Camp `yaml:"camps"`
}

// ZoneTable provides lookup of zones and camps.
type ZoneTable struct {
	zones map[int32]*Zone
	camps map[int32]*Camp
}

// LoadZoneTable loads zone_list.yaml.
func LoadZoneTable(path string) (*ZoneTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zone_list: %w", err)
	}
	return parseZoneTable(raw)
}

func parseZoneTable(raw []byte) (*ZoneTable, error) {
	var f zoneFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse zone_list: %w", err)
	}
	t := &ZoneTable{
		zones: make(map[int32]*Zone, len(f.Zones)),
		camps: make(map[int32]*Camp, len(f.Camps)),
	}
	for i := range f.Zones {
		z := &f.Zones[i]
		if z.ExpModifier == 0 {
			z.ExpModifier = 1
		}
		t.zones[z.ZoneID] = z
	}
	for i := range f.Camps {
		c := &f.Camps[i]
		if c.ExpModifier == 0 {
			c.ExpModifier = 1
		}
		t.camps[c.CampID] = c
	}
	return t, nil
}

// Zone returns a zone by ID, or nil.
func (t *ZoneTable) Zone(id int32) *Zone { return t.zones[id] }

// Camp returns a camp by ID, or nil.
func (t *ZoneTable) Camp(id int32) *Camp { return t.camps[id] }

// ResolveCamp returns the camp and its zone, or an integrity fault naming
// what could not be resolved.
func (t *ZoneTable) ResolveCamp(id int32) (*Camp, *Zone, error) {
	c := t.camps[id]
	if c == nil {
		return nil, nil, integrity("camp", id, "", "camp not defined")
	}
	z := t.zones[c.ZoneID]
	if z == nil {
		return nil, nil, integrity("camp", id, "zone_id", fmt.Sprintf("zone %d not defined", c.ZoneID))
	}
	return c, z, nil
}

// Count returns the number of camps.
func (t *ZoneTable) Count() int { return len(t.camps) }
