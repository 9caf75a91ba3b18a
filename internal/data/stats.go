package data

import "github.com/idlecamp/server/internal/effect"

// Stats is the seven base attributes shared by classes, mobs and items.
type Stats struct {
	Str int `yaml:"str" json:"str"`
	Sta int `yaml:"sta" json:"sta"`
	Agi int `yaml:"agi" json:"agi"`
	Dex int `yaml:"dex" json:"dex"`
	Int int `yaml:"int" json:"int"`
	Wis int `yaml:"wis" json:"wis"`
	Cha int `yaml:"cha" json:"cha"`
}

// Get returns the named base stat, or 0 for derived stats.
func (s Stats) Get(stat effect.Stat) int {
	switch stat {
	case effect.StatStr:
		return s.Str
	case effect.StatSta:
		return s.Sta
	case effect.StatAgi:
		return s.Agi
	case effect.StatDex:
		return s.Dex
	case effect.StatInt:
		return s.Int
	case effect.StatWis:
		return s.Wis
	case effect.StatCha:
		return s.Cha
	}
	return 0
}

// Plus adds modifier deltas for the base stats.
func (s Stats) Plus(mods map[effect.Stat]int) Stats {
	return Stats{
		Str: s.Str + mods[effect.StatStr],
		Sta: s.Sta + mods[effect.StatSta],
		Agi: s.Agi + mods[effect.StatAgi],
		Dex: s.Dex + mods[effect.StatDex],
		Int: s.Int + mods[effect.StatInt],
		Wis: s.Wis + mods[effect.StatWis],
		Cha: s.Cha + mods[effect.StatCha],
	}
}

// Map returns the stats keyed for effect scaling lookups.
func (s Stats) Map() map[effect.Stat]int {
	return map[effect.Stat]int{
		effect.StatStr: s.Str,
		effect.StatSta: s.Sta,
		effect.StatAgi: s.Agi,
		effect.StatDex: s.Dex,
		effect.StatInt: s.Int,
		effect.StatWis: s.Wis,
		effect.StatCha: s.Cha,
	}
}
