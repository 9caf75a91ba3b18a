package system

import (
	"math"

	"github.com/idlecamp/server/internal/combat"
	"github.com/idlecamp/server/internal/data"
)

// ExpInput carries every multiplier of the kill experience formula.
type ExpInput struct {
	BaseExp     int
	MobLevel    int
	PlayerLevel int
	ClassMod    float64
	ZoneMod     float64
	CampMod     float64
	FlatBonus   int
	Rate        float64 // server exp rate
}

// LevelExpModifier is 1 + 0.05 per level the mob is above the player. It is
// deliberately unclamped in both directions.
func LevelExpModifier(mobLevel, playerLevel int) float64 {
	return 1 + 0.05*float64(mobLevel-playerLevel)
}

// KillExp computes experience for a kill. The raw value may be negative for
// trivial mobs; awards clamp at zero.
func KillExp(in ExpInput) int64 {
	v := float64(in.BaseExp) * LevelExpModifier(in.MobLevel, in.PlayerLevel) *
		modOr1(in.ClassMod) * modOr1(in.ZoneMod) * modOr1(in.CampMod) * modOr1(in.Rate)
	return int64(math.Floor(v + float64(in.FlatBonus)))
}

// KillGold is the loot table's average coin scaled by the gold rate.
func KillGold(t *data.LootTable, rate float64) int64 {
	if t == nil || t.AvgCoin <= 0 {
		return 0
	}
	return int64(math.Floor(float64(t.AvgCoin) * modOr1(rate)))
}

// RollLoot rolls every entry of a loot table. Each entry that passes its
// probability awards its lootdrop Multiplier times: every item line rolls
// its own chance, the mindrop guarantee back-fills random lines from the
// pool, results are shuffled, then capped at droplimit.
func RollLoot(r combat.Rand, drops *data.DropTable, t *data.LootTable, dropRate float64) []int32 {
	if t == nil {
		return nil
	}
	rate := modOr1(dropRate)
	var out []int32
	for _, e := range t.Entries {
		if !combat.Chance(r, e.Probability*rate) {
			continue
		}
		pool := drops.Drop(e.LootDropID)
		if pool == nil || len(pool.Items) == 0 {
			continue
		}
		times := max(e.Multiplier, 1)
		var got []int32
		for range times {
			got = append(got, rollDrop(r, pool, e.MinDrop, rate)...)
		}
		shuffle(r, got)
		if e.DropLimit > 0 && len(got) > e.DropLimit {
			got = got[:e.DropLimit]
		}
		out = append(out, got...)
	}
	return out
}

func rollDrop(r combat.Rand, pool *data.LootDrop, minDrop int, rate float64) []int32 {
	var got []int32
	for _, it := range pool.Items {
		if combat.Chance(r, it.Chance*rate) {
			got = append(got, it.ItemID)
		}
	}
	// 保底：從整個池隨機補足
	for len(got) < minDrop {
		got = append(got, pool.Items[r.IntN(len(pool.Items))].ItemID)
	}
	return got
}

// shuffle is Fisher-Yates over the injected source.
func shuffle(r combat.Rand, s []int32) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
