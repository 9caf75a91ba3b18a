package system

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/testutil"
)

func lootFixture(entry data.LootEntry, chance float64) (*data.DropTable, *data.LootTable) {
	entry.LootDropID = 10
	drops := data.NewDropTable(
		[]data.LootTable{{LootTableID: 1, Entries: []data.LootEntry{entry}}},
		[]data.LootDrop{{LootDropID: 10, Items: []data.LootDropItem{
			{ItemID: 1, Chance: chance}, {ItemID: 2, Chance: chance},
		}}},
	)
	return drops, drops.Table(1)
}

func TestRollLoot_DropLimitCapsMultiplier(t *testing.T) {
	drops, table := lootFixture(data.LootEntry{Probability: 1, Multiplier: 3, DropLimit: 2}, 1)
	got := RollLoot(&testutil.FixedRand{Float: 0}, drops, table, 1)
	assert.Len(t, got, 2)
}

func TestRollLoot_UnlimitedMultiplier(t *testing.T) {
	drops, table := lootFixture(data.LootEntry{Probability: 1, Multiplier: 3}, 1)
	got := RollLoot(&testutil.FixedRand{Float: 0}, drops, table, 1)
	assert.Len(t, got, 6)
}

func TestRollLoot_MinDropBackfills(t *testing.T) {
	drops, table := lootFixture(data.LootEntry{Probability: 1, MinDrop: 2}, 0.1)
	got := RollLoot(&testutil.FixedRand{Float: 0.5, Int: 0}, drops, table, 1)
	assert.Equal(t, []int32{1, 1}, got)
}

func TestRollLoot_EntryProbabilityGates(t *testing.T) {
	drops, table := lootFixture(data.LootEntry{Probability: 0.3, MinDrop: 1}, 1)
	assert.Empty(t, RollLoot(&testutil.FixedRand{Float: 0.5}, drops, table, 1))
	assert.Len(t, RollLoot(&testutil.FixedRand{Float: 0.5}, drops, table, 2), 2, "drop rate scales every chance")
}

func TestRollLoot_NilTable(t *testing.T) {
	assert.Nil(t, RollLoot(testutil.Steady(), data.NewDropTable(nil, nil), nil, 1))
}

func TestKillExp(t *testing.T) {
	cases := []struct {
		name string
		in   ExpInput
		want int64
	}{
		{"even con", ExpInput{BaseExp: 100, MobLevel: 10, PlayerLevel: 10}, 100},
		{"higher mob", ExpInput{BaseExp: 100, MobLevel: 12, PlayerLevel: 10}, 110},
		{"modifiers", ExpInput{BaseExp: 100, MobLevel: 10, PlayerLevel: 10, ClassMod: 0.5, ZoneMod: 1.5, CampMod: 1, Rate: 2}, 150},
		{"flat bonus", ExpInput{BaseExp: 100, MobLevel: 10, PlayerLevel: 10, FlatBonus: 5}, 105},
		{"trivial", ExpInput{BaseExp: 100, MobLevel: 1, PlayerLevel: 31}, -50},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, KillExp(c.in))
		})
	}
}

func TestKillGold(t *testing.T) {
	assert.Zero(t, KillGold(nil, 1))
	assert.EqualValues(t, 15, KillGold(&data.LootTable{AvgCoin: 10}, 1.5))
	assert.EqualValues(t, 10, KillGold(&data.LootTable{AvgCoin: 10}, 0))
}
