package effect

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idlecamp/server/internal/testutil"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sec(n int) time.Duration { return time.Duration(n) * time.Second }

func TestCompile_UnknownCodesIgnored(t *testing.T) {
	p, err := Compile([]Entry{{Code: 999, Base: 5}, {Code: CodeDamage, Base: 10}}, 0, 0)
	require.NoError(t, err)
	require.Len(t, p.Effects, 1)
	assert.Equal(t, DamageEffect{Amount: 10}, p.Effects[0])
	assert.True(t, p.Instant())
	assert.False(t, p.Periodic())
}

func TestCompile_DurationRequired(t *testing.T) {
	for _, code := range []Code{CodeStun, CodeMez, CodeShield, CodeMoveSpeed, CodeStr, CodeAttackSpeed} {
		_, err := Compile([]Entry{{Code: code, Base: 1}}, 0, 0)
		var fe *FieldError
		require.Error(t, err, "code %d", code)
		assert.True(t, errors.As(err, &fe), "code %d", code)
	}
}

func TestCompile_PeriodicNeedsTick(t *testing.T) {
	_, err := Compile([]Entry{{Code: CodeDamage, Base: 5}}, sec(60), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick_interval")

	_, err = Compile([]Entry{{Code: CodeDamage, Base: 5}}, sec(10), sec(20))
	require.Error(t, err)

	p, err := Compile([]Entry{{Code: CodeDamage, Base: 5}}, sec(60), sec(10))
	require.NoError(t, err)
	assert.True(t, p.Periodic())
}

func TestCompile_ReportsEveryFault(t *testing.T) {
	_, err := Compile([]Entry{{Code: CodeStun}, {Code: CodeMez}}, 0, 0)
	require.Error(t, err)
	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 2)
}

func TestAccumulate_ScalingAndCharisma(t *testing.T) {
	p, err := Compile([]Entry{
		{Code: CodeDamage, Base: 10, Scaling: StatInt},
		{Code: CodeStr, Base: 5},
		{Code: CodeStr, Base: 3},
		{Code: CodeMana, Base: -2},
	}, sec(30), sec(6))
	require.NoError(t, err)

	rec := Accumulate(p, AccumulateInput{
		CasterStats: map[Stat]int{StatInt: 55},
		CasterCha:   100,
	})
	// (10 + 55/10) * (1 + 100/10/100) = 15 * 1.1
	assert.Equal(t, 16, rec.PeriodicDamage)
	assert.Equal(t, 8, rec.StatMods[StatStr])
	assert.Equal(t, -2, rec.ManaPerTick)
	assert.True(t, rec.Lasting())
}

func TestAccumulate_InstantNotBoosted(t *testing.T) {
	p, err := Compile([]Entry{{Code: CodeHeal, Base: 40}, {Code: CodeEndurance, Base: 7}}, 0, 0)
	require.NoError(t, err)
	rec := Accumulate(p, AccumulateInput{CasterCha: 250})
	assert.Equal(t, 40, rec.InstantHeal)
	assert.Equal(t, 7, rec.InstantEndurance)
	assert.Zero(t, rec.PeriodicHeal)
}

func TestAccumulate_ControlResistedDiscardsEntirely(t *testing.T) {
	p, err := Compile([]Entry{{Code: CodeStun}, {Code: CodeMez}, {Code: CodeAgi, Base: -10}}, sec(12), 0)
	require.NoError(t, err)

	resisted := Accumulate(p, AccumulateInput{
		School:       "mind",
		TargetResist: 60,
		CasterCha:    100, // effective resist 50
		Rand:         &testutil.FixedRand{Float: 0.4},
	})
	assert.True(t, resisted.ControlResisted)
	assert.Equal(t, ControlNone, resisted.Control)
	assert.Equal(t, -10, resisted.StatMods[StatAgi])

	landed := Accumulate(p, AccumulateInput{
		School:       "mind",
		TargetResist: 60,
		CasterCha:    100,
		Rand:         &testutil.FixedRand{Float: 0.6},
	})
	assert.False(t, landed.ControlResisted)
	assert.Equal(t, ControlStun, landed.Control)
}

func TestControlResisted_NoSchoolNeverResists(t *testing.T) {
	assert.False(t, ControlResisted(&testutil.FixedRand{Float: 0}, "", 100, 0))
	assert.False(t, ControlResisted(&testutil.FixedRand{Float: 0}, "fire", 10, 100))
}

// A 60s effect ticking every 10s pays at 0,10,...,60 and is gone after the expiry tick.
func TestTracker_PeriodicPaysThroughExpiry(t *testing.T) {
	tr := NewTracker()
	tr.Apply(t0, 7, Record{Duration: sec(60), TickInterval: sec(10), PeriodicDamage: 5}, "The poison fades.")

	hp := 100
	var seen []int
	for s := 0; s <= 60; s++ {
		res := tr.Tick(t0.Add(sec(s)))
		hp -= res.Damage
		if s%10 == 0 {
			seen = append(seen, hp)
		} else {
			assert.Zero(t, res.Damage, "t=%d", s)
		}
		if s == 60 {
			require.Len(t, res.Expired, 1)
			assert.Equal(t, "The poison fades.", res.Expired[0].FadeMessage)
		}
	}
	assert.Equal(t, []int{95, 90, 85, 80, 75, 70, 65}, seen)
	assert.Zero(t, tr.Len())
	_, ok := tr.Get(7)
	assert.False(t, ok)
}

func TestTracker_TickCountIsFloorPlusOne(t *testing.T) {
	cases := []struct{ d, i int }{{60, 10}, {30, 7}, {6, 6}, {25, 10}}
	for _, c := range cases {
		tr := NewTracker()
		tr.Apply(t0, 1, Record{Duration: sec(c.d), TickInterval: sec(c.i), PeriodicHeal: 1}, "")
		total := 0
		for s := 0; s <= c.d+5; s++ {
			total += tr.Tick(t0.Add(sec(s))).Heal
		}
		assert.Equal(t, c.d/c.i+1, total, "d=%d t=%d", c.d, c.i)
	}
}

func TestTracker_ReapplyReplaces(t *testing.T) {
	tr := NewTracker()
	first, old := tr.Apply(t0, 3, Record{Duration: sec(30), StatMods: map[Stat]int{StatStr: 10}}, "")
	assert.Nil(t, old)

	second, old := tr.Apply(t0.Add(sec(5)), 3, Record{Duration: sec(30), StatMods: map[Stat]int{StatStr: 12}}, "")
	assert.Same(t, first, old)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, 12, tr.Stat(t0.Add(sec(6)), StatStr))
}

func TestTracker_StatModifiersZeroAfterExpiry(t *testing.T) {
	tr := NewTracker()
	tr.Apply(t0, 1, Record{Duration: sec(10), StatMods: map[Stat]int{StatArmor: 20}}, "")
	tr.Apply(t0, 2, Record{Duration: sec(20), StatMods: map[Stat]int{StatArmor: 5}}, "")

	assert.Equal(t, 25, tr.StatModifiers(t0.Add(sec(9)))[StatArmor])
	assert.Equal(t, 5, tr.StatModifiers(t0.Add(sec(10)))[StatArmor])

	tr.Tick(t0.Add(sec(11)))
	assert.Equal(t, 1, tr.Len())
	assert.Zero(t, tr.StatModifiers(t0.Add(sec(21)))[StatArmor])
}

func TestTracker_ControlAndBreakMez(t *testing.T) {
	tr := NewTracker()
	tr.Apply(t0, 1, Record{Duration: sec(10), Control: ControlMez}, "")
	assert.Equal(t, ControlMez, tr.Control(t0))

	tr.Apply(t0, 2, Record{Duration: sec(3), Control: ControlStun}, "")
	assert.Equal(t, ControlStun, tr.Control(t0.Add(sec(1))))

	broken := tr.BreakMez()
	require.Len(t, broken, 1)
	assert.EqualValues(t, 1, broken[0].SkillID)
	assert.Equal(t, ControlStun, tr.Control(t0.Add(sec(1))))
	assert.Equal(t, ControlNone, tr.Control(t0.Add(sec(3))))
}

func TestTracker_AbsorbConsumesShields(t *testing.T) {
	tr := NewTracker()
	tr.Apply(t0, 1, Record{Duration: sec(60), Shield: 10}, "")
	tr.Apply(t0, 2, Record{Duration: sec(60), Shield: 5}, "")

	left, absorbed := tr.Absorb(12)
	assert.Equal(t, 0, left)
	assert.Equal(t, 12, absorbed)

	left, absorbed = tr.Absorb(8)
	assert.Equal(t, 5, left)
	assert.Equal(t, 3, absorbed)
}

func TestTracker_SnapshotRehydrate(t *testing.T) {
	tr := NewTracker()
	tr.Apply(t0, 1, Record{Duration: sec(60), TickInterval: sec(10), PeriodicDamage: 4}, "fade")
	tr.Apply(t0, 2, Record{Duration: sec(5), StatMods: map[Stat]int{StatDex: 3}}, "")
	snaps := tr.Snapshot()
	require.Len(t, snaps, 2)

	loaded := NewTracker()
	n := loaded.Rehydrate(snaps, t0.Add(sec(30)))
	assert.Equal(t, 1, n)

	a, ok := loaded.Get(1)
	require.True(t, ok)
	assert.Equal(t, sec(30), a.Remaining(t0.Add(sec(30))))
	assert.Equal(t, t0.Add(sec(30)), a.NextTick)
	assert.Equal(t, 4, loaded.Tick(t0.Add(sec(30))).Damage)
	assert.Equal(t, snaps[0].ID, a.ID.String())
}

func TestTracker_TickAgainstResist(t *testing.T) {
	tr := NewTracker()
	tr.Apply(t0, 1, Record{Duration: sec(30), TickInterval: sec(10), PeriodicDamage: 9, School: "fire"}, "")
	tr.Apply(t0, 2, Record{Duration: sec(30), TickInterval: sec(10), PeriodicDamage: 4}, "")
	resist := func(school string) int {
		if school == "fire" {
			return 40
		}
		return 100
	}

	// 9 - floor(9*40/100) = 6; no school is never resisted
	assert.Equal(t, 10, tr.TickAgainst(t0, resist).Damage)
	assert.Equal(t, 13, tr.Tick(t0.Add(sec(10))).Damage)

	snaps := tr.Snapshot()
	require.Len(t, snaps, 2)
	assert.Equal(t, "fire", snaps[0].School)

	loaded := NewTracker()
	require.Equal(t, 2, loaded.Rehydrate(snaps, t0.Add(sec(20))))
	assert.Equal(t, 10, loaded.TickAgainst(t0.Add(sec(20)), resist).Damage)
}

func TestTracker_FullResistPaysNothing(t *testing.T) {
	tr := NewTracker()
	tr.Apply(t0, 1, Record{Duration: sec(10), TickInterval: sec(5), PeriodicDamage: 7, School: "cold"}, "")
	res := tr.TickAgainst(t0, func(string) int { return 150 })
	assert.Zero(t, res.Damage)
}
