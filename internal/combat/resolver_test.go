package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idlecamp/server/internal/testutil"
)

func TestLevelDamageMultiplier_EqualLevelsIsOne(t *testing.T) {
	for _, lvl := range []int{1, 10, 50, 99} {
		assert.Equal(t, 1.0, LevelDamageMultiplier(lvl, lvl), "level %d", lvl)
	}
}

func TestLevelDamageMultiplier_MonotonicInGap(t *testing.T) {
	prev := LevelDamageMultiplier(1, 100)
	for att := 2; att <= 200; att++ {
		m := LevelDamageMultiplier(att, 100)
		require.GreaterOrEqual(t, m, prev, "attacker %d", att)
		prev = m
	}
}

func TestLevelDamageMultiplier_Bounds(t *testing.T) {
	assert.Equal(t, 0.5, LevelDamageMultiplier(1, 90))
	assert.InDelta(t, 1.2, LevelDamageMultiplier(20, 10), 1e-9)
	assert.InDelta(t, 1.28, LevelDamageMultiplier(21, 10), 1e-9)
	assert.Equal(t, 5.0, LevelDamageMultiplier(200, 1))
}

func TestHitChance_Clamped(t *testing.T) {
	assert.InDelta(t, 0.90, HitChance(10, 10), 1e-9)
	assert.InDelta(t, 0.84, HitChance(10, 12), 1e-9)
	assert.InDelta(t, 0.93, HitChance(13, 10), 1e-9)
	assert.Equal(t, minHitChance, HitChance(1, 99))
	assert.Equal(t, maxHitChance, HitChance(99, 1))
}

func TestDodgeChance_ExtremeAgility(t *testing.T) {
	assert.Equal(t, 0.5, DodgeChance(10, 10, 10_000))
	assert.Equal(t, 0.5, DodgeChance(1, 99, 10_000))
	assert.Equal(t, 0.0, DodgeChance(99, 1, 0))
	assert.InDelta(t, 0.12, DodgeChance(10, 12, 100), 1e-9)
}

func TestCritChance_Bounds(t *testing.T) {
	assert.InDelta(t, 0.05, CritChance(0, 0), 1e-9)
	assert.InDelta(t, 0.10, CritChance(0, 50), 1e-9)
	assert.InDelta(t, 0.00, CritChance(0, -50), 1e-9)
	assert.Equal(t, 1.0, CritChance(10_000, 0))
}

func TestResolveHit_RollOrder(t *testing.T) {
	miss := &testutil.SeqRand{Floats: []float64{0.95}}
	assert.Equal(t, OutcomeMiss, ResolveHit(miss, 10, 10, 0))

	dodge := &testutil.SeqRand{Floats: []float64{0.1, 0.05}}
	assert.Equal(t, OutcomeDodge, ResolveHit(dodge, 10, 10, 100))

	hit := &testutil.SeqRand{Floats: []float64{0.1, 0.2}}
	assert.Equal(t, OutcomeHit, ResolveHit(hit, 10, 10, 100))
}

func TestResolveHit_Distribution(t *testing.T) {
	r := NewRand(42)
	const n = 20000
	var hits, dodges, misses int
	for i := 0; i < n; i++ {
		switch ResolveHit(r, 10, 10, 200) {
		case OutcomeHit:
			hits++
		case OutcomeDodge:
			dodges++
		case OutcomeMiss:
			misses++
		}
	}
	// miss ≈ 10%, dodge ≈ 0.9*0.2 = 18%
	assert.InDelta(t, 0.10, float64(misses)/n, 0.02)
	assert.InDelta(t, 0.18, float64(dodges)/n, 0.02)
	assert.InDelta(t, 0.72, float64(hits)/n, 0.02)
}

func TestFinalDamage_PhysicalFloorAndMitigation(t *testing.T) {
	noCrit := testutil.Steady()

	res := FinalDamage(noCrit, DamageInput{Base: 20, Mitigation: 0, LevelMultiplier: 1, CritChance: 0.05})
	assert.Equal(t, 20, res.Damage)
	assert.False(t, res.Crit)

	res = FinalDamage(noCrit, DamageInput{Base: 20, Mitigation: 55, LevelMultiplier: 1})
	assert.Equal(t, 15, res.Damage)
	assert.Equal(t, 5, res.Mitigated)

	// armor far above damage still chips 1
	res = FinalDamage(noCrit, DamageInput{Base: 3, Mitigation: 1000, LevelMultiplier: 1})
	assert.Equal(t, 1, res.Damage)

	res = FinalDamage(noCrit, DamageInput{Base: 0, Mitigation: 1000, LevelMultiplier: 1})
	assert.Equal(t, 1, res.Damage)
}

func TestFinalDamage_SpellResist(t *testing.T) {
	noCrit := testutil.Steady()
	res := FinalDamage(noCrit, DamageInput{Base: 40, Spell: true, Mitigation: 25, LevelMultiplier: 1})
	assert.Equal(t, 30, res.Damage)

	res = FinalDamage(noCrit, DamageInput{Base: 40, Spell: true, Mitigation: 150, LevelMultiplier: 1})
	assert.Equal(t, 0, res.Damage)
}

func TestFinalDamage_CritDoubles(t *testing.T) {
	crit := &testutil.FixedRand{Float: 0.0}
	res := FinalDamage(crit, DamageInput{Base: 10, LevelMultiplier: 1.5, CritChance: 0.05})
	assert.True(t, res.Crit)
	assert.Equal(t, 30, res.Damage)
}

func TestFinalDamage_NeverNegative(t *testing.T) {
	r := NewRand(7)
	for i := 0; i < 5000; i++ {
		in := DamageInput{
			Base:            r.IntN(200) - 20,
			Spell:           i%2 == 0,
			Mitigation:      r.IntN(2000) - 100,
			LevelMultiplier: LevelDamageMultiplier(r.IntN(99)+1, r.IntN(99)+1),
			CritChance:      r.Float64(),
		}
		res := FinalDamage(r, in)
		require.GreaterOrEqual(t, res.Damage, 0)
		if !in.Spell {
			require.GreaterOrEqual(t, res.Damage, 1)
		}
	}
}

func TestRollBase(t *testing.T) {
	assert.Equal(t, 20, RollBase(testutil.Steady(), 5, 20))
	assert.Equal(t, 5, RollBase(&testutil.FixedRand{Int: 0}, 5, 20))
	assert.Equal(t, 7, RollBase(testutil.Steady(), 7, 7))
}
