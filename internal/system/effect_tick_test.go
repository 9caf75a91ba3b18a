package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idlecamp/server/internal/core/event"
	"github.com/idlecamp/server/internal/effect"
)

func TestEffectTick_PlayerDotPaysThroughExpiry(t *testing.T) {
	h := newHarness(t, steady())
	p := h.player()
	p.Effects.Apply(t0, skillDot, effect.Record{
		Duration:       60 * time.Second,
		TickInterval:   10 * time.Second,
		PeriodicDamage: 5,
	}, "The flames die down.")

	var seen []int
	for s := 0; s <= 60; s++ {
		h.deps.Sched.Advance(t0.Add(time.Duration(s) * time.Second))
		h.sys.Effects.Update(time.Second)
		if s%10 == 0 {
			seen = append(seen, p.HP.Cur)
		}
	}
	assert.Equal(t, []int{95, 90, 85, 80, 75, 70, 65}, seen)
	assert.Zero(t, p.Effects.Len())
	assert.Contains(t, h.logTexts(), "The flames die down.")
}

func TestEffectTick_LethalDotKillsPlayer(t *testing.T) {
	h := newHarness(t, steady())
	deaths := collect[event.PlayerDied](h)
	p := h.player()
	p.HP.Cur = 4
	p.Effects.Apply(t0, skillDot, effect.Record{Duration: 60 * time.Second, TickInterval: 10 * time.Second, PeriodicDamage: 5}, "")

	h.sys.Effects.Update(time.Second)
	h.flushEvents()
	require.Len(t, *deaths, 1)
	assert.Equal(t, "lingering effects", (*deaths)[0].KilledBy)
	assert.Zero(t, p.Effects.Len())
}

func TestEffectTick_MobDotKillResolvesOnce(t *testing.T) {
	h := newHarness(t, steady())
	kills := collect[event.MobKilled](h)
	rat := h.spawn(100, 30)

	_, err := h.deps.Skill.UseSkill(skillDot)
	require.NoError(t, err)
	_, ok := rat.Effects.Get(skillDot)
	require.True(t, ok)

	for s := 0; s <= 60; s += 10 {
		h.deps.Sched.Advance(t0.Add(time.Duration(s) * time.Second))
		h.sys.Effects.Update(time.Second)
	}
	assert.Equal(t, 15, rat.HP.Cur)

	rat.HP.Cur = 3
	rat.Effects.Apply(h.deps.Sched.Now(), skillDot, effect.Record{Duration: 60 * time.Second, TickInterval: 10 * time.Second, PeriodicDamage: 5}, "")
	h.sys.Effects.Update(time.Second)
	h.sys.Effects.Update(time.Second)
	h.flushEvents()
	assert.Len(t, *kills, 1)
}

func TestEffectTick_ExpiryShrinksMaxAndRestartsLoop(t *testing.T) {
	h := newHarness(t, steady())
	p := h.player()
	h.spawn(100, 5)
	h.deps.Combat.SetAutoAttack(true)
	p.Effects.Apply(t0, 77, effect.Record{
		Duration: 5 * time.Second,
		StatMods: map[effect.Stat]int{effect.StatMaxHP: 50, effect.StatAttackSpeed: 25},
	}, "")
	RecomputeVitals(h.deps, p, t0)
	h.deps.Combat.Sync()
	require.Equal(t, 150, p.HP.Max)
	require.Equal(t, 150, p.HP.Cur)
	require.Equal(t, 800*time.Millisecond, h.deps.Combat.PlayerLoopDelay())

	h.deps.Sched.Shift(5 * time.Second)
	h.sys.Effects.Update(time.Second)
	assert.Equal(t, 100, p.HP.Max)
	assert.Equal(t, 100, p.HP.Cur)
	assert.Equal(t, time.Second, h.deps.Combat.PlayerLoopDelay())
}

func TestEffectTick_MobDotIsResisted(t *testing.T) {
	h := newHarness(t, steady())
	rat := h.spawn(100, 30)
	rat.Resists = map[string]int{"fire": 50}

	_, err := h.deps.Skill.UseSkill(skillDot)
	require.NoError(t, err)
	a, ok := rat.Effects.Get(skillDot)
	require.True(t, ok)
	assert.Equal(t, "fire", a.School)

	h.sys.Effects.Update(time.Second)
	assert.Equal(t, 47, rat.HP.Cur, "5 less floor(5*50/100)")
}
