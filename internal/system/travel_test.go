package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idlecamp/server/internal/core/event"
	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/testutil"
	"github.com/idlecamp/server/internal/world"
)

// A certain roll every step still never ambushes in a tier 0 zone.
func TestTravel_SafeZoneArrivesInTenSteps(t *testing.T) {
	h := newHarness(t, &testutil.FixedRand{Float: 0, Int: 0})
	done := collect[event.TravelFinished](h)
	p := h.player()
	h.spawn(100, 30)

	rej, err := h.deps.Travel.Start(2)
	require.NoError(t, err)
	require.Nil(t, rej)
	tr := &h.deps.State.Travel
	assert.Equal(t, world.Traveling, tr.Phase)
	assert.Equal(t, 100.0, tr.Remaining)
	assert.Nil(t, h.deps.State.Mob, "leaving camp despawns the mob")

	h.advance(9 * time.Second)
	assert.Equal(t, 9, tr.Steps)
	assert.Equal(t, world.Traveling, tr.Phase)
	assert.Equal(t, int32(1), p.CampID)
	assert.Nil(t, h.deps.State.Mob)

	h.advance(time.Second)
	assert.Equal(t, 10, tr.Steps)
	assert.Equal(t, world.TravelArrived, tr.Phase)
	assert.Equal(t, int32(2), p.CampID)
	assert.True(t, h.deps.Spawn.Pending())

	h.flushEvents()
	require.Len(t, *done, 1)
	assert.Equal(t, event.TravelFinished{CharID: 7, FromCamp: 1, ToCamp: 2}, (*done)[0])
}

func TestTravel_Rejections(t *testing.T) {
	h := newHarness(t, steady())

	rej, err := h.deps.Travel.Start(1)
	require.NoError(t, err)
	assert.Equal(t, ReasonSameCamp, rej.Reason)

	h.spawn(100, 30)
	h.deps.Combat.Hostile()
	rej, err = h.deps.Travel.Start(2)
	require.NoError(t, err)
	assert.Equal(t, ReasonInCombat, rej.Reason)

	h.deps.Combat.Exit()
	rej, err = h.deps.Travel.Start(2)
	require.NoError(t, err)
	require.Nil(t, rej)
	rej, err = h.deps.Travel.Start(3)
	require.NoError(t, err)
	assert.Equal(t, ReasonTraveling, rej.Reason)
}

func TestTravel_UnknownCampIsIntegrityFault(t *testing.T) {
	h := newHarness(t, steady())
	_, err := h.deps.Travel.Start(42)
	require.ErrorIs(t, err, data.ErrIntegrity)
	assert.False(t, h.deps.State.Travel.Active())
}

func TestTravel_FasterMobAmbushes(t *testing.T) {
	h := newHarness(t, &testutil.FixedRand{Float: 0, Int: 0})
	done := collect[event.TravelFinished](h)
	p := h.player()
	p.CampID = 3

	_, err := h.deps.Travel.Start(1)
	require.NoError(t, err)
	h.advance(time.Second)

	tr := h.deps.State.Travel
	assert.Equal(t, world.TravelAmbushed, tr.Phase)
	assert.Equal(t, 1, tr.Steps)
	assert.Equal(t, int32(3), p.CampID, "ambushed travelers stay at the origin")

	m := h.deps.State.Mob
	require.NotNil(t, m)
	assert.Equal(t, "a grey wolf", m.Name)
	assert.True(t, m.Ambusher)
	assert.True(t, m.InMelee())
	assert.Equal(t, world.InCombat, h.deps.State.Combat)
	assert.True(t, h.deps.Combat.MobLoopActive())

	h.advance(5 * time.Second)
	assert.Equal(t, 1, h.deps.State.Travel.Steps, "travel stops on ambush")

	h.flushEvents()
	require.Len(t, *done, 1)
	assert.True(t, (*done)[0].Ambushed)
}

func TestTravel_SlowerMobIsOutpaced(t *testing.T) {
	h := newHarness(t, &testutil.FixedRand{Float: 0, Int: 0})
	h.deps.Tables.Zones.Zone(2).AmbushMobs = []int32{300}
	p := h.player()
	p.CampID = 3

	_, err := h.deps.Travel.Start(1)
	require.NoError(t, err)
	h.advance(10 * time.Second)

	assert.Equal(t, world.TravelArrived, h.deps.State.Travel.Phase)
	assert.Equal(t, int32(1), p.CampID)
	assert.Nil(t, h.deps.State.Mob)
	assert.Contains(t, h.logTexts(), "You outpace a slug.")
}

func TestTravel_DeathCancels(t *testing.T) {
	h := newHarness(t, steady())
	_, err := h.deps.Travel.Start(2)
	require.NoError(t, err)

	h.deps.Death.KillPlayer("test")
	assert.False(t, h.deps.State.Travel.Active())
	h.advance(20 * time.Second)
	assert.Equal(t, int32(1), h.player().CampID)
}
