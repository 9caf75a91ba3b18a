package scripting

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func loadShipped(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestLevelCurve_RoundTrips(t *testing.T) {
	e := loadShipped(t)
	assert.Equal(t, int64(0), e.ExpForLevel(1))
	assert.Equal(t, int64(115), e.ExpForLevel(2))

	for lvl := 1; lvl <= 59; lvl++ {
		need := e.ExpForLevel(lvl)
		assert.Equal(t, lvl, e.LevelFromExp(need), "exactly at level %d", lvl)
		if lvl > 1 {
			assert.Equal(t, lvl-1, e.LevelFromExp(need-1), "just below level %d", lvl)
		}
	}
	assert.Equal(t, 60, e.LevelFromExp(1<<40), "capped")
}

func TestDeathExpPenalty(t *testing.T) {
	e := loadShipped(t)
	assert.Zero(t, e.DeathExpPenalty(3, 500), "newbie protection")

	span := e.ExpForLevel(11) - e.ExpForLevel(10)
	exp := e.ExpForLevel(10) + 100
	assert.Equal(t, span*5/100, e.DeathExpPenalty(10, exp))

	assert.Equal(t, int64(10), e.DeathExpPenalty(20, 10), "never more than held")
}

func TestMaxVitals(t *testing.T) {
	e := loadShipped(t)
	v := e.MaxVitals(VitalsContext{
		Level: 10, BaseHP: 60, HPPerLevel: 12,
		BaseMana: 0, BaseEndurance: 50, EndPerLevel: 5,
		Sta: 80, Wis: 45, Int: 40,
	})
	assert.Equal(t, 60+12*9+80*10/20, v.HP)
	assert.Zero(t, v.Mana, "no mana pool for pure melee")
	assert.Equal(t, 50+5*9+80*10/40, v.Endurance)

	caster := e.MaxVitals(VitalsContext{Level: 1, BaseHP: 35, BaseMana: 60, Sta: 65, Wis: 60, Int: 95})
	assert.Equal(t, 60+95/40, caster.Mana)
}

func TestNewEngineFromSource_MissingFunction(t *testing.T) {
	_, err := NewEngineFromSource(zap.NewNop(), `function exp_for_level(l) return 0 end`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level_from_exp")
}

func TestMaxVitals_ScriptErrorFallsBack(t *testing.T) {
	e, err := NewEngineFromSource(zap.NewNop(), `
function exp_for_level(l) return 0 end
function level_from_exp(x) return 1 end
function calc_death_exp_penalty(l, x) return -5 end
function calc_max_vitals(c) error("boom") end
`)
	require.NoError(t, err)
	defer e.Close()

	v := e.MaxVitals(VitalsContext{BaseHP: 40, BaseMana: 10, BaseEndurance: 20})
	assert.Equal(t, Vitals{HP: 40, Mana: 10, Endurance: 20}, v)
	assert.Zero(t, e.DeathExpPenalty(10, 100), "negative clamps to zero")
	assert.EqualValues(t, 1, e.Faults(), "a clamped result is not a fault")
}

func TestMaxVitals_FallbackLoggedEveryTime(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	e, err := NewEngineFromSource(zap.New(core), `
function exp_for_level(l) return 0 end
function level_from_exp(x) return 1 end
function calc_death_exp_penalty(l, x) return 0 end
function calc_max_vitals(c) return 5 end
`)
	require.NoError(t, err)
	defer e.Close()

	for range 2 {
		e.MaxVitals(VitalsContext{Level: 3, BaseHP: 40})
	}
	assert.EqualValues(t, 2, e.Faults())
	entries := logs.FilterMessage("lua calc_max_vitals returned non-table").All()
	require.Len(t, entries, 2)
	assert.EqualValues(t, 3, entries[0].ContextMap()["level"])
	assert.EqualValues(t, 2, entries[1].ContextMap()["faults"])
}
