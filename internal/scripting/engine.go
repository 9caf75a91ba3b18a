package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the tunable formulas: the
// experience curve, the death penalty and max-vitals growth.
// Single-goroutine access only (session loop).
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	faults uint64 // formula calls answered with a fallback
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)

	corePath := filepath.Join(scriptsDir, "core")
	if err := e.loadDir(corePath); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load core scripts: %w", err)
	}
	if err := e.checkRequired(); err != nil {
		e.vm.Close()
		return nil, err
	}
	return e, nil
}

// NewEngineFromSource builds an engine from inline chunks, loaded in order.
func NewEngineFromSource(log *zap.Logger, chunks ...string) (*Engine, error) {
	e := newEngine(log)
	for i, src := range chunks {
		if err := e.vm.DoString(src); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load chunk %d: %w", i, err)
		}
	}
	if err := e.checkRequired(); err != nil {
		e.vm.Close()
		return nil, err
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

var requiredFuncs = []string{
	"exp_for_level",
	"level_from_exp",
	"calc_death_exp_penalty",
	"calc_max_vitals",
}

func (e *Engine) checkRequired() error {
	for _, name := range requiredFuncs {
		if e.vm.GetGlobal(name) == lua.LNil {
			return fmt.Errorf("lua function %s not defined", name)
		}
	}
	return nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// --- Level curve ---

// ExpForLevel calls Lua exp_for_level(level): total experience needed to reach level.
func (e *Engine) ExpForLevel(level int) int64 {
	return e.callInt64Func("exp_for_level", float64(level))
}

// LevelFromExp calls Lua level_from_exp(exp).
func (e *Engine) LevelFromExp(exp int64) int {
	return int(e.callInt64Func("level_from_exp", float64(exp)))
}

// DeathExpPenalty calls Lua calc_death_exp_penalty(level, exp).
func (e *Engine) DeathExpPenalty(level int, exp int64) int64 {
	p := e.callInt64Func("calc_death_exp_penalty", float64(level), float64(exp))
	if p < 0 {
		return 0
	}
	return p
}

// --- Max vitals ---

// VitalsContext is the input to calc_max_vitals.
type VitalsContext struct {
	Level         int
	BaseHP        int
	HPPerLevel    int
	BaseMana      int
	ManaPerLevel  int
	BaseEndurance int
	EndPerLevel   int
	Sta, Wis, Int int
}

// Vitals holds max HP, mana and endurance before equipment and effects.
type Vitals struct {
	HP, Mana, Endurance int
}

// MaxVitals calls Lua calc_max_vitals(ctx). On script failure the fault is
// logged and counted, and the class base values are returned so the
// character stays playable.
func (e *Engine) MaxVitals(ctx VitalsContext) Vitals {
	fallback := Vitals{HP: max(ctx.BaseHP, 1), Mana: ctx.BaseMana, Endurance: ctx.BaseEndurance}

	fn := e.vm.GetGlobal("calc_max_vitals")
	if fn == lua.LNil {
		e.fault("lua function calc_max_vitals not found", zap.Int("level", ctx.Level))
		return fallback
	}

	t := e.vm.NewTable()
	t.RawSetString("level", lua.LNumber(ctx.Level))
	t.RawSetString("base_hp", lua.LNumber(ctx.BaseHP))
	t.RawSetString("hp_per_level", lua.LNumber(ctx.HPPerLevel))
	t.RawSetString("base_mana", lua.LNumber(ctx.BaseMana))
	t.RawSetString("mana_per_level", lua.LNumber(ctx.ManaPerLevel))
	t.RawSetString("base_endurance", lua.LNumber(ctx.BaseEndurance))
	t.RawSetString("endurance_per_level", lua.LNumber(ctx.EndPerLevel))
	t.RawSetString("sta", lua.LNumber(ctx.Sta))
	t.RawSetString("wis", lua.LNumber(ctx.Wis))
	t.RawSetString("int", lua.LNumber(ctx.Int))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.fault("lua calc_max_vitals error", zap.Int("level", ctx.Level), zap.Error(err))
		return fallback
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.fault("lua calc_max_vitals returned non-table", zap.Int("level", ctx.Level),
			zap.String("type", result.Type().String()))
		return fallback
	}
	v := Vitals{
		HP:        lInt(rt, "hp"),
		Mana:      lInt(rt, "mana"),
		Endurance: lInt(rt, "endurance"),
	}
	if v.HP < 1 {
		v.HP = 1
	}
	return v
}

// Faults returns how many formula calls fell back to a default because the
// script failed.
func (e *Engine) Faults() uint64 { return e.faults }

func (e *Engine) fault(msg string, fields ...zap.Field) {
	e.faults++
	e.log.Error(msg, append(fields, zap.Uint64("faults", e.faults))...)
}

// --- Lua helpers ---

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// callInt64Func calls a Lua function with numeric args and returns an integer result.
func (e *Engine) callInt64Func(name string, args ...float64) int64 {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.fault("lua function not found", zap.String("func", name))
		return 0
	}

	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lArgs...); err != nil {
		e.fault("lua call error", zap.String("func", name), zap.Error(err))
		return 0
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return int64(lua.LVAsNumber(result))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
