package system

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/idlecamp/server/internal/combat"
	"github.com/idlecamp/server/internal/combatlog"
	"github.com/idlecamp/server/internal/core/timer"
	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/world"
)

// defaultRespawn is used for camps without a respawn delay.
const defaultRespawn = 5 * time.Second

// SpawnSystem keeps one mob at the player's camp. Flow: mob dies →
// respawn timer → weighted pick from the camp spawn list → spawn at the
// camp's spawn distance.
type SpawnSystem struct {
	deps  *Deps
	timer *timer.Handle
}

func NewSpawnSystem(d *Deps) *SpawnSystem {
	return &SpawnSystem{deps: d}
}

// Schedule (re)starts the camp respawn timer.
func (s *SpawnSystem) Schedule() {
	s.timer.Cancel()
	delay := defaultRespawn
	if camp := s.deps.Tables.Zones.Camp(s.deps.State.Player.CampID); camp != nil && camp.RespawnSec > 0 {
		delay = time.Duration(camp.RespawnSec) * time.Second
	}
	s.timer = s.deps.Sched.After("spawn", delay, s.SpawnNow)
}

// Cancel stops a pending respawn.
func (s *SpawnSystem) Cancel() {
	s.timer.Cancel()
	s.timer = nil
}

// Pending reports whether a respawn is scheduled.
func (s *SpawnSystem) Pending() bool { return s.timer.Active() }

// SpawnNow spawns a camp mob immediately if nothing is up.
func (s *SpawnSystem) SpawnNow() {
	s.Cancel()
	d := s.deps
	st := d.State
	p := st.Player
	if st.Mob != nil || p.Dead || st.Travel.Active() {
		return
	}
	camp := d.Tables.Zones.Camp(p.CampID)
	if camp == nil {
		d.Log.Error("player camp not defined", zap.Int32("camp", p.CampID))
		return
	}
	mobID, ok := pickSpawn(d.Rand, camp.Spawns)
	if !ok {
		return // safe camp
	}
	tmpl := d.Tables.Mobs.Get(mobID)
	if tmpl == nil || tmpl.Fault != nil {
		// 資料錯誤：此次生成中止，稍後重試
		d.Log.Error("mob data fault, spawn skipped", zap.Int32("mob", mobID), zap.Int32("camp", camp.CampID), zap.Error(faultOf(tmpl)))
		s.Schedule()
		return
	}
	m := s.Spawn(tmpl, camp.SpawnDistance, false)
	d.Log.Debug(fmt.Sprintf("怪物生成  營地=%s  怪物=%s  等級=%d  距離=%.1f", camp.Name, m.Name, m.Level, m.Distance))
}

// Spawn instantiates tmpl at distance as the session's active mob.
func (s *SpawnSystem) Spawn(tmpl *data.MobTemplate, distance float64, ambusher bool) *world.Mob {
	d := s.deps
	st := d.State
	lo, hi := tmpl.LevelMin, tmpl.LevelMax
	if lo == 0 {
		lo = tmpl.Level
	}
	if hi == 0 {
		hi = tmpl.Level
	}
	level := combat.RollBase(d.Rand, lo, hi)

	m := world.NewMob(st.Mobs.CreateEntity(), tmpl, level, distance, d.now())
	m.Ambusher = ambusher
	st.Mob = m
	d.logf(combatlog.KindSystem, "%s (level %d) appears.", m.Name, m.Level)
	d.Combat.Sync()
	return m
}

// pickSpawn does a weighted draw. Entries with no weight count as 1.
func pickSpawn(r combat.Rand, spawns []data.CampSpawn) (int32, bool) {
	total := 0
	for _, sp := range spawns {
		total += max(sp.Weight, 1)
	}
	if total == 0 {
		return 0, false
	}
	n := r.IntN(total)
	for _, sp := range spawns {
		n -= max(sp.Weight, 1)
		if n < 0 {
			return sp.MobID, true
		}
	}
	return spawns[len(spawns)-1].MobID, true
}

func faultOf(t *data.MobTemplate) error {
	if t == nil {
		return errors.New("not defined")
	}
	return t.Fault
}
