package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/idlecamp/server/internal/core/system"
)

// Saver hands a character snapshot to the storage side without blocking
// the loop. QueueSave reports whether the snapshot was accepted; NeedsRetry
// reports that the last write failed and should be repeated.
type Saver interface {
	QueueSave() bool
	NeedsRetry() bool
}

// PersistenceSystem periodically auto-saves the session's character when it
// has changed or the previous save failed. Phase 4 (Persist).
type PersistenceSystem struct {
	deps      *Deps
	saver     Saver
	tickCount int
	interval  int // auto-save every N ticks
}

func NewPersistenceSystem(d *Deps, intervalTicks int, saver Saver) *PersistenceSystem {
	return &PersistenceSystem{
		deps:     d,
		saver:    saver,
		interval: max(intervalTicks, 1),
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	p := s.deps.State.Player
	if s.saver == nil || p == nil {
		return
	}
	if !p.Dirty && !s.saver.NeedsRetry() {
		return // no change since last save
	}
	s.save()
}

// SaveNow queues a save regardless of the dirty flag (shutdown).
func (s *PersistenceSystem) SaveNow() bool {
	if s.saver == nil {
		return false
	}
	return s.save()
}

func (s *PersistenceSystem) save() bool {
	p := s.deps.State.Player
	if !s.saver.QueueSave() {
		s.deps.Log.Warn("save queue full, retrying next cycle", zap.Int64("char", p.CharID))
		return false
	}
	p.Dirty = false
	return true
}
