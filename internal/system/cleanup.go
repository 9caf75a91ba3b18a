package system

import (
	"time"

	coresys "github.com/idlecamp/server/internal/core/system"
)

// CleanupSystem runs last in the tick: it flushes despawned mob entities and
// drops cooldown entries that have come due. Phase 5 (Cleanup).
type CleanupSystem struct {
	deps *Deps
}

func NewCleanupSystem(d *Deps) *CleanupSystem {
	return &CleanupSystem{deps: d}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.deps.State.Mobs.FlushDestroyQueue()
	if p := s.deps.State.Player; p != nil {
		p.PruneCooldowns(s.deps.now())
	}
}
