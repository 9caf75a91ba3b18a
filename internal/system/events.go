package system

import (
	"time"

	"github.com/idlecamp/server/internal/core/event"
	coresys "github.com/idlecamp/server/internal/core/system"
)

// EventDispatchSystem delivers the previous tick's events at the start of
// the current one.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
