package system

import "time"

// Phase defines execution ordering within a single world tick.
type Phase int

const (
	PhaseEvents  Phase = iota // 0: dispatch last tick's events
	PhaseEffects              // 1: periodic effects, expiry
	PhaseAI                   // 2: mob movement, aggro, travel checks
	PhaseRegen                // 3: vitals regeneration (after effects)
	PhasePersist              // 4: auto-save
	PhaseCleanup              // 5: destroy queued mob entities
)

func (p Phase) String() string {
	switch p {
	case PhaseEvents:
		return "events"
	case PhaseEffects:
		return "effects"
	case PhaseAI:
		return "ai"
	case PhaseRegen:
		return "regen"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every world-tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
