package world

import (
	"time"

	"github.com/idlecamp/server/internal/core/ecs"
)

// Mode is fixed at character creation.
type Mode int

const (
	ModeNormal Mode = iota
	ModeHardcore
)

func (m Mode) String() string {
	if m == ModeHardcore {
		return "hardcore"
	}
	return "normal"
}

// Player holds in-memory data for the session's character.
// Accessed only from the session goroutine, no locks needed.
type Player struct {
	Combatant
	CharID  int64
	ClassID int32
	Mode    Mode
	Exp     int64 // cumulative total exp
	Gold    int64

	Inv         *Inventory
	Equip       Equipment
	KnownSkills []int32
	Slots       []int32 // abilities fired by the auto loop, in order, before the base attack
	Cooldowns   map[int32]time.Time

	CampID   int32
	BindCamp int32

	// Class-derived regen bases and exp modifier.
	HPRegen        int
	ManaRegen      int
	EnduranceRegen int
	ExpModifier    float64

	Resting            bool
	AutoAttack         bool
	FleeExhaustedUntil time.Time
	LastAttack         time.Time // base attack gating
	Dead               bool
	CreatedAt          time.Time

	Kills  int64 // lifetime, survives a hardcore reset
	Deaths int64

	Dirty bool // needs save
}

// Knows reports whether the player has learned skillID.
func (p *Player) Knows(skillID int32) bool {
	for _, id := range p.KnownSkills {
		if id == skillID {
			return true
		}
	}
	return false
}

// Ready reports whether skillID is off cooldown at now.
func (p *Player) Ready(skillID int32, now time.Time) bool {
	at, ok := p.Cooldowns[skillID]
	return !ok || !now.Before(at)
}

// StartCooldown records the ready time for skillID.
func (p *Player) StartCooldown(skillID int32, d time.Duration, now time.Time) {
	if d <= 0 {
		return
	}
	if p.Cooldowns == nil {
		p.Cooldowns = make(map[int32]time.Time)
	}
	p.Cooldowns[skillID] = now.Add(d)
}

// PruneCooldowns drops entries that are already ready.
func (p *Player) PruneCooldowns(now time.Time) {
	for id, at := range p.Cooldowns {
		if !now.Before(at) {
			delete(p.Cooldowns, id)
		}
	}
}

// Exhausted reports whether flee exhaustion is active.
func (p *Player) Exhausted(now time.Time) bool {
	return now.Before(p.FleeExhaustedUntil)
}

// CombatState is the session-level engagement state.
type CombatState int

const (
	OutOfCombat CombatState = iota
	InCombat
)

func (c CombatState) String() string {
	if c == InCombat {
		return "in_combat"
	}
	return "out_of_combat"
}

// TravelPhase is the camp-to-camp travel state.
type TravelPhase int

const (
	TravelIdle TravelPhase = iota
	Traveling
	TravelArrived
	TravelAmbushed
)

func (t TravelPhase) String() string {
	switch t {
	case Traveling:
		return "traveling"
	case TravelArrived:
		return "arrived"
	case TravelAmbushed:
		return "ambushed"
	}
	return "idle"
}

// Travel is an in-progress or finished trip.
type Travel struct {
	Phase     TravelPhase
	From      int32
	To        int32
	Remaining float64
	Steps     int
}

// Active reports whether the trip is still stepping.
func (t *Travel) Active() bool { return t.Phase == Traveling }

// Cast is a pending spell cast. Resources and cooldown are already committed.
type Cast struct {
	SkillID   int32
	Target    ecs.EntityID
	Started   time.Time
	Completes time.Time
}

// State is everything one session mutates. The combat controller owns Mob,
// the vitals manager owns Player's pools.
type State struct {
	Player *Player
	Mob    *Mob // nil when no mob is spawned
	Mobs   *ecs.World

	Combat      CombatState
	LastHostile time.Time

	Travel Travel
	Cast   *Cast
}

// NewState wraps p with an empty mob world.
func NewState(p *Player) *State {
	return &State{Player: p, Mobs: ecs.NewWorld()}
}

// Casting reports whether a cast is pending.
func (s *State) Casting() bool { return s.Cast != nil }

// LiveMob returns the current mob if it is spawned and alive.
func (s *State) LiveMob() *Mob {
	if s.Mob == nil || s.Mob.Life != MobAlive {
		return nil
	}
	return s.Mob
}

// MarkHostile records a hostile action at now and reports whether it moved
// the session into combat.
func (s *State) MarkHostile(now time.Time) bool {
	s.LastHostile = now
	if s.Combat == InCombat {
		return false
	}
	s.Combat = InCombat
	return true
}

// CombatExpired reports whether timeout has passed since the last hostile action.
func (s *State) CombatExpired(now time.Time, timeout time.Duration) bool {
	return s.Combat == InCombat && !now.Before(s.LastHostile.Add(timeout))
}

// ClearMob drops the active mob and queues its entity for destruction.
func (s *State) ClearMob() {
	if s.Mob == nil {
		return
	}
	s.Mobs.MarkForDestruction(s.Mob.ID)
	s.Mob = nil
}
