package effect

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Active is one installed timed effect on an actor.
type Active struct {
	ID          ulid.ULID
	SkillID     int32
	AppliedAt   time.Time
	ExpiresAt   time.Time
	NextTick    time.Time
	FadeMessage string
	Record
}

// Remaining returns the time left before expiry, never negative.
func (a *Active) Remaining(now time.Time) time.Duration {
	d := a.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func (a *Active) expired(now time.Time) bool { return !now.Before(a.ExpiresAt) }

func (a *Active) periodic() bool {
	return a.TickInterval > 0 &&
		(a.PeriodicDamage != 0 || a.PeriodicHeal != 0 || a.ManaPerTick != 0 || a.EndurancePerTick != 0)
}

// TickResult is the combined payout of one Tick call.
type TickResult struct {
	Damage    int
	Heal      int
	Mana      int
	Endurance int
	Expired   []*Active
}

// Tracker holds the active effects of one actor, at most one per source skill.
// It is not safe for concurrent use; the owning session serializes access.
type Tracker struct {
	bySkill map[int32]*Active
	order   []int32
}

func NewTracker() *Tracker {
	return &Tracker{bySkill: make(map[int32]*Active)}
}

// Apply installs rec from skillID at now. An existing effect from the same
// skill is replaced and returned.
func (t *Tracker) Apply(now time.Time, skillID int32, rec Record, fade string) (*Active, *Active) {
	a := &Active{
		ID:          ulid.Make(),
		SkillID:     skillID,
		AppliedAt:   now,
		ExpiresAt:   now.Add(rec.Duration),
		NextTick:    now,
		FadeMessage: fade,
		Record:      rec,
	}
	old := t.bySkill[skillID]
	if old == nil {
		t.order = append(t.order, skillID)
	}
	t.bySkill[skillID] = a
	return a, old
}

// Get returns the active effect from skillID, if any.
func (t *Tracker) Get(skillID int32) (*Active, bool) {
	a, ok := t.bySkill[skillID]
	return a, ok
}

// Remove drops the effect from skillID and returns it.
func (t *Tracker) Remove(skillID int32) (*Active, bool) {
	a, ok := t.bySkill[skillID]
	if !ok {
		return nil, false
	}
	delete(t.bySkill, skillID)
	for i, id := range t.order {
		if id == skillID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return a, true
}

// Len returns the number of installed effects.
func (t *Tracker) Len() int { return len(t.order) }

// All returns installed effects in application order.
func (t *Tracker) All() []*Active {
	out := make([]*Active, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.bySkill[id])
	}
	return out
}

// Clear removes every effect.
func (t *Tracker) Clear() {
	clear(t.bySkill)
	t.order = t.order[:0]
}

// Tick advances every effect to now without resistance. See TickAgainst.
func (t *Tracker) Tick(now time.Time) TickResult { return t.TickAgainst(now, nil) }

// TickAgainst advances every effect to now. A periodic effect pays at most
// once per call when its next tick is due, including the call that expires
// it. Periodic damage from a school is reduced by floor(dmg*resist/100),
// with resist looked up per school. Expired effects are removed and
// returned in application order.
func (t *Tracker) TickAgainst(now time.Time, resist func(school string) int) TickResult {
	var res TickResult
	kept := t.order[:0]
	for _, id := range t.order {
		a := t.bySkill[id]
		if a.periodic() && !now.Before(a.NextTick) {
			res.Damage += resisted(a.PeriodicDamage, a.School, resist)
			res.Heal += a.PeriodicHeal
			res.Mana += a.ManaPerTick
			res.Endurance += a.EndurancePerTick
			a.NextTick = a.NextTick.Add(a.TickInterval)
		}
		if a.expired(now) {
			delete(t.bySkill, id)
			res.Expired = append(res.Expired, a)
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
	return res
}

func resisted(dmg int, school string, resist func(string) int) int {
	if dmg <= 0 || school == "" || resist == nil {
		return dmg
	}
	return max(dmg-dmg*resist(school)/100, 0)
}

// StatModifiers sums the modifier maps of every unexpired effect.
func (t *Tracker) StatModifiers(now time.Time) map[Stat]int {
	out := make(map[Stat]int)
	for _, id := range t.order {
		a := t.bySkill[id]
		if a.expired(now) {
			continue
		}
		for s, v := range a.StatMods {
			out[s] += v
		}
	}
	return out
}

// Stat returns the summed modifier for a single stat.
func (t *Tracker) Stat(now time.Time, s Stat) int {
	total := 0
	for _, id := range t.order {
		a := t.bySkill[id]
		if !a.expired(now) {
			total += a.StatMods[s]
		}
	}
	return total
}

// Control returns the dominant crowd-control state at now.
func (t *Tracker) Control(now time.Time) Control {
	c := ControlNone
	for _, id := range t.order {
		a := t.bySkill[id]
		if !a.expired(now) && a.Control > c {
			c = a.Control
		}
	}
	return c
}

// MoveSpeedPct sums active movement modifiers.
func (t *Tracker) MoveSpeedPct(now time.Time) int {
	total := 0
	for _, id := range t.order {
		a := t.bySkill[id]
		if !a.expired(now) {
			total += a.MoveSpeedPct
		}
	}
	return total
}

// Absorb consumes shields in application order and returns the damage left over.
func (t *Tracker) Absorb(dmg int) (left, absorbed int) {
	left = dmg
	for _, id := range t.order {
		if left <= 0 {
			break
		}
		a := t.bySkill[id]
		if a.Shield <= 0 {
			continue
		}
		take := min(a.Shield, left)
		a.Shield -= take
		left -= take
		absorbed += take
	}
	return left, absorbed
}

// BreakMez removes every mesmerize effect. Damage calls this; stuns and casts
// are unaffected.
func (t *Tracker) BreakMez() []*Active {
	var broken []*Active
	for _, id := range append([]int32(nil), t.order...) {
		if t.bySkill[id].Control == ControlMez {
			a, _ := t.Remove(id)
			broken = append(broken, a)
		}
	}
	return broken
}

// Snapshot is the persisted form of an active effect, with absolute times.
type Snapshot struct {
	ID          string       `json:"id"`
	SkillID     int32        `json:"skill_id"`
	AppliedAt   time.Time    `json:"applied_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
	NextTick    time.Time    `json:"next_tick"`
	FadeMessage string       `json:"fade_message,omitempty"`
	Interval    int64        `json:"tick_interval_ms,omitempty"`
	School      string       `json:"school,omitempty"`
	Damage      int          `json:"periodic_damage,omitempty"`
	Heal        int          `json:"periodic_heal,omitempty"`
	Mana        int          `json:"mana_per_tick,omitempty"`
	Endurance   int          `json:"endurance_per_tick,omitempty"`
	StatMods    map[Stat]int `json:"stat_mods,omitempty"`
	Shield      int          `json:"shield,omitempty"`
	Control     Control      `json:"control,omitempty"`
	MoveSpeed   int          `json:"move_speed_pct,omitempty"`
}

// Snapshot captures every installed effect.
func (t *Tracker) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, len(t.order))
	for _, a := range t.All() {
		out = append(out, Snapshot{
			ID:          a.ID.String(),
			SkillID:     a.SkillID,
			AppliedAt:   a.AppliedAt,
			ExpiresAt:   a.ExpiresAt,
			NextTick:    a.NextTick,
			FadeMessage: a.FadeMessage,
			Interval:    a.TickInterval.Milliseconds(),
			School:      a.School,
			Damage:      a.PeriodicDamage,
			Heal:        a.PeriodicHeal,
			Mana:        a.ManaPerTick,
			Endurance:   a.EndurancePerTick,
			StatMods:    a.StatMods,
			Shield:      a.Shield,
			Control:     a.Control,
			MoveSpeed:   a.MoveSpeedPct,
		})
	}
	return out
}

// Rehydrate installs saved effects against loadTime. Effects whose expiry
// has already passed are dropped; overdue ticks resume at loadTime.
// It returns the number of effects restored.
func (t *Tracker) Rehydrate(snaps []Snapshot, loadTime time.Time) int {
	n := 0
	for _, s := range snaps {
		if !loadTime.Before(s.ExpiresAt) {
			continue
		}
		id, err := ulid.Parse(s.ID)
		if err != nil {
			id = ulid.Make()
		}
		next := s.NextTick
		if next.Before(loadTime) {
			next = loadTime
		}
		a := &Active{
			ID:          id,
			SkillID:     s.SkillID,
			AppliedAt:   s.AppliedAt,
			ExpiresAt:   s.ExpiresAt,
			NextTick:    next,
			FadeMessage: s.FadeMessage,
			Record: Record{
				Duration:         s.ExpiresAt.Sub(s.AppliedAt),
				TickInterval:     time.Duration(s.Interval) * time.Millisecond,
				School:           s.School,
				PeriodicDamage:   s.Damage,
				PeriodicHeal:     s.Heal,
				ManaPerTick:      s.Mana,
				EndurancePerTick: s.Endurance,
				StatMods:         s.StatMods,
				Shield:           s.Shield,
				Control:          s.Control,
				MoveSpeedPct:     s.MoveSpeed,
			},
		}
		if _, exists := t.bySkill[s.SkillID]; !exists {
			t.order = append(t.order, s.SkillID)
		}
		t.bySkill[s.SkillID] = a
		n++
	}
	return n
}
