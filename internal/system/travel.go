package system

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/idlecamp/server/internal/combat"
	"github.com/idlecamp/server/internal/combatlog"
	"github.com/idlecamp/server/internal/core/event"
	"github.com/idlecamp/server/internal/core/timer"
	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/world"
)

// TravelSystem moves the player between camps. Every step interval the
// remaining distance drops by a fixed step and an ambush is rolled from the
// origin zone's hostility tier.
type TravelSystem struct {
	deps  *Deps
	timer *timer.Handle
}

func NewTravelSystem(d *Deps) *TravelSystem {
	return &TravelSystem{deps: d}
}

// Start begins travel to campID.
func (s *TravelSystem) Start(campID int32) (*Rejection, error) {
	d := s.deps
	st := d.State
	p := st.Player

	to, _, err := d.Tables.Zones.ResolveCamp(campID)
	if err != nil {
		return nil, fmt.Errorf("travel to camp %d: %w", campID, err)
	}
	from, _, err := d.Tables.Zones.ResolveCamp(p.CampID)
	if err != nil {
		return nil, fmt.Errorf("travel from camp %d: %w", p.CampID, err)
	}
	switch {
	case p.Dead:
		return d.reject(0, ReasonDead, ""), nil
	case st.Travel.Active():
		return d.reject(0, ReasonTraveling, ""), nil
	case st.Combat == world.InCombat:
		return d.reject(0, ReasonInCombat, ""), nil
	case from.CampID == to.CampID:
		return d.reject(0, ReasonSameCamp, to.Name), nil
	}

	s.leaveCamp("travel")
	st.Travel = world.Travel{
		Phase:     world.Traveling,
		From:      from.CampID,
		To:        to.CampID,
		Remaining: from.DistanceTo(to),
	}
	p.Resting = false
	p.Dirty = true
	s.timer = d.Sched.Every("travel", d.Config.Travel.StepInterval, s.step)
	d.logf(combatlog.KindTravel, "You set out for %s.", to.Name)
	d.Log.Info(fmt.Sprintf("開始旅行  角色=%s  出發=%s  目的=%s  距離=%.1f", p.Name, from.Name, to.Name, st.Travel.Remaining))
	return nil, nil
}

// Cancel stops an in-progress trip. The player stays at the origin camp.
func (s *TravelSystem) Cancel() {
	s.timer.Cancel()
	s.timer = nil
	if s.deps.State.Travel.Active() {
		s.deps.State.Travel.Phase = world.TravelIdle
	}
}

func (s *TravelSystem) step() {
	d := s.deps
	st := d.State
	tr := &st.Travel
	if !tr.Active() {
		s.Cancel()
		return
	}
	tr.Remaining -= d.Config.Travel.StepDistance
	tr.Steps++
	if tr.Remaining <= 0 {
		s.arrive()
		return
	}
	s.rollAmbush()
}

func (s *TravelSystem) arrive() {
	d := s.deps
	st := d.State
	p := st.Player
	s.timer.Cancel()
	s.timer = nil
	st.Travel.Remaining = 0
	st.Travel.Phase = world.TravelArrived
	p.CampID = st.Travel.To
	p.Dirty = true

	if camp := d.Tables.Zones.Camp(p.CampID); camp != nil {
		d.logf(combatlog.KindTravel, "You arrive at %s.", camp.Name)
	}
	event.Emit(d.Bus, event.TravelFinished{CharID: p.CharID, FromCamp: st.Travel.From, ToCamp: st.Travel.To})
	d.Spawn.Schedule()
}

// rollAmbush rolls once for the current step. A rolled mob only catches the
// traveler if it is faster than the player's effective speed.
func (s *TravelSystem) rollAmbush() {
	d := s.deps
	st := d.State

	_, zone, err := d.Tables.Zones.ResolveCamp(st.Travel.From)
	if err != nil {
		d.Log.Error("travel origin unresolved", zap.Int32("camp", st.Travel.From), zap.Error(err))
		return
	}
	chance := d.Config.Travel.AmbushChance(zone.Hostility)
	if chance <= 0 || len(zone.AmbushMobs) == 0 || !combat.Chance(d.Rand, chance) {
		return
	}
	tmpl := d.Tables.Mobs.Get(zone.AmbushMobs[d.Rand.IntN(len(zone.AmbushMobs))])
	if tmpl == nil || tmpl.Fault != nil {
		d.Log.Error("ambush mob data fault", zap.Int32("zone", zone.ZoneID), zap.Error(faultOf(tmpl)))
		return
	}
	speed := s.PlayerSpeed()
	if tmpl.MoveSpeed <= speed {
		d.logf(combatlog.KindTravel, "You outpace %s.", tmpl.Name)
		return
	}
	s.ambush(tmpl)
}

func (s *TravelSystem) ambush(tmpl *data.MobTemplate) {
	d := s.deps
	st := d.State
	p := st.Player
	s.timer.Cancel()
	s.timer = nil
	st.Travel.Phase = world.TravelAmbushed

	d.logf(combatlog.KindTravel, "You are ambushed by %s!", tmpl.Name)
	m := d.Spawn.Spawn(tmpl, tmpl.MeleeRange, true)
	m.AggroChecked = true
	d.Combat.Hostile()
	d.Combat.Sync()
	event.Emit(d.Bus, event.TravelFinished{CharID: p.CharID, FromCamp: st.Travel.From, ToCamp: st.Travel.To, Ambushed: true})
}

// PlayerSpeed is the configured travel speed after movement effects.
func (s *TravelSystem) PlayerSpeed() float64 {
	p := s.deps.State.Player
	pct := p.Effects.MoveSpeedPct(s.deps.now())
	return max(0, s.deps.Config.Travel.PlayerSpeed*float64(100+pct)/100)
}

// Relocate moves the player to campID at once (teleport, flee).
func (s *TravelSystem) Relocate(campID int32, reason string) {
	d := s.deps
	p := d.State.Player
	camp := d.Tables.Zones.Camp(campID)
	if camp == nil {
		d.Log.Error("relocate target not defined", zap.Int32("camp", campID), zap.String("reason", reason))
		return
	}
	s.leaveCamp(reason)
	s.Cancel()
	d.State.Travel = world.Travel{}
	p.CampID = campID
	p.Dirty = true
	d.logf(combatlog.KindTravel, "You arrive at %s.", camp.Name)
	d.Spawn.Schedule()
}

// leaveCamp cancels everything tied to the current camp: casts, loops,
// the mob and its respawn timer.
func (s *TravelSystem) leaveCamp(reason string) {
	d := s.deps
	d.Skill.CancelCast(reason)
	d.Combat.Stop()
	d.Spawn.Cancel()
	d.State.ClearMob()
}
