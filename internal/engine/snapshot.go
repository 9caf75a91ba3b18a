package engine

import (
	"sort"
	"time"

	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/world"
)

// Pool is a current/maximum pair for display.
type Pool struct {
	Cur int `json:"cur"`
	Max int `json:"max"`
}

// EffectView is an active effect with its time left.
type EffectView struct {
	SkillID     int32  `json:"skill_id"`
	Name        string `json:"name"`
	RemainingMS int64  `json:"remaining_ms"`
	Control     string `json:"control,omitempty"`
}

// CooldownView is a skill still recovering.
type CooldownView struct {
	SkillID     int32  `json:"skill_id"`
	Name        string `json:"name"`
	RemainingMS int64  `json:"remaining_ms"`
}

// CastView is the pending cast, if any.
type CastView struct {
	SkillID     int32  `json:"skill_id"`
	Name        string `json:"name"`
	RemainingMS int64  `json:"remaining_ms"`
}

// MobView is the mob at the camp.
type MobView struct {
	Name     string  `json:"name"`
	Level    int     `json:"level"`
	HP       Pool    `json:"hp"`
	Distance float64 `json:"distance"`
	Hostile  bool    `json:"hostile"`
	Control  string  `json:"control,omitempty"`
	Life     string  `json:"life"`
}

// TravelView is the current or last trip.
type TravelView struct {
	Phase     string  `json:"phase"`
	From      int32   `json:"from"`
	To        int32   `json:"to"`
	Remaining float64 `json:"remaining"`
	Steps     int     `json:"steps"`
}

// Snapshot is a read-only picture of the session for display.
type Snapshot struct {
	At       time.Time `json:"at"`
	CharID   int64     `json:"char_id"`
	Name     string    `json:"name"`
	ClassID  int32     `json:"class_id"`
	Mode     string    `json:"mode"`
	Level    int       `json:"level"`
	Exp      int64     `json:"exp"`
	ExpNext  int64     `json:"exp_next"`
	Gold     int64     `json:"gold"`
	Kills    int64     `json:"kills"`
	Deaths   int64     `json:"deaths"`
	CampID   int32     `json:"camp_id"`
	CampName string    `json:"camp_name"`
	ZoneName string    `json:"zone_name"`

	HP        Pool       `json:"hp"`
	Mana      Pool       `json:"mana"`
	Endurance Pool       `json:"endurance"`
	Stats     data.Stats `json:"stats"`
	Armor     int        `json:"armor"`
	DelayMS   int64      `json:"attack_delay_ms"`
	DamageMin int        `json:"damage_min"`
	DamageMax int        `json:"damage_max"`

	Combat     string  `json:"combat"`
	Resting    bool    `json:"resting"`
	AutoAttack bool    `json:"auto_attack"`
	Exhausted  bool    `json:"exhausted"`
	Control    string  `json:"control,omitempty"`
	Slots      []int32 `json:"slots"`

	Cast      *CastView      `json:"cast,omitempty"`
	Mob       *MobView       `json:"mob,omitempty"`
	Travel    *TravelView    `json:"travel,omitempty"`
	Effects   []EffectView   `json:"effects"`
	Cooldowns []CooldownView `json:"cooldowns"`
}

func ms(d time.Duration) int64 { return max(d, 0).Milliseconds() }

func controlName(s string) string {
	if s == "none" {
		return ""
	}
	return s
}

// snapshot builds the view on the loop goroutine.
func (e *Engine) snapshot() *Snapshot {
	d := e.deps
	st := d.State
	p := st.Player
	now := d.Sched.Now()
	bonus := p.DamageBonus(now)

	s := &Snapshot{
		At:         now,
		CharID:     p.CharID,
		Name:       p.Name,
		ClassID:    p.ClassID,
		Mode:       p.Mode.String(),
		Level:      p.Level,
		Exp:        p.Exp,
		ExpNext:    d.Formulas.ExpForLevel(p.Level + 1),
		Gold:       p.Gold,
		Kills:      p.Kills,
		Deaths:     p.Deaths,
		CampID:     p.CampID,
		HP:         Pool{p.HP.Cur, p.HP.Max},
		Mana:       Pool{p.Mana.Cur, p.Mana.Max},
		Endurance:  Pool{p.Endurance.Cur, p.Endurance.Max},
		Stats:      p.EffectiveStats(now),
		Armor:      p.EffectiveArmor(now),
		DelayMS:    p.EffectiveDelay(now).Milliseconds(),
		DamageMin:  p.DamageMin + bonus,
		DamageMax:  p.DamageMax + bonus,
		Combat:     st.Combat.String(),
		Resting:    p.Resting,
		AutoAttack: p.AutoAttack,
		Exhausted:  p.Exhausted(now),
		Control:    controlName(p.Control(now).String()),
		Slots:      append([]int32{}, p.Slots...),
		Effects:    []EffectView{},
		Cooldowns:  []CooldownView{},
	}
	if camp, zone, err := d.Tables.Zones.ResolveCamp(p.CampID); err == nil {
		s.CampName, s.ZoneName = camp.Name, zone.Name
	}

	if c := st.Cast; c != nil {
		s.Cast = &CastView{SkillID: c.SkillID, Name: e.skillName(c.SkillID), RemainingMS: ms(c.Completes.Sub(now))}
	}
	if m := st.Mob; m != nil {
		s.Mob = &MobView{
			Name:     m.Name,
			Level:    m.Level,
			HP:       Pool{m.HP.Cur, m.HP.Max},
			Distance: m.Distance,
			Hostile:  m.Hostile,
			Control:  controlName(m.Control(now).String()),
			Life:     m.Life.String(),
		}
	}
	if st.Travel.Phase != world.TravelIdle {
		t := st.Travel
		s.Travel = &TravelView{Phase: t.Phase.String(), From: t.From, To: t.To, Remaining: t.Remaining, Steps: t.Steps}
	}

	for _, a := range p.Effects.All() {
		s.Effects = append(s.Effects, EffectView{
			SkillID:     a.SkillID,
			Name:        e.skillName(a.SkillID),
			RemainingMS: ms(a.Remaining(now)),
			Control:     controlName(a.Control.String()),
		})
	}
	for id, at := range p.Cooldowns {
		if !now.Before(at) {
			continue
		}
		s.Cooldowns = append(s.Cooldowns, CooldownView{SkillID: id, Name: e.skillName(id), RemainingMS: ms(at.Sub(now))})
	}
	sort.Slice(s.Cooldowns, func(i, j int) bool { return s.Cooldowns[i].SkillID < s.Cooldowns[j].SkillID })
	return s
}

func (e *Engine) skillName(id int32) string {
	if sk := e.deps.Tables.Skills.Get(id); sk != nil {
		return sk.Name
	}
	return ""
}
