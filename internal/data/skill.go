package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/idlecamp/server/internal/effect"
)

// SkillCategory selects the special handling a skill receives.
type SkillCategory string

const (
	CategoryAttack   SkillCategory = "attack"   // base melee/ranged attack, gated by attack delay
	CategoryAbility  SkillCategory = "ability"  // endurance-based combat ability
	CategorySpell    SkillCategory = "spell"    // mana-based
	CategoryFlee     SkillCategory = "flee"     // escape to bind
	CategoryTeleport SkillCategory = "teleport" // move to another camp
)

// SkillTarget is who a skill lands on.
type SkillTarget string

const (
	TargetEnemy SkillTarget = "enemy"
	TargetSelf  SkillTarget = "self"
)

// SkillInfo holds a single skill template.
type SkillInfo struct {
	SkillID       int32          `yaml:"skill_id"`
	Name          string         `yaml:"name"`
	Category      SkillCategory  `yaml:"category"`
	Target        SkillTarget    `yaml:"target"`
	School        string         `yaml:"school"` // empty = physical
	ManaCost      int            `yaml:"mana_cost"`
	EnduranceCost int            `yaml:"endurance_cost"`
	CastMS        int            `yaml:"cast_ms"`
	CooldownMS    int            `yaml:"cooldown_ms"`
	Range         float64        `yaml:"range"`
	DurationSec   int            `yaml:"duration_sec"` // 0 = instant
	TickSec       int            `yaml:"tick_sec"`
	Effects       []effect.Entry `yaml:"effects"`
	TeleportCamp  int32          `yaml:"teleport_camp"`
	FadeMessage   string         `yaml:"fade_message"`

	program *effect.Program
	// Fault is set at load time when the effect list cannot be applied.
	Fault error `yaml:"-"`
}

func (s *SkillInfo) CastTime() time.Duration { return time.Duration(s.CastMS) * time.Millisecond }
func (s *SkillInfo) Cooldown() time.Duration { return time.Duration(s.CooldownMS) * time.Millisecond }
func (s *SkillInfo) Duration() time.Duration { return time.Duration(s.DurationSec) * time.Second }
func (s *SkillInfo) TickInterval() time.Duration {
	return time.Duration(s.TickSec) * time.Second
}

// Spell reports whether damage from this skill is resisted rather than armored.
func (s *SkillInfo) Spell() bool { return s.School != "" }

// Program returns the compiled effect program, or the integrity fault
// recorded when the skill was loaded.
func (s *SkillInfo) Program() (*effect.Program, error) {
	if s.Fault != nil {
		return nil, s.Fault
	}
	if s.program == nil {
		if err := s.compile(); err != nil {
			return nil, err
		}
	}
	return s.program, nil
}

func (s *SkillInfo) compile() error {
	p, err := effect.Compile(s.Effects, s.Duration(), s.TickInterval())
	if err != nil {
		s.Fault = &IntegrityError{Kind: "skill", ID: s.SkillID, Field: "effects", Err: err}
		return s.Fault
	}
	s.program = p
	return nil
}

func (s *SkillInfo) validate() error {
	if s.DurationSec < 0 || s.TickSec < 0 || s.CastMS < 0 || s.CooldownMS < 0 {
		return integrity("skill", s.SkillID, "timing", "negative value")
	}
	switch s.Category {
	case CategoryAttack, CategoryAbility, CategorySpell, CategoryFlee, CategoryTeleport:
	default:
		return integrity("skill", s.SkillID, "category", fmt.Sprintf("unknown category %q", s.Category))
	}
	if s.Target == "" {
		s.Target = TargetSelf
	}
	return s.compile()
}

type skillListFile struct {
	Skills []SkillInfo `yaml:"skills"`
}

// SkillTable holds all skills indexed by SkillID.
type SkillTable struct {
	skills map[int32]*SkillInfo
	byName map[string]*SkillInfo
}

// LoadSkillTable loads skill_list.yaml. Skills with faulty effect data are
// kept with Fault set so using them fails closed.
func LoadSkillTable(path string) (*SkillTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill_list: %w", err)
	}
	return parseSkillTable(raw)
}

func parseSkillTable(raw []byte) (*SkillTable, error) {
	var f skillListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse skill_list: %w", err)
	}
	t := &SkillTable{
		skills: make(map[int32]*SkillInfo, len(f.Skills)),
		byName: make(map[string]*SkillInfo, len(f.Skills)),
	}
	for i := range f.Skills {
		s := &f.Skills[i]
		s.Fault = s.validate()
		t.skills[s.SkillID] = s
		t.byName[s.Name] = s
	}
	return t, nil
}

// Get returns a skill by ID, or nil if not found.
func (t *SkillTable) Get(skillID int32) *SkillInfo {
	return t.skills[skillID]
}

// GetByName returns a skill by its exact name, or nil if not found.
func (t *SkillTable) GetByName(name string) *SkillInfo {
	return t.byName[name]
}

// Count returns total loaded skills.
func (t *SkillTable) Count() int {
	return len(t.skills)
}

// Faults returns every skill rejected at load time.
func (t *SkillTable) Faults() []error {
	var out []error
	for _, s := range t.skills {
		if s.Fault != nil {
			out = append(out, s.Fault)
		}
	}
	return out
}
