package effect

import (
	"errors"
	"fmt"
	"time"
)

// Entry is one raw effect line as it appears in skill data.
type Entry struct {
	Code    Code `yaml:"kind"`
	Base    int  `yaml:"base"`
	Scaling Stat `yaml:"scaling,omitempty"`
}

// Program is the compiled, validated form of a skill's effect list.
type Program struct {
	Effects      []Effect
	Duration     time.Duration
	TickInterval time.Duration
}

// Instant reports whether the program applies once with no lasting effect.
func (p *Program) Instant() bool { return p.Duration == 0 }

// Periodic reports whether the program pays out on a tick interval.
func (p *Program) Periodic() bool {
	if p.Duration == 0 {
		return false
	}
	for _, e := range p.Effects {
		switch e.(type) {
		case DamageEffect, HealEffect, ResourceEffect:
			return true
		}
	}
	return false
}

// HasCrowdControl reports whether any stun or mez line is present.
func (p *Program) HasCrowdControl() bool {
	for _, e := range p.Effects {
		if _, ok := e.(CrowdControlEffect); ok {
			return true
		}
	}
	return false
}

// FieldError names a missing or invalid field found while compiling.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Compile turns raw entries into typed effects. Unknown codes are skipped.
// Duration-bearing lines (stat modifiers, shields, crowd control, movement)
// require a positive duration; periodic lines under a duration require a
// positive tick interval.
func Compile(entries []Entry, duration, tick time.Duration) (*Program, error) {
	if duration < 0 {
		return nil, &FieldError{Field: "duration", Reason: "negative"}
	}
	p := &Program{Duration: duration, TickInterval: tick}
	var errs []error
	periodic := false
	for i, e := range entries {
		var compiled Effect
		needsDuration := false
		switch e.Code {
		case CodeDamage:
			compiled = DamageEffect{Amount: e.Base, Scaling: e.Scaling}
			periodic = periodic || duration > 0
		case CodeHeal:
			compiled = HealEffect{Amount: e.Base, Scaling: e.Scaling}
			periodic = periodic || duration > 0
		case CodeMana:
			compiled = ResourceEffect{Resource: ResourceMana, Amount: e.Base, Scaling: e.Scaling}
			periodic = periodic || duration > 0
		case CodeEndurance:
			compiled = ResourceEffect{Resource: ResourceEndurance, Amount: e.Base, Scaling: e.Scaling}
			periodic = periodic || duration > 0
		case CodeShield:
			compiled = ShieldEffect{Amount: e.Base, Scaling: e.Scaling}
			needsDuration = true
		case CodeStun:
			compiled = CrowdControlEffect{Control: ControlStun}
			needsDuration = true
		case CodeMez:
			compiled = CrowdControlEffect{Control: ControlMez}
			needsDuration = true
		case CodeMoveSpeed:
			compiled = MovementEffect{Percent: e.Base}
			needsDuration = true
		default:
			stat, ok := statByCode[e.Code]
			if !ok {
				continue
			}
			compiled = StatModifierEffect{Stat: stat, Amount: e.Base}
			needsDuration = true
		}
		if needsDuration && duration == 0 {
			errs = append(errs, &FieldError{
				Field:  fmt.Sprintf("effects[%d].duration", i),
				Reason: fmt.Sprintf("kind %d requires a positive duration", e.Code),
			})
			continue
		}
		p.Effects = append(p.Effects, compiled)
	}
	if periodic && tick <= 0 {
		errs = append(errs, &FieldError{Field: "tick_interval", Reason: "periodic effect requires a positive tick interval"})
	}
	if tick > 0 && duration > 0 && tick > duration {
		errs = append(errs, &FieldError{Field: "tick_interval", Reason: "longer than duration"})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return p, nil
}
