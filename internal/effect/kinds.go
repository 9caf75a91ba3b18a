package effect

// Code is the numeric effect kind used by skill data files.
type Code int

const (
	CodeDamage    Code = 1 // direct damage; periodic when the skill has a duration
	CodeHeal      Code = 2
	CodeMana      Code = 3 // positive restores, negative drains
	CodeEndurance Code = 4
	CodeShield    Code = 5

	CodeStun      Code = 10
	CodeMez       Code = 11
	CodeMoveSpeed Code = 12

	CodeStr            Code = 20
	CodeSta            Code = 21
	CodeAgi            Code = 22
	CodeDex            Code = 23
	CodeInt            Code = 24
	CodeWis            Code = 25
	CodeCha            Code = 26
	CodeMaxHP          Code = 27
	CodeMaxMana        Code = 28
	CodeMaxEndurance   Code = 29
	CodeArmor          Code = 30
	CodeAttackSpeed    Code = 31 // percent; positive is haste, negative is slow
	CodeHPRegen        Code = 32
	CodeManaRegen      Code = 33
	CodeEnduranceRegen Code = 34
	CodeDamageBonus    Code = 35
)

// Stat names a modifiable attribute. Also used as the optional scaling stat.
type Stat string

const (
	StatStr            Stat = "str"
	StatSta            Stat = "sta"
	StatAgi            Stat = "agi"
	StatDex            Stat = "dex"
	StatInt            Stat = "int"
	StatWis            Stat = "wis"
	StatCha            Stat = "cha"
	StatMaxHP          Stat = "max_hp"
	StatMaxMana        Stat = "max_mana"
	StatMaxEndurance   Stat = "max_endurance"
	StatArmor          Stat = "armor"
	StatAttackSpeed    Stat = "attack_speed"
	StatHPRegen        Stat = "hp_regen"
	StatManaRegen      Stat = "mana_regen"
	StatEnduranceRegen Stat = "endurance_regen"
	StatDamageBonus    Stat = "damage_bonus"
)

var statByCode = map[Code]Stat{
	CodeStr:            StatStr,
	CodeSta:            StatSta,
	CodeAgi:            StatAgi,
	CodeDex:            StatDex,
	CodeInt:            StatInt,
	CodeWis:            StatWis,
	CodeCha:            StatCha,
	CodeMaxHP:          StatMaxHP,
	CodeMaxMana:        StatMaxMana,
	CodeMaxEndurance:   StatMaxEndurance,
	CodeArmor:          StatArmor,
	CodeAttackSpeed:    StatAttackSpeed,
	CodeHPRegen:        StatHPRegen,
	CodeManaRegen:      StatManaRegen,
	CodeEnduranceRegen: StatEnduranceRegen,
	CodeDamageBonus:    StatDamageBonus,
}

// Resource is a pool drained or restored by ResourceEffect.
type Resource int

const (
	ResourceMana Resource = iota
	ResourceEndurance
)

// Control is a crowd-control state. Higher values dominate lower ones.
type Control int

const (
	ControlNone Control = iota
	ControlMez
	ControlStun
)

func (c Control) String() string {
	switch c {
	case ControlMez:
		return "mesmerized"
	case ControlStun:
		return "stunned"
	}
	return "none"
}

// Effect is the closed set of compiled effect variants. Only this package
// implements it; consumers switch on the concrete type.
type Effect interface {
	sealed()
}

// DamageEffect deals Amount (+ scaling) damage, once or per tick.
type DamageEffect struct {
	Amount  int
	Scaling Stat
}

// HealEffect restores HP, once or per tick.
type HealEffect struct {
	Amount  int
	Scaling Stat
}

// ResourceEffect restores (positive) or drains (negative) mana or endurance.
type ResourceEffect struct {
	Resource Resource
	Amount   int
	Scaling  Stat
}

// StatModifierEffect adds a flat amount to Stat while active.
type StatModifierEffect struct {
	Stat   Stat
	Amount int
}

// CrowdControlEffect stuns or mesmerizes for the effect's duration.
type CrowdControlEffect struct {
	Control Control
}

// ShieldEffect absorbs Amount damage before HP loss.
type ShieldEffect struct {
	Amount  int
	Scaling Stat
}

// MovementEffect changes movement speed by Percent.
type MovementEffect struct {
	Percent int
}

func (DamageEffect) sealed()       {}
func (HealEffect) sealed()         {}
func (ResourceEffect) sealed()     {}
func (StatModifierEffect) sealed() {}
func (CrowdControlEffect) sealed() {}
func (ShieldEffect) sealed()       {}
func (MovementEffect) sealed()     {}
