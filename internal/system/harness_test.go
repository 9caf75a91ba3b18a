package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/idlecamp/server/internal/combat"
	"github.com/idlecamp/server/internal/combatlog"
	"github.com/idlecamp/server/internal/config"
	"github.com/idlecamp/server/internal/core/event"
	coresys "github.com/idlecamp/server/internal/core/system"
	"github.com/idlecamp/server/internal/core/timer"
	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/effect"
	"github.com/idlecamp/server/internal/scripting"
	"github.com/idlecamp/server/internal/testutil"
	"github.com/idlecamp/server/internal/world"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// flatFormulas: 1000 exp per level, penalty of 100 from level 2 on.
type flatFormulas struct{}

func (flatFormulas) ExpForLevel(level int) int64 { return int64(level-1) * 1000 }
func (flatFormulas) LevelFromExp(exp int64) int  { return int(exp/1000) + 1 }

func (flatFormulas) DeathExpPenalty(level int, exp int64) int64 {
	if level < 2 {
		return 0
	}
	return min(100, exp)
}

func (flatFormulas) MaxVitals(ctx scripting.VitalsContext) scripting.Vitals {
	return scripting.Vitals{
		HP:        ctx.BaseHP + ctx.HPPerLevel*(ctx.Level-1),
		Mana:      ctx.BaseMana + ctx.ManaPerLevel*(ctx.Level-1),
		Endurance: ctx.BaseEndurance + ctx.EndPerLevel*(ctx.Level-1),
	}
}

const (
	skillAttack    int32 = 1
	skillKick      int32 = 10
	skillBash      int32 = 11
	skillHeal      int32 = 20
	skillDot       int32 = 21
	skillHaste     int32 = 24
	skillMez       int32 = 23
	skillFlee      int32 = 30
	skillTeleport  int32 = 40
	skillBroken    int32 = 50
	skillBadPortal int32 = 51
	skillNuke      int32 = 60
	skillBolt      int32 = 61
)

func testTables() *data.Tables {
	return &data.Tables{
		Classes: data.NewClassTable(data.ClassInfo{
			ClassID: 1, Name: "Warrior",
			BaseHP: 100, BaseMana: 50, BaseEndurance: 50,
			HPRegen: 1, ManaRegen: 1, EnduranceRegen: 1,
			AttackDelayMS: 1000, DamageMin: 20, DamageMax: 20,
			StartingSkills: []int32{skillAttack},
		}),
		Mobs: data.NewMobTable(
			data.MobTemplate{MobID: 100, Name: "a rat", Level: 10, HP: 50, AttackDelayMS: 1500,
				DamageMin: 1, DamageMax: 3, MeleeRange: 5, AggroRange: 20, MoveSpeed: 1.0,
				Hostile: true, BaseExp: 100, LootTableID: 1},
			data.MobTemplate{MobID: 200, Name: "a grey wolf", Level: 10, HP: 60, AttackDelayMS: 1200,
				DamageMin: 2, DamageMax: 5, MeleeRange: 5, AggroRange: 30, MoveSpeed: 2.5,
				Hostile: true, BaseExp: 120},
			data.MobTemplate{MobID: 300, Name: "a slug", Level: 10, HP: 30, AttackDelayMS: 2000,
				DamageMin: 1, DamageMax: 1, MeleeRange: 5, MoveSpeed: 0.5, BaseExp: 10},
		),
		Skills: data.NewSkillTable(
			data.SkillInfo{SkillID: skillAttack, Name: "Attack", Category: data.CategoryAttack, Target: data.TargetEnemy},
			data.SkillInfo{SkillID: skillKick, Name: "Kick", Category: data.CategoryAbility, Target: data.TargetEnemy,
				EnduranceCost: 5, CooldownMS: 6000, Effects: []effect.Entry{{Code: effect.CodeDamage, Base: 8}}},
			data.SkillInfo{SkillID: skillBash, Name: "Bash", Category: data.CategoryAbility, Target: data.TargetEnemy,
				EnduranceCost: 5, CooldownMS: 10000, DurationSec: 2, Effects: []effect.Entry{{Code: effect.CodeStun}}},
			data.SkillInfo{SkillID: skillHeal, Name: "Minor Healing", Category: data.CategorySpell, Target: data.TargetSelf,
				School: "divine", ManaCost: 10, CastMS: 1500, CooldownMS: 3000,
				Effects: []effect.Entry{{Code: effect.CodeHeal, Base: 30}}},
			data.SkillInfo{SkillID: skillDot, Name: "Flame Lick", Category: data.CategorySpell, Target: data.TargetEnemy,
				School: "fire", ManaCost: 5, Range: 100, DurationSec: 60, TickSec: 10,
				Effects: []effect.Entry{{Code: effect.CodeDamage, Base: 5}}, FadeMessage: "The flames die down."},
			data.SkillInfo{SkillID: skillHaste, Name: "Quickness", Category: data.CategorySpell, Target: data.TargetSelf,
				School: "alteration", ManaCost: 5, DurationSec: 30,
				Effects: []effect.Entry{{Code: effect.CodeAttackSpeed, Base: 25}}, FadeMessage: "You slow down."},
			data.SkillInfo{SkillID: skillMez, Name: "Mesmerize", Category: data.CategorySpell, Target: data.TargetEnemy,
				School: "mind", ManaCost: 5, Range: 100, DurationSec: 12, Effects: []effect.Entry{{Code: effect.CodeMez}}},
			data.SkillInfo{SkillID: skillFlee, Name: "Gate", Category: data.CategoryFlee, Target: data.TargetSelf,
				ManaCost: 10, CooldownMS: 600000},
			data.SkillInfo{SkillID: skillTeleport, Name: "Translocate", Category: data.CategoryTeleport,
				Target: data.TargetSelf, ManaCost: 10, TeleportCamp: 2},
			// stun with no duration: faulted at load
			data.SkillInfo{SkillID: skillBroken, Name: "Broken Stun", Category: data.CategoryAbility,
				Target: data.TargetEnemy, EnduranceCost: 10, Effects: []effect.Entry{{Code: effect.CodeStun}}},
			data.SkillInfo{SkillID: skillBadPortal, Name: "Lost Portal", Category: data.CategoryTeleport,
				Target: data.TargetSelf, ManaCost: 10, TeleportCamp: 99},
			data.SkillInfo{SkillID: skillNuke, Name: "Burst of Flame", Category: data.CategorySpell,
				Target: data.TargetEnemy, School: "fire", ManaCost: 5, Range: 100,
				Effects: []effect.Entry{{Code: effect.CodeDamage, Base: 12}}},
			data.SkillInfo{SkillID: skillBolt, Name: "Fire Bolt", Category: data.CategorySpell,
				Target: data.TargetEnemy, School: "fire", ManaCost: 5, Range: 100, CastMS: 2000,
				Effects: []effect.Entry{{Code: effect.CodeDamage, Base: 15}}},
		),
		Loot: data.NewDropTable(
			[]data.LootTable{{LootTableID: 1, AvgCoin: 7, Entries: []data.LootEntry{
				{LootDropID: 10, Probability: 1, MinDrop: 1, DropLimit: 2},
			}}},
			[]data.LootDrop{{LootDropID: 10, Items: []data.LootDropItem{
				{ItemID: 1001, Chance: 0.25}, {ItemID: 1002, Chance: 0.25},
			}}},
		),
		Zones: data.NewZoneTable(
			[]data.Zone{
				{ZoneID: 1, Name: "Greenmeadow", Hostility: 0, AmbushMobs: []int32{200}},
				{ZoneID: 2, Name: "Dark Woods", Hostility: 3, AmbushMobs: []int32{200}},
			},
			[]data.Camp{
				{CampID: 1, ZoneID: 1, Name: "Meadow Gate", X: 0, Y: 0, SpawnDistance: 30, RespawnSec: 10,
					Spawns: []data.CampSpawn{{MobID: 100, Weight: 1}}, Bind: true},
				{CampID: 2, ZoneID: 1, Name: "Old Mill", X: 100, Y: 0, SpawnDistance: 30,
					Spawns: []data.CampSpawn{{MobID: 300, Weight: 1}}},
				{CampID: 3, ZoneID: 2, Name: "Wolf Den", X: 0, Y: 100, SpawnDistance: 30,
					Spawns: []data.CampSpawn{{MobID: 200, Weight: 1}}},
			},
		),
		Items: data.NewItemTable(
			data.ItemInfo{ItemID: 1001, Name: "Rat Whisker", Stackable: true},
			data.ItemInfo{ItemID: 1002, Name: "Rat Ear", Stackable: true},
			data.ItemInfo{ItemID: 2001, Name: "Rusty Sword", Slot: "weapon", DamageBonus: 2, AttackDelayMS: 800},
			data.ItemInfo{ItemID: 3001, Name: "Cloth Shirt", Slot: "chest", HP: 20, Armor: 5},
		),
	}
}

type fakeSaver struct {
	queued int
	retry  bool
	full   bool
}

func (f *fakeSaver) QueueSave() bool {
	if f.full {
		return false
	}
	f.queued++
	return true
}

func (f *fakeSaver) NeedsRetry() bool { return f.retry }

type harness struct {
	t      *testing.T
	deps   *Deps
	sys    *Systems
	runner *coresys.Runner
	saver  *fakeSaver
}

// newHarness builds a wired session at t0 with a level 10 warrior at camp 1.
// Nothing is spawned and no world tick is scheduled.
func newHarness(t *testing.T, rng combat.Rand) *harness {
	t.Helper()
	cfg := config.Defaults()
	d := &Deps{
		Config:   cfg,
		Log:      zap.NewNop(),
		Tables:   testTables(),
		Formulas: flatFormulas{},
		Sched:    timer.NewScheduler(t0),
		Bus:      event.NewBus(),
		Rand:     rng,
		Journal:  combatlog.New(500, language.English),
	}
	p, err := NewPlayer(d, "Tester", 1, world.ModeNormal, t0)
	require.NoError(t, err)
	p.CharID = 7
	p.Level = 10
	p.Exp = d.Formulas.ExpForLevel(10)
	p.KnownSkills = []int32{skillAttack, skillKick, skillBash, skillHeal, skillDot, skillHaste,
		skillMez, skillFlee, skillTeleport, skillBroken, skillBadPortal, skillNuke, skillBolt}
	d.State = world.NewState(p)

	saver := &fakeSaver{}
	sys := Wire(d, saver)
	runner := coresys.NewRunner()
	sys.Register(runner)
	Prepare(d, p, true)
	return &harness{t: t, deps: d, sys: sys, runner: runner, saver: saver}
}

func (h *harness) player() *world.Player { return h.deps.State.Player }

// spawn places a fresh instance of mobID at distance with level fixed to the template's.
func (h *harness) spawn(mobID int32, distance float64) *world.Mob {
	tmpl := h.deps.Tables.Mobs.Get(mobID)
	require.NotNil(h.t, tmpl)
	return h.deps.Spawn.Spawn(tmpl, distance, false)
}

// startWorldTick schedules the world tick as the engine does.
func (h *harness) startWorldTick() {
	rate := h.deps.Config.Simulation.TickRate
	h.deps.Sched.EveryFrom("world_tick", h.deps.Sched.Now(), rate, func() { h.runner.Tick(rate) })
}

// advance moves the clock forward by d, firing everything due.
func (h *harness) advance(d time.Duration) {
	h.deps.Sched.Advance(h.deps.Sched.Now().Add(d))
}

func (h *harness) logTexts() []string {
	var out []string
	for _, e := range h.deps.Journal.Recent(0) {
		out = append(out, e.Text)
	}
	return out
}

func steady() combat.Rand { return testutil.Steady() }

// collect subscribes to events of type T; they arrive on flushEvents.
func collect[T any](h *harness) *[]T {
	var out []T
	event.Subscribe(h.deps.Bus, func(e T) { out = append(out, e) })
	return &out
}

// flushEvents delivers everything emitted so far, as the next world tick would.
func (h *harness) flushEvents() { h.sys.Events.Update(0) }
