// Package engine runs one character's session: a single goroutine owns the
// world state and the timer queue, reconciles them against real time on
// every step, and executes commands from a mailbox between timer firings.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/idlecamp/server/internal/combat"
	"github.com/idlecamp/server/internal/combatlog"
	"github.com/idlecamp/server/internal/config"
	"github.com/idlecamp/server/internal/core/event"
	coresys "github.com/idlecamp/server/internal/core/system"
	"github.com/idlecamp/server/internal/core/timer"
	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/persist"
	"github.com/idlecamp/server/internal/system"
	"github.com/idlecamp/server/internal/world"
)

// ErrStopped is returned by commands issued after the loop has exited.
var ErrStopped = errors.New("engine stopped")

// Options are the collaborators of a session.
type Options struct {
	Config   *config.Config
	Log      *zap.Logger
	Tables   *data.Tables
	Formulas system.Formulas
	Store    Store
	Clock    Clock       // SystemClock when nil
	Rand     combat.Rand // seeded from Config.Server.Seed when nil
	Language language.Tag
}

// Character selects the character to load, and the class and mode used
// when it has to be created.
type Character struct {
	Name    string
	ClassID int32
	Mode    world.Mode
}

// Engine is one running session.
type Engine struct {
	cfg   *config.Config
	log   *zap.Logger
	clock Clock
	store Store

	deps   *system.Deps
	sys    *system.Systems
	runner *coresys.Runner
	saver  *saver
	notes  *notifier

	mailbox chan func()
	done    chan struct{}
	dropped time.Duration // lag discarded beyond the catch-up window
}

// Open loads name from the store, creating it when absent, and prepares
// the session at the current time. Nothing runs until Run is called.
func Open(ctx context.Context, opts Options, ch Character) (*Engine, error) {
	cfg := opts.Config
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Rand == nil {
		seed := cfg.Server.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		opts.Rand = combat.NewRand(seed)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Language == language.Und {
		opts.Language = language.English
	}
	now := opts.Clock.Now()

	d := &system.Deps{
		Config:   cfg,
		Log:      opts.Log,
		Tables:   opts.Tables,
		Formulas: opts.Formulas,
		Sched:    timer.NewScheduler(now),
		Bus:      event.NewBus(),
		Rand:     opts.Rand,
		Journal:  combatlog.New(cfg.Simulation.LogCapacity, opts.Language),
	}

	e := &Engine{
		cfg:     cfg,
		log:     opts.Log,
		clock:   opts.Clock,
		store:   opts.Store,
		deps:    d,
		runner:  coresys.NewRunner(),
		notes:   newNotifier(),
		mailbox: make(chan func(), max(cfg.Simulation.MailboxSize, 1)),
		done:    make(chan struct{}),
	}

	p, fresh, err := e.loadOrCreate(ctx, ch, now)
	if err != nil {
		return nil, err
	}
	d.State = world.NewState(p)

	e.saver = newSaver(opts.Store, cfg.Persistence.SaveTimeout, opts.Log)
	e.saver.snapshot = func() *persist.CharacterRow { return toRow(d.State.Player) }
	e.sys = system.Wire(d, e.saver)
	e.sys.Register(e.runner)
	system.Prepare(d, p, fresh)

	e.notes.relay(d.Bus, d.Sched.Now)
	event.Subscribe(d.Bus, e.onPlayerDied)

	rate := cfg.Simulation.TickRate
	d.Sched.EveryFrom("world_tick", now, rate, func() { e.runner.Tick(rate) })
	if p.AutoAttack {
		d.Spawn.SpawnNow()
	} else {
		d.Spawn.Schedule()
	}
	d.Combat.Sync()

	if camp := d.Tables.Zones.Camp(p.CampID); camp != nil {
		d.Journal.Addf(now, combatlog.KindSystem, "You are at %s.", camp.Name)
	}
	e.log.Info(fmt.Sprintf("角色進入世界  角色=%s  等級=%d  營地=%d  模式=%s", p.Name, p.Level, p.CampID, p.Mode))
	return e, nil
}

func (e *Engine) loadOrCreate(ctx context.Context, ch Character, now time.Time) (*world.Player, bool, error) {
	row, err := e.store.LoadCharacter(ctx, ch.Name)
	if err != nil {
		return nil, false, fmt.Errorf("load character: %w", err)
	}
	if row != nil {
		p, restored, err := fromRow(e.deps, row, now)
		if err != nil {
			return nil, false, err
		}
		e.log.Debug(fmt.Sprintf("角色載入  角色=%s  效果恢復=%d/%d", p.Name, restored, len(row.Effects)))
		return p, false, nil
	}

	p, err := system.NewPlayer(e.deps, ch.Name, ch.ClassID, ch.Mode, now)
	if err != nil {
		return nil, false, err
	}
	row = toRow(p)
	if err := e.store.CreateCharacter(ctx, row); err != nil {
		return nil, false, fmt.Errorf("create character: %w", err)
	}
	p.CharID = row.ID
	e.log.Info(fmt.Sprintf("建立新角色  角色=%s  職業=%d  模式=%s", p.Name, p.ClassID, p.Mode))
	return p, true, nil
}

// onPlayerDied records finished hardcore runs on the leaderboard.
func (e *Engine) onPlayerDied(ev event.PlayerDied) {
	if !ev.Hardcore {
		return
	}
	e.saver.queueDeath(&persist.DeathRow{
		CharID:   ev.CharID,
		Name:     ev.Name,
		ClassID:  e.deps.State.Player.ClassID,
		Level:    int32(ev.Level),
		Exp:      ev.Exp,
		KilledBy: ev.KilledBy,
		DiedAt:   ev.At,
	})
}

// Run drives the session until ctx is canceled, then saves once more.
func (e *Engine) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(e.saver.run)
	g.Go(func() error { return e.loop(gctx) })
	return g.Wait()
}

func (e *Engine) loop(ctx context.Context) error {
	defer close(e.done)
	defer e.shutdown()

	ticker := time.NewTicker(e.cfg.Simulation.StepRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.step()
		case fn := <-e.mailbox:
			e.step()
			fn()
		}
	}
}

// step fires everything due up to the clock's now. Lag beyond the
// catch-up window is skipped without firing.
func (e *Engine) step() {
	sched := e.deps.Sched
	now := e.clock.Now()
	window := time.Duration(e.cfg.Simulation.MaxCatchupTicks) * e.cfg.Simulation.TickRate
	if lag := now.Sub(sched.Now()); window > 0 && lag > window {
		skip := lag - window
		sched.Shift(skip)
		e.dropped += skip
		e.log.Warn(fmt.Sprintf("模擬落後過多，略過 %s", skip), zap.Duration("lag", lag))
	}
	sched.Advance(now)
}

func (e *Engine) shutdown() {
	e.step()
	p := e.deps.State.Player
	e.saver.shutdown(toRow(p))
	p.Dirty = false
	e.log.Info(fmt.Sprintf("角色離開世界  角色=%s  等級=%d", p.Name, p.Level))
}

// do runs fn on the loop goroutine after reconciling time, and waits for it.
func (e *Engine) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	cmd := func() {
		defer close(finished)
		fn()
	}
	select {
	case e.mailbox <- cmd:
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-e.done:
		// the loop may have run it just before exiting
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UseSkill executes a skill manually.
func (e *Engine) UseSkill(ctx context.Context, skillID int32) (*system.Rejection, error) {
	var (
		rej *system.Rejection
		err error
	)
	if derr := e.do(ctx, func() { rej, err = e.deps.Skill.UseSkill(skillID) }); derr != nil {
		return nil, derr
	}
	return rej, err
}

// Travel starts a trip to campID.
func (e *Engine) Travel(ctx context.Context, campID int32) (*system.Rejection, error) {
	var (
		rej *system.Rejection
		err error
	)
	if derr := e.do(ctx, func() { rej, err = e.deps.Travel.Start(campID) }); derr != nil {
		return nil, derr
	}
	return rej, err
}

// SetAutoAttack toggles the autonomous player loop.
func (e *Engine) SetAutoAttack(ctx context.Context, on bool) error {
	return e.do(ctx, func() { e.deps.Combat.SetAutoAttack(on) })
}

// SetResting toggles resting.
func (e *Engine) SetResting(ctx context.Context, on bool) (*system.Rejection, error) {
	var rej *system.Rejection
	if err := e.do(ctx, func() { rej = system.SetResting(e.deps, on) }); err != nil {
		return nil, err
	}
	return rej, nil
}

// SetSlots replaces the auto-loop ability slots and returns what was kept.
func (e *Engine) SetSlots(ctx context.Context, ids []int32) ([]int32, error) {
	var kept []int32
	if err := e.do(ctx, func() {
		kept = append([]int32(nil), system.SetSlots(e.deps, ids)...)
	}); err != nil {
		return nil, err
	}
	return kept, nil
}

// Equip wears an inventory item.
func (e *Engine) Equip(ctx context.Context, itemID int32) (*system.Rejection, error) {
	var (
		rej *system.Rejection
		err error
	)
	if derr := e.do(ctx, func() { rej, err = system.EquipItem(e.deps, itemID) }); derr != nil {
		return nil, derr
	}
	return rej, err
}

// Snapshot returns the current session view.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	var s *Snapshot
	if err := e.do(ctx, func() { s = e.snapshot() }); err != nil {
		return nil, err
	}
	return s, nil
}

// Journal is the session's combat log. Safe for concurrent readers.
func (e *Engine) Journal() *combatlog.Log { return e.deps.Journal }

// SubscribeNotices streams milestone events. The returned func unsubscribes.
func (e *Engine) SubscribeNotices(buffer int) (<-chan Notice, func()) {
	return e.notes.subscribe(buffer)
}

// Done is closed when the loop has exited.
func (e *Engine) Done() <-chan struct{} { return e.done }
