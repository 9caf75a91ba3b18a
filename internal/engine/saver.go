package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/idlecamp/server/internal/persist"
)

// deathQueue bounds pending leaderboard writes.
const deathQueue = 16

// saver moves database writes off the loop goroutine. The loop hands it
// detached rows; a failed write sets the retry flag, which the persistence
// system checks on its next cycle.
type saver struct {
	store   Store
	timeout time.Duration
	log     *zap.Logger

	snapshot func() *persist.CharacterRow // called on the loop goroutine

	rows   chan *persist.CharacterRow
	deaths chan *persist.DeathRow
	final  chan *persist.CharacterRow
	stop   chan struct{}
	retry  atomic.Bool
	saved  atomic.Int64
}

func newSaver(store Store, timeout time.Duration, log *zap.Logger) *saver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &saver{
		store:   store,
		timeout: timeout,
		log:     log,
		rows:    make(chan *persist.CharacterRow, 1),
		deaths:  make(chan *persist.DeathRow, deathQueue),
		final:   make(chan *persist.CharacterRow, 1),
		stop:    make(chan struct{}),
	}
}

// QueueSave snapshots the player and queues it without blocking. It reports
// false when a write is still pending.
func (s *saver) QueueSave() bool {
	select {
	case s.rows <- s.snapshot():
		return true
	default:
		return false
	}
}

func (s *saver) NeedsRetry() bool { return s.retry.Load() }

// queueDeath hands a hardcore death to the leaderboard writer.
func (s *saver) queueDeath(d *persist.DeathRow) bool {
	select {
	case s.deaths <- d:
		return true
	default:
		s.log.Warn("排行榜寫入佇列已滿，捨棄", zap.String("name", d.Name), zap.Int32("level", d.Level))
		return false
	}
}

// shutdown queues the last row and tells run to finish.
func (s *saver) shutdown(row *persist.CharacterRow) {
	s.final <- row
	close(s.stop)
}

// run performs writes until shutdown. Pending deaths are flushed and the
// final row replaces any periodic save still queued.
func (s *saver) run() error {
	for {
		select {
		case row := <-s.rows:
			s.write(row)
		case d := <-s.deaths:
			s.record(d)
		case <-s.stop:
			for {
				select {
				case d := <-s.deaths:
					s.record(d)
					continue
				case <-s.rows:
					continue // superseded by the final row
				default:
				}
				break
			}
			row := <-s.final
			if err := s.write(row); err != nil {
				return fmt.Errorf("final save: %w", err)
			}
			return nil
		}
	}
}

func (s *saver) write(row *persist.CharacterRow) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	if err := s.store.SaveCharacter(ctx, row); err != nil {
		s.retry.Store(true)
		s.log.Error("角色存檔失敗，下個週期重試", zap.Int64("char", row.ID), zap.Error(err))
		return err
	}
	s.retry.Store(false)
	s.saved.Add(1)
	s.log.Debug(fmt.Sprintf("角色存檔完成  角色=%s  等級=%d  耗時=%s", row.Name, row.Level, time.Since(start)))
	return nil
}

func (s *saver) record(d *persist.DeathRow) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.store.RecordDeath(ctx, d); err != nil {
		s.log.Error("排行榜寫入失敗", zap.String("name", d.Name), zap.Error(err))
		return
	}
	s.log.Info(fmt.Sprintf("硬核死亡已記錄  角色=%s  等級=%d  擊殺者=%s", d.Name, d.Level, d.KilledBy))
}
