package engine

import (
	"sync"
	"time"

	"github.com/idlecamp/server/internal/core/event"
)

// NoticeType names a session milestone pushed to subscribers.
type NoticeType string

const (
	NoticeMobKilled      NoticeType = "mob_killed"
	NoticePlayerDied     NoticeType = "player_died"
	NoticeLevelUp        NoticeType = "level_up"
	NoticeTravelFinished NoticeType = "travel_finished"
)

// Notice is one bus event relayed outside the loop goroutine.
type Notice struct {
	Type NoticeType `json:"type"`
	At   time.Time  `json:"at"`
	Data any        `json:"data"`
}

// notifier fans notices out to subscribers. Slow subscribers lose notices
// rather than stall the loop.
type notifier struct {
	mu      sync.Mutex
	subs    map[int]chan Notice
	next    int
	dropped uint64
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]chan Notice)}
}

func (n *notifier) subscribe(buffer int) (<-chan Notice, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	ch := make(chan Notice, max(buffer, 1))
	n.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
			close(ch)
		})
	}
}

func (n *notifier) publish(nt Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- nt:
		default:
			n.dropped++
		}
	}
}

// relay forwards the milestone events from bus. Handlers run at the
// event phase of the world tick after the emit.
func (n *notifier) relay(bus *event.Bus, now func() time.Time) {
	event.Subscribe(bus, func(ev event.MobKilled) {
		n.publish(Notice{Type: NoticeMobKilled, At: ev.At, Data: ev})
	})
	event.Subscribe(bus, func(ev event.PlayerDied) {
		n.publish(Notice{Type: NoticePlayerDied, At: ev.At, Data: ev})
	})
	event.Subscribe(bus, func(ev event.LevelUp) {
		n.publish(Notice{Type: NoticeLevelUp, At: now(), Data: ev})
	})
	event.Subscribe(bus, func(ev event.TravelFinished) {
		n.publish(Notice{Type: NoticeTravelFinished, At: now(), Data: ev})
	})
}
