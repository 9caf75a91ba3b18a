// Package combatlog keeps the ordered, bounded stream of combat messages a
// session produces and fans new entries out to subscribers.
package combatlog

import (
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kind classifies a log line for display filtering.
type Kind string

const (
	KindHit    Kind = "hit"
	KindMiss   Kind = "miss"
	KindSpell  Kind = "spell"
	KindEffect Kind = "effect"
	KindReject Kind = "reject"
	KindLoot   Kind = "loot"
	KindExp    Kind = "exp"
	KindDeath  Kind = "death"
	KindTravel Kind = "travel"
	KindSystem Kind = "system"
)

// Entry is one line of the combat log. Seq increases by one per entry.
type Entry struct {
	Seq  uint64    `json:"seq"`
	At   time.Time `json:"at"`
	Kind Kind      `json:"kind"`
	Text string    `json:"text"`
}

// Log is a fixed-capacity ring of entries. Writes come from the session
// goroutine; reads and subscriptions may come from any goroutine.
type Log struct {
	mu      sync.Mutex
	buf     []Entry
	start   int
	size    int
	seq     uint64
	printer *message.Printer
	subs    map[int]chan Entry
	nextSub int
	dropped uint64
}

// New creates a log holding at most capacity entries. Numbers are formatted
// for tag (thousands separators and the like).
func New(capacity int, tag language.Tag) *Log {
	if capacity < 1 {
		capacity = 1
	}
	return &Log{
		buf:     make([]Entry, capacity),
		printer: message.NewPrinter(tag),
		subs:    make(map[int]chan Entry),
	}
}

// Addf formats and appends one entry.
func (l *Log) Addf(at time.Time, kind Kind, format string, args ...any) Entry {
	text := l.printer.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	e := Entry{Seq: l.seq, At: at, Kind: kind, Text: text}
	idx := (l.start + l.size) % len(l.buf)
	if l.size == len(l.buf) {
		l.start = (l.start + 1) % len(l.buf)
	} else {
		l.size++
	}
	l.buf[idx] = e

	for _, ch := range l.subs {
		select {
		case ch <- e:
		default:
			l.dropped++ // slow reader
		}
	}
	return e
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Recent returns up to n of the newest entries, oldest first. n <= 0 means all.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > l.size {
		n = l.size
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = l.buf[(l.start+l.size-n+i)%len(l.buf)]
	}
	return out
}

// Since returns retained entries with Seq > seq, oldest first.
func (l *Log) Since(seq uint64) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for i := 0; i < l.size; i++ {
		e := l.buf[(l.start+i)%len(l.buf)]
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Subscribe returns a channel receiving every new entry and a cancel func
// that closes it. Entries are dropped for a subscriber whose buffer is full.
func (l *Log) Subscribe(buffer int) (<-chan Entry, func()) {
	ch := make(chan Entry, max(buffer, 1))
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
			close(ch)
		})
	}
}

// Dropped returns how many deliveries were skipped for slow subscribers.
func (l *Log) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}
