// Package timer is the single-owner timer queue behind a session's event loop.
// Every periodic callback (world tick, auto-attack loops, travel steps, casts,
// spawn and combat timeouts) is a timer here, fired strictly in due order by
// whoever calls Advance. Nothing in this package starts goroutines.
package timer

import (
	"container/heap"
	"time"
)

// Handle refers to a scheduled timer. The zero/nil handle is inert.
type Handle struct {
	due      time.Time
	every    time.Duration
	fn       func()
	seq      uint64
	index    int // heap position, -1 when not queued
	canceled bool
	name     string
}

// Cancel stops the timer. A canceled one-shot never fires; a canceled
// periodic timer stops re-arming. Safe to call more than once or on nil.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.canceled = true
}

// Active reports whether the timer is still going to fire.
func (h *Handle) Active() bool {
	return h != nil && !h.canceled && h.index >= 0
}

// Due returns the next firing time.
func (h *Handle) Due() time.Time {
	if h == nil {
		return time.Time{}
	}
	return h.due
}

// Interval returns the period of a periodic timer, 0 for one-shots.
func (h *Handle) Interval() time.Duration {
	if h == nil {
		return 0
	}
	return h.every
}

// Name returns the label the timer was registered with.
func (h *Handle) Name() string {
	if h == nil {
		return ""
	}
	return h.name
}

// Scheduler is a min-heap of timers keyed by (due, insertion order).
// It is not safe for concurrent use.
type Scheduler struct {
	now   time.Time
	q     queue
	seq   uint64
	fired uint64
}

func NewScheduler(start time.Time) *Scheduler {
	return &Scheduler{now: start}
}

// Now is the scheduler's logical time: the due time of the timer currently
// firing, or the last Advance target.
func (s *Scheduler) Now() time.Time { return s.now }

// Len returns the number of queued timers, including canceled ones not yet popped.
func (s *Scheduler) Len() int { return len(s.q) }

// Fired returns the total number of callbacks run.
func (s *Scheduler) Fired() uint64 { return s.fired }

// After runs fn once, d after Now.
func (s *Scheduler) After(name string, d time.Duration, fn func()) *Handle {
	return s.push(name, s.now.Add(d), 0, fn)
}

// Every runs fn each d, first firing d after Now.
func (s *Scheduler) Every(name string, d time.Duration, fn func()) *Handle {
	if d <= 0 {
		panic("timer: non-positive interval for " + name)
	}
	return s.push(name, s.now.Add(d), d, fn)
}

// EveryFrom is Every with an explicit first firing time.
func (s *Scheduler) EveryFrom(name string, first time.Time, d time.Duration, fn func()) *Handle {
	if d <= 0 {
		panic("timer: non-positive interval for " + name)
	}
	return s.push(name, first, d, fn)
}

func (s *Scheduler) push(name string, due time.Time, every time.Duration, fn func()) *Handle {
	s.seq++
	h := &Handle{due: due, every: every, fn: fn, seq: s.seq, name: name}
	heap.Push(&s.q, h)
	return h
}

// Advance fires every timer due at or before to, in due order, moving Now
// to each timer's due time before calling it. Timers scheduled by callbacks
// fire in the same call when they fall due. It returns the number fired.
func (s *Scheduler) Advance(to time.Time) int {
	n := 0
	for len(s.q) > 0 {
		h := s.q[0]
		if h.canceled {
			heap.Pop(&s.q)
			continue
		}
		if h.due.After(to) {
			break
		}
		heap.Pop(&s.q)
		if h.due.After(s.now) {
			s.now = h.due
		}
		if h.every > 0 {
			h.due = h.due.Add(h.every)
			heap.Push(&s.q, h)
		}
		h.fn()
		s.fired++
		n++
	}
	if to.After(s.now) {
		s.now = to
	}
	return n
}

// Shift moves every queued timer and Now forward by d without firing
// anything. Used to drop lag beyond the catch-up window.
func (s *Scheduler) Shift(d time.Duration) {
	if d <= 0 {
		return
	}
	s.now = s.now.Add(d)
	for _, h := range s.q {
		h.due = h.due.Add(d)
	}
}

// Next returns the due time of the earliest live timer.
func (s *Scheduler) Next() (time.Time, bool) {
	for len(s.q) > 0 && s.q[0].canceled {
		heap.Pop(&s.q)
	}
	if len(s.q) == 0 {
		return time.Time{}, false
	}
	return s.q[0].due, true
}

type queue []*Handle

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x any) {
	h := x.(*Handle)
	h.index = len(*q)
	*q = append(*q, h)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	h := old[n-1]
	old[n-1] = nil
	h.index = -1
	*q = old[:n-1]
	return h
}
