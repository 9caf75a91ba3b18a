package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestScheduler_FiresInDueOrder(t *testing.T) {
	s := NewScheduler(start)
	var got []string
	s.After("c", 3*time.Second, func() { got = append(got, "c") })
	s.After("a", 1*time.Second, func() { got = append(got, "a") })
	s.After("b", 2*time.Second, func() { got = append(got, "b") })
	s.After("a2", 1*time.Second, func() { got = append(got, "a2") })

	n := s.Advance(start.Add(2 * time.Second))
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "a2", "b"}, got)
	assert.Equal(t, start.Add(2*time.Second), s.Now())
}

func TestScheduler_NowIsDueTimeDuringCallback(t *testing.T) {
	s := NewScheduler(start)
	var seen []time.Time
	s.Every("tick", time.Second, func() { seen = append(seen, s.Now()) })

	s.Advance(start.Add(3500 * time.Millisecond))
	require.Len(t, seen, 3)
	for i, ts := range seen {
		assert.Equal(t, start.Add(time.Duration(i+1)*time.Second), ts)
	}
}

func TestScheduler_CancelOneShotAndPeriodic(t *testing.T) {
	s := NewScheduler(start)
	fired := 0
	one := s.After("one", time.Second, func() { fired++ })
	one.Cancel()
	one.Cancel()

	var per *Handle
	per = s.Every("loop", time.Second, func() {
		fired++
		if fired == 2 {
			per.Cancel()
		}
	})

	s.Advance(start.Add(10 * time.Second))
	assert.Equal(t, 2, fired)
	assert.False(t, per.Active())
	assert.False(t, one.Active())

	var nilHandle *Handle
	nilHandle.Cancel()
	assert.False(t, nilHandle.Active())
}

func TestScheduler_CallbackSchedulesWithinSameAdvance(t *testing.T) {
	s := NewScheduler(start)
	var got []string
	s.After("first", time.Second, func() {
		got = append(got, "first")
		s.After("chained", time.Second, func() { got = append(got, "chained") })
	})
	s.Advance(start.Add(5 * time.Second))
	assert.Equal(t, []string{"first", "chained"}, got)
}

func TestScheduler_CatchUpFiresEveryMissedTick(t *testing.T) {
	s := NewScheduler(start)
	ticks := 0
	s.Every("world", time.Second, func() { ticks++ })
	s.Advance(start.Add(90 * time.Second))
	assert.Equal(t, 90, ticks)
}

func TestScheduler_ShiftDropsLag(t *testing.T) {
	s := NewScheduler(start)
	ticks := 0
	h := s.Every("world", time.Second, func() { ticks++ })
	s.Shift(time.Minute)
	assert.Equal(t, start.Add(61*time.Second), h.Due())

	s.Advance(start.Add(61 * time.Second))
	assert.Equal(t, 1, ticks)
}

func TestScheduler_NextSkipsCanceled(t *testing.T) {
	s := NewScheduler(start)
	a := s.After("a", time.Second, func() {})
	s.After("b", 2*time.Second, func() {})
	a.Cancel()

	next, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, start.Add(2*time.Second), next)
}
