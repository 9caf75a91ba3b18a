package combatlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestLog_RingKeepsNewest(t *testing.T) {
	l := New(3, language.English)
	for i := 1; i <= 5; i++ {
		l.Addf(t0, KindHit, "hit %d", i)
	}
	assert.Equal(t, 3, l.Len())

	got := l.Recent(0)
	require.Len(t, got, 3)
	assert.Equal(t, "hit 3", got[0].Text)
	assert.Equal(t, "hit 5", got[2].Text)
	assert.EqualValues(t, 5, got[2].Seq)

	last := l.Recent(1)
	require.Len(t, last, 1)
	assert.Equal(t, "hit 5", last[0].Text)
}

func TestLog_Since(t *testing.T) {
	l := New(10, language.English)
	for i := 0; i < 4; i++ {
		l.Addf(t0, KindMiss, "miss")
	}
	assert.Len(t, l.Since(2), 2)
	assert.Empty(t, l.Since(4))
}

func TestLog_FormatsNumbers(t *testing.T) {
	l := New(4, language.English)
	e := l.Addf(t0, KindExp, "You gain %d experience.", 1234567)
	assert.Equal(t, "You gain 1,234,567 experience.", e.Text)
}

func TestLog_SubscribeAndCancel(t *testing.T) {
	l := New(4, language.English)
	ch, cancel := l.Subscribe(1)

	l.Addf(t0, KindSystem, "one")
	l.Addf(t0, KindSystem, "two") // buffer full, dropped

	e := <-ch
	assert.Equal(t, "one", e.Text)
	assert.EqualValues(t, 1, l.Dropped())

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	l.Addf(t0, KindSystem, "three")
}
