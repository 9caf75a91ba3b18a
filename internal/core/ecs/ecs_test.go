package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityPool_ZeroIDNeverIssued(t *testing.T) {
	p := NewEntityPool()
	id := p.Create()
	assert.False(t, id.IsZero())
	assert.False(t, p.Alive(0))
}

func TestEntityPool_ReuseBumpsGeneration(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	p.Destroy(a)
	b := p.Create()

	require.Equal(t, a.Index(), b.Index())
	assert.NotEqual(t, a, b)
	assert.False(t, p.Alive(a))
	assert.True(t, p.Alive(b))

	p.Destroy(a) // stale
	assert.True(t, p.Alive(b))
}

func TestWorld_DeferredDestroy(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()
	var destroyed []EntityID
	w.OnDestroy(func(e EntityID) { destroyed = append(destroyed, e) })

	w.MarkForDestruction(id)
	w.MarkForDestruction(id)
	assert.True(t, w.Alive(id))
	assert.Equal(t, 2, w.Queued())

	w.FlushDestroyQueue()
	assert.False(t, w.Alive(id))
	assert.Equal(t, []EntityID{id}, destroyed)
	assert.Zero(t, w.Queued())
}
