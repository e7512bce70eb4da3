package shell

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(func() *Shell {
		return New(newBlockingGenerator(), WithIngredients("chicken breast, broccoli, rice, soy sauce"))
	})
}

func TestStoreGetOrCreate(t *testing.T) {
	store := newTestStore()

	id, sh := store.GetOrCreate("")
	require.NotNil(t, sh)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, "chicken breast, broccoli, rice, soy sauce", sh.Snapshot().Ingredients)

	sameID, same := store.GetOrCreate(id)
	assert.Equal(t, id, sameID)
	assert.Same(t, sh, same)
	assert.Equal(t, 1, store.Len())

	got, ok := store.Get(id)
	assert.True(t, ok)
	assert.Same(t, sh, got)
}

func TestStoreReusesWellFormedUnknownID(t *testing.T) {
	store := newTestStore()
	known := uuid.NewString()

	id, _ := store.GetOrCreate(known)
	assert.Equal(t, known, id)

	id, _ = store.GetOrCreate("not-a-session")
	assert.NotEqual(t, "not-a-session", id)
	assert.Equal(t, 2, store.Len())
}

func TestStorePrune(t *testing.T) {
	gen := newBlockingGenerator()
	store := NewStore(func() *Shell { return New(gen) })

	idleID, _ := store.GetOrCreate("")
	busyID, busy := store.GetOrCreate("")
	require.NoError(t, busy.Trigger("garlic"))
	reply := gen.next(t)

	removed := store.Prune(time.Now().Add(time.Minute))
	assert.Equal(t, 1, removed)

	_, ok := store.Get(idleID)
	assert.False(t, ok)
	_, ok = store.Get(busyID)
	assert.True(t, ok)

	reply <- result{}
	busy.Wait()
	assert.Equal(t, 0, store.Prune(time.Now().Add(-time.Hour)))

	store.Close()
	assert.Equal(t, 0, store.Len())
}

func TestStoreGetOrCreateKeepsSessionAlive(t *testing.T) {
	store := newTestStore()
	id, sh := store.GetOrCreate("")

	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(5 * time.Millisecond)

	_, again := store.GetOrCreate(id)
	assert.Same(t, sh, again)
	assert.Equal(t, 0, store.Prune(cutoff))
	assert.False(t, sh.Closed())
}

func TestStoreReplacesClosedShell(t *testing.T) {
	store := newTestStore()
	id, sh := store.GetOrCreate("")
	sh.Close()

	sameID, fresh := store.GetOrCreate(id)
	assert.Equal(t, id, sameID)
	assert.NotSame(t, sh, fresh)
	assert.False(t, fresh.Closed())
	require.NoError(t, fresh.Trigger("garlic"))
	assert.Equal(t, 1, store.Len())

	store.Close()
}
