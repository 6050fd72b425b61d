package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pruqanda/pruqanda/core"
)

func newTestStore(t *testing.T) *CheckpointStore {
	t.Helper()

	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	store, err := NewCheckpointStore(backend)
	require.NoError(t, err)
	return store
}

func TestNewCheckpointStoreRequiresBackend(t *testing.T) {
	_, err := NewCheckpointStore(nil)
	assert.Error(t, err)
}

func TestMarkAndCheckEmbedded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	found, err := store.Embedded(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.MarkEmbedded(ctx, "m1", "m2"))

	found, err = store.Embedded(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = store.Embedded(ctx, "m3")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMarkEmbeddedNoIds(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.MarkEmbedded(context.Background()))
}

func TestFilterPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	messages := []core.Message{
		{Id: "m1", Content: "a"},
		{Id: "m2", Content: "b"},
		{Id: "m3", Content: "c"},
		{Id: "m4", Content: "d"},
	}

	require.NoError(t, store.MarkEmbedded(ctx, "m2", "m4"))

	pending, err := store.FilterPending(ctx, messages)
	require.NoError(t, err)

	// Unfinished messages survive in input order.
	require.Len(t, pending, 2)
	assert.Equal(t, "m1", pending[0].Id)
	assert.Equal(t, "m3", pending[1].Id)
}

func TestFilterPendingEmptyStore(t *testing.T) {
	store := newTestStore(t)

	messages := []core.Message{{Id: "m1"}, {Id: "m2"}}
	pending, err := store.FilterPending(context.Background(), messages)
	require.NoError(t, err)
	assert.Equal(t, messages, pending)
}
