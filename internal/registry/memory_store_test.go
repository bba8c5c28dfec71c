package registry

import (
	"context"
	stdErrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreInsertRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[widget]()

	require.NoError(t, store.Insert(ctx, widget{ID: "1", Name: "a"}))
	assert.True(t, stdErrors.Is(store.Insert(ctx, widget{ID: "2", Name: "a"}), ErrConflict))
	assert.True(t, stdErrors.Is(store.Insert(ctx, widget{ID: "1", Name: "b"}), ErrConflict))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStoreNameIndexFollowsRenames(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[widget]()
	require.NoError(t, store.Insert(ctx, widget{ID: "1", Name: "a"}))
	require.NoError(t, store.Insert(ctx, widget{ID: "2", Name: "b"}))

	// 2 改名为 a 后，a 仍指向最早的记录 1。
	require.NoError(t, store.Replace(ctx, widget{ID: "2", Name: "a"}))
	_, err := store.FindByName(ctx, "b")
	assert.True(t, stdErrors.Is(err, ErrNotFound))

	require.NoError(t, store.Delete(ctx, "1"))
	rec, err := store.FindByName(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2", rec.ID)

	require.NoError(t, store.Delete(ctx, "2"))
	_, err = store.FindByName(ctx, "a")
	assert.True(t, stdErrors.Is(err, ErrNotFound))
}

func TestMemoryStoreMissingRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[widget]()

	_, err := store.Get(ctx, "1")
	assert.True(t, stdErrors.Is(err, ErrNotFound))
	assert.True(t, stdErrors.Is(store.Replace(ctx, widget{ID: "1", Name: "a"}), ErrNotFound))
	assert.True(t, stdErrors.Is(store.Delete(ctx, "1"), ErrNotFound))
}

func TestSequenceNeverRepeats(t *testing.T) {
	ctx := context.Background()
	seq := NewSequence()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := seq.Next(ctx)
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestEnumContainsIgnoresCase(t *testing.T) {
	e := Enum{"react", "chat"}
	assert.True(t, e.Contains("ReAct"))
	assert.True(t, e.Contains(" chat "))
	assert.False(t, e.Contains("reactive"))
	assert.Equal(t, "react, chat", e.String())
}
