package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/manasbridge/backend/internal/storage"
)

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var missing []string
	ok, err := s.Get(ctx, storage.KeyMoodHistory, &missing)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, storage.KeyMoodHistory, []string{"a", "b"}))

	var got []string
	ok, err = s.Get(ctx, storage.KeyMoodHistory, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	got[0] = "mutated"
	var again []string
	_, err = s.Get(ctx, storage.KeyMoodHistory, &again)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0], "callers must not share state with the store")

	require.NoError(t, s.Delete(ctx, storage.KeyMoodHistory))
	ok, err = s.Get(ctx, storage.KeyMoodHistory, &again)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreSubscribe(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	changes, cancel := s.Subscribe(storage.KeyTheme)
	otherChanges, cancelOther := s.Subscribe(storage.KeyUsers)
	defer cancelOther()

	require.NoError(t, s.Set(ctx, storage.KeyTheme, "dark"))
	require.NoError(t, s.Delete(ctx, storage.KeyTheme))

	assert.Equal(t, storage.Change{Key: storage.KeyTheme}, <-changes)
	assert.Equal(t, storage.Change{Key: storage.KeyTheme, Deleted: true}, <-changes)
	assert.Len(t, otherChanges, 0)

	cancel()
	cancel()
	_, open := <-changes
	assert.False(t, open)
}

func TestStoreClosed(t *testing.T) {
	s := NewStore()
	changes, _ := s.Subscribe(storage.KeyTheme)
	require.NoError(t, s.Close())

	_, open := <-changes
	assert.False(t, open)

	err := s.Set(context.Background(), storage.KeyTheme, "light")
	assert.ErrorIs(t, err, storage.ErrClosed)
}
