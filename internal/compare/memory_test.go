package compare

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_DefaultCap(t *testing.T) {
	assert.Equal(t, DefaultCap, NewMemoryStore(0).Cap())
	assert.Equal(t, 4, NewMemoryStore(4).Cap())
}

func TestMemoryStore_GetUnknownOwnerIsEmpty(t *testing.T) {
	s := NewMemoryStore(3)
	ids, err := s.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestMemoryStore_ReplaceCleansAndCaps(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()

	got, err := s.Replace(ctx, "u1", []string{" a ", "b", "", "a", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	_, err = s.Replace(ctx, "u1", []string{"a", "b", "c", "d"})
	assert.ErrorIs(t, err, ErrFull)

	// Failed replace leaves the previous selection untouched.
	cur, _ := s.Get(ctx, "u1")
	assert.Equal(t, []string{"a", "b", "c"}, cur)
}

func TestMemoryStore_Toggle(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	got, err := s.Toggle(ctx, "u1", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	got, err = s.Toggle(ctx, "u1", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = s.Toggle(ctx, "u1", "c")
	assert.ErrorIs(t, err, ErrFull)

	got, err = s.Toggle(ctx, "u1", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got)
}

func TestMemoryStore_OwnersAreIsolated(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()
	_, _ = s.Replace(ctx, "u1", []string{"a"})
	_, _ = s.Replace(ctx, "u2", []string{"b"})
	require.NoError(t, s.Clear(ctx, "u1"))

	u1, _ := s.Get(ctx, "u1")
	u2, _ := s.Get(ctx, "u2")
	assert.Empty(t, u1)
	assert.Equal(t, []string{"b"}, u2)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()
	_, _ = s.Replace(ctx, "u1", []string{"a", "b"})

	got, _ := s.Get(ctx, "u1")
	got[0] = "mutated"

	again, _ := s.Get(ctx, "u1")
	assert.Equal(t, []string{"a", "b"}, again)
}

func TestMemoryStore_SubscribeReceivesFullSelections(t *testing.T) {
	s := NewMemoryStore(3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Subscribe(ctx, "u1")
	require.NoError(t, err)

	_, _ = s.Toggle(ctx, "u1", "a")
	select {
	case got := <-ch:
		assert.Equal(t, []string{"a"}, got)
	case <-time.After(time.Second):
		t.Fatal("no event after toggle")
	}

	// Two quick writes without reading: only the latest is pending.
	_, _ = s.Toggle(ctx, "u1", "b")
	_ = s.Clear(ctx, "u1")
	select {
	case got := <-ch:
		assert.Empty(t, got)
	case <-time.After(time.Second):
		t.Fatal("no event after clear")
	}
}

func TestMemoryStore_SubscribeClosesOnCancel(t *testing.T) {
	s := NewMemoryStore(3)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.Subscribe(ctx, "u1")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Writing after the subscriber left must not panic or block.
	_, err = s.Toggle(context.Background(), "u1", "a")
	assert.NoError(t, err)
}

func TestMemoryStore_ConcurrentTogglesRespectCap(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = s.Toggle(ctx, "u1", id)
		}(id)
	}
	wg.Wait()

	got, _ := s.Get(ctx, "u1")
	assert.Len(t, got, 3)
}

var _ Store = (*MemoryStore)(nil)
