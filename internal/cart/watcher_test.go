package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bikeshop-bff/pkg/kv"
)

func TestPollAdoptsExternalWrite(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	s := newTestStore(t, storage)
	s.Load(ctx)
	w := NewWatcher(s, DefaultWatchInterval)

	assert.False(t, w.Poll(ctx), "nothing changed yet")

	require.NoError(t, storage.Set(ctx, DefaultKey, []byte(`["a"]`)))
	assert.True(t, w.Poll(ctx))
	assert.Equal(t, []string{"a"}, s.Snapshot().Cart.IDs())
	assert.Equal(t, uint64(2), s.Snapshot().Version)

	assert.False(t, w.Poll(ctx), "same value must not bump the version")
	assert.Equal(t, uint64(2), s.Snapshot().Version)
}

func TestPollKeepsStateOnFailures(t *testing.T) {
	ctx := context.Background()
	storage := newFlakyStorage()
	require.NoError(t, storage.Memory.Set(ctx, DefaultKey, []byte(`["a"]`)))
	s := newTestStore(t, storage)
	s.Load(ctx)
	w := NewWatcher(s, DefaultWatchInterval)

	storage.setFailures(errors.New("unreachable"), nil)
	assert.False(t, w.Poll(ctx))
	assert.Equal(t, []string{"a"}, s.Snapshot().Cart.IDs())

	storage.setFailures(nil, nil)
	require.NoError(t, storage.Memory.Set(ctx, DefaultKey, []byte(`{broken`)))
	assert.False(t, w.Poll(ctx))
	assert.Equal(t, []string{"a"}, s.Snapshot().Cart.IDs())
}

func TestWatcherRunPublishesToSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage := kv.NewMemory()
	s := newTestStore(t, storage)
	s.Load(ctx)
	ch := s.Subscribe(ctx)
	<-ch

	done := make(chan error, 1)
	go func() { done <- NewWatcher(s, 10*time.Millisecond).Run(ctx) }()

	require.NoError(t, storage.Set(ctx, DefaultKey, []byte(`["z"]`)))
	select {
	case snap := <-ch:
		assert.Equal(t, []string{"z"}, snap.Cart.IDs())
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not publish the external change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherDisabled(t *testing.T) {
	s := newTestStore(t, kv.NewMemory())
	assert.NoError(t, NewWatcher(s, 0).Run(context.Background()))
}
