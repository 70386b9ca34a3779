package cart

import (
	"context"
	"time"
)

// DefaultWatchInterval matches how often the mobile screens re-read the cart.
const DefaultWatchInterval = 500 * time.Millisecond

// Watcher picks up carts written to storage by other processes and publishes them
// through the Store. Changes made through the Store never need it.
type Watcher struct {
	store    *Store
	interval time.Duration
}

// NewWatcher returns a watcher; a non-positive interval yields one whose Run returns at once.
func NewWatcher(store *Store, interval time.Duration) *Watcher {
	return &Watcher{store: store, interval: interval}
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll reads storage once and adopts the value when it differs from the store's cart.
// Read and decode failures keep the current cart until the next poll.
func (w *Watcher) Poll(ctx context.Context) bool {
	changed, err := w.store.syncExternal(ctx)
	if err != nil && ctx.Err() == nil {
		logg := w.store.logg
		ctx = logg.WithCartKey(ctx, w.store.key)
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "cart.watch_failed")
	}
	return changed
}
