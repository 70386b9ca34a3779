package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/angelmondragon/bikeshop-bff/internal/catalog"
	"github.com/angelmondragon/bikeshop-bff/pkg/enums"
	pkgerrors "github.com/angelmondragon/bikeshop-bff/pkg/errors"
	"github.com/angelmondragon/bikeshop-bff/pkg/kv"
	"github.com/angelmondragon/bikeshop-bff/pkg/logger"
	"github.com/angelmondragon/bikeshop-bff/pkg/metrics"
)

// DefaultKey is the storage key the mobile app persists its cart under.
const DefaultKey = "shoppingCart"

// Snapshot is the cart at a given version. Versions only increase.
type Snapshot struct {
	Cart    Cart   `json:"entries"`
	Version uint64 `json:"version"`
}

// StoreParams wires a Store.
type StoreParams struct {
	Storage kv.Store
	Key     string
	// ReadThrough re-reads the persisted value before each mutation. Enable it when
	// other processes write the same key.
	ReadThrough bool
	Logger      *logger.Logger
	Metrics     *metrics.CartMetrics
}

// Store is the process-wide cart. Mutations are serialized; each one persists the next
// state before it becomes visible to readers and subscribers.
type Store struct {
	storage     kv.Store
	key         string
	readThrough bool
	logg        *logger.Logger
	metrics     *metrics.CartMetrics

	writeMu sync.Mutex

	mu      sync.RWMutex
	current Snapshot

	subsMu sync.Mutex
	subs   map[*subscriber]struct{}
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart storage is required")
	}
	key := strings.TrimSpace(params.Key)
	if key == "" {
		key = DefaultKey
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		storage:     params.Storage,
		key:         key,
		readThrough: params.ReadThrough,
		logg:        logg,
		metrics:     params.Metrics,
		subs:        make(map[*subscriber]struct{}),
	}, nil
}

// Key is the storage key backing this store.
func (s *Store) Key() string { return s.key }

// Load replaces the in-memory cart with the persisted one. Missing, unreadable or
// undecodable values leave an empty cart and are only logged.
func (s *Store) Load(ctx context.Context) Snapshot {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	loaded := s.readPersisted(ctx)
	snap := s.swap(loaded)
	s.metrics.IncMutation(enums.CartMutationLoad.String(), nil)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cart_key": s.key,
		"entries":  loaded.Len(),
		"version":  snap.Version,
	}), "cart.loaded")
	return snap
}

// Snapshot returns the current cart without touching storage.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Toggle(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, enums.CartMutationToggle, func(c Cart) (Cart, error) {
		return c.Toggle(id)
	})
}

func (s *Store) Add(ctx context.Context, id string, qty int) (Snapshot, error) {
	return s.mutate(ctx, enums.CartMutationAdd, func(c Cart) (Cart, error) {
		return c.Add(id, qty)
	})
}

func (s *Store) SetQuantity(ctx context.Context, id string, qty int) (Snapshot, error) {
	return s.mutate(ctx, enums.CartMutationSetQuantity, func(c Cart) (Cart, error) {
		return c.SetQuantity(id, qty)
	})
}

func (s *Store) Increment(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, enums.CartMutationIncrement, func(c Cart) (Cart, error) {
		return c.Increment(id)
	})
}

func (s *Store) Decrement(ctx context.Context, id string, confirmed bool) (Snapshot, error) {
	return s.mutate(ctx, enums.CartMutationDecrement, func(c Cart) (Cart, error) {
		return c.Decrement(id, confirmed)
	})
}

func (s *Store) Remove(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, enums.CartMutationRemove, func(c Cart) (Cart, error) {
		return c.Remove(id)
	})
}

func (s *Store) Clear(ctx context.Context) (Snapshot, error) {
	return s.mutate(ctx, enums.CartMutationClear, func(Cart) (Cart, error) {
		return Cart{}, nil
	})
}

// Prune drops every id the listing does not name and returns the dropped ids. Ids the
// backend lists but that failed validation are kept.
func (s *Store) Prune(ctx context.Context, listing catalog.Listing) (Snapshot, []string, error) {
	keep := make(map[string]struct{}, len(listing.Products)+len(listing.Skipped))
	for _, id := range listing.IDs() {
		keep[id] = struct{}{}
	}
	var removed []string
	snap, err := s.mutate(ctx, enums.CartMutationPrune, func(c Cart) (Cart, error) {
		var next Cart
		next, removed = c.Retain(keep)
		return next, nil
	})
	if err != nil {
		return snap, nil, err
	}
	if len(removed) > 0 {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"cart_key": s.key,
			"removed":  removed,
		}), "cart.pruned")
	}
	return snap, removed, nil
}

// syncExternal reads storage and installs the persisted cart when another process
// changed it. The read happens under the write lock so it cannot undo a local mutation.
// It never writes back.
func (s *Store) syncExternal(ctx context.Context) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := s.storage.Get(ctx, s.key)
	var next Cart
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return false, err
	default:
		if next, err = Decode(data); err != nil {
			return false, err
		}
	}

	if next.Equal(s.Snapshot().Cart) {
		return false, nil
	}
	snap := s.swap(next)
	s.metrics.IncMutation(enums.CartMutationExternal.String(), nil)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cart_key": s.key,
		"version":  snap.Version,
	}), "cart.external_change")
	return true, nil
}

func (s *Store) mutate(ctx context.Context, op enums.CartMutation, fn func(Cart) (Cart, error)) (Snapshot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	base := s.Snapshot()
	if s.readThrough {
		persisted, err := s.storage.Get(ctx, s.key)
		switch {
		case errors.Is(err, kv.ErrNotFound):
			if !base.Cart.IsEmpty() {
				base = s.swap(Cart{})
			}
		case err != nil:
			wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart")
			s.metrics.IncMutation(op.String(), wrapped)
			return base, wrapped
		default:
			if decoded, decErr := Decode(persisted); decErr == nil && !decoded.Equal(base.Cart) {
				base = s.swap(decoded)
			}
		}
	}

	next, err := fn(base.Cart)
	if err != nil {
		s.metrics.IncMutation(op.String(), err)
		return base, err
	}
	if next.Equal(base.Cart) {
		s.metrics.IncMutation(op.String(), nil)
		return base, nil
	}

	data, err := Encode(next)
	if err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
		s.metrics.IncMutation(op.String(), wrapped)
		return base, wrapped
	}
	if err := s.storage.Set(ctx, s.key, data); err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
		s.metrics.IncMutation(op.String(), wrapped)
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"cart_key": s.key,
			"op":       op.String(),
		}), "cart.persist_failed", err)
		return base, wrapped
	}

	snap := s.swap(next)
	s.metrics.IncMutation(op.String(), nil)
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"cart_key": s.key,
		"op":       op.String(),
		"version":  snap.Version,
		"entries":  next.Len(),
	}), "cart.mutated")
	return snap, nil
}

// swap must be called with writeMu held.
func (s *Store) swap(next Cart) Snapshot {
	s.mu.Lock()
	s.current = Snapshot{Cart: next, Version: s.current.Version + 1}
	snap := s.current
	s.mu.Unlock()

	s.metrics.SetEntries(next.Len())
	s.publish(snap)
	return snap
}

func (s *Store) readPersisted(ctx context.Context) Cart {
	data, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return Cart{}
	}
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"cart_key": s.key,
			"error":    err.Error(),
		}), "cart.read_failed")
		return Cart{}
	}
	decoded, err := Decode(data)
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"cart_key": s.key,
			"error":    err.Error(),
		}), "cart.decode_failed")
		return Cart{}
	}
	return decoded
}
