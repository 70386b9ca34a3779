package cart

import (
	"context"
	"sync"

	"github.com/angelmondragon/bikeshop-bff/internal/catalog"
	pkgerrors "github.com/angelmondragon/bikeshop-bff/pkg/errors"
	"github.com/angelmondragon/bikeshop-bff/pkg/logger"
)

// State is what a mounted screen renders.
type State struct {
	Loading  bool              `json:"loading"`
	Cart     Cart              `json:"entries"`
	Catalog  []catalog.Product `json:"catalog"`
	Lines    []Line            `json:"lines"`
	Summary  Summary           `json:"summary"`
	Featured *catalog.Product  `json:"featured,omitempty"`
	Dangling []string          `json:"dangling"`
	FetchErr error             `json:"-"`
	Version  uint64            `json:"version"`
}

// View is one mounted screen: it owns a catalog fetch and a cart subscription, both
// cancelled by Unmount. A View is mounted at most once.
type View struct {
	store   *Store
	fetcher catalog.Fetcher
	logg    *logger.Logger

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	mounted  bool
	done     bool
	fetchGen uint64
	stopLoad context.CancelFunc
	state    State

	updates chan struct{}
	wg      sync.WaitGroup
}

func NewView(store *Store, fetcher catalog.Fetcher, logg *logger.Logger) *View {
	if logg == nil {
		logg = logger.Nop()
	}
	return &View{
		store:   store,
		fetcher: fetcher,
		logg:    logg,
		updates: make(chan struct{}, 1),
		state: State{
			Catalog:  []catalog.Product{},
			Lines:    []Line{},
			Dangling: []string{},
			Summary:  Summarize(nil),
		},
	}
}

// Mount starts the initial catalog fetch and follows the cart until Unmount or until
// ctx is done.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.mounted || v.done {
		v.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeConflict, "view already mounted")
	}
	v.ctx, v.cancel = context.WithCancel(ctx)
	v.mounted = true
	v.state.Loading = true
	viewCtx := v.ctx
	fetchCtx, gen := v.startFetchLocked()
	v.mu.Unlock()

	snaps := v.store.Subscribe(viewCtx)
	v.wg.Add(2)
	go func() {
		defer v.wg.Done()
		for snap := range snaps {
			v.applyCart(snap)
		}
	}()
	go func() {
		defer v.wg.Done()
		v.runFetch(fetchCtx, gen)
	}()
	v.notify()
	return nil
}

// Unmount cancels the in-flight fetch and the cart subscription, waits for both to stop
// and closes Updates. Results that arrive afterwards are dropped.
func (v *View) Unmount() {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = false
	v.done = true
	v.cancel()
	v.mu.Unlock()

	v.wg.Wait()
	close(v.updates)
}

// Refresh fetches the catalog again, replacing any fetch still in flight, and returns
// the fetch error. It stops early when ctx is done or the view is unmounted; a refresh
// cut short that way keeps the previous catalog and returns ctx.Err().
func (v *View) Refresh(ctx context.Context) error {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeConflict, "view is not mounted")
	}
	v.state.Loading = true
	fetchCtx, gen := v.startFetchLocked()
	v.wg.Add(1)
	v.mu.Unlock()
	defer v.wg.Done()

	stop := context.AfterFunc(ctx, v.cancelFetch(gen))
	defer stop()

	v.notify()
	if err := v.runFetch(fetchCtx, gen); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// State returns a copy of the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Catalog = append([]catalog.Product(nil), s.Catalog...)
	s.Lines = append([]Line(nil), s.Lines...)
	s.Dangling = append([]string(nil), s.Dangling...)
	return s
}

// Updates signals that State changed. Signals coalesce; the channel closes on Unmount.
func (v *View) Updates() <-chan struct{} {
	return v.updates
}

// startFetchLocked cancels the previous fetch and returns the context and generation
// of the new one. v.mu must be held.
func (v *View) startFetchLocked() (context.Context, uint64) {
	if v.stopLoad != nil {
		v.stopLoad()
	}
	v.fetchGen++
	fetchCtx, cancel := context.WithCancel(v.ctx)
	v.stopLoad = cancel
	return fetchCtx, v.fetchGen
}

func (v *View) cancelFetch(gen uint64) func() {
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.fetchGen == gen && v.stopLoad != nil {
			v.stopLoad()
		}
	}
}

func (v *View) runFetch(ctx context.Context, gen uint64) error {
	products, err := v.fetcher.FetchProducts(ctx)

	v.mu.Lock()
	if !v.mounted || gen != v.fetchGen {
		v.mu.Unlock()
		if err == nil {
			err = ctx.Err()
		}
		return err
	}
	v.state.Loading = false
	if err != nil && ctx.Err() != nil {
		// cancelled, not failed: the last good catalog stays
		v.recomputeLocked()
		v.mu.Unlock()
		v.notify()
		return err
	}
	v.state.FetchErr = err
	if err != nil {
		products = nil
		v.logg.Warn(v.logg.WithField(ctx, "error", err.Error()), "view.catalog_fetch_failed")
	}
	v.state.Catalog = products
	v.recomputeLocked()
	v.mu.Unlock()

	v.notify()
	return err
}

func (v *View) applyCart(snap Snapshot) {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.state.Cart = snap.Cart
	v.state.Version = snap.Version
	v.recomputeLocked()
	v.mu.Unlock()
	v.notify()
}

func (v *View) recomputeLocked() {
	if v.state.Catalog == nil {
		v.state.Catalog = []catalog.Product{}
	}
	v.state.Lines = Reconcile(v.state.Catalog, v.state.Cart)
	v.state.Summary = Summarize(v.state.Lines)
	v.state.Dangling = []string{}
	if !v.state.Loading && v.state.FetchErr == nil {
		v.state.Dangling = Dangling(v.state.Catalog, v.state.Cart)
	}
	v.state.Featured = nil
	if featured, ok := catalog.MostAdvantageous(v.state.Catalog); ok {
		v.state.Featured = &featured
	}
}

func (v *View) notify() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.done {
		return
	}
	select {
	case v.updates <- struct{}{}:
	default:
	}
}
