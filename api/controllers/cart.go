package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/bikeshop-bff/api/responses"
	"github.com/angelmondragon/bikeshop-bff/api/validators"
	"github.com/angelmondragon/bikeshop-bff/internal/cart"
	"github.com/angelmondragon/bikeshop-bff/internal/catalog"
	"github.com/angelmondragon/bikeshop-bff/pkg/logger"
)

const productIDParam = "productId"

type addItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type decrementRequest struct {
	Confirmed bool `json:"confirmed"`
}

type cartViewResponse struct {
	Entries    cart.Cart    `json:"entries"`
	Version    uint64       `json:"version"`
	Lines      []cart.Line  `json:"lines"`
	Summary    cart.Summary `json:"summary"`
	Dangling   []string     `json:"dangling"`
	FetchError *string      `json:"fetch_error,omitempty"`
}

type pruneResponse struct {
	cart.Snapshot
	Removed []string `json:"removed"`
}

// CartFetch returns the raw cart entries and version.
func CartFetch(store *cart.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartView reconciles the cart against a fresh catalog. A failed fetch still shows the
// cart, with no lines and a fetch_error the client can offer a retry for.
func CartView(store *cart.Store, fetcher catalog.Fetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		products, err := fetcher.FetchProducts(ctx)
		snap := store.Snapshot()
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "cart.view_catalog_unavailable")
			}
			responses.WriteSuccess(w, cartViewResponse{
				Entries:    snap.Cart,
				Version:    snap.Version,
				Lines:      []cart.Line{},
				Summary:    cart.Summarize(nil),
				Dangling:   []string{},
				FetchError: fetchErrorMessage(err),
			})
			return
		}
		lines := cart.Reconcile(products, snap.Cart)
		responses.WriteSuccess(w, cartViewResponse{
			Entries:  snap.Cart,
			Version:  snap.Version,
			Lines:    lines,
			Summary:  cart.Summarize(lines),
			Dangling: cart.Dangling(products, snap.Cart),
		})
	}
}

func CartToggle(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return itemMutation(logg, func(ctx context.Context, r *http.Request, id string) (cart.Snapshot, error) {
		return store.Toggle(ctx, id)
	})
}

func CartAdd(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return itemMutation(logg, func(ctx context.Context, r *http.Request, id string) (cart.Snapshot, error) {
		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return cart.Snapshot{}, err
		}
		return store.Add(ctx, id, req.Quantity)
	})
}

func CartSetQuantity(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return itemMutation(logg, func(ctx context.Context, r *http.Request, id string) (cart.Snapshot, error) {
		var req setQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return cart.Snapshot{}, err
		}
		return store.SetQuantity(ctx, id, *req.Quantity)
	})
}

func CartIncrement(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return itemMutation(logg, func(ctx context.Context, r *http.Request, id string) (cart.Snapshot, error) {
		return store.Increment(ctx, id)
	})
}

// CartDecrement takes away one unit; removing the last one needs {"confirmed": true}.
func CartDecrement(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return itemMutation(logg, func(ctx context.Context, r *http.Request, id string) (cart.Snapshot, error) {
		var req decrementRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			return cart.Snapshot{}, err
		}
		return store.Decrement(ctx, id, req.Confirmed)
	})
}

func CartRemove(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return itemMutation(logg, func(ctx context.Context, r *http.Request, id string) (cart.Snapshot, error) {
		return store.Remove(ctx, id)
	})
}

func CartClear(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := store.Clear(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartPrune drops cart ids the current catalog no longer has.
func CartPrune(store *cart.Store, fetcher catalog.Fetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := fetchListing(r.Context(), fetcher)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, removed, err := store.Prune(r.Context(), listing)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if removed == nil {
			removed = []string{}
		}
		responses.WriteSuccess(w, pruneResponse{Snapshot: snap, Removed: removed})
	}
}

func fetchListing(ctx context.Context, fetcher catalog.Fetcher) (catalog.Listing, error) {
	if lf, ok := fetcher.(catalog.ListingFetcher); ok {
		return lf.FetchListing(ctx)
	}
	products, err := fetcher.FetchProducts(ctx)
	return catalog.Listing{Products: products}, err
}

func itemMutation(logg *logger.Logger, fn func(ctx context.Context, r *http.Request, id string) (cart.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, productIDParam)
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithProductID(ctx, id)
		}
		snap, err := fn(ctx, r, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}
