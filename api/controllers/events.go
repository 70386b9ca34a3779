package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/bikeshop-bff/api/responses"
	"github.com/angelmondragon/bikeshop-bff/internal/cart"
	"github.com/angelmondragon/bikeshop-bff/internal/catalog"
	pkgerrors "github.com/angelmondragon/bikeshop-bff/pkg/errors"
	"github.com/angelmondragon/bikeshop-bff/pkg/logger"
)

const heartbeatInterval = 15 * time.Second

type cartEvent struct {
	Loading    bool             `json:"loading"`
	Version    uint64           `json:"version"`
	Entries    cart.Cart        `json:"entries"`
	Lines      []cart.Line      `json:"lines"`
	Summary    cart.Summary     `json:"summary"`
	Featured   *catalog.Product `json:"featured,omitempty"`
	Dangling   []string         `json:"dangling"`
	FetchError *string          `json:"fetch_error,omitempty"`
}

func newCartEvent(s cart.State) cartEvent {
	ev := cartEvent{
		Loading:  s.Loading,
		Version:  s.Version,
		Entries:  s.Cart,
		Lines:    s.Lines,
		Summary:  s.Summary,
		Featured: s.Featured,
		Dangling: s.Dangling,
	}
	ev.FetchError = fetchErrorMessage(s.FetchErr)
	return ev
}

// fetchErrorMessage is the client-facing text of a catalog failure, nil when there is none.
func fetchErrorMessage(err error) *string {
	if err == nil {
		return nil
	}
	msg := pkgerrors.MetadataFor(pkgerrors.CodeDependency).PublicMessage
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		msg = typed.Message()
	}
	return &msg
}

// CartEvents streams the reconciled cart as server-sent events. Each connection is one
// mounted view; it is unmounted when the client goes away.
func CartEvents(store *cart.Store, fetcher catalog.Fetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rc := http.NewResponseController(w)

		view := cart.NewView(store, fetcher, logg)
		if err := view.Mount(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer view.Unmount()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		if err := rc.Flush(); err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "cart.events_unflushable")
			}
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := rc.Flush(); err != nil {
					return
				}
			case _, ok := <-view.Updates():
				if !ok {
					return
				}
				state := view.State()
				if err := writeEvent(w, rc, "cart", state.Version, newCartEvent(state)); err != nil {
					return
				}
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, name string, id uint64, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", name, id, data); err != nil {
		return err
	}
	return rc.Flush()
}
