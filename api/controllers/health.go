package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/bikeshop-bff/api/responses"
	"github.com/angelmondragon/bikeshop-bff/pkg/config"
	pkgerrors "github.com/angelmondragon/bikeshop-bff/pkg/errors"
	"github.com/angelmondragon/bikeshop-bff/pkg/logger"
)

const envHeader = "X-Bikeshop-Env"

// Pinger is implemented by every storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once the cart storage answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, storage Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if storage != nil {
			if err := storage.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage not ready").
						WithDetails(map[string]any{"storage_driver": cfg.Storage.Driver}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{
			"status":         "ready",
			"storage_driver": cfg.Storage.Driver,
		})
	}
}
