package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/bikeshop-bff/api/controllers"
	"github.com/angelmondragon/bikeshop-bff/api/middleware"
	"github.com/angelmondragon/bikeshop-bff/internal/cart"
	"github.com/angelmondragon/bikeshop-bff/internal/catalog"
	"github.com/angelmondragon/bikeshop-bff/pkg/config"
	"github.com/angelmondragon/bikeshop-bff/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	storage controllers.Pinger,
	cartStore *cart.Store,
	fetcher catalog.Fetcher,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, storage))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(fetcher, logg))
			r.Get("/featured", controllers.ProductsFeatured(fetcher, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartStore))
			r.Delete("/", controllers.CartClear(cartStore, logg))
			r.Get("/view", controllers.CartView(cartStore, fetcher, logg))
			r.Get("/events", controllers.CartEvents(cartStore, fetcher, logg))
			r.Post("/prune", controllers.CartPrune(cartStore, fetcher, logg))

			r.Route("/items/{productId}", func(r chi.Router) {
				r.Post("/", controllers.CartAdd(cartStore, logg))
				r.Put("/", controllers.CartSetQuantity(cartStore, logg))
				r.Delete("/", controllers.CartRemove(cartStore, logg))
				r.Post("/toggle", controllers.CartToggle(cartStore, logg))
				r.Post("/increment", controllers.CartIncrement(cartStore, logg))
				r.Post("/decrement", controllers.CartDecrement(cartStore, logg))
			})
		})
	})

	return r
}
