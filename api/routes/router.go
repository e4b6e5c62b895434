package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-storefront/api/controllers"
	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// Deps are the services the router hands to its controllers.
type Deps struct {
	Store    controllers.Pinger
	Catalog  controllers.CatalogService
	Carts    controllers.CartProvider
	Checkout controllers.CheckoutRunner
	Tokens   controllers.TokenStore
	// Gatherer backs /metrics. Nil falls back to the default registry.
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, logg, deps.Store))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))

		r.Get("/catalog", controllers.CatalogList(deps.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Carts, logg))
			r.Delete("/", controllers.CartClear(deps.Carts, logg))
			r.Post("/items", controllers.CartAddItem(deps.Carts, deps.Catalog, logg))
			r.Patch("/items/{index}", controllers.CartUpdateItem(deps.Carts, logg))
			r.Delete("/items/{index}", controllers.CartRemoveItem(deps.Carts, logg))
			r.Delete("/products/{productId}", controllers.CartRemoveProduct(deps.Carts, logg))
		})

		r.Post("/checkout", controllers.CheckoutSubmit(deps.Carts, deps.Catalog, deps.Checkout, logg))

		r.Put("/session/token", controllers.SessionTokenStore(deps.Tokens, logg))
		r.Delete("/session/token", controllers.SessionTokenClear(deps.Tokens, logg))
	})

	return r
}
