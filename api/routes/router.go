package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/nutriscan-activation/api/controllers"
	"github.com/angelmondragon/nutriscan-activation/api/middleware"
	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/angelmondragon/nutriscan-activation/pkg/config"
	"github.com/angelmondragon/nutriscan-activation/pkg/logger"
	"github.com/angelmondragon/nutriscan-activation/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	activationService *activation.Service,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
) http.Handler {
	if logg == nil {
		logg = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.HTTP.CORSOrigins),
		middleware.BodyLimit(cfg.HTTP.MaxBodyBytes),
	)

	r.Get("/", controllers.Root(cfg))
	r.Get("/health", controllers.Health(cfg, activationService, logg))
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Post("/mylink-webhook", controllers.MyLinkWebhook(activationService, logg))
	r.Post("/verify-activation", controllers.VerifyActivation(activationService, logg))
	r.Get("/activation-codes/{code}", controllers.ActivationStatus(activationService, logg))

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", controllers.ListOrders(activationService, logg))
		r.Get("/{orderId}", controllers.GetOrder(activationService, logg))
	})

	return r
}
