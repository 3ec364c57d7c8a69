package router

import (
	"net/http"

	"aroma-shop/internal/handler"
	"aroma-shop/internal/metrics"
	"aroma-shop/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Product *handler.ProductHandler
	Address *handler.AddressHandler
	Order   *handler.OrderHandler
	Payment *handler.PaymentHandler
	Media   *handler.MediaHandler
}

// Options configures the optional endpoints.
type Options struct {
	// MetricsPath mounts the Prometheus handler when Metrics is non-nil.
	MetricsPath string
	// MediaDir is served under /media/files/ when set.
	MediaDir string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(
	h Handlers,
	authenticator middleware.Authenticator,
	m *metrics.Metrics,
	opts Options,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: Recovery -> RequestID -> Logging -> Metrics -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	if m != nil && opts.MetricsPath != "" {
		r.Method(http.MethodGet, opts.MetricsPath, m.Handler())
	}

	if opts.MediaDir != "" {
		r.Handle("/media/files/*", http.StripPrefix("/media/files/", http.FileServer(http.Dir(opts.MediaDir))))
	}

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.Product.GetAll)
		r.Get("/{id}", h.Product.GetByID)
	})

	// Stripe authenticates the webhook with its signature header.
	r.Post("/payments/webhook", h.Payment.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(authenticator, logger))

		r.Route("/addresses", func(r chi.Router) {
			r.Post("/", h.Address.Create)
			r.Get("/", h.Address.List)
			r.Get("/{id}", h.Address.Get)
			r.Put("/{id}", h.Address.Update)
			r.Delete("/{id}", h.Address.Delete)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Order.List)
			r.Get("/{id}", h.Order.GetByID)
		})

		r.Post("/payments/checkout", h.Payment.Checkout)

		r.Route("/media/images", func(r chi.Router) {
			r.Use(middleware.RequireSuperuser)
			r.Post("/", h.Media.Upload)
			r.Delete("/*", h.Media.Delete)
		})
	})

	return r
}
