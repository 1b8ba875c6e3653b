package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Cheertaboi/smaphregi/internal/api/handlers"
	"github.com/Cheertaboi/smaphregi/internal/api/middleware"
	"github.com/Cheertaboi/smaphregi/internal/metrics"
	"github.com/Cheertaboi/smaphregi/internal/service"
)

type Deps struct {
	Checkout *service.CheckoutService
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	// Gatherer serves /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	// RateLimit is a limiter formatted rate such as "120-M"; empty disables it.
	RateLimit string
}

// NewRouter builds the HTTP router for the self-checkout API.
func NewRouter(d Deps) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(d.Metrics))

	h := handlers.NewCheckoutHandler(d.Checkout, d.Logger)

	var limit func(http.Handler) http.Handler
	if d.RateLimit != "" {
		mw, err := middleware.RateLimit(d.RateLimit)
		if err != nil {
			return nil, err
		}
		limit = mw
	}

	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}

		r.Post("/sessions", h.StartSession)
		r.Put("/sessions/locale", h.ChangeLocale)

		r.Get("/coupons", h.GetCoupons)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/scan", h.Scan)
			r.Put("/items/{barcode}", h.SetQuantity)
			r.Delete("/items/{barcode}", h.RemoveItem)
		})

		r.Post("/checkout", h.Checkout)
		r.Get("/payments/confirm", h.ConfirmPayment)
		r.Get("/history", h.GetHistory)
	})

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r, nil
}
