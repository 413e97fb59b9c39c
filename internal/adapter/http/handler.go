package httpadapter

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agora-ads/internal/core/port"
)

// Handler contains dependencies and routes. It is an inbound adapter for HTTP.
// It holds the ad server and revenue calculator to execute business logic, a
// validator for inbound payloads and a logger for structured logging. Routes
// are registered on a chi.Router for convenient method handling.
type Handler struct {
	ads      port.AdServer
	revenue  port.RevenueCalculator
	logger   *slog.Logger
	validate *validator.Validate
	router   chi.Router
}

// NewHandler creates a handler with all routes configured. The prometheus
// gatherer backs the /metrics endpoint; pass nil to disable it.
func NewHandler(ads port.AdServer, revenue port.RevenueCalculator, logger *slog.Logger, gatherer prometheus.Gatherer) *Handler {
	h := &Handler{
		ads:      ads,
		revenue:  revenue,
		logger:   logger,
		validate: validator.New(),
	}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ad/request", h.handleAdRequest)
		r.Get("/ad/impression/{requestID}", h.handleImpression)
		r.Get("/ad/click/{requestID}", h.handleAdClick)
		r.Get("/stats/overview", h.handleStatsOverview)

		r.Route("/publishers/{publisherID}", func(r chi.Router) {
			r.Get("/earnings", h.handleEarningsSummary)
			r.Get("/earnings/report", h.handleEarningsReport)
			r.Post("/payouts", h.handleRequestPayout)
			r.Post("/payouts/{payoutID}/settle", h.handleSettlePayout)
		})
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}
