package transport

import (
	"net/http"

	"tabeya-be/internal/apperr"
	"tabeya-be/internal/logger"
	"tabeya-be/internal/metrics"
	"tabeya-be/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type RouterOptions struct {
	JWTSecret []byte
	Limiter   *middleware.RateLimiter
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(logger.RequestIDMiddleware)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(req.Context(), w, apperr.NotFound(ReasonNotFound, ErrRouteNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(req.Context(), w, apperr.New(apperr.KindMethodNotAllowed, apperr.ReasonMethodNotAllowed, ErrMethodNotAllowed.Error(), nil))
	})

	r.Get("/healthz", h.Health)
	r.Get("/debug/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(opts.JWTSecret))
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Middleware)
		}

		r.Get("/products", h.ListProducts)

		r.Get("/orders", h.ListOrders)
		r.Get("/orders/count", h.CountOrders)
		r.Post("/orders/place", h.PlaceOrder)
		r.Post("/orders/cancel", h.CancelOrder)

		r.Get("/reservations", h.ListReservations)
		r.Post("/reservations/place", h.PlaceReservation)
		r.Post("/reservations/cancel", h.CancelReservation)

		r.Get("/reviews/eligible", h.ListReviewable)
		r.Post("/reviews", h.SubmitFeedback)
	})

	return r
}
