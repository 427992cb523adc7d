package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter wires the public booking surface and the admin surface onto one
// mux. The admin routes carry no auth; the deployment fronts them with the
// hosting platform's access controls.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(requestTimeout(cfg.RequestTimeout))

	r.Get("/healthz", h.Healthz)

	r.Get("/appointments/slots", h.ListSlots)
	r.Get("/availability", h.GetAvailability)
	r.Post("/appointments", h.CreateBooking)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/appointments", h.AdminListAppointments)
		r.Post("/appointments/{id}", h.AdminUpdateAppointment)
		r.Post("/appointments/{id}/delete", h.AdminDeleteAppointment)
		r.Get("/blocked-days", h.AdminListBlockedDays)
		r.Post("/blocked-days/toggle", h.AdminToggleBlockedDay)
	})

	return r
}

func requestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, ok := ctx.Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
