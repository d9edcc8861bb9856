package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamvault/database"
	"streamvault/handlers"
	"streamvault/middleware"
)

// NewRouter wires every route onto a chi router. loginLimit is the number
// of requests per minute each client IP may make to the credential
// endpoints; zero disables the limit.
func NewRouter(h *handlers.Handler, store *database.Store, loginLimit int) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(store.RequestScope)

		r.Group(func(r chi.Router) {
			if loginLimit > 0 {
				r.Use(httprate.LimitByIP(loginLimit, time.Minute))
			}
			r.Post("/login", h.Login)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password", h.ResetPassword)
		})
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.Sessions, h.Auth))

			r.Get("/lookups", h.Lookups)
			r.Get("/series", h.BrowseSeries)
			r.Route("/series/{id}", func(r chi.Router) {
				r.Get("/", h.SeriesDetail)
				r.Put("/feedback", h.SubmitFeedback)
				r.Delete("/feedback", h.DeleteFeedback)
			})
			r.Get("/my-account", h.MyAccount)
			r.Put("/my-account", h.UpdateMyAccount)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireEmployee)
				mountAdmin(r, h)
			})
			r.Route("/analytics", func(r chi.Router) {
				r.Use(middleware.RequireEmployee)
				r.Get("/api/{chart}", h.Chart)
				r.Get("/report/{report}", h.Report)
				r.Get("/cache-stats", h.CacheStats)
				r.Delete("/cache", h.FlushCache)
			})
		})
	})

	return r
}

func mountAdmin(r chi.Router, h *handlers.Handler) {
	r.Get("/dashboard", h.Dashboard)
	r.Post("/employees", h.CreateEmployee)

	r.Get("/series", h.ListSeries)
	r.Post("/series", h.CreateSeries)
	r.Put("/series/{id}", h.UpdateSeries)
	r.Delete("/series/{id}", h.DeleteSeries)
	r.Get("/series/{id}/episodes", h.ListEpisodes)
	r.Post("/series/{id}/episodes", h.CreateEpisode)

	r.Put("/episodes/{id}", h.UpdateEpisode)
	r.Delete("/episodes/{id}", h.DeleteEpisode)
	r.Get("/episodes/{id}/schedules", h.ListSchedules)
	r.Post("/episodes/{id}/schedules", h.CreateSchedule)
	r.Delete("/schedules/{id}", h.DeleteSchedule)

	r.Get("/production-houses", h.ListProductionHouses)
	r.Post("/production-houses", h.CreateProductionHouse)
	r.Put("/production-houses/{id}", h.UpdateProductionHouse)
	r.Delete("/production-houses/{id}", h.DeleteProductionHouse)

	r.Get("/producers", h.ListProducers)
	r.Post("/producers", h.CreateProducer)
	r.Put("/producers/{id}", h.UpdateProducer)
	r.Delete("/producers/{id}", h.DeleteProducer)

	r.Get("/associations", h.ListAssociations)
	r.Post("/associations", h.CreateAssociation)
	r.Delete("/associations/{producerID}/{phID}", h.DeleteAssociation)

	r.Get("/contracts", h.ListContracts)
	r.Post("/contracts", h.CreateContract)
	r.Put("/contracts/{id}", h.UpdateContract)
	r.Delete("/contracts/{id}", h.DeleteContract)
}
