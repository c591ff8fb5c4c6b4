package main

import (
	"net/http"

	"github.com/AdamBeresnev/chesseirb/internal/config"
	"github.com/AdamBeresnev/chesseirb/internal/live"
	"github.com/AdamBeresnev/chesseirb/internal/metrics"
	"github.com/AdamBeresnev/chesseirb/internal/middleware"
	"github.com/AdamBeresnev/chesseirb/internal/service"
	"github.com/AdamBeresnev/chesseirb/internal/timeparse"
	"github.com/AdamBeresnev/chesseirb/internal/token"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type application struct {
	cfg      *config.Config
	services *service.Services
	sessions *scs.SessionManager
	tokens   *token.Service
	hub      *live.Hub
	metrics  *metrics.Recorder
	limiter  *middleware.IPRateLimiter
	times    *timeparse.Parser
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(app.sessions.LoadAndSave)
		r.Use(middleware.LoadAuthenticatedUser(app.sessions, app.services.UserStore))
		r.Use(middleware.BearerAuth(app.tokens, app.services.UserStore))
		r.Use(middleware.RequireStaff)
		r.Handle("/metrics", app.metrics.Handler())
	})
	r.Get("/ws/tournaments/{id}", app.hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   app.cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(middleware.RateLimit(app.limiter))
		r.Use(app.sessions.LoadAndSave)
		r.Use(middleware.LoadAuthenticatedUser(app.sessions, app.services.UserStore))
		r.Use(middleware.BearerAuth(app.tokens, app.services.UserStore))

		r.Get("/tournaments", app.apiListTournaments)
		r.Get("/tournaments/{id}", app.apiTournament)
		r.Get("/tournaments/{id}/standings", app.apiStandings)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAPIUser)
			r.Post("/tournaments/{id}/rounds/next", app.apiNextRound)
			r.Post("/tournaments/{id}/matches/{matchID}/result", app.apiSubmitResult)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(app.sessions.LoadAndSave)
		r.Use(middleware.LoadAuthenticatedUser(app.sessions, app.services.UserStore))

		fileServer := http.FileServer(http.Dir("./static"))
		r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

		r.Get("/", app.index)
		r.Get("/login", app.login)
		r.Post("/logout", app.logout)
		r.Get("/auth/{provider}", app.beginAuth)
		r.Get("/auth/{provider}/callback", app.completeAuth)

		r.Get("/tournaments/{id}", app.tournamentPage)
		r.Get("/tournaments/{id}/export.xlsx", app.exportTournament)
		r.Get("/users/{id}", app.userPage)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/tournaments/{id}/register", app.register)
			r.Post("/tournaments/{id}/unregister", app.unregister)
			r.Post("/tournaments/{id}/matches/{matchID}/result", app.submitResult)
			r.Post("/users/{id}/elo", app.setElo)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff)

				r.Post("/tournaments", app.createTournament)
				r.Post("/tournaments/{id}/registration/open", app.openRegistration)
				r.Post("/tournaments/{id}/registration/close", app.closeRegistration)
				r.Post("/tournaments/{id}/start", app.startTournament)
				r.Post("/tournaments/{id}/rounds/next", app.nextRound)
				r.Post("/tournaments/{id}/complete", app.completeTournament)
				r.Post("/tournaments/{id}/delete", app.deleteTournament)
				r.Get("/admin/users", app.adminUsers)
				r.Post("/admin/users/{id}/{action}", app.administerUser)
			})
		})
	})

	return r
}
