package main

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/export"
	"github.com/AdamBeresnev/chesseirb/internal/httputil"
	"github.com/AdamBeresnev/chesseirb/internal/middleware"
	"github.com/AdamBeresnev/chesseirb/internal/service"
	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/AdamBeresnev/chesseirb/internal/utils"
	"github.com/AdamBeresnev/chesseirb/views"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func redirectToTournament(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	http.Redirect(w, r, fmt.Sprintf("/tournaments/%s", id), http.StatusSeeOther)
}

func (app *application) index(w http.ResponseWriter, r *http.Request) {
	open, err := app.services.Tournaments.ListOpen(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to list tournaments", err)
		return
	}
	completed, err := app.services.Tournaments.ListCompleted(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to list tournaments", err)
		return
	}
	views.Render(w, r, views.Index(open, completed))
}

func (app *application) login(w http.ResponseWriter, r *http.Request) {
	views.Render(w, r, views.LoginPage())
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.sessions.Destroy(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to log out", err)
		return
	}
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (app *application) beginAuth(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
	gothic.BeginAuthHandler(w, r)
}

func (app *application) completeAuth(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	user, err := app.services.Users.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		httputil.InternalServerError(w, "Failed to find or create user", err)
		return
	}

	if err := app.sessions.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessions.Put(r.Context(), middleware.SessionUserIDKey, user.ID.String())
	http.Redirect(w, r, "/", http.StatusFound)
}

func (app *application) tournamentPage(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := app.services.Tournaments.Detail(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Tournament not found", err)
		return
	}
	views.Render(w, r, views.TournamentPage(detail))
}

func (app *application) exportTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := app.services.Tournaments.Detail(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Tournament not found", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, detail.Standings, detail.Matches(), detail.Names()); err != nil {
		httputil.InternalServerError(w, "Failed to export tournament", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", detail.Tournament.Name+".xlsx"))
	w.Write(buf.Bytes())
}

func (app *application) userPage(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	stats, err := app.services.Users.Stats(r.Context(), id)
	if err != nil {
		httputil.Error(w, "User not found", err)
		return
	}
	views.Render(w, r, views.UserStatsPage(stats))
}

func (app *application) setElo(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	elo, err := utils.IntOrNil(r.Form.Get("elo"))
	if err != nil {
		httputil.BadRequest(w, "Elo must be a number", err)
		return
	}

	if err := app.services.Users.SetChessComElo(r.Context(), middleware.ActorFromContext(r.Context()), id, elo); err != nil {
		httputil.Error(w, "Cannot update Elo", err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/users/%s", id), http.StatusSeeOther)
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	input := service.TournamentInput{
		Name:        r.Form.Get("name"),
		Description: r.Form.Get("description"),
		Mode:        swiss.TournamentMode(r.Form.Get("mode")),
	}
	rounds, err := utils.IntOrNil(r.Form.Get("rounds"))
	if err != nil {
		httputil.BadRequest(w, "Rounds must be a number", err)
		return
	}
	input.RoundsPlanned = utils.OrZero(rounds)
	if raw := strings.TrimSpace(r.Form.Get("start_at")); raw != "" {
		startAt, err := app.times.Parse(raw, time.Now(), time.Local)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("Could not understand start time %q", raw), err)
			return
		}
		input.StartAt = startAt
	}

	tournament, err := app.services.Tournaments.Create(r.Context(), middleware.ActorFromContext(r.Context()), input)
	if err != nil {
		httputil.Error(w, "Cannot create tournament", err)
		return
	}
	redirectToTournament(w, r, tournament.ID)
}

// tournamentAction runs a staff or player action on the tournament in the
// URL and sends the browser back to its page.
func (app *application) tournamentAction(w http.ResponseWriter, r *http.Request, msg string, action func(actor swiss.Actor, id uuid.UUID) error) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := action(middleware.ActorFromContext(r.Context()), id); err != nil {
		httputil.Error(w, msg, err)
		return
	}
	redirectToTournament(w, r, id)
}

func (app *application) openRegistration(w http.ResponseWriter, r *http.Request) {
	app.tournamentAction(w, r, "Cannot open registration", func(actor swiss.Actor, id uuid.UUID) error {
		return app.services.Tournaments.OpenRegistration(r.Context(), actor, id)
	})
}

func (app *application) closeRegistration(w http.ResponseWriter, r *http.Request) {
	app.tournamentAction(w, r, "Cannot close registration", func(actor swiss.Actor, id uuid.UUID) error {
		return app.services.Tournaments.CloseRegistration(r.Context(), actor, id)
	})
}

func (app *application) startTournament(w http.ResponseWriter, r *http.Request) {
	app.tournamentAction(w, r, "Cannot start tournament", func(actor swiss.Actor, id uuid.UUID) error {
		_, err := app.services.Tournaments.Start(r.Context(), actor, id)
		return err
	})
}

func (app *application) nextRound(w http.ResponseWriter, r *http.Request) {
	app.tournamentAction(w, r, "Cannot generate the next round", func(actor swiss.Actor, id uuid.UUID) error {
		_, err := app.services.Tournaments.AdvanceRound(r.Context(), actor, id)
		return err
	})
}

func (app *application) completeTournament(w http.ResponseWriter, r *http.Request) {
	app.tournamentAction(w, r, "Cannot complete tournament", func(actor swiss.Actor, id uuid.UUID) error {
		return app.services.Tournaments.Complete(r.Context(), actor, id)
	})
}

func (app *application) register(w http.ResponseWriter, r *http.Request) {
	app.tournamentAction(w, r, "Cannot register", func(actor swiss.Actor, id uuid.UUID) error {
		return app.services.Tournaments.Register(r.Context(), actor, id)
	})
}

func (app *application) unregister(w http.ResponseWriter, r *http.Request) {
	app.tournamentAction(w, r, "Cannot withdraw", func(actor swiss.Actor, id uuid.UUID) error {
		return app.services.Tournaments.Unregister(r.Context(), actor, id)
	})
}

func (app *application) deleteTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := app.services.Tournaments.Delete(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
		httputil.Error(w, "Cannot delete tournament", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (app *application) submitResult(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	matchID, ok := uuidParam(w, r, "matchID")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	result := swiss.Result(r.Form.Get("result"))
	if _, err := app.services.Matches.SubmitResult(r.Context(), id, matchID, result, middleware.ActorFromContext(r.Context())); err != nil {
		httputil.Error(w, "Cannot submit result", err)
		return
	}
	redirectToTournament(w, r, id)
}

func (app *application) adminUsers(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	list, err := app.services.Users.Search(r.Context(), query)
	if err != nil {
		httputil.InternalServerError(w, "Failed to list users", err)
		return
	}
	views.Render(w, r, views.UsersPage(list, query))
}

func (app *application) administerUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	action := service.UserAction(chi.URLParam(r, "action"))
	if err := app.services.Users.Administer(r.Context(), middleware.ActorFromContext(r.Context()), id, action); err != nil {
		httputil.Error(w, "Cannot update user", err)
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
