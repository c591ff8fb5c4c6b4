package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/httputil"
	"github.com/AdamBeresnev/chesseirb/internal/middleware"
	"github.com/AdamBeresnev/chesseirb/internal/service"
	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/google/uuid"
)

type tournamentResponse struct {
	ID            uuid.UUID              `json:"id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	StartAt       time.Time              `json:"start_at"`
	RoundsPlanned int                    `json:"rounds_planned"`
	CurrentRound  int                    `json:"current_round"`
	Mode          swiss.TournamentMode   `json:"mode"`
	Status        swiss.TournamentStatus `json:"status"`
}

type standingResponse struct {
	Rank          int       `json:"rank"`
	PlayerID      uuid.UUID `json:"player_id"`
	Name          string    `json:"name"`
	Score         float64   `json:"score"`
	TieBreak      float64   `json:"tie_break"`
	Whites        int       `json:"whites"`
	Blacks        int       `json:"blacks"`
	MatchesPlayed int       `json:"matches_played"`
}

type matchResponse struct {
	ID      uuid.UUID    `json:"id"`
	Board   int          `json:"board"`
	WhiteID *uuid.UUID   `json:"white_id"`
	BlackID *uuid.UUID   `json:"black_id"`
	Result  swiss.Result `json:"result"`
}

type roundResponse struct {
	Number    int             `json:"number"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   *time.Time      `json:"ended_at"`
	Matches   []matchResponse `json:"matches"`
}

type tournamentDetailResponse struct {
	Tournament tournamentResponse `json:"tournament"`
	Standings  []standingResponse `json:"standings"`
	Rounds     []roundResponse    `json:"rounds"`
	CanAdvance bool               `json:"can_advance"`
}

func newTournamentResponse(t *swiss.Tournament) tournamentResponse {
	return tournamentResponse{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		StartAt:       t.StartAt,
		RoundsPlanned: t.RoundsPlanned,
		CurrentRound:  t.CurrentRound,
		Mode:          t.Mode,
		Status:        t.Status,
	}
}

func newStandingsResponse(standings []swiss.Standing) []standingResponse {
	out := make([]standingResponse, len(standings))
	for i, s := range standings {
		out[i] = standingResponse{
			Rank:          i + 1,
			PlayerID:      s.Participant.ID,
			Name:          s.Participant.Name,
			Score:         s.Score,
			TieBreak:      s.TieBreak,
			Whites:        s.Whites,
			Blacks:        s.Blacks,
			MatchesPlayed: s.MatchesPlayed,
		}
	}
	return out
}

func newMatchResponse(m *swiss.Match) matchResponse {
	return matchResponse{ID: m.ID, Board: m.Board, WhiteID: m.WhitePlayerID, BlackID: m.BlackPlayerID, Result: m.Result}
}

func newDetailResponse(d *service.TournamentDetail) tournamentDetailResponse {
	rounds := make([]roundResponse, len(d.Rounds))
	for i, rd := range d.Rounds {
		matches := make([]matchResponse, len(rd.Matches))
		for j := range rd.Matches {
			matches[j] = newMatchResponse(&rd.Matches[j])
		}
		rounds[i] = roundResponse{
			Number:    rd.Round.Number,
			StartedAt: rd.Round.StartedAt,
			EndedAt:   rd.Round.EndedAt,
			Matches:   matches,
		}
	}
	return tournamentDetailResponse{
		Tournament: newTournamentResponse(d.Tournament),
		Standings:  newStandingsResponse(d.Standings),
		Rounds:     rounds,
		CanAdvance: d.CanAdvance,
	}
}

func (app *application) apiListTournaments(w http.ResponseWriter, r *http.Request) {
	list, err := app.services.Tournaments.ListOpen(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]tournamentResponse, len(list))
	for i := range list {
		out[i] = newTournamentResponse(&list[i])
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (app *application) apiTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := app.services.Tournaments.Detail(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newDetailResponse(detail))
}

func (app *application) apiStandings(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	standings, err := app.services.Tournaments.Standings(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newStandingsResponse(standings))
}

func (app *application) apiNextRound(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	round, err := app.services.Tournaments.AdvanceRound(r.Context(), middleware.ActorFromContext(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, roundResponse{
		Number:    round.Number,
		StartedAt: round.StartedAt,
		EndedAt:   round.EndedAt,
	})
}

type submitResultRequest struct {
	Result string `json:"result"`
}

func (app *application) apiSubmitResult(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	matchID, ok := uuidParam(w, r, "matchID")
	if !ok {
		return
	}

	var req submitResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "Invalid JSON body", err)
		return
	}

	match, err := app.services.Matches.SubmitResult(r.Context(), id, matchID, swiss.Result(req.Result), middleware.ActorFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newMatchResponse(match))
}
