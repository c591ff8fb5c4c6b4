package views

import (
	"path"
	"strconv"
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/service"
	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	users "github.com/AdamBeresnev/chesseirb/internal/user"
	"github.com/a-h/templ"
	"github.com/google/uuid"
)

// FormatScore prints half points without trailing zeros: 1, 1.5, 0.5.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func PlayerName(names map[uuid.UUID]string, id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	if name, ok := names[*id]; ok {
		return name
	}
	// no longer registered
	return "(withdrawn)"
}

// ResultLabel renders a match result in score notation.
func ResultLabel(r swiss.Result) string {
	switch r {
	case swiss.ResultWhite:
		return "1-0"
	case swiss.ResultBlack:
		return "0-1"
	case swiss.ResultDraw:
		return "½-½"
	case swiss.ResultBye:
		return "bye"
	}
	return "pending"
}

func StatusLabel(s swiss.TournamentStatus) string {
	switch s {
	case swiss.TournamentDraft:
		return "Draft"
	case swiss.TournamentRegistration:
		return "Registration open"
	case swiss.TournamentRunning:
		return "Running"
	case swiss.TournamentCompleted:
		return "Completed"
	}
	return string(s)
}

func userURL(id uuid.UUID) templ.SafeURL {
	return templ.URL("/users/" + id.String())
}

// tournamentURL joins parts below the tournament's page.
func tournamentURL(id uuid.UUID, parts ...string) templ.SafeURL {
	return templ.URL(path.Join(append([]string{"/tournaments", id.String()}, parts...)...))
}

func adminUserURL(id uuid.UUID, action service.UserAction) templ.SafeURL {
	return templ.URL(path.Join("/admin/users", id.String(), string(action)))
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

// formatRate prints a percentage with one decimal: 62.5%.
func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 1, 64) + "%"
}

func roundsNewestFirst(rounds []service.RoundDetail) []service.RoundDetail {
	out := make([]service.RoundDetail, len(rounds))
	for i, rd := range rounds {
		out[len(rounds)-1-i] = rd
	}
	return out
}

func actorOf(user *users.User) swiss.Actor {
	if user == nil {
		return swiss.Actor{}
	}
	return user.Actor()
}

func isRegistered(d *service.TournamentDetail, userID uuid.UUID) bool {
	for _, p := range d.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
