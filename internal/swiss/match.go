package swiss

import (
	"time"

	"github.com/google/uuid"
)

type Result string

const (
	ResultPending Result = "pending"
	ResultWhite   Result = "white"
	ResultBlack   Result = "black"
	ResultDraw    Result = "draw"
	ResultBye     Result = "bye"
)

// ParseResult accepts the results a person may report. Pending and bye are
// set by the engine only.
func ParseResult(s string) (Result, error) {
	switch r := Result(s); r {
	case ResultWhite, ResultBlack, ResultDraw:
		return r, nil
	}
	return "", ErrInvalidResult
}

type Match struct {
	ID      uuid.UUID `db:"id"`
	RoundID uuid.UUID `db:"round_id"`
	Board   int       `db:"board"`

	// Filled from the rounds table on reads
	RoundNumber int `db:"round_number"`

	WhitePlayerID *uuid.UUID `db:"white_player_id"`
	BlackPlayerID *uuid.UUID `db:"black_player_id"`

	Result      Result     `db:"result"`
	SubmittedBy *uuid.UUID `db:"submitted_by"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (m *Match) IsPending() bool {
	return m.Result == ResultPending
}

// IsBye is true for bye results and for any match missing its black player.
func (m *Match) IsBye() bool {
	return m.Result == ResultBye || (m.WhitePlayerID != nil && m.BlackPlayerID == nil)
}

func (m *Match) IsWhite(id uuid.UUID) bool {
	return m.WhitePlayerID != nil && *m.WhitePlayerID == id
}

func (m *Match) IsBlack(id uuid.UUID) bool {
	return m.BlackPlayerID != nil && *m.BlackPlayerID == id
}

func (m *Match) Involves(id uuid.UUID) bool {
	return m.IsWhite(id) || m.IsBlack(id)
}

// Opponent returns the other player of the match, or nil for a bye.
func (m *Match) Opponent(id uuid.UUID) *uuid.UUID {
	switch {
	case m.IsWhite(id):
		return m.BlackPlayerID
	case m.IsBlack(id):
		return m.WhitePlayerID
	}
	return nil
}

// PointsFor is what the given player earned from this match.
func (m *Match) PointsFor(id uuid.UUID) float64 {
	switch m.Result {
	case ResultBye:
		if m.Involves(id) {
			return 1
		}
	case ResultWhite:
		if m.IsWhite(id) {
			return 1
		}
	case ResultBlack:
		if m.IsBlack(id) {
			return 1
		}
	case ResultDraw:
		if m.Involves(id) {
			return 0.5
		}
	}
	return 0
}
