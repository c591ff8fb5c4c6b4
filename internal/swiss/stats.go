package swiss

import (
	"math"

	"github.com/google/uuid"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

type Defeat struct {
	OpponentID  uuid.UUID
	Color       Color
	RoundNumber int
}

// PlayerStats summarises a player's decided games across all tournaments.
type PlayerStats struct {
	Wins         int
	Losses       int
	Draws        int
	WhitesPlayed int
	BlacksPlayed int
	WhiteWinRate float64
	BlackWinRate float64
	Defeats      []Defeat
}

// ComputePlayerStats expects the matches the player took part in. Pending
// matches are skipped and a bye counts as a win played with white.
func ComputePlayerStats(playerID uuid.UUID, matches []Match) PlayerStats {
	var stats PlayerStats
	var whiteWins, blackWins int

	for i := range matches {
		m := &matches[i]
		if m.IsPending() || !m.Involves(playerID) {
			continue
		}

		if m.IsWhite(playerID) {
			stats.WhitesPlayed++
		} else {
			stats.BlacksPlayed++
		}

		switch {
		case m.Result == ResultBye:
			stats.Wins++
		case m.Result == ResultDraw:
			stats.Draws++
		case m.Result == ResultWhite && m.IsWhite(playerID):
			stats.Wins++
			whiteWins++
		case m.Result == ResultBlack && m.IsBlack(playerID):
			stats.Wins++
			blackWins++
		default:
			stats.Losses++
			if opp := m.Opponent(playerID); opp != nil {
				color := Black
				if m.IsWhite(playerID) {
					color = White
				}
				stats.Defeats = append(stats.Defeats, Defeat{
					OpponentID:  *opp,
					Color:       color,
					RoundNumber: m.RoundNumber,
				})
			}
		}
	}

	stats.WhiteWinRate = winRate(whiteWins, stats.WhitesPlayed)
	stats.BlackWinRate = winRate(blackWins, stats.BlacksPlayed)
	return stats
}

// winRate is a percentage rounded to one decimal.
func winRate(wins, played int) float64 {
	if played == 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(played)*1000) / 10
}
