package swiss

import (
	"cmp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// PointsTable sums the points of every decided match per player.
func PointsTable(matches []Match) map[uuid.UUID]float64 {
	scores := make(map[uuid.UUID]float64)
	for i := range matches {
		m := &matches[i]
		if m.IsPending() {
			continue
		}
		if m.WhitePlayerID != nil {
			scores[*m.WhitePlayerID] += m.PointsFor(*m.WhitePlayerID)
		}
		if m.BlackPlayerID != nil {
			scores[*m.BlackPlayerID] += m.PointsFor(*m.BlackPlayerID)
		}
	}
	return scores
}

// Buchholz adds each opponent's total score to a player's tie-break. Byes
// have no opponent and add nothing.
func Buchholz(matches []Match, scores map[uuid.UUID]float64) map[uuid.UUID]float64 {
	buchholz := make(map[uuid.UUID]float64)
	for i := range matches {
		m := &matches[i]
		if m.IsPending() || m.WhitePlayerID == nil || m.BlackPlayerID == nil {
			continue
		}
		white, black := *m.WhitePlayerID, *m.BlackPlayerID
		buchholz[white] += scores[black]
		buchholz[black] += scores[white]
	}
	return buchholz
}

type ColorBalance struct {
	White int
	Black int
}

// Diff is positive when the player has had white more often.
func (c ColorBalance) Diff() int {
	return c.White - c.Black
}

// ColorBalances counts white and black appearances over every match,
// pending ones included. A bye counts as a white appearance.
func ColorBalances(matches []Match) map[uuid.UUID]ColorBalance {
	balances := make(map[uuid.UUID]ColorBalance)
	for i := range matches {
		m := &matches[i]
		if m.WhitePlayerID != nil {
			b := balances[*m.WhitePlayerID]
			b.White++
			balances[*m.WhitePlayerID] = b
		}
		if m.BlackPlayerID != nil {
			b := balances[*m.BlackPlayerID]
			b.Black++
			balances[*m.BlackPlayerID] = b
		}
	}
	return balances
}

type Standing struct {
	Participant   Participant
	Score         float64
	TieBreak      float64
	Whites        int
	Blacks        int
	MatchesPlayed int
}

// ComputeStandings ranks the given participants. Players that are not in
// participants are ignored even when they appear in matches. Rows equal on
// every key keep the order of participants.
func ComputeStandings(participants []Participant, matches []Match) []Standing {
	scores := PointsTable(matches)
	tieBreaks := Buchholz(matches, scores)
	balances := ColorBalances(matches)

	table := make([]Standing, 0, len(participants))
	for _, p := range participants {
		b := balances[p.ID]
		table = append(table, Standing{
			Participant:   p,
			Score:         scores[p.ID],
			TieBreak:      tieBreaks[p.ID],
			Whites:        b.White,
			Blacks:        b.Black,
			MatchesPlayed: b.White + b.Black,
		})
	}

	slices.SortStableFunc(table, func(a, b Standing) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TieBreak, a.TieBreak); c != 0 {
			return c
		}
		if c := cmp.Compare(b.MatchesPlayed, a.MatchesPlayed); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Participant.Name), strings.ToLower(b.Participant.Name))
	})
	return table
}

// PairingOrder re-sorts ranked standings without the matches-played key.
// The sort is stable, so rows equal on the reduced key keep their ranking.
func PairingOrder(standings []Standing) []Participant {
	ordered := slices.Clone(standings)
	slices.SortStableFunc(ordered, func(a, b Standing) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TieBreak, a.TieBreak); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Participant.Name), strings.ToLower(b.Participant.Name))
	})

	players := make([]Participant, len(ordered))
	for i, row := range ordered {
		players[i] = row.Participant
	}
	return players
}
