package swiss

// CanGenerateNextRound is the round generation guard. currentRoundPending
// reports whether the round numbered t.CurrentRound exists and still has a
// pending match.
func CanGenerateNextRound(t *Tournament, currentRoundPending bool) bool {
	if t.Status != TournamentRunning {
		return false
	}
	if t.CurrentRound == 0 {
		return true
	}
	if currentRoundPending {
		return false
	}
	return t.CurrentRound < t.RoundsPlanned
}

// CanSubmitResult decides whether actor may record the result of m.
func CanSubmitResult(t *Tournament, m *Match, actor Actor) bool {
	if m.IsBye() {
		return false
	}
	if t.Mode == ModeAdmin {
		return actor.IsStaff
	}
	return actor.IsStaff || m.Involves(actor.ID)
}

// ShouldAutoAdvance reports whether completing round number roundNumber
// should trigger generation of the next round.
func ShouldAutoAdvance(t *Tournament, roundNumber int) bool {
	return t.IsRunning() && t.CurrentRound == roundNumber && t.CurrentRound < t.RoundsPlanned
}
