package swiss

import (
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
)

// Pairing is one board of a round. A nil Black means White has the bye.
type Pairing struct {
	White Participant
	Black *Participant
}

func (p Pairing) IsBye() bool {
	return p.Black == nil
}

// Pair walks the ordered players two at a time. This is the simplified
// pairing of the club: no score groups and no rematch avoidance. An odd
// player out gets the bye as the last pairing.
func Pair(ordered []Participant, balances map[uuid.UUID]ColorBalance) []Pairing {
	pairings := make([]Pairing, 0, (len(ordered)+1)/2)

	i := 0
	for ; i+1 < len(ordered); i += 2 {
		white, black := AssignColors(ordered[i], ordered[i+1], balances)
		pairings = append(pairings, Pairing{White: white, Black: &black})
	}
	if i < len(ordered) {
		pairings = append(pairings, Pairing{White: ordered[i]})
	}

	return pairings
}

// AssignColors gives white to the player with the smaller white-minus-black
// differential, falling back to the smaller name.
func AssignColors(p1, p2 Participant, balances map[uuid.UUID]ColorBalance) (white, black Participant) {
	diff1 := balances[p1.ID].Diff()
	diff2 := balances[p2.ID].Diff()

	switch {
	case diff1 > diff2:
		return p2, p1
	case diff2 > diff1:
		return p1, p2
	case p1.Name < p2.Name:
		return p1, p2
	}
	return p2, p1
}

// Shuffle returns a shuffled copy of players. A nil rng uses the global source.
func Shuffle(players []Participant, rng *rand.Rand) []Participant {
	shuffled := slices.Clone(players)
	swap := func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] }
	if rng == nil {
		rand.Shuffle(len(shuffled), swap)
	} else {
		rng.Shuffle(len(shuffled), swap)
	}
	return shuffled
}
