package swiss

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePlayerStats(t *testing.T) {
	me, rival, other := player("me"), player("rival"), player("other")

	matches := []Match{
		game(1, me, &rival, ResultWhite),
		game(2, rival, &me, ResultWhite),
		game(3, me, nil, ResultBye),
		game(4, other, &me, ResultDraw),
		game(5, me, &other, ResultBlack),
		game(6, me, &rival, ResultPending),
	}

	stats := ComputePlayerStats(me.ID, matches)

	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 2, stats.Losses)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, 3, stats.WhitesPlayed)
	assert.Equal(t, 2, stats.BlacksPlayed)
	// one win out of three white games, the bye win is not a colour win
	assert.Equal(t, 33.3, stats.WhiteWinRate)
	assert.Equal(t, 0.0, stats.BlackWinRate)
	assert.Equal(t, []Defeat{
		{OpponentID: rival.ID, Color: Black, RoundNumber: 2},
		{OpponentID: other.ID, Color: White, RoundNumber: 5},
	}, stats.Defeats)
}

func TestComputePlayerStats_NoGames(t *testing.T) {
	stats := ComputePlayerStats(player("new").ID, nil)

	assert.Zero(t, stats.Wins)
	assert.Zero(t, stats.WhiteWinRate)
	assert.Empty(t, stats.Defeats)
}
