package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

func planetsTask() *model.ListTask {
	return &model.ListTask{
		ID:    "planets",
		Title: "planets of the solar system",
		Items: []model.ListItem{
			{ID: "i1", Display: "Mercury"},
			{ID: "i2", Display: "Venus"},
			{ID: "i3", Display: "Earth", Aliases: []string{"Terra"}},
		},
	}
}

func newListRound(clock *fakeClock, roster Roster, task *model.ListTask, lives int) RoundEngine {
	engine := NewCollectiveListRound(task, roster, clock, 30*time.Second, lives, 0.8)
	engine.Start(clock.Now())
	return engine
}

func TestListRoundTurnsRotateInJoinOrder(t *testing.T) {
	clock := newFakeClock()
	roster := newFakeRoster("p1", "p2", "p3")
	engine := newListRound(clock, roster, planetsTask(), 3)

	assert.Equal(t, "p1", engine.State().ActivePlayerID)

	_, err := engine.Submit("p2", SubmitPayload{Text: "venus"})
	assert.ErrorIs(t, err, ErrNotYourTurn)

	out, err := engine.Submit("p1", SubmitPayload{Text: "venus"})
	require.NoError(t, err)
	require.NotNil(t, out.MatchedItem)
	assert.Equal(t, "i2", out.MatchedItem.ID)

	assert.Equal(t, "p2", engine.State().ActivePlayerID)
}

func TestListRoundMissCostsLife(t *testing.T) {
	clock := newFakeClock()
	engine := newListRound(clock, newFakeRoster("p1", "p2"), planetsTask(), 3)

	out, err := engine.Submit("p1", SubmitPayload{Text: "pluto"})
	require.NoError(t, err)
	assert.True(t, out.TurnMiss)
	assert.Nil(t, out.MatchedItem)

	state := engine.State()
	assert.Equal(t, 2, state.Lives["p1"])
	assert.Equal(t, "p2", state.ActivePlayerID)
}

func TestListRoundRepeatGuessCostsLife(t *testing.T) {
	clock := newFakeClock()
	engine := newListRound(clock, newFakeRoster("p1", "p2"), planetsTask(), 3)

	_, err := engine.Submit("p1", SubmitPayload{Text: "earth"})
	require.NoError(t, err)

	out, err := engine.Submit("p2", SubmitPayload{Text: "terra"})
	require.NoError(t, err)
	assert.True(t, out.TurnMiss)
	assert.Equal(t, 2, engine.State().Lives["p2"])
}

func TestListRoundSkipCostsLife(t *testing.T) {
	clock := newFakeClock()
	engine := newListRound(clock, newFakeRoster("p1", "p2"), planetsTask(), 3)

	out, err := engine.Submit("p1", SubmitPayload{Skip: true})
	require.NoError(t, err)
	assert.True(t, out.TurnMiss)
	assert.Equal(t, 2, engine.State().Lives["p1"])
}

func TestListRoundTurnTimeoutCostsLife(t *testing.T) {
	clock := newFakeClock()
	engine := newListRound(clock, newFakeRoster("p1", "p2"), planetsTask(), 3)

	clock.Advance(31 * time.Second)
	engine.Tick(clock.Now())

	state := engine.State()
	assert.Equal(t, 2, state.Lives["p1"])
	assert.Equal(t, "p2", state.ActivePlayerID)
}

func TestListRoundEliminationAtZeroLives(t *testing.T) {
	clock := newFakeClock()
	engine := newListRound(clock, newFakeRoster("p1", "p2", "p3"), planetsTask(), 1)

	out, err := engine.Submit("p1", SubmitPayload{Text: "pluto"})
	require.NoError(t, err)
	assert.Equal(t, "p1", out.EliminatedID)
	assert.Equal(t, []string{"p1"}, engine.State().Eliminated)

	_, err = engine.Submit("p1", SubmitPayload{Text: "venus"})
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestListRoundLastStanding(t *testing.T) {
	clock := newFakeClock()
	engine := newListRound(clock, newFakeRoster("p1", "p2"), planetsTask(), 1)

	_, err := engine.Submit("p1", SubmitPayload{Text: "pluto"})
	require.NoError(t, err)

	assert.True(t, engine.IsComplete())
	result := engine.Finalize()
	assert.Equal(t, model.ListLastStanding, result.ListEndReason)
	assert.Equal(t, []string{"p2"}, result.ListWinners)
}

func TestListRoundAllGuessedCrownsTopGuessers(t *testing.T) {
	clock := newFakeClock()
	engine := newListRound(clock, newFakeRoster("p1", "p2"), planetsTask(), 3)

	_, err := engine.Submit("p1", SubmitPayload{Text: "mercury"})
	require.NoError(t, err)
	_, err = engine.Submit("p2", SubmitPayload{Text: "venus"})
	require.NoError(t, err)
	out, err := engine.Submit("p1", SubmitPayload{Text: "earth"})
	require.NoError(t, err)
	require.NotNil(t, out.MatchedItem)

	assert.True(t, engine.IsComplete())
	result := engine.Finalize()
	assert.Equal(t, model.ListAllGuessed, result.ListEndReason)
	assert.Equal(t, []string{"p1"}, result.ListWinners)
	assert.Len(t, result.ListGuesses, 3)
}

func TestListRoundAllGuessedTieSharesWin(t *testing.T) {
	clock := newFakeClock()
	task := &model.ListTask{
		ID:    "pair",
		Title: "two things",
		Items: []model.ListItem{
			{ID: "i1", Display: "alpha"},
			{ID: "i2", Display: "beta"},
		},
	}
	engine := newListRound(clock, newFakeRoster("p1", "p2"), task, 3)

	engine.Submit("p1", SubmitPayload{Text: "alpha"})
	engine.Submit("p2", SubmitPayload{Text: "beta"})

	assert.True(t, engine.IsComplete())
	assert.Equal(t, []string{"p1", "p2"}, engine.Finalize().ListWinners)
}

func TestListRoundSkipsDisconnectedPlayers(t *testing.T) {
	clock := newFakeClock()
	roster := newFakeRoster("p1", "p2", "p3")
	engine := newListRound(clock, roster, planetsTask(), 3)

	roster.offline["p1"] = true
	assert.Equal(t, "p2", engine.State().ActivePlayerID)

	// Reconnecting puts p1 back into rotation without losing the seat.
	roster.offline["p1"] = false
	assert.Equal(t, "p1", engine.State().ActivePlayerID)
}

func TestListRoundParksDeadlineWhenNobodyConnected(t *testing.T) {
	clock := newFakeClock()
	roster := newFakeRoster("p1", "p2")
	engine := newListRound(clock, roster, planetsTask(), 3)

	roster.offline["p1"] = true
	roster.offline["p2"] = true

	clock.Advance(31 * time.Second)
	engine.Tick(clock.Now())

	state := engine.State()
	assert.Equal(t, 3, state.Lives["p1"])
	assert.Equal(t, 3, state.Lives["p2"])
	assert.False(t, engine.IsComplete())
}

func TestListRoundDisconnectKeepsSeatAndLives(t *testing.T) {
	clock := newFakeClock()
	roster := newFakeRoster("p1", "p2")
	engine := newListRound(clock, roster, planetsTask(), 3)

	// A momentary drop must not end the round last_standing or touch the
	// player's lives; only grace expiry evicts.
	roster.offline["p2"] = true
	engine.ConnectivityChanged()
	assert.False(t, engine.IsComplete())
	assert.Equal(t, 3, engine.State().Lives["p2"])

	roster.offline["p2"] = false
	_, err := engine.Submit("p1", SubmitPayload{Text: "venus"})
	require.NoError(t, err)
	assert.Equal(t, "p2", engine.State().ActivePlayerID)
}

func TestListRoundRemovedPlayerEndsRoundWhenOneLeft(t *testing.T) {
	clock := newFakeClock()
	roster := newFakeRoster("p1", "p2")
	engine := newListRound(clock, roster, planetsTask(), 3)

	roster.offline["p2"] = true
	engine.PlayerRemoved("p2")

	assert.True(t, engine.IsComplete())
	result := engine.Finalize()
	assert.Equal(t, model.ListLastStanding, result.ListEndReason)
	assert.Equal(t, []string{"p1"}, result.ListWinners)
}
