package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

func choiceQuestion() *model.Question {
	return &model.Question{
		ID:           "q1",
		Type:         model.QuestionChoice,
		Prompt:       "pick one",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 2,
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestQuestionRoundCompletesWhenAllSubmit(t *testing.T) {
	clock := newFakeClock()
	roster := newFakeRoster("p1", "p2")
	engine := NewQuestionRound(choiceQuestion(), roster, clock, 20*time.Second)
	engine.Start(clock.Now())

	_, err := engine.Submit("p1", SubmitPayload{AnswerIndex: intPtr(2)})
	require.NoError(t, err)
	assert.False(t, engine.IsComplete())

	_, err = engine.Submit("p2", SubmitPayload{AnswerIndex: intPtr(0)})
	require.NoError(t, err)
	assert.True(t, engine.IsComplete())

	result := engine.Finalize()
	require.Len(t, result.QuestionOutcomes, 2)
	assert.True(t, result.QuestionOutcomes[0].Correct)
	assert.False(t, result.QuestionOutcomes[1].Correct)
}

func TestQuestionRoundRejectsSecondSubmission(t *testing.T) {
	clock := newFakeClock()
	engine := NewQuestionRound(choiceQuestion(), newFakeRoster("p1", "p2"), clock, 20*time.Second)
	engine.Start(clock.Now())

	_, err := engine.Submit("p1", SubmitPayload{AnswerIndex: intPtr(1)})
	require.NoError(t, err)

	_, err = engine.Submit("p1", SubmitPayload{AnswerIndex: intPtr(2)})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	// The first answer stands.
	engine.Submit("p2", SubmitPayload{AnswerIndex: intPtr(2)})
	result := engine.Finalize()
	require.Len(t, result.QuestionOutcomes, 2)
	assert.Equal(t, 1, result.QuestionOutcomes[0].Index)
	assert.False(t, result.QuestionOutcomes[0].Correct)
}

func TestQuestionRoundRejectsAfterDeadline(t *testing.T) {
	clock := newFakeClock()
	engine := NewQuestionRound(choiceQuestion(), newFakeRoster("p1"), clock, 20*time.Second)
	engine.Start(clock.Now())

	clock.Advance(21 * time.Second)
	_, err := engine.Submit("p1", SubmitPayload{AnswerIndex: intPtr(0)})
	assert.ErrorIs(t, err, ErrDeadlinePassed)

	engine.Tick(clock.Now())
	assert.True(t, engine.IsComplete())
	assert.Empty(t, engine.Finalize().QuestionOutcomes)
}

func TestQuestionRoundValidatesAnswerIndex(t *testing.T) {
	clock := newFakeClock()
	engine := NewQuestionRound(choiceQuestion(), newFakeRoster("p1"), clock, 20*time.Second)
	engine.Start(clock.Now())

	_, err := engine.Submit("p1", SubmitPayload{AnswerIndex: intPtr(7)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = engine.Submit("p1", SubmitPayload{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestQuestionRoundTimeFactorShrinksOverTime(t *testing.T) {
	clock := newFakeClock()
	engine := NewQuestionRound(choiceQuestion(), newFakeRoster("p1", "p2"), clock, 20*time.Second)
	engine.Start(clock.Now())

	_, err := engine.Submit("p1", SubmitPayload{AnswerIndex: intPtr(2)})
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	_, err = engine.Submit("p2", SubmitPayload{AnswerIndex: intPtr(2)})
	require.NoError(t, err)

	result := engine.Finalize()
	require.Len(t, result.QuestionOutcomes, 2)
	assert.InDelta(t, 1.0, result.QuestionOutcomes[0].TimeFactor, 0.01)
	assert.InDelta(t, 0.5, result.QuestionOutcomes[1].TimeFactor, 0.01)
}

func TestQuestionRoundEstimationClosestWins(t *testing.T) {
	clock := newFakeClock()
	q := &model.Question{
		ID:           "e1",
		Type:         model.QuestionEstimation,
		Prompt:       "how tall",
		CorrectValue: 8849,
	}
	engine := NewQuestionRound(q, newFakeRoster("p1", "p2", "p3"), clock, 20*time.Second)
	engine.Start(clock.Now())

	engine.Submit("p1", SubmitPayload{Estimate: floatPtr(9000)})
	engine.Submit("p2", SubmitPayload{Estimate: floatPtr(8800)})
	engine.Submit("p3", SubmitPayload{Estimate: floatPtr(8898)})

	result := engine.Finalize()
	require.Len(t, result.QuestionOutcomes, 3)
	assert.False(t, result.QuestionOutcomes[0].Correct)
	assert.True(t, result.QuestionOutcomes[1].Correct) // off by 49
	assert.False(t, result.QuestionOutcomes[2].Correct)
}

func TestQuestionRoundEstimationTiedClosestAllWin(t *testing.T) {
	clock := newFakeClock()
	q := &model.Question{Type: model.QuestionEstimation, CorrectValue: 100}
	engine := NewQuestionRound(q, newFakeRoster("p1", "p2"), clock, 20*time.Second)
	engine.Start(clock.Now())

	engine.Submit("p1", SubmitPayload{Estimate: floatPtr(90)})
	engine.Submit("p2", SubmitPayload{Estimate: floatPtr(110)})

	result := engine.Finalize()
	assert.True(t, result.QuestionOutcomes[0].Correct)
	assert.True(t, result.QuestionOutcomes[1].Correct)
}

func TestQuestionRoundDisconnectedPlayerDoesNotBlockCompletion(t *testing.T) {
	clock := newFakeClock()
	roster := newFakeRoster("p1", "p2")
	engine := NewQuestionRound(choiceQuestion(), roster, clock, 20*time.Second)
	engine.Start(clock.Now())

	_, err := engine.Submit("p1", SubmitPayload{AnswerIndex: intPtr(2)})
	require.NoError(t, err)
	assert.False(t, engine.IsComplete())

	roster.offline["p2"] = true
	engine.PlayerRemoved("p2")
	assert.True(t, engine.IsComplete())
}

func TestQuestionRoundConnectivityChangeCompletesRound(t *testing.T) {
	clock := newFakeClock()
	roster := newFakeRoster("p1", "p2")
	engine := NewQuestionRound(choiceQuestion(), roster, clock, 20*time.Second)
	engine.Start(clock.Now())

	_, err := engine.Submit("p1", SubmitPayload{AnswerIndex: intPtr(2)})
	require.NoError(t, err)

	// The only missing answer belonged to the player who just dropped.
	roster.offline["p2"] = true
	engine.ConnectivityChanged()
	assert.True(t, engine.IsComplete())
}

func TestQuestionRoundStateListsSubmitters(t *testing.T) {
	clock := newFakeClock()
	engine := NewQuestionRound(choiceQuestion(), newFakeRoster("p1", "p2"), clock, 20*time.Second)
	engine.Start(clock.Now())

	engine.Submit("p2", SubmitPayload{AnswerIndex: intPtr(0)})

	state := engine.State()
	assert.Equal(t, model.RoundQuestion, state.Type)
	assert.Equal(t, []string{"p2"}, state.Submitted)
	require.NotNil(t, state.Deadline)
	assert.Equal(t, clock.Now().Add(20*time.Second), *state.Deadline)
}
