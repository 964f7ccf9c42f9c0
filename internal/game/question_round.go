package game

import (
	"math"
	"time"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

// questionRound runs a single choice or estimation question. Each player
// answers at most once; the round completes when every connected player has
// answered or the deadline elapses, whichever comes first.
type questionRound struct {
	question *model.Question
	roster   Roster
	clock    Clock
	duration time.Duration

	deadline time.Time
	answers  map[string]model.GivenAnswer
	complete bool
}

// NewQuestionRound creates the engine for a standard question round.
func NewQuestionRound(q *model.Question, roster Roster, clock Clock, answerTime time.Duration) RoundEngine {
	return &questionRound{
		question: q,
		roster:   roster,
		clock:    clock,
		duration: answerTime,
		answers:  make(map[string]model.GivenAnswer),
	}
}

func (r *questionRound) Type() model.RoundType { return model.RoundQuestion }

func (r *questionRound) Start(now time.Time) {
	r.deadline = now.Add(r.duration)
}

func (r *questionRound) Submit(playerID string, payload SubmitPayload) (SubmitOutcome, error) {
	now := r.clock.Now()
	if r.complete || now.After(r.deadline) {
		return SubmitOutcome{}, ErrDeadlinePassed
	}
	if _, dup := r.answers[playerID]; dup {
		return SubmitOutcome{}, ErrAlreadySubmitted
	}

	var ans model.GivenAnswer
	switch r.question.Type {
	case model.QuestionChoice:
		if payload.AnswerIndex == nil || *payload.AnswerIndex < 0 || *payload.AnswerIndex >= len(r.question.Options) {
			return SubmitOutcome{}, ErrValidation
		}
		ans.Index = *payload.AnswerIndex
	case model.QuestionEstimation:
		if payload.Estimate == nil {
			return SubmitOutcome{}, ErrValidation
		}
		ans.Value = *payload.Estimate
	default:
		return SubmitOutcome{}, ErrValidation
	}

	if r.duration > 0 {
		remaining := r.deadline.Sub(now).Seconds() / r.duration.Seconds()
		ans.TimeFactor = math.Max(0, math.Min(1, remaining))
	}

	r.answers[playerID] = ans
	r.checkAllSubmitted()
	return SubmitOutcome{}, nil
}

func (r *questionRound) Tick(now time.Time) {
	if r.complete {
		return
	}
	if !now.Before(r.deadline) {
		r.complete = true
	}
}

func (r *questionRound) IsComplete() bool { return r.complete }

func (r *questionRound) PlayerRemoved(playerID string) {
	// An already-submitted answer stays counted; only the completion check
	// needs to stop waiting for this player.
	r.checkAllSubmitted()
}

func (r *questionRound) ConnectivityChanged() {
	// A disconnect can be the event the round was waiting on: everyone
	// still connected may already have answered.
	r.checkAllSubmitted()
}

func (r *questionRound) checkAllSubmitted() {
	connected := r.roster.ConnectedActiveIDs()
	if len(connected) == 0 {
		return
	}
	for _, id := range connected {
		if _, ok := r.answers[id]; !ok {
			return
		}
	}
	r.complete = true
}

func (r *questionRound) Finalize() model.RoundResult {
	res := model.RoundResult{
		Type:     model.RoundQuestion,
		Question: r.question,
	}
	switch r.question.Type {
	case model.QuestionChoice:
		for _, id := range r.roster.OrderedActiveIDs() {
			ans, ok := r.answers[id]
			if !ok {
				continue
			}
			res.QuestionOutcomes = append(res.QuestionOutcomes, model.QuestionOutcome{
				PlayerID:   id,
				Index:      ans.Index,
				Correct:    ans.Index == r.question.CorrectIndex,
				TimeFactor: ans.TimeFactor,
			})
		}
	case model.QuestionEstimation:
		best := math.Inf(1)
		for _, ans := range r.answers {
			if d := math.Abs(ans.Value - r.question.CorrectValue); d < best {
				best = d
			}
		}
		for _, id := range r.roster.OrderedActiveIDs() {
			ans, ok := r.answers[id]
			if !ok {
				continue
			}
			res.QuestionOutcomes = append(res.QuestionOutcomes, model.QuestionOutcome{
				PlayerID: id,
				Value:    ans.Value,
				Correct:  math.Abs(ans.Value-r.question.CorrectValue) == best,
			})
		}
	}
	return res
}

func (r *questionRound) State() model.RoundState {
	submitted := make([]string, 0, len(r.answers))
	for _, id := range r.roster.OrderedActiveIDs() {
		if _, ok := r.answers[id]; ok {
			submitted = append(submitted, id)
		}
	}
	deadline := r.deadline
	return model.RoundState{
		Type:      model.RoundQuestion,
		Question:  r.question,
		Submitted: submitted,
		Deadline:  &deadline,
	}
}
