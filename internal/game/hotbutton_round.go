package game

import (
	"time"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/match"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

// hotButtonRound runs a batch of buzzer questions. Per question the first
// accepted buzz locks everyone else out; only the winner may answer, inside
// a short secondary deadline. Not answering in time counts as incorrect.
type hotButtonRound struct {
	questions  []*model.Question
	roster     Roster
	clock      Clock
	buzzWindow time.Duration
	answerTime time.Duration
	threshold  float64

	idx          int
	buzzWinnerID string
	deadline     time.Time // buzz deadline while open, answer deadline while locked
	outcomes     []model.HotButtonOutcome
	complete     bool
}

// NewHotButtonRound creates the engine for a hot-button round over the given
// question batch.
func NewHotButtonRound(questions []*model.Question, roster Roster, clock Clock, buzzWindow, answerTime time.Duration, threshold float64) RoundEngine {
	return &hotButtonRound{
		questions:  questions,
		roster:     roster,
		clock:      clock,
		buzzWindow: buzzWindow,
		answerTime: answerTime,
		threshold:  threshold,
	}
}

func (r *hotButtonRound) Type() model.RoundType { return model.RoundHotButton }

func (r *hotButtonRound) Start(now time.Time) {
	if len(r.questions) == 0 {
		r.complete = true
		return
	}
	r.deadline = now.Add(r.buzzWindow)
}

func (r *hotButtonRound) current() *model.Question { return r.questions[r.idx] }

func (r *hotButtonRound) Submit(playerID string, payload SubmitPayload) (SubmitOutcome, error) {
	if r.complete {
		return SubmitOutcome{}, ErrDeadlinePassed
	}
	if !r.roster.IsConnected(playerID) {
		return SubmitOutcome{}, ErrStateConflict
	}

	switch {
	case payload.Buzz:
		return r.handleBuzz(playerID)
	default:
		return r.handleAnswer(playerID, payload.Text)
	}
}

func (r *hotButtonRound) handleBuzz(playerID string) (SubmitOutcome, error) {
	if r.buzzWinnerID != "" {
		return SubmitOutcome{}, ErrAlreadyBuzzed
	}
	now := r.clock.Now()
	if now.After(r.deadline) {
		return SubmitOutcome{}, ErrDeadlinePassed
	}
	r.buzzWinnerID = playerID
	r.deadline = now.Add(r.answerTime)
	return SubmitOutcome{BuzzWon: true}, nil
}

func (r *hotButtonRound) handleAnswer(playerID, text string) (SubmitOutcome, error) {
	if r.buzzWinnerID == "" {
		return SubmitOutcome{}, ErrStateConflict
	}
	if playerID != r.buzzWinnerID {
		return SubmitOutcome{}, ErrNotBuzzWinner
	}
	if r.clock.Now().After(r.deadline) {
		return SubmitOutcome{}, ErrDeadlinePassed
	}

	q := r.current()
	correct, _ := match.CheckSingle(text, q.Answer, q.AnswerAliases, r.threshold)
	r.outcomes = append(r.outcomes, model.HotButtonOutcome{
		QuestionID: q.ID,
		WinnerID:   playerID,
		Answer:     text,
		Correct:    correct,
	})
	r.advance()
	return SubmitOutcome{QuestionDone: true, Correct: correct}, nil
}

func (r *hotButtonRound) Tick(now time.Time) {
	if r.complete || now.Before(r.deadline) {
		return
	}
	q := r.current()
	if r.buzzWinnerID == "" {
		// Nobody dared. Question expires unanswered.
		r.outcomes = append(r.outcomes, model.HotButtonOutcome{QuestionID: q.ID})
	} else {
		// Winner ran out the answer clock: counts as incorrect.
		r.outcomes = append(r.outcomes, model.HotButtonOutcome{
			QuestionID: q.ID,
			WinnerID:   r.buzzWinnerID,
		})
	}
	r.advance()
}

func (r *hotButtonRound) advance() {
	r.idx++
	r.buzzWinnerID = ""
	if r.idx >= len(r.questions) {
		r.complete = true
		return
	}
	r.deadline = r.clock.Now().Add(r.buzzWindow)
}

func (r *hotButtonRound) IsComplete() bool { return r.complete }

func (r *hotButtonRound) ConnectivityChanged() {
	// A disconnected buzz winner keeps the lock until the answer deadline
	// runs out or their grace expires; reconnecting in time lets them
	// still answer.
}

func (r *hotButtonRound) PlayerRemoved(playerID string) {
	// A removed buzz winner can no longer answer; resolve the question as
	// incorrect instead of waiting out the clock.
	if r.complete || r.buzzWinnerID != playerID {
		return
	}
	r.outcomes = append(r.outcomes, model.HotButtonOutcome{
		QuestionID: r.current().ID,
		WinnerID:   playerID,
	})
	r.advance()
}

func (r *hotButtonRound) Finalize() model.RoundResult {
	return model.RoundResult{
		Type:              model.RoundHotButton,
		HotButtonOutcomes: r.outcomes,
	}
}

func (r *hotButtonRound) State() model.RoundState {
	state := model.RoundState{
		Type:          model.RoundHotButton,
		QuestionCount: len(r.questions),
	}
	if r.complete {
		state.QuestionIndex = len(r.questions)
		return state
	}
	deadline := r.deadline
	state.QuestionIndex = r.idx
	state.Question = r.current()
	state.BuzzWinnerID = r.buzzWinnerID
	state.Deadline = &deadline
	return state
}
