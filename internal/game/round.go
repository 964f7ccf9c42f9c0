package game

import (
	"context"
	"time"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

// RoundEngine drives one round to completion. All calls happen while the
// owning room's lock is held, so engines need no synchronization of their
// own. Tick after completion is a no-op, and a player can score at most
// once per submission: repeats are rejected, never double-counted.
type RoundEngine interface {
	Start(now time.Time)
	Submit(playerID string, payload SubmitPayload) (SubmitOutcome, error)
	Tick(now time.Time)
	IsComplete() bool
	Finalize() model.RoundResult
	State() model.RoundState
	Type() model.RoundType

	// PlayerRemoved drops a player from the round's eligibility (turn
	// order, completion counts) after their grace period expires. Never
	// called for a plain disconnect: a player inside the grace window
	// keeps their seat and may still reconnect.
	PlayerRemoved(playerID string)

	// ConnectivityChanged re-evaluates anything gated on who is currently
	// connected, after a disconnect or reconnect. It must not evict
	// anyone; eviction is PlayerRemoved's job.
	ConnectivityChanged()
}

// SubmitPayload is the union of everything a player action can carry into a
// round engine. The gateway fills exactly the fields the message defines.
type SubmitPayload struct {
	AnswerIndex *int
	Estimate    *float64
	Buzz        bool
	Text        string
	Skip        bool
}

// SubmitOutcome reports what an accepted submission changed, so the room can
// emit the matching targeted broadcasts.
type SubmitOutcome struct {
	// hot button
	BuzzWon      bool
	QuestionDone bool
	Correct      bool

	// collective list
	MatchedItem  *model.ListItem
	TurnMiss     bool
	EliminatedID string
}

// Roster gives engines a live view of the room's players. Implemented by
// the room; only called with the room lock held.
type Roster interface {
	// OrderedActiveIDs returns player ids in join order, minus removed
	// players.
	OrderedActiveIDs() []string
	// ConnectedActiveIDs returns the connected subset, join order.
	ConnectedActiveIDs() []string
	IsConnected(playerID string) bool
}

// QuestionRepository is the external question bank collaborator.
type QuestionRepository interface {
	GetCategoryList(ctx context.Context) ([]model.Category, error)
	GetQuestionsForCategory(ctx context.Context, categoryID string, count int, excludeIDs []string) ([]*model.Question, error)
	GetListTask(ctx context.Context, categoryID string, excludeIDs []string) (*model.ListTask, error)
}

// Broadcaster delivers engine output to every connected member of a room,
// or to one player. Implemented by the websocket hub.
type Broadcaster interface {
	ToRoom(code string, msgType string, payload any)
	ToPlayer(code, playerID, msgType string, payload any)
}

// ScoreRecorder mirrors score totals to an external leaderboard view after
// each scoring pass. Optional; a nil recorder is skipped.
type ScoreRecorder interface {
	RecordScores(code string, entries []model.RankEntry)
	DropRoom(code string)
}
