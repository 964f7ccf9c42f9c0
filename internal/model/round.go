package model

import "time"

// RoundState is the client-facing view of the active round, embedded in
// room_update. Exactly one variant's fields are populated, selected by Type.
type RoundState struct {
	Type     RoundType  `json:"type"`
	Deadline *time.Time `json:"deadline,omitempty"`

	// question
	Question  *Question `json:"question,omitempty"`
	Submitted []string  `json:"submitted,omitempty"` // player ids that answered

	// hot button
	QuestionIndex int    `json:"questionIndex,omitempty"`
	QuestionCount int    `json:"questionCount,omitempty"`
	BuzzWinnerID  string `json:"buzzWinnerId,omitempty"`

	// collective list
	ListTitle      string         `json:"listTitle,omitempty"`
	ItemsTotal     int            `json:"itemsTotal,omitempty"`
	GuessedItems   []GuessedItem  `json:"guessedItems,omitempty"`
	ActivePlayerID string         `json:"activePlayerId,omitempty"`
	Lives          map[string]int `json:"lives,omitempty"`
	Eliminated     []string       `json:"eliminated,omitempty"`
}

// GuessedItem records one revealed list item and who guessed it.
type GuessedItem struct {
	Item     ListItem `json:"item"`
	PlayerID string   `json:"playerId"`
}

// GivenAnswer is a single player's submission within a question round.
type GivenAnswer struct {
	Index      int     `json:"index,omitempty"`
	Value      float64 `json:"value,omitempty"`
	TimeFactor float64 `json:"-"` // fraction of answer time remaining at submit
}
