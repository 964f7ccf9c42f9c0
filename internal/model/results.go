package model

// ListEndReason tells why a collective-list round finished.
type ListEndReason string

const (
	ListAllGuessed   ListEndReason = "all_guessed"
	ListLastStanding ListEndReason = "last_standing"
)

// QuestionOutcome is one player's result in a question round.
type QuestionOutcome struct {
	PlayerID   string  `json:"playerId"`
	Correct    bool    `json:"correct"`
	Index      int     `json:"index,omitempty"`
	Value      float64 `json:"value,omitempty"`
	TimeFactor float64 `json:"-"`
}

// HotButtonOutcome is the resolution of one hot-button question.
type HotButtonOutcome struct {
	QuestionID string `json:"questionId"`
	WinnerID   string `json:"winnerId,omitempty"` // empty when nobody buzzed
	Answer     string `json:"answer,omitempty"`
	Correct    bool   `json:"correct"`
}

// RoundResult is the immutable record a round engine produces exactly once
// via Finalize. Only the section matching Type is populated.
type RoundResult struct {
	Type RoundType `json:"type"`

	Question         *Question         `json:"question,omitempty"`
	QuestionOutcomes []QuestionOutcome `json:"outcomes,omitempty"`

	HotButtonOutcomes []HotButtonOutcome `json:"hotButtonOutcomes,omitempty"`

	ListGuesses   map[string]string `json:"listGuesses,omitempty"` // item id -> guesser
	ListEndReason ListEndReason     `json:"listEndReason,omitempty"`
	ListWinners   []string          `json:"listWinners,omitempty"`
	ListItems     []ListItem        `json:"listItems,omitempty"` // full list, revealed at round end
}

// RankEntry is one scoreboard row.
type RankEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// GameStats accumulates per-game counters, included in the game_over payload.
type GameStats struct {
	RoundsPlayed   int            `json:"roundsPlayed"`
	CorrectAnswers map[string]int `json:"correctAnswers"`
	ItemsGuessed   map[string]int `json:"itemsGuessed"`
	BuzzWins       map[string]int `json:"buzzWins"`
}

// NewGameStats returns an empty stats record.
func NewGameStats() GameStats {
	return GameStats{
		CorrectAnswers: make(map[string]int),
		ItemsGuessed:   make(map[string]int),
		BuzzWins:       make(map[string]int),
	}
}

// RevealPayload is broadcast as answer_reveal when a question round ends.
type RevealPayload struct {
	Question *Question         `json:"question"`
	Correct  int               `json:"correctIndex,omitempty"`
	Value    float64           `json:"correctValue,omitempty"`
	Outcomes []QuestionOutcome `json:"outcomes"`
}

// BuzzPayload is broadcast as hot_button_buzz when a buzz is accepted.
type BuzzPayload struct {
	PlayerID      string `json:"playerId"`
	QuestionIndex int    `json:"questionIndex"`
}

// HotButtonEndPayload is broadcast as hot_button_end.
type HotButtonEndPayload struct {
	Outcomes []HotButtonOutcome `json:"outcomes"`
}

// ListEndPayload is broadcast as collective_list_end.
type ListEndPayload struct {
	Reason  ListEndReason `json:"reason"`
	Winners []string      `json:"winners"`
	Items   []ListItem    `json:"items"`
	Guesses []GuessedItem `json:"guesses"`
}

// CategorySelectedPayload is broadcast once a category vote resolves.
type CategorySelectedPayload struct {
	Category Category `json:"category"`
}

// GameOverPayload carries the final ranking and game statistics.
type GameOverPayload struct {
	Ranking []RankEntry `json:"ranking"`
	Stats   GameStats   `json:"stats"`
}

// RematchResultPayload is broadcast when the rematch vote resolves.
type RematchResultPayload struct {
	Accepted bool `json:"accepted"`
	Yes      int  `json:"yes"`
	No       int  `json:"no"`
}
