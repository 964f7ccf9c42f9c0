package model

import "time"

// Phase is the room state machine's current macro-state. While a round is
// running the phase names the active round variant, so phase and round
// state can never disagree.
type Phase string

const (
	PhaseLobby             Phase = "lobby"
	PhaseCategorySelection Phase = "category_selection"
	PhaseQuestion          Phase = "question"
	PhaseHotButton         Phase = "hot_button"
	PhaseCollectiveList    Phase = "collective_list"
	PhaseReveal            Phase = "reveal"
	PhaseScoreboard        Phase = "scoreboard"
	PhaseGameOver          Phase = "game_over"
	PhaseRematchPending    Phase = "rematch_pending"
	PhaseTerminated        Phase = "terminated"
)

// InRound reports whether the phase belongs to an active round.
func (p Phase) InRound() bool {
	return p == PhaseQuestion || p == PhaseHotButton || p == PhaseCollectiveList
}

// RoundType selects which round engine drives a round slot.
type RoundType string

const (
	RoundQuestion       RoundType = "question"
	RoundHotButton      RoundType = "hot_button"
	RoundCollectiveList RoundType = "collective_list"
)

// PhaseFor maps a round type to the phase the room shows while the round runs.
func PhaseFor(t RoundType) Phase {
	switch t {
	case RoundHotButton:
		return PhaseHotButton
	case RoundCollectiveList:
		return PhaseCollectiveList
	default:
		return PhaseQuestion
	}
}

// Settings is the room configuration chosen at creation. Immutable once the
// game starts except via update_settings while still in the lobby.
type Settings struct {
	MaxPlayers             int         `json:"maxPlayers"`
	Rounds                 int         `json:"rounds"`
	RoundTypes             []RoundType `json:"roundTypes,omitempty"` // per slot; missing entries default to question
	AnswerSeconds          int         `json:"answerSeconds"`
	HotButtonQuestions     int         `json:"hotButtonQuestions"`
	HotButtonAnswerSeconds int         `json:"hotButtonAnswerSeconds"`
	ListLives              int         `json:"listLives"`
	ListTurnSeconds        int         `json:"listTurnSeconds"`
	MatchThreshold         float64     `json:"matchThreshold"`
	HostOnlyAdvance        bool        `json:"hostOnlyAdvance"`
}

// DefaultSettings returns the configuration a fresh room starts with.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:             8,
		Rounds:                 3,
		AnswerSeconds:          20,
		HotButtonQuestions:     5,
		HotButtonAnswerSeconds: 10,
		ListLives:              3,
		ListTurnSeconds:        30,
		MatchThreshold:         0.8,
		HostOnlyAdvance:        true,
	}
}

// RoundTypeAt returns the round type configured for slot i.
func (s Settings) RoundTypeAt(i int) RoundType {
	if i >= 0 && i < len(s.RoundTypes) && s.RoundTypes[i] != "" {
		return s.RoundTypes[i]
	}
	return RoundQuestion
}

// RoomSnapshot is the full room view broadcast as room_update.
type RoomSnapshot struct {
	Code          string            `json:"code"`
	Phase         Phase             `json:"phase"`
	Settings      Settings          `json:"settings"`
	Players       []Player          `json:"players"`
	HostID        string            `json:"hostId"`
	RoundIndex    int               `json:"roundIndex"`
	RoundCount    int               `json:"roundCount"`
	Categories    []Category        `json:"categories,omitempty"`
	CategoryVotes map[string]string `json:"categoryVotes,omitempty"`
	Round         *RoundState       `json:"round,omitempty"`
	Ranking       []RankEntry       `json:"ranking,omitempty"`
	Deadline      *time.Time        `json:"deadline,omitempty"`
}
