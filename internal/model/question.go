package model

// QuestionType defines how a question is answered.
type QuestionType string

const (
	QuestionChoice     QuestionType = "choice"     // pick one option
	QuestionEstimation QuestionType = "estimation" // numeric estimate, closest wins
	QuestionOpen       QuestionType = "open"       // free text, fuzzy-checked (hot-button)
)

// Category groups questions in the question bank.
type Category struct {
	ID   string `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

// Question is one playable question.
type Question struct {
	ID       string       `json:"id" bson:"_id,omitempty"`
	Category string       `json:"category" bson:"category"`
	Type     QuestionType `json:"type" bson:"type"`
	Prompt   string       `json:"prompt" bson:"prompt"`

	// choice
	Options      []string `json:"options,omitempty" bson:"options,omitempty"`
	CorrectIndex int      `json:"-" bson:"correctIndex,omitempty"`

	// estimation
	CorrectValue float64 `json:"-" bson:"correctValue,omitempty"`
	Unit         string  `json:"unit,omitempty" bson:"unit,omitempty"`

	// open
	Answer        string   `json:"-" bson:"answer,omitempty"`
	AnswerAliases []string `json:"-" bson:"answerAliases,omitempty"`
}

// ListItem is one canonical entry of a collective-list task.
type ListItem struct {
	ID      string   `json:"id" bson:"id"`
	Display string   `json:"display" bson:"display"`
	Aliases []string `json:"aliases,omitempty" bson:"aliases,omitempty"`
}

// ListTask is the target list for a collective-list round.
type ListTask struct {
	ID       string     `json:"id" bson:"_id,omitempty"`
	Category string     `json:"category" bson:"category"`
	Title    string     `json:"title" bson:"title"`
	Items    []ListItem `json:"-" bson:"items"`
}
