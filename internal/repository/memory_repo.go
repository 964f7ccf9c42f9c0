package repository

import (
	"context"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/game"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

// MemoryRepo is an in-memory question bank with the same contract as the
// Mongo repository.
type MemoryRepo struct {
	Cats  []model.Category
	Qs    []*model.Question
	Lists []*model.ListTask
}

// NewMemoryRepo creates an empty in-memory repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

var _ game.QuestionRepository = (*MemoryRepo)(nil)

func (r *MemoryRepo) GetCategoryList(ctx context.Context) ([]model.Category, error) {
	return r.Cats, nil
}

func (r *MemoryRepo) GetQuestionsForCategory(ctx context.Context, categoryID string, count int, excludeIDs []string) ([]*model.Question, error) {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []*model.Question
	for _, q := range r.Qs {
		if q.Category != categoryID || excluded[q.ID] {
			continue
		}
		out = append(out, q)
		if len(out) == count {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepo) GetListTask(ctx context.Context, categoryID string, excludeIDs []string) (*model.ListTask, error) {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	for _, task := range r.Lists {
		if task.Category == categoryID || categoryID == "" {
			if !excluded[task.ID] {
				return task, nil
			}
		}
	}
	return nil, nil
}

// Seeded returns a repository filled with a small demo question bank, used
// when the server runs without Mongo.
func Seeded() *MemoryRepo {
	return &MemoryRepo{
		Cats: []model.Category{
			{ID: "science", Name: "Science"},
			{ID: "computing", Name: "Computing"},
			{ID: "geography", Name: "Geography"},
		},
		Qs: []*model.Question{
			{ID: "q_planets", Category: "science", Type: model.QuestionChoice,
				Prompt: "Which planet has the most moons?", Options: []string{"Earth", "Saturn", "Mars", "Venus"}, CorrectIndex: 1},
			{ID: "q_light", Category: "science", Type: model.QuestionEstimation,
				Prompt: "Speed of light in km/s?", CorrectValue: 299792, Unit: "km/s"},
			{ID: "q_element", Category: "science", Type: model.QuestionOpen,
				Prompt: "Which element has the symbol W?", Answer: "Tungsten", AnswerAliases: []string{"Wolfram"}},
			{ID: "q_www", Category: "computing", Type: model.QuestionChoice,
				Prompt: "Who proposed the World Wide Web?", Options: []string{"Alan Turing", "Tim Berners-Lee", "Vint Cerf", "Linus Torvalds"}, CorrectIndex: 1},
			{ID: "q_unix", Category: "computing", Type: model.QuestionEstimation,
				Prompt: "In which year did the Unix epoch start?", CorrectValue: 1970},
			{ID: "q_go", Category: "computing", Type: model.QuestionOpen,
				Prompt: "Which language's mascot is a gopher?", Answer: "Go", AnswerAliases: []string{"Golang"}},
			{ID: "q_danube", Category: "geography", Type: model.QuestionChoice,
				Prompt: "Through how many capitals does the Danube flow?", Options: []string{"2", "3", "4", "5"}, CorrectIndex: 2},
		},
		Lists: []*model.ListTask{
			{ID: "l_langs", Category: "computing", Title: "Programming languages",
				Items: []model.ListItem{
					{ID: "py", Display: "Python"},
					{ID: "cpp", Display: "C++"},
					{ID: "cs", Display: "C#", Aliases: []string{"C Sharp"}},
					{ID: "js", Display: "JavaScript", Aliases: []string{"ECMAScript", "JS"}},
					{ID: "go", Display: "Go", Aliases: []string{"Golang"}},
				}},
			{ID: "l_rivers", Category: "geography", Title: "Longest rivers of Europe",
				Items: []model.ListItem{
					{ID: "volga", Display: "Volga"},
					{ID: "danube", Display: "Danube", Aliases: []string{"Donau"}},
					{ID: "ural", Display: "Ural"},
					{ID: "dnieper", Display: "Dnieper", Aliases: []string{"Dnipro"}},
					{ID: "don", Display: "Don"},
				}},
		},
	}
}
