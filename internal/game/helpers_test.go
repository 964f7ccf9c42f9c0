package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

// fakeClock drives deadlines deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeRoster is a fixed player list with togglable connectivity.
type fakeRoster struct {
	ids     []string
	offline map[string]bool
}

func newFakeRoster(ids ...string) *fakeRoster {
	return &fakeRoster{ids: ids, offline: make(map[string]bool)}
}

func (f *fakeRoster) OrderedActiveIDs() []string { return f.ids }

func (f *fakeRoster) ConnectedActiveIDs() []string {
	var out []string
	for _, id := range f.ids {
		if !f.offline[id] {
			out = append(out, id)
		}
	}
	return out
}

func (f *fakeRoster) IsConnected(id string) bool {
	for _, known := range f.ids {
		if known == id {
			return !f.offline[id]
		}
	}
	return false
}

// recordingBroadcaster captures everything a room emits.
type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []sentMessage
}

type sentMessage struct {
	Room     string
	PlayerID string // empty for room-wide broadcasts
	Type     string
	Payload  any
}

func (b *recordingBroadcaster) ToRoom(code, msgType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, sentMessage{Room: code, Type: msgType, Payload: payload})
}

func (b *recordingBroadcaster) ToPlayer(code, playerID, msgType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, sentMessage{Room: code, PlayerID: playerID, Type: msgType, Payload: payload})
}

func (b *recordingBroadcaster) lastOfType(msgType string) (sentMessage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.sent) - 1; i >= 0; i-- {
		if b.sent[i].Type == msgType {
			return b.sent[i], true
		}
	}
	return sentMessage{}, false
}

// stubRepo serves a fixed question bank without a database.
type stubRepo struct {
	categories []model.Category
	questions  map[string][]*model.Question
	lists      map[string]*model.ListTask
	failAll    bool

	questionSeq int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		categories: []model.Category{
			{ID: "science", Name: "Science"},
			{ID: "computing", Name: "Computing"},
		},
		questions: make(map[string][]*model.Question),
		lists:     make(map[string]*model.ListTask),
	}
}

func (s *stubRepo) GetCategoryList(ctx context.Context) ([]model.Category, error) {
	if s.failAll {
		return nil, fmt.Errorf("bank unavailable")
	}
	return s.categories, nil
}

func (s *stubRepo) GetQuestionsForCategory(ctx context.Context, categoryID string, count int, excludeIDs []string) ([]*model.Question, error) {
	if s.failAll {
		return nil, fmt.Errorf("bank unavailable")
	}
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []*model.Question
	for _, q := range s.questions[categoryID] {
		if !excluded[q.ID] && len(out) < count {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *stubRepo) GetListTask(ctx context.Context, categoryID string, excludeIDs []string) (*model.ListTask, error) {
	if s.failAll {
		return nil, fmt.Errorf("bank unavailable")
	}
	task := s.lists[categoryID]
	if task == nil {
		return nil, nil
	}
	for _, id := range excludeIDs {
		if task.ID == id {
			return nil, nil
		}
	}
	return task, nil
}

// addChoiceQuestions fills a category with distinct four-option questions
// whose correct index is always 0.
func (s *stubRepo) addChoiceQuestions(categoryID string, n int) {
	for i := 0; i < n; i++ {
		s.questionSeq++
		s.questions[categoryID] = append(s.questions[categoryID], &model.Question{
			ID:           fmt.Sprintf("q%d", s.questionSeq),
			Category:     categoryID,
			Type:         model.QuestionChoice,
			Prompt:       fmt.Sprintf("question %d", s.questionSeq),
			Options:      []string{"right", "wrong", "worse", "worst"},
			CorrectIndex: 0,
		})
	}
}

func (s *stubRepo) addOpenQuestions(categoryID string, n int) {
	for i := 0; i < n; i++ {
		s.questionSeq++
		s.questions[categoryID] = append(s.questions[categoryID], &model.Question{
			ID:       fmt.Sprintf("q%d", s.questionSeq),
			Category: categoryID,
			Type:     model.QuestionOpen,
			Prompt:   fmt.Sprintf("open question %d", s.questionSeq),
			Answer:   "jupiter",
		})
	}
}

func (s *stubRepo) addListTask(categoryID string, items ...string) {
	task := &model.ListTask{
		ID:       "list-" + categoryID,
		Category: categoryID,
		Title:    "name them all",
	}
	for i, display := range items {
		task.Items = append(task.Items, model.ListItem{
			ID:      fmt.Sprintf("item%d", i+1),
			Display: display,
		})
	}
	s.lists[categoryID] = task
}
