// Package repository implements the question bank collaborator backing the
// game engine. The Mongo implementation is used in production; the memory
// implementation backs tests and Mongo-less runs.
package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/game"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

type questionRepo struct {
	categories *mongo.Collection
	questions  *mongo.Collection
	lists      *mongo.Collection
}

// NewQuestionRepo creates the Mongo-backed question repository.
func NewQuestionRepo(db *mongo.Database) game.QuestionRepository {
	return &questionRepo{
		categories: db.Collection("categories"),
		questions:  db.Collection("questions"),
		lists:      db.Collection("lists"),
	}
}

func (r *questionRepo) GetCategoryList(ctx context.Context) ([]model.Category, error) {
	cursor, err := r.categories.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var categories []model.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *questionRepo) GetQuestionsForCategory(ctx context.Context, categoryID string, count int, excludeIDs []string) ([]*model.Question, error) {
	filter := bson.M{"category": categoryID}
	if len(excludeIDs) > 0 {
		filter["_id"] = bson.M{"$nin": excludeIDs}
	}
	opts := options.Find().SetLimit(int64(count))
	cursor, err := r.questions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []*model.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) GetListTask(ctx context.Context, categoryID string, excludeIDs []string) (*model.ListTask, error) {
	filter := bson.M{"category": categoryID}
	if len(excludeIDs) > 0 {
		filter["_id"] = bson.M{"$nin": excludeIDs}
	}
	var task model.ListTask
	err := r.lists.FindOne(ctx, filter).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}
