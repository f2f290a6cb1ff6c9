package repository

import (
	"context"
	"fmt"
	"time"

	"taskbill/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id string) error
	// DeleteByProject removes every task of a project and reports how many went.
	DeleteByProject(ctx context.Context, projectID string) (int64, error)
	FindByID(ctx context.Context, id string) (*model.Task, error)
	FindByProjects(ctx context.Context, projectIDs []string) ([]*model.Task, error)
}

type MongoTaskRepository struct {
	collection *mongo.Collection
}

func NewMongoTaskRepository(db *mongo.Database) *MongoTaskRepository {
	return &MongoTaskRepository{
		collection: db.Collection("tasks"),
	}
}

func (r *MongoTaskRepository) Create(ctx context.Context, task *model.Task) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, task)
	return err
}

func (r *MongoTaskRepository) Update(ctx context.Context, task *model.Task) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"id": task.ID, "projectid": task.ProjectID}, task)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: task %s", model.ErrNotFound, task.ID)
	}
	return nil
}

func (r *MongoTaskRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"id": id})
	return err
}

func (r *MongoTaskRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.DeleteMany(ctx, bson.M{"projectid": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var task model.Task
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *MongoTaskRepository) FindByProjects(ctx context.Context, projectIDs []string) ([]*model.Task, error) {
	if len(projectIDs) == 0 {
		return []*model.Task{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdat": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"projectid": bson.M{"$in": projectIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []*model.Task{}
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
