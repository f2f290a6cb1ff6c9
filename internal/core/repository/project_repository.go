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

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	// Update never moves a project to another organization.
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Project, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Project, error)
	FindByOrganizations(ctx context.Context, orgIDs []string) ([]*model.Project, error)
	FindAll(ctx context.Context) ([]*model.Project, error)
	CountByOrganization(ctx context.Context, orgID string) (int64, error)
}

type MongoProjectRepository struct {
	collection *mongo.Collection
}

func NewMongoProjectRepository(db *mongo.Database) *MongoProjectRepository {
	return &MongoProjectRepository{
		collection: db.Collection("projects"),
	}
}

func (r *MongoProjectRepository) Create(ctx context.Context, project *model.Project) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, project)
	return err
}

func (r *MongoProjectRepository) Update(ctx context.Context, project *model.Project) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"id": project.ID, "organizationid": project.OrganizationID},
		bson.M{"$set": bson.M{
			"name":        project.Name,
			"description": project.Description,
			"memberids":   project.MemberIDs,
			"updatedat":   project.UpdatedAt,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: project %s", model.ErrNotFound, project.ID)
	}
	return nil
}

func (r *MongoProjectRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"id": id})
	return err
}

func (r *MongoProjectRepository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var project model.Project
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&project)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *MongoProjectRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Project, error) {
	if len(ids) == 0 {
		return []*model.Project{}, nil
	}
	return r.find(ctx, bson.M{"id": bson.M{"$in": ids}})
}

func (r *MongoProjectRepository) FindByOrganizations(ctx context.Context, orgIDs []string) ([]*model.Project, error) {
	if len(orgIDs) == 0 {
		return []*model.Project{}, nil
	}
	return r.find(ctx, bson.M{"organizationid": bson.M{"$in": orgIDs}})
}

func (r *MongoProjectRepository) FindAll(ctx context.Context) ([]*model.Project, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoProjectRepository) CountByOrganization(ctx context.Context, orgID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"organizationid": orgID})
}

func (r *MongoProjectRepository) find(ctx context.Context, filter bson.M) ([]*model.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"createdat": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	projects := []*model.Project{}
	if err = cursor.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}
