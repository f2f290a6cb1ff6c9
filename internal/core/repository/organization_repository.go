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

type OrganizationRepository interface {
	Create(ctx context.Context, org *model.Organization) error
	Update(ctx context.Context, org *model.Organization) error
	// Delete fails with model.ErrHasDependents when the backend can see
	// memberships or projects still pointing at the organization.
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Organization, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Organization, error)
	FindAll(ctx context.Context) ([]*model.Organization, error)
}

type MongoOrganizationRepository struct {
	collection *mongo.Collection
}

func NewMongoOrganizationRepository(db *mongo.Database) *MongoOrganizationRepository {
	return &MongoOrganizationRepository{
		collection: db.Collection("organizations"),
	}
}

func (r *MongoOrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, org)
	return err
}

func (r *MongoOrganizationRepository) Update(ctx context.Context, org *model.Organization) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"id": org.ID}, org)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: organization %s", model.ErrNotFound, org.ID)
	}
	return nil
}

func (r *MongoOrganizationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"id": id})
	return err
}

func (r *MongoOrganizationRepository) FindByID(ctx context.Context, id string) (*model.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var org model.Organization
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&org)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *MongoOrganizationRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Organization, error) {
	if len(ids) == 0 {
		return []*model.Organization{}, nil
	}
	return r.find(ctx, bson.M{"id": bson.M{"$in": ids}})
}

func (r *MongoOrganizationRepository) FindAll(ctx context.Context) ([]*model.Organization, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoOrganizationRepository) find(ctx context.Context, filter bson.M) ([]*model.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orgs := []*model.Organization{}
	if err = cursor.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}
