package repository

import (
	"context"
	"time"

	"taskbill/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrganizationMemberRepository interface {
	// Upsert inserts the (user, organization) row or, if one exists, updates
	// its role. It is a single atomic step in every backend and returns the
	// stored row.
	Upsert(ctx context.Context, member *model.OrganizationMember) (*model.OrganizationMember, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, userID, orgID string) (bool, error)
	FindByUserAndOrg(ctx context.Context, userID, orgID string) (*model.OrganizationMember, error)
	FindByUser(ctx context.Context, userID string) ([]*model.OrganizationMember, error)
	FindByOrganization(ctx context.Context, orgID string) ([]*model.OrganizationMember, error)
	CountByOrganization(ctx context.Context, orgID string) (int64, error)
}

type MongoOrganizationMemberRepository struct {
	collection *mongo.Collection
}

func NewMongoOrganizationMemberRepository(db *mongo.Database) *MongoOrganizationMemberRepository {
	return &MongoOrganizationMemberRepository{
		collection: db.Collection("organization_members"),
	}
}

func (r *MongoOrganizationMemberRepository) Upsert(ctx context.Context, member *model.OrganizationMember) (*model.OrganizationMember, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"userid":         member.UserID,
		"organizationid": member.OrganizationID,
	}
	update := bson.M{
		"$set":         bson.M{"role": member.Role, "updatedat": member.UpdatedAt},
		"$setOnInsert": bson.M{"id": member.ID, "createdat": member.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored model.OrganizationMember
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts raced on the unique index; the loser retries as an update.
		err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *MongoOrganizationMemberRepository) Delete(ctx context.Context, userID, orgID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"userid": userID, "organizationid": orgID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

func (r *MongoOrganizationMemberRepository) FindByUserAndOrg(ctx context.Context, userID, orgID string) (*model.OrganizationMember, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var member model.OrganizationMember
	err := r.collection.FindOne(ctx, bson.M{
		"userid":         userID,
		"organizationid": orgID,
	}).Decode(&member)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MongoOrganizationMemberRepository) FindByUser(ctx context.Context, userID string) ([]*model.OrganizationMember, error) {
	return r.find(ctx, bson.M{"userid": userID})
}

func (r *MongoOrganizationMemberRepository) FindByOrganization(ctx context.Context, orgID string) ([]*model.OrganizationMember, error) {
	return r.find(ctx, bson.M{"organizationid": orgID})
}

func (r *MongoOrganizationMemberRepository) CountByOrganization(ctx context.Context, orgID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"organizationid": orgID})
}

func (r *MongoOrganizationMemberRepository) find(ctx context.Context, filter bson.M) ([]*model.OrganizationMember, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	members := []*model.OrganizationMember{}
	if err = cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}
