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

type InvitationRepository interface {
	// Create fails with model.ErrConflict when the token already exists.
	Create(ctx context.Context, link *model.InvitationLink) error
	FindByToken(ctx context.Context, token string) (*model.InvitationLink, error)
	FindByOrganization(ctx context.Context, orgID string) ([]*model.InvitationLink, error)
	// Consume increments the use counter if, at the instant of the update,
	// the link is active, not expired at now and under its cap. It reports
	// whether the increment happened.
	Consume(ctx context.Context, token string, now time.Time) (bool, error)
	// Deactivate reports whether an active link was switched off.
	Deactivate(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, token string) (bool, error)
	DeleteByOrganization(ctx context.Context, orgID string) (int64, error)
}

type MongoInvitationRepository struct {
	collection *mongo.Collection
}

func NewMongoInvitationRepository(db *mongo.Database) *MongoInvitationRepository {
	return &MongoInvitationRepository{
		collection: db.Collection("invitation_links"),
	}
}

func (r *MongoInvitationRepository) Create(ctx context.Context, link *model.InvitationLink) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, link)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: invitation token collision", model.ErrConflict)
	}
	return err
}

func (r *MongoInvitationRepository) FindByToken(ctx context.Context, token string) (*model.InvitationLink, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var link model.InvitationLink
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&link)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *MongoInvitationRepository) FindByOrganization(ctx context.Context, orgID string) ([]*model.InvitationLink, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdat": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"organizationid": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	links := []*model.InvitationLink{}
	if err = cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *MongoInvitationRepository) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"token":  token,
		"active": true,
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"expiresat": nil},
				bson.M{"expiresat": bson.M{"$gte": now}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"maxuses": nil},
				bson.M{"$expr": bson.M{"$lt": bson.A{"$usedcount", "$maxuses"}}},
			}},
		},
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"usedcount": 1}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoInvitationRepository) Deactivate(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"token": token, "active": true},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoInvitationRepository) Delete(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"token": token})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

func (r *MongoInvitationRepository) DeleteByOrganization(ctx context.Context, orgID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.DeleteMany(ctx, bson.M{"organizationid": orgID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
