package services

import (
	"context"
	"crypto/tls"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoAccountService struct {
	client     *mongo.Client
	db         *mongo.Database
	usersCol   *mongo.Collection
	reviewsCol *mongo.Collection
	flagsCol   *mongo.Collection
}

func NewMongoAccountService(ctx context.Context, mongoURI, dbName string) (*MongoAccountService, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	return &MongoAccountService{
		client:     client,
		db:         db,
		usersCol:   db.Collection("users"),
		reviewsCol: db.Collection("reviews"),
		flagsCol:   db.Collection("review_flags"),
	}, nil
}

func (s *MongoAccountService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type DeleteAccountResult struct {
	ProfilesUpdated int64 `json:"profiles_updated"`
	ReviewsDeleted  int64 `json:"reviews_deleted"`
}

// DeleteAccount removes every trace of the given user:
// - their id is pulled out of all other profiles' relationship arrays
// - their profile document
// - their reviews and review flags
// The relationship pull runs first so no profile is left pointing at a
// deleted user.
func (s *MongoAccountService) DeleteAccount(ctx context.Context, userID string) (*DeleteAccountResult, error) {
	if userID == "" {
		return nil, ErrProfileBadInput
	}

	res := &DeleteAccountResult{}

	pull, err := s.usersCol.UpdateMany(ctx, bson.M{}, bson.M{
		"$pull": bson.M{
			"friends":         userID,
			"friend_requests": userID,
			"sent_requests":   userID,
		},
	})
	if err != nil {
		return nil, err
	}
	res.ProfilesUpdated = pull.ModifiedCount

	revs, err := s.reviewsCol.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	res.ReviewsDeleted = revs.DeletedCount

	_, _ = s.flagsCol.DeleteMany(ctx, bson.M{"user_id": userID})

	if _, err := s.usersCol.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return nil, err
	}
	return res, nil
}

// Helper for handlers that want a sane timeout.
func DefaultAccountTimeout() time.Duration { return 20 * time.Second }
