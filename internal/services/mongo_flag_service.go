package services

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brewmap/backend/internal/models"
)

type MongoFlagService struct {
	client *mongo.Client
	db     *mongo.Database
	col    *mongo.Collection
}

func NewMongoFlagService(ctx context.Context, mongoURI, dbName string) (*MongoFlagService, error) {
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
	col := db.Collection("review_flags")

	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "review_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoFlagService{client: client, db: db, col: col}, nil
}

func (s *MongoFlagService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoFlagService) FlagReview(ctx context.Context, userID, placeID, reviewID, reason string) (*models.ReviewFlag, error) {
	if userID == "" || reviewID == "" {
		return nil, ErrFlagBadInput
	}

	flag := &models.ReviewFlag{
		ID:        uuid.New().String(),
		ReviewID:  reviewID,
		PlaceID:   placeID,
		UserID:    userID,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	if _, err := s.col.InsertOne(ctx, flag); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyFlagged
		}
		return nil, err
	}
	return flag, nil
}
