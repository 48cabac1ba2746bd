package services

import (
	"context"
	"crypto/tls"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brewmap/backend/internal/models"
)

type MongoReviewService struct {
	client     *mongo.Client
	db         *mongo.Database
	reviewsCol *mongo.Collection
}

func NewMongoReviewService(ctx context.Context, mongoURI, dbName string) (*MongoReviewService, error) {
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
	col := db.Collection("reviews")

	// Best-effort indexes.
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "place_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})

	log.Printf("MongoDB connected (reviews): db=%s", dbName)
	return &MongoReviewService{
		client:     client,
		db:         db,
		reviewsCol: col,
	}, nil
}

func (s *MongoReviewService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoReviewService) Add(ctx context.Context, placeID, userID string, rating int, comment string) (*models.Review, error) {
	comment = strings.TrimSpace(comment)
	if placeID == "" || rating < 1 || rating > 5 || comment == "" {
		return nil, ErrReviewBadInput
	}

	rev := &models.Review{
		ID:        uuid.New().String(),
		PlaceID:   placeID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
	if _, err := s.reviewsCol.InsertOne(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

func (s *MongoReviewService) ListByPlace(ctx context.Context, placeID string) ([]*models.Review, error) {
	cur, err := s.reviewsCol.Find(
		ctx,
		bson.M{"place_id": placeID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Review, 0)
	for cur.Next(ctx) {
		var rev models.Review
		if err := cur.Decode(&rev); err != nil {
			return nil, err
		}
		out = append(out, &rev)
	}
	return out, cur.Err()
}

// Watch follows the reviews change stream for one place and re-reads the
// full ordered list after every event. Requires a replica set; the server
// falls back to plain list endpoints when the stream cannot be opened.
func (s *MongoReviewService) Watch(ctx context.Context, placeID string) (<-chan []*models.Review, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"fullDocument.place_id": placeID}}},
	}
	stream, err := s.reviewsCol.Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, err
	}

	out := make(chan []*models.Review, 1)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		// Initial snapshot before any event arrives.
		if revs, err := s.ListByPlace(ctx, placeID); err == nil {
			out <- revs
		}

		for stream.Next(ctx) {
			revs, err := s.ListByPlace(ctx, placeID)
			if err != nil {
				log.Printf("[reviews] resync failed for place=%s: %v", placeID, err)
				continue
			}
			select {
			case out <- revs:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
