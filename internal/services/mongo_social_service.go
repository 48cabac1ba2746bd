package services

import (
	"context"
	"crypto/tls"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brewmap/backend/internal/models"
)

// MongoSocialService runs each relationship transition inside a
// multi-document transaction so a crash between the two profile writes
// cannot leave the pair half-applied. Relationship arrays are edited with
// $addToSet/$pull, which keeps them sets even under concurrent senders.
type MongoSocialService struct {
	client   *mongo.Client
	db       *mongo.Database
	usersCol *mongo.Collection
	profiles ProfileService
}

func NewMongoSocialService(ctx context.Context, mongoURI, dbName string, profiles ProfileService) (*MongoSocialService, error) {
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
	return &MongoSocialService{
		client:   client,
		db:       db,
		usersCol: db.Collection("users"),
		profiles: profiles,
	}, nil
}

func (s *MongoSocialService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoSocialService) SendRequest(ctx context.Context, callerID, targetID string) error {
	if callerID == targetID {
		return ErrSelfRelation
	}

	return s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		caller, err := s.fetch(sc, callerID)
		if err != nil {
			return err
		}
		if _, err := s.fetch(sc, targetID); err != nil {
			return err
		}
		if err := checkUnrelated(caller, targetID); err != nil {
			return err
		}

		if _, err := s.usersCol.UpdateOne(sc, bson.M{"_id": callerID}, bson.M{
			"$addToSet": bson.M{"sent_requests": targetID},
		}); err != nil {
			return err
		}
		_, err = s.usersCol.UpdateOne(sc, bson.M{"_id": targetID}, bson.M{
			"$addToSet": bson.M{"friend_requests": callerID},
		})
		return err
	})
}

func (s *MongoSocialService) AcceptRequest(ctx context.Context, callerID, fromID string) error {
	if callerID == fromID {
		return ErrSelfRelation
	}

	return s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		caller, err := s.fetch(sc, callerID)
		if err != nil {
			return err
		}
		if _, err := s.fetch(sc, fromID); err != nil {
			return err
		}
		if !models.ContainsID(caller.FriendRequests, fromID) {
			return ErrNoPendingRequest
		}

		if _, err := s.usersCol.UpdateOne(sc, bson.M{"_id": callerID}, bson.M{
			"$addToSet": bson.M{"friends": fromID},
			"$pull":     bson.M{"friend_requests": fromID},
		}); err != nil {
			return err
		}
		_, err = s.usersCol.UpdateOne(sc, bson.M{"_id": fromID}, bson.M{
			"$addToSet": bson.M{"friends": callerID},
			"$pull":     bson.M{"sent_requests": callerID},
		})
		return err
	})
}

func (s *MongoSocialService) DeclineRequest(ctx context.Context, callerID, fromID string) error {
	// Single-document edit; no transaction needed. The requester's
	// sent_requests entry is deliberately left alone.
	caller, err := s.fetch(ctx, callerID)
	if err != nil {
		return err
	}
	if !models.ContainsID(caller.FriendRequests, fromID) {
		return ErrNoPendingRequest
	}

	_, err = s.usersCol.UpdateOne(ctx, bson.M{"_id": callerID}, bson.M{
		"$pull": bson.M{"friend_requests": fromID},
	})
	return err
}

func (s *MongoSocialService) RemoveFriend(ctx context.Context, callerID, friendID string) error {
	return s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		caller, err := s.fetch(sc, callerID)
		if err != nil {
			return err
		}
		if !models.ContainsID(caller.Friends, friendID) {
			return ErrNotFriends
		}

		if _, err := s.usersCol.UpdateOne(sc, bson.M{"_id": callerID}, bson.M{
			"$pull": bson.M{"friends": friendID},
		}); err != nil {
			return err
		}
		_, err = s.usersCol.UpdateOne(sc, bson.M{"_id": friendID}, bson.M{
			"$pull": bson.M{"friends": callerID},
		})
		return err
	})
}

func (s *MongoSocialService) SearchByEmail(ctx context.Context, callerID, text string) ([]models.SearchResult, error) {
	caller, err := s.profiles.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	matches, err := s.profiles.FindByEmail(ctx, text, callerID)
	if err != nil {
		return nil, err
	}
	return classifyAll(caller, matches), nil
}

func (s *MongoSocialService) fetch(ctx context.Context, id string) (*models.UserProfile, error) {
	var prof models.UserProfile
	if err := s.usersCol.FindOne(ctx, bson.M{"_id": id}).Decode(&prof); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &prof, nil
}

func (s *MongoSocialService) inTransaction(ctx context.Context, fn func(mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return mapTxnError(err)
}

// mapTxnError turns driver-level transaction races into the retryable
// ErrGraphConflict while passing domain errors through untouched.
func mapTxnError(err error) error {
	if err == nil {
		return nil
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if ce.HasErrorLabel("TransientTransactionError") || ce.HasErrorLabel("UnknownTransactionCommitResult") {
			log.Printf("[social] transaction aborted: %v", err)
			return ErrGraphConflict
		}
	}
	return err
}
