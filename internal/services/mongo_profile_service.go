package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brewmap/backend/internal/models"
)

// resolveCacheTTL bounds staleness of cached display profiles. Relationship
// checks never read the cache, so a stale entry only delays a name change.
const resolveCacheTTL = 5 * time.Minute

type MongoProfileService struct {
	client   *mongo.Client
	db       *mongo.Database
	usersCol *mongo.Collection
	cache    *redis.Client // optional; nil disables caching
}

func NewMongoProfileService(ctx context.Context, mongoURI, dbName string, cache *redis.Client) (*MongoProfileService, error) {
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
	col := db.Collection("users")

	// Best-effort indexes. Email is the sole friend-discovery search key.
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
	})

	return &MongoProfileService{
		client:   client,
		db:       db,
		usersCol: col,
		cache:    cache,
	}, nil
}

func (s *MongoProfileService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoProfileService) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	var prof models.UserProfile
	if err := s.usersCol.FindOne(ctx, bson.M{"_id": id}).Decode(&prof); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	normalizeProfile(&prof)
	return &prof, nil
}

func (s *MongoProfileService) GetOrCreate(ctx context.Context, id, email, name string) (*models.UserProfile, error) {
	if id == "" {
		return nil, ErrProfileBadInput
	}
	now := time.Now()

	var prof models.UserProfile
	err := s.usersCol.FindOne(ctx, bson.M{"_id": id}).Decode(&prof)
	if err == nil {
		// Backfill blank identity fields from the auth record.
		set := bson.M{}
		if email != "" && prof.Email == "" {
			set["email"] = email
			prof.Email = email
		}
		if name != "" && prof.Name == "" {
			set["name"] = name
			prof.Name = name
		}
		if len(set) > 0 {
			_, _ = s.usersCol.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
		}
		normalizeProfile(&prof)
		return &prof, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	prof = models.UserProfile{
		ID:             id,
		Name:           name,
		Email:          email,
		Friends:        []string{},
		FriendRequests: []string{},
		SentRequests:   []string{},
		CreatedAt:      now,
	}
	if _, err := s.usersCol.InsertOne(ctx, prof); err != nil {
		// If a race created it, fetch again.
		var retry models.UserProfile
		if err2 := s.usersCol.FindOne(ctx, bson.M{"_id": id}).Decode(&retry); err2 == nil {
			normalizeProfile(&retry)
			return &retry, nil
		}
		return nil, err
	}
	return &prof, nil
}

// ResolveMany drops ids that fail to resolve and keeps input order for the
// rest. Individual lookup errors are treated as absence by contract.
func (s *MongoProfileService) ResolveMany(ctx context.Context, ids []string) ([]*models.UserProfile, error) {
	out := make([]*models.UserProfile, 0, len(ids))
	for _, id := range ids {
		prof, err := s.resolveOne(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, prof)
	}
	return out, nil
}

// resolveOne reads through the Redis cache when one is configured. Cached
// entries serve display lists only, never relationship preconditions.
func (s *MongoProfileService) resolveOne(ctx context.Context, id string) (*models.UserProfile, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, "profile:"+id).Result(); err == nil {
			var prof models.UserProfile
			if err := json.Unmarshal([]byte(raw), &prof); err == nil {
				return &prof, nil
			}
		}
	}

	prof, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(prof); err == nil {
			s.cache.Set(ctx, "profile:"+id, raw, resolveCacheTTL)
		}
	}
	return prof, nil
}

func (s *MongoProfileService) FindByEmail(ctx context.Context, text, excludeID string) ([]*models.UserProfile, error) {
	cur, err := s.usersCol.Find(ctx, bson.M{"email": text})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.UserProfile, 0)
	for cur.Next(ctx) {
		var prof models.UserProfile
		if err := cur.Decode(&prof); err != nil {
			return nil, err
		}
		if prof.ID == excludeID {
			continue
		}
		normalizeProfile(&prof)
		out = append(out, &prof)
	}
	return out, cur.Err()
}

// normalizeProfile replaces nil relationship arrays from legacy documents
// with empty ones so callers can range and marshal without nil checks.
func normalizeProfile(p *models.UserProfile) {
	if p.Friends == nil {
		p.Friends = []string{}
	}
	if p.FriendRequests == nil {
		p.FriendRequests = []string{}
	}
	if p.SentRequests == nil {
		p.SentRequests = []string{}
	}
}
