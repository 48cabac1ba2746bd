package main

import (
	"context"
	"crypto/tls"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brewmap/backend/internal/models"
	"github.com/brewmap/backend/internal/services"
)

// graph-audit scans the users collection and reports social-graph symmetry
// violations. It never repairs anything: dangling sent_requests entries are
// an expected consequence of declines and whether to clean them up is an
// open product decision.
func main() {
	_ = godotenv.Load()

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is not set")
	}
	dbName := getEnv("MONGODB_DB", "brewmap")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		log.Fatalf("MongoDB connection failed: %v", err)
	}
	defer client.Disconnect(context.Background())

	col := client.Database(dbName).Collection("users")
	cur, err := col.Find(ctx, bson.M{})
	if err != nil {
		log.Fatalf("Failed to load profiles: %v", err)
	}
	defer cur.Close(ctx)

	var profiles []*models.UserProfile
	for cur.Next(ctx) {
		var prof models.UserProfile
		if err := cur.Decode(&prof); err != nil {
			log.Fatalf("Failed to decode profile: %v", err)
		}
		profiles = append(profiles, &prof)
	}
	if err := cur.Err(); err != nil {
		log.Fatalf("Cursor error: %v", err)
	}

	issues := services.AuditProfiles(profiles)

	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.Kind]++
		log.Printf("[audit] kind=%s user=%s other=%s field=%s",
			issue.Kind, issue.UserID, issue.OtherID, issue.Field)
	}

	log.Printf("[audit] scanned %d profiles, found %d inconsistencies", len(profiles), len(issues))
	for kind, n := range counts {
		log.Printf("[audit]   %s: %d", kind, n)
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
