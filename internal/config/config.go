package config

import (
	"os"
	"time"
)

type Config struct {
	ServerAddress string

	MongoURI      string
	MongoDatabase string
	RedisAddr     string

	// JWT settings are only used by the local-development auth path.
	JWTSecret     string
	JWTExpiration time.Duration

	PlacesAPIKey string

	FirebaseProjectID       string
	FirebaseCredentialsJSON string

	SendGridAPIKey string
	SendGridFrom   string
}

func Load() *Config {
	return &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),

		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: getEnv("MONGODB_DB", "brewmap"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),

		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		JWTExpiration: 24 * time.Hour,

		PlacesAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),

		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		SendGridFrom:   getEnv("SENDGRID_FROM", "no-reply@brewmap.app"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
