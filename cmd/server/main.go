package main

import (
	"context"
	"log"
	"net/http"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/brewmap/backend/internal/config"
	"github.com/brewmap/backend/internal/handlers"
	appMiddleware "github.com/brewmap/backend/internal/middleware"
	"github.com/brewmap/backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}
	cfg := config.Load()
	ctx := context.Background()

	// Optional Redis cache.
	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := cache.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis unavailable, caching disabled: %v", err)
			cache = nil
		}
	}

	// Data services: Mongo when configured, in-memory otherwise.
	var (
		profiles services.ProfileService
		social   services.SocialService
		reviews  services.ReviewService
		flags    services.FlagService
		accounts *services.MongoAccountService
	)
	if cfg.MongoURI != "" {
		mongoProfiles, err := services.NewMongoProfileService(ctx, cfg.MongoURI, cfg.MongoDatabase, cache)
		if err != nil {
			log.Fatalf("Failed to connect profile store: %v", err)
		}
		mongoSocial, err := services.NewMongoSocialService(ctx, cfg.MongoURI, cfg.MongoDatabase, mongoProfiles)
		if err != nil {
			log.Fatalf("Failed to connect social store: %v", err)
		}
		mongoReviews, err := services.NewMongoReviewService(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect review store: %v", err)
		}
		mongoFlags, err := services.NewMongoFlagService(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect flag store: %v", err)
		}
		accounts, err = services.NewMongoAccountService(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect account store: %v", err)
		}
		profiles, social, reviews, flags = mongoProfiles, mongoSocial, mongoReviews, mongoFlags
	} else {
		log.Println("MONGODB_URI not set, using in-memory stores (development only)")
		memProfiles := services.NewMemProfileService()
		profiles = memProfiles
		social = services.NewMemSocialService(memProfiles)
		reviews = services.NewMemReviewService()
		flags = services.NewMemFlagService()
	}

	// Firebase Auth (server-side verification of ID tokens). Without a
	// project id the server falls back to local JWT auth.
	var authClient *fbauth.Client
	if cfg.FirebaseProjectID != "" {
		var err error
		authClient, err = appMiddleware.NewFirebaseAuthClient(ctx, appMiddleware.FirebaseAuthConfig{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsJSON: cfg.FirebaseCredentialsJSON,
		})
		if err != nil {
			log.Printf("Warning: failed to initialize Firebase Auth client: %v", err)
		}
	}
	authmw := appMiddleware.JWTAuth(cfg.JWTSecret)
	if authClient != nil {
		authmw = appMiddleware.FirebaseAuth(authClient)
	}

	mailer := services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridFrom)
	places := services.NewPlacesClient(cfg.PlacesAPIKey, cache)

	// Handlers
	profileHandler := handlers.NewProfileHandler(profiles, authClient)
	friendsHandler := handlers.NewFriendsHandler(social, profiles, mailer)
	reviewsHandler := handlers.NewReviewsHandler(reviews, flags)
	placesHandler := handlers.NewPlacesHandler(places)
	accountHandler := handlers.NewAccountHandler(accounts)
	authHandler := handlers.NewAuthHandler(services.NewAuthService(profiles), cfg.JWTSecret, cfg.JWTExpiration)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Development auth endpoints; production clients sign in with
		// Firebase directly.
		if authClient == nil {
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		}

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authmw)

			r.Get("/profile", profileHandler.GetProfile)
			r.Get("/users/{userId}", profileHandler.GetPublicProfile)
			r.Delete("/account", accountHandler.DeleteAccount)

			r.Route("/friends", func(r chi.Router) {
				r.Get("/", friendsHandler.GetFriends)
				r.Get("/search", friendsHandler.SearchUsers)
				r.Post("/requests", friendsHandler.SendRequest)
				r.Post("/requests/{userId}/accept", friendsHandler.AcceptRequest)
				r.Post("/requests/{userId}/decline", friendsHandler.DeclineRequest)
				r.Delete("/{userId}", friendsHandler.RemoveFriend)
			})

			r.Route("/cafes", func(r chi.Router) {
				r.Get("/nearby", placesHandler.Nearby)
				r.Get("/photo", placesHandler.Photo)

				r.Route("/{placeId}", func(r chi.Router) {
					r.Get("/", placesHandler.Details)
					r.Get("/reviews", reviewsHandler.ListReviews)
					r.Post("/reviews", reviewsHandler.SubmitReview)
					r.Get("/reviews/stream", reviewsHandler.StreamReviews)
					r.Post("/reviews/{reviewId}/flag", reviewsHandler.FlagReview)
				})
			})
		})
	})

	log.Printf("BrewMap API server starting on %s", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
