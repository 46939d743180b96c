package main

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/nvdoan/wavelink-backend/internal/config"
	"github.com/nvdoan/wavelink-backend/internal/database"
	"github.com/nvdoan/wavelink-backend/internal/directory"
	"github.com/nvdoan/wavelink-backend/internal/handlers"
	"github.com/nvdoan/wavelink-backend/internal/middleware"
	"github.com/nvdoan/wavelink-backend/internal/routes"
	"github.com/nvdoan/wavelink-backend/internal/services"
	"github.com/nvdoan/wavelink-backend/internal/token"
	"github.com/nvdoan/wavelink-backend/pkg/call"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Token issuer signs call room tokens; the secret is required.
	issuer, err := token.NewIssuer(cfg.JWTSecret)
	if err != nil {
		log.Fatal("Token issuer configuration: ", err)
	}

	// Message content is encrypted at rest; a missing key disables
	// messaging persistence, not the whole server.
	if cfg.EncryptionKey == "" {
		log.Println("⚠️  WARNING: ENCRYPTION_KEY not set. Message history will not be stored.")
		log.Println("   To generate a key, run: openssl rand -base64 32")
	} else if err := services.InitMessageEncryption(cfg.EncryptionKey); err != nil {
		log.Printf("⚠️  WARNING: ENCRYPTION_KEY is invalid: %v", err)
		log.Println("   Key must be base64-encoded 32 bytes. Generate with: openssl rand -base64 32")
	} else {
		log.Println("✅ Message encryption key configured")
	}

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB (message history)
	log.Printf("Connecting to MongoDB...")
	if cfg.MongoURI != "" {
		log.Printf("MongoDB URI: %s", maskURI(cfg.MongoURI))
	}
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	if err := services.EnsureMessageIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB message indexes: %v", err)
	} else {
		log.Println("✅ MongoDB message indexes ensured")
	}

	// Wire handlers to the Postgres-backed directory.
	handlers.Init(directory.NewPostgres(database.PostgresDB), issuer)

	// Engine binding: clients bootstrap their calling SDK from
	// /api/call/config; the server never joins rooms itself.
	engineCfg := call.EngineConfig{
		Binding:      cfg.EngineBinding,
		AppID:        cfg.ZegoAppID,
		ServerSecret: cfg.ZegoServerSecret,
		APIKey:       cfg.StreamAPIKey,
		APISecret:    cfg.StreamAPISecret,
	}
	if err := engineCfg.Validate(); err != nil {
		log.Printf("⚠️  WARNING: call engine binding not configured: %v", err)
		log.Println("   /api/call/config will report calling as unavailable")
	} else {
		log.Printf("✅ Call engine binding %q configured", engineCfg.Binding)
	}
	handlers.SetEngineConfig(engineCfg)

	// Initialize Cloudinary service
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		if err := handlers.InitCloudinaryService(cfg); err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("File uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. File uploads will not be available")
	}

	// Cross-instance message fan-out
	services.StartRedisMessageSubscriber(context.Background())

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Production: security headers, host check, per-IP + login limiting.
	// Non-production: shared Redis-based rate limit only.
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.Host) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}
	r.Use(middleware.MessageHistoryRateLimit)

	routes.SetupRoutes(r)

	log.Printf("🚀 Wavelink backend running on :%s (engine binding: %s)", cfg.Port, cfg.EngineBinding)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// maskURI hides the password part of a connection string for logging.
func maskURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at < 0 {
		return uri
	}
	scheme := strings.Index(uri, "://")
	if scheme < 0 {
		return uri
	}
	creds := uri[scheme+3 : at]
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return uri
	}
	return uri[:scheme+3] + creds[:colon] + ":***" + uri[at:]
}
