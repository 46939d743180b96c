package config

import (
	"os"
	"strings"
)

type Config struct {
	PostgresURI    string
	RedisURI       string
	MongoURI       string
	JWTSecret      string
	EncryptionKey  string
	Port           string
	Host           string // bare hostname for the production host check; empty disables it
	FrontendURL    string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	Environment    string   // ENV: production, development, etc.

	// Calling engine credentials. Which pair is required depends on the
	// engine binding selected at startup (ENGINE_BINDING: "room" or "managed").
	EngineBinding    string
	ZegoAppID        string
	ZegoServerSecret string
	StreamAPIKey     string
	StreamAPISecret  string

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	// CORS: allow multiple origins so the app frontend and local dev both work
	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		PostgresURI:    getEnv("POSTGRES_URI", "postgres://localhost:5432/wavelink?sslmode=disable"),
		RedisURI:       getEnv("REDIS_URI", "redis://localhost:6379/0"),
		MongoURI:       getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/wavelink")),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
		Port:           getEnv("PORT", "3000"),
		Host:           getEnv("HOST", ""),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins: allowedOrigins,
		Environment:    env,

		EngineBinding:    strings.ToLower(getEnv("ENGINE_BINDING", "room")),
		ZegoAppID:        getEnv("ZEGO_APP_ID", ""),
		ZegoServerSecret: getEnv("ZEGO_SERVER_SECRET", ""),
		StreamAPIKey:     getEnv("STREAM_API_KEY", ""),
		StreamAPISecret:  getEnv("STREAM_API_SECRET_KEY", ""),

		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
