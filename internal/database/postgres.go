package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables() error {
	queries := []string{
		// Users table (social profile + coin balances)
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(30) NOT NULL UNIQUE,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			phone_number VARCHAR(50) UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			profile_picture_url TEXT,
			bio TEXT,
			location VARCHAR(255),
			coins INTEGER NOT NULL DEFAULT 0,
			total_coins_earned INTEGER NOT NULL DEFAULT 0,
			blocked_contacts TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Follows table (directed edges; one row per follower/following pair)
		`CREATE TABLE IF NOT EXISTS follows (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			follower_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			following_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(follower_id, following_id),
			CHECK(follower_id <> following_id)
		)`,

		// Challenges table
		`CREATE TABLE IF NOT EXISTS challenges (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title VARCHAR(255) NOT NULL,
			description TEXT,
			category VARCHAR(100),
			is_seasonal BOOLEAN NOT NULL DEFAULT FALSE,
			is_sponsored BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Challenge enrollments (one row per user/challenge pair)
		`CREATE TABLE IF NOT EXISTS user_challenges (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			challenge_id UUID NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
			joined_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(user_id, challenge_id)
		)`,

		// Challenge submissions
		`CREATE TABLE IF NOT EXISTS submissions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			challenge_id UUID NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			video_url TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Referral ledger (a user can be referred exactly once)
		`CREATE TABLE IF NOT EXISTS referrals (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			referrer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			referee_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Likes table
		`CREATE TABLE IF NOT EXISTS likes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			target_id UUID NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(user_id, target_id)
		)`,

		// Media metadata (file bytes live in Cloudinary)
		`CREATE TABLE IF NOT EXISTS media (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			uploader_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			file_name VARCHAR(255) NOT NULL,
			file_url TEXT NOT NULL,
			file_type VARCHAR(100),
			file_size BIGINT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Create indexes for better performance
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users(LOWER(username))`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_phone_number ON users(phone_number)`,
		`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_follows_follower_id ON follows(follower_id)`,
		`CREATE INDEX IF NOT EXISTS idx_follows_following_id ON follows(following_id)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_created_at ON challenges(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_user_challenges_user_id ON user_challenges(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_challenges_challenge_id ON user_challenges(challenge_id)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_user_id ON submissions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_challenge_id ON submissions(challenge_id)`,
		`CREATE INDEX IF NOT EXISTS idx_referrals_referrer_id ON referrals(referrer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_likes_user_id ON likes(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_media_uploader_id ON media(uploader_id)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
