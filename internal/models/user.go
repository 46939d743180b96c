package models

import "time"

type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Email             string    `json:"email"`
	PhoneNumber       string    `json:"phone_number"`
	PasswordHash      string    `json:"-"` // Don't return password hash in JSON
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	Bio               string    `json:"bio,omitempty"`
	Location          string    `json:"location,omitempty"`
	Coins             int       `json:"coins"`
	TotalCoinsEarned  int       `json:"total_coins_earned"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UserProfile is the public slice of a user record returned by search and
// follower listings.
type UserProfile struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	Bio               string    `json:"bio,omitempty"`
	Location          string    `json:"location,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
