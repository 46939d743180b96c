package models

import "time"

// Follow is a directed edge in the social graph, unique per
// (follower, following) pair.
type Follow struct {
	ID          string    `json:"id"`
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type Challenge struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	IsSeasonal  bool      `json:"is_seasonal"`
	IsSponsored bool      `json:"is_sponsored"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChallengeSummary is the joined slice of a challenge embedded in a
// submission result.
type ChallengeSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Enrollment records that a user joined a challenge, unique per
// (user, challenge) pair.
type Enrollment struct {
	UserID      string    `json:"user_id"`
	ChallengeID string    `json:"challenge_id"`
	JoinedAt    time.Time `json:"joined_at"`
}

type Submission struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	VideoURL    string           `json:"video_url,omitempty"`
	UserID      string           `json:"user_id"`
	ChallengeID string           `json:"challenge_id"`
	CreatedAt   time.Time        `json:"created_at"`
	Creator     UserProfile      `json:"creator"`
	Challenge   ChallengeSummary `json:"challenge"`
}

// Referral is one ledger entry; a user can be referred exactly once.
type Referral struct {
	ID         string    `json:"id"`
	ReferrerID string    `json:"referrer_id"`
	RefereeID  string    `json:"referee_id"`
	CreatedAt  time.Time `json:"created_at"`
}
