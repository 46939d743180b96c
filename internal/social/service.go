// Package social maintains the relationship data: follow edges, the derived
// friends view, challenge enrollments and the referral-reward ledger. All
// mutations are idempotent under concurrent client calls; duplicates surface
// as informational already-exists results, never as duplicated rows.
package social

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvdoan/wavelink-backend/internal/apperror"
	"github.com/nvdoan/wavelink-backend/internal/directory"
)

const (
	// ReferrerReward is credited to the owner of a used referral code.
	ReferrerReward = 30
	// RefereeReward is credited to the newly signed-up user.
	RefereeReward = 20
)

// Service executes relationship operations against the directory.
//
// The friends view is derived, never persisted: it is recomputed after every
// follower/following mutation affecting a user, and cleared on sign-out via
// Reset. Staleness is acceptable only until the next recomputation trigger.
type Service struct {
	dir directory.Directory

	mu      sync.RWMutex
	friends map[string][]string
}

func NewService(dir directory.Directory) *Service {
	return &Service{
		dir:     dir,
		friends: make(map[string][]string),
	}
}

// Follow inserts the actor→target edge. Following yourself is rejected; a
// duplicate edge reports already-following without inserting a second row.
// On success both parties' friend views are recomputed.
func (s *Service) Follow(ctx context.Context, actorID, targetID string) error {
	if actorID == "" {
		return apperror.AuthRequired("follow someone")
	}
	if actorID == targetID {
		return apperror.SelfAction("you cannot follow yourself")
	}

	edge := directory.Row{
		"id":           uuid.New().String(),
		"follower_id":  actorID,
		"following_id": targetID,
		"created_at":   time.Now().UTC(),
	}
	if _, err := s.dir.Insert(ctx, "follows", []directory.Row{edge}); err != nil {
		if directory.IsConflict(err) {
			return apperror.AlreadyExists("you are already following this user")
		}
		return apperror.Directory("following user", err)
	}

	// The edge changed both users' follower/following sets.
	if _, err := s.RecomputeFriends(ctx, actorID); err != nil {
		return err
	}
	if _, err := s.RecomputeFriends(ctx, targetID); err != nil {
		return err
	}
	return nil
}

// Followers returns the ids of users following userID.
func (s *Service) Followers(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.dir.Select(ctx, "follows", directory.Query{
		Columns: []string{"follower_id"},
		Filter:  directory.Filter{Eq: map[string]interface{}{"following_id": userID}},
	})
	if err != nil {
		return nil, apperror.Directory("loading followers", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.String("follower_id"))
	}
	return ids, nil
}

// Following returns the ids of users userID follows.
func (s *Service) Following(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.dir.Select(ctx, "follows", directory.Query{
		Columns: []string{"following_id"},
		Filter:  directory.Filter{Eq: map[string]interface{}{"follower_id": userID}},
	})
	if err != nil {
		return nil, apperror.Directory("loading following", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.String("following_id"))
	}
	return ids, nil
}

// RecomputeFriends derives the friends view for userID: the users that both
// follow and are followed by them. The result is cached until the next
// recomputation or Reset; nothing is persisted.
func (s *Service) RecomputeFriends(ctx context.Context, userID string) ([]string, error) {
	following, err := s.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}

	followingSet := make(map[string]struct{}, len(following))
	for _, id := range following {
		followingSet[id] = struct{}{}
	}

	mutual := []string{}
	for _, id := range followers {
		if _, ok := followingSet[id]; ok {
			mutual = append(mutual, id)
		}
	}

	s.mu.Lock()
	s.friends[userID] = mutual
	s.mu.Unlock()
	return mutual, nil
}

// Friends returns the current derived friends view for userID, computing it
// on first use.
func (s *Service) Friends(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	cached, ok := s.friends[userID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}
	return s.RecomputeFriends(ctx, userID)
}

// Reset clears all derived views; called on sign-out.
func (s *Service) Reset() {
	s.mu.Lock()
	s.friends = make(map[string][]string)
	s.mu.Unlock()
}

// JoinChallenge enrolls the actor in a challenge. A second join attempt is a
// no-op reported as already-joined, never a duplicate row.
func (s *Service) JoinChallenge(ctx context.Context, actorID, challengeID string) error {
	if actorID == "" {
		return apperror.AuthRequired("join challenges")
	}
	if challengeID == "" {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: "challenge id is required"}
	}

	row := directory.Row{
		"id":           uuid.New().String(),
		"user_id":      actorID,
		"challenge_id": challengeID,
		"joined_at":    time.Now().UTC(),
	}
	if _, err := s.dir.Insert(ctx, "user_challenges", []directory.Row{row}); err != nil {
		if directory.IsConflict(err) {
			return apperror.AlreadyExists("you have already joined this challenge")
		}
		return apperror.Directory("joining challenge", err)
	}
	return nil
}

// Like records the actor's like on a target (a submission id). Liking the
// same target twice reports already-liked without a second row.
func (s *Service) Like(ctx context.Context, actorID, targetID string) error {
	if actorID == "" {
		return apperror.AuthRequired("like content")
	}
	if targetID == "" {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: "target id is required"}
	}

	row := directory.Row{
		"id":         uuid.New().String(),
		"user_id":    actorID,
		"target_id":  targetID,
		"created_at": time.Now().UTC(),
	}
	if _, err := s.dir.Insert(ctx, "likes", []directory.Row{row}); err != nil {
		if directory.IsConflict(err) {
			return apperror.AlreadyExists("you have already liked this")
		}
		return apperror.Directory("recording like", err)
	}
	return nil
}

// LikeStatus reports how many likes the target has and whether the given
// user is among the likers. userID may be empty for anonymous callers.
func (s *Service) LikeStatus(ctx context.Context, userID, targetID string) (count int, liked bool, err error) {
	rows, err := s.dir.Select(ctx, "likes", directory.Query{
		Columns: []string{"user_id"},
		Filter:  directory.Filter{Eq: map[string]interface{}{"target_id": targetID}},
	})
	if err != nil {
		return 0, false, apperror.Directory("loading likes", err)
	}
	for _, r := range rows {
		if userID != "" && r.String("user_id") == userID {
			liked = true
		}
	}
	return len(rows), liked, nil
}

// JoinedChallenges lists the challenge ids the user is enrolled in.
func (s *Service) JoinedChallenges(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.dir.Select(ctx, "user_challenges", directory.Query{
		Columns: []string{"challenge_id", "joined_at"},
		Filter:  directory.Filter{Eq: map[string]interface{}{"user_id": userID}},
	})
	if err != nil {
		return nil, apperror.Directory("loading joined challenges", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.String("challenge_id"))
	}
	return ids, nil
}

// ApplyReferral resolves referralCode (the referrer's own user id serves as
// the code) and, when valid, records the ledger entry and credits both
// balances: referrer +30, referee +20.
//
// An unknown code is logged and swallowed so referral problems never block
// account creation. A second referral for the same referee is rejected
// before any balance is credited. The bool result reports whether the
// reward was applied.
func (s *Service) ApplyReferral(ctx context.Context, referralCode, refereeID string) (bool, error) {
	code := strings.TrimSpace(referralCode)
	if code == "" || refereeID == "" {
		return false, nil
	}

	referrers, err := s.dir.Select(ctx, "users", directory.Query{
		Columns: []string{"id", "coins", "total_coins_earned"},
		Filter:  directory.Filter{Eq: map[string]interface{}{"id": code}},
		Limit:   1,
	})
	if err != nil {
		return false, apperror.Directory("resolving referral code", err)
	}
	if len(referrers) == 0 {
		log.Printf("referral code %q does not resolve to a user; skipping reward", code)
		return false, nil
	}
	referrer := referrers[0]

	// Ledger first: uniqueness on referee is the gate for the credits.
	entry := directory.Row{
		"id":          uuid.New().String(),
		"referrer_id": referrer.String("id"),
		"referee_id":  refereeID,
		"created_at":  time.Now().UTC(),
	}
	if _, err := s.dir.Insert(ctx, "referrals", []directory.Row{entry}); err != nil {
		if directory.IsConflict(err) {
			return false, apperror.AlreadyExists("user was already referred")
		}
		return false, apperror.Directory("recording referral", err)
	}

	if err := s.creditCoins(ctx, referrer.String("id"), ReferrerReward); err != nil {
		return false, err
	}
	if err := s.creditCoins(ctx, refereeID, RefereeReward); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) creditCoins(ctx context.Context, userID string, amount int) error {
	rows, err := s.dir.Select(ctx, "users", directory.Query{
		Columns: []string{"coins", "total_coins_earned"},
		Filter:  directory.Filter{Eq: map[string]interface{}{"id": userID}},
		Limit:   1,
	})
	if err != nil {
		return apperror.Directory("loading balance", err)
	}
	if len(rows) == 0 {
		return apperror.NotFound("user")
	}

	patch := directory.Row{
		"coins":              rows[0].Int("coins") + amount,
		"total_coins_earned": rows[0].Int("total_coins_earned") + amount,
	}
	if _, err := s.dir.Update(ctx, "users", patch, directory.Filter{
		Eq: map[string]interface{}{"id": userID},
	}); err != nil {
		// The ledger row exists but the credit failed; surface it rather
		// than leave the inconsistency silent.
		return apperror.Directory("crediting referral reward", err)
	}
	return nil
}
