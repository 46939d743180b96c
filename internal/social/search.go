package social

import (
	"context"
	"strings"

	"github.com/nvdoan/wavelink-backend/internal/apperror"
	"github.com/nvdoan/wavelink-backend/internal/directory"
	"github.com/nvdoan/wavelink-backend/internal/models"
)

// DefaultPageSize is applied when a search request does not set a limit.
const DefaultPageSize = 20

// Page is 1-based; zero values fall back to the first page at the default
// size.
type Page struct {
	Number int
	Size   int
}

func (p Page) normalize() (offset, limit int) {
	size := p.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	number := p.Number
	if number <= 0 {
		number = 1
	}
	return (number - 1) * size, size
}

// SearchUsers matches the term against username, first name, last name,
// bio and location, newest accounts first. An empty term matches every
// user; no match returns an empty slice, never nil.
func (s *Service) SearchUsers(ctx context.Context, term string, page Page) ([]models.UserProfile, error) {
	offset, limit := page.normalize()
	rows, err := s.dir.Select(ctx, "users", directory.Query{
		Filter:  anyILike(term, "username", "first_name", "last_name", "bio", "location"),
		OrderBy: "created_at",
		Desc:    true,
		Offset:  offset,
		Limit:   limit,
	})
	if err != nil {
		return nil, apperror.Directory("searching users", err)
	}

	profiles := make([]models.UserProfile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, profileFromRow(r))
	}
	return profiles, nil
}

// SearchChallenges matches the term against title, description and
// category, newest first.
func (s *Service) SearchChallenges(ctx context.Context, term string, page Page) ([]models.Challenge, error) {
	offset, limit := page.normalize()
	rows, err := s.dir.Select(ctx, "challenges", directory.Query{
		Filter:  anyILike(term, "title", "description", "category"),
		OrderBy: "created_at",
		Desc:    true,
		Offset:  offset,
		Limit:   limit,
	})
	if err != nil {
		return nil, apperror.Directory("searching challenges", err)
	}

	challenges := make([]models.Challenge, 0, len(rows))
	for _, r := range rows {
		challenges = append(challenges, models.Challenge{
			ID:          r.String("id"),
			Title:       r.String("title"),
			Description: r.String("description"),
			Category:    r.String("category"),
			IsSeasonal:  r.Bool("is_seasonal"),
			IsSponsored: r.Bool("is_sponsored"),
			CreatedAt:   r.Time("created_at"),
			UpdatedAt:   r.Time("updated_at"),
		})
	}
	return challenges, nil
}

// SearchSubmissions matches the term against title and description, newest
// first, and joins in each submission's creator profile and challenge
// summary. A submission whose creator or challenge row has gone missing is
// still returned with the joined slice left empty.
func (s *Service) SearchSubmissions(ctx context.Context, term string, page Page) ([]models.Submission, error) {
	offset, limit := page.normalize()
	rows, err := s.dir.Select(ctx, "submissions", directory.Query{
		Filter:  anyILike(term, "title", "description"),
		OrderBy: "created_at",
		Desc:    true,
		Offset:  offset,
		Limit:   limit,
	})
	if err != nil {
		return nil, apperror.Directory("searching submissions", err)
	}
	if len(rows) == 0 {
		return []models.Submission{}, nil
	}

	creators, err := s.profilesByID(ctx, collect(rows, "user_id"))
	if err != nil {
		return nil, err
	}
	challenges, err := s.challengeSummariesByID(ctx, collect(rows, "challenge_id"))
	if err != nil {
		return nil, err
	}

	out := make([]models.Submission, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Submission{
			ID:          r.String("id"),
			Title:       r.String("title"),
			Description: r.String("description"),
			VideoURL:    r.String("video_url"),
			UserID:      r.String("user_id"),
			ChallengeID: r.String("challenge_id"),
			CreatedAt:   r.Time("created_at"),
			Creator:     creators[r.String("user_id")],
			Challenge:   challenges[r.String("challenge_id")],
		})
	}
	return out, nil
}

func (s *Service) profilesByID(ctx context.Context, ids []interface{}) (map[string]models.UserProfile, error) {
	if len(ids) == 0 {
		return map[string]models.UserProfile{}, nil
	}
	rows, err := s.dir.Select(ctx, "users", directory.Query{
		Filter: directory.Filter{In: map[string][]interface{}{"id": ids}},
	})
	if err != nil {
		return nil, apperror.Directory("loading submission creators", err)
	}
	byID := make(map[string]models.UserProfile, len(rows))
	for _, r := range rows {
		byID[r.String("id")] = profileFromRow(r)
	}
	return byID, nil
}

func (s *Service) challengeSummariesByID(ctx context.Context, ids []interface{}) (map[string]models.ChallengeSummary, error) {
	if len(ids) == 0 {
		return map[string]models.ChallengeSummary{}, nil
	}
	rows, err := s.dir.Select(ctx, "challenges", directory.Query{
		Columns: []string{"id", "title"},
		Filter:  directory.Filter{In: map[string][]interface{}{"id": ids}},
	})
	if err != nil {
		return nil, apperror.Directory("loading submission challenges", err)
	}
	byID := make(map[string]models.ChallengeSummary, len(rows))
	for _, r := range rows {
		byID[r.String("id")] = models.ChallengeSummary{ID: r.String("id"), Title: r.String("title")}
	}
	return byID, nil
}

func profileFromRow(r directory.Row) models.UserProfile {
	return models.UserProfile{
		ID:                r.String("id"),
		Username:          r.String("username"),
		FirstName:         r.String("first_name"),
		LastName:          r.String("last_name"),
		ProfilePictureURL: r.String("profile_picture_url"),
		Bio:               r.String("bio"),
		Location:          r.String("location"),
		CreatedAt:         r.Time("created_at"),
	}
}

func anyILike(term string, columns ...string) directory.Filter {
	term = strings.TrimSpace(term)
	if term == "" {
		return directory.Filter{}
	}
	like := make(map[string]string, len(columns))
	for _, c := range columns {
		like[c] = term
	}
	return directory.Filter{AnyILike: like}
}

func collect(rows []directory.Row, key string) []interface{} {
	seen := make(map[string]struct{}, len(rows))
	out := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		v := r.String(key)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
