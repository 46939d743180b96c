package social

import (
	"context"
	"testing"
	"time"

	"github.com/nvdoan/wavelink-backend/internal/directory"
)

func seedSearchData(t *testing.T, dir *directory.Memory) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	users := []directory.Row{
		{"id": "u1", "username": "dancequeen", "first_name": "Dana", "last_name": "Reyes",
			"email": "d@example.com", "phone_number": "+101", "bio": "street dance", "created_at": base},
		{"id": "u2", "username": "mike", "first_name": "Mike", "last_name": "Dancer",
			"email": "m@example.com", "phone_number": "+102", "bio": "", "created_at": base.Add(time.Hour)},
		{"id": "u3", "username": "sam", "first_name": "Sam", "last_name": "Ortiz",
			"email": "s@example.com", "phone_number": "+103", "bio": "cooking", "created_at": base.Add(2 * time.Hour)},
	}
	if _, err := dir.Insert(ctx, "users", users); err != nil {
		t.Fatalf("seeding users: %v", err)
	}

	challenges := []directory.Row{
		{"id": "c1", "title": "30 Day Dance", "description": "daily dance videos",
			"category": "dance", "created_at": base},
		{"id": "c2", "title": "Recipe Week", "description": "cook something new",
			"category": "food", "created_at": base.Add(time.Hour)},
	}
	if _, err := dir.Insert(ctx, "challenges", challenges); err != nil {
		t.Fatalf("seeding challenges: %v", err)
	}

	submissions := []directory.Row{
		{"id": "s1", "title": "my dance entry", "description": "day one", "video_url": "https://cdn/v1",
			"user_id": "u1", "challenge_id": "c1", "created_at": base},
		{"id": "s2", "title": "pasta night", "description": "dance break included", "video_url": "https://cdn/v2",
			"user_id": "u3", "challenge_id": "c2", "created_at": base.Add(time.Hour)},
	}
	if _, err := dir.Insert(ctx, "submissions", submissions); err != nil {
		t.Fatalf("seeding submissions: %v", err)
	}
}

func TestSearchUsers_MatchesAcrossFields(t *testing.T) {
	dir := directory.NewMemory()
	seedSearchData(t, dir)
	svc := NewService(dir)

	// "dance" appears in u1's username and bio, and in u2's last name.
	got, err := svc.SearchUsers(context.Background(), "dance", Page{})
	if err != nil {
		t.Fatalf("search users: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 users, got %d", len(got))
	}
	// Newest account first.
	if got[0].ID != "u2" || got[1].ID != "u1" {
		t.Fatalf("expected [u2 u1], got [%s %s]", got[0].ID, got[1].ID)
	}
}

func TestSearchUsers_CaseInsensitive(t *testing.T) {
	dir := directory.NewMemory()
	seedSearchData(t, dir)
	svc := NewService(dir)

	got, err := svc.SearchUsers(context.Background(), "DANCEQUEEN", Page{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Username != "dancequeen" {
		t.Fatalf("expected dancequeen, got %v", got)
	}
}

func TestSearchUsers_NoMatchReturnsEmptySlice(t *testing.T) {
	dir := directory.NewMemory()
	seedSearchData(t, dir)
	svc := NewService(dir)

	got, err := svc.SearchUsers(context.Background(), "zzzzzz", Page{})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("no-match result must be an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestSearchUsers_Pagination(t *testing.T) {
	dir := directory.NewMemory()
	seedSearchData(t, dir)
	svc := NewService(dir)
	ctx := context.Background()

	first, err := svc.SearchUsers(ctx, "", Page{Number: 1, Size: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 {
		t.Fatalf("page 1: expected 2 users, got %d", len(first))
	}
	if first[0].ID != "u3" {
		t.Fatalf("page 1: expected newest user u3 first, got %s", first[0].ID)
	}

	second, err := svc.SearchUsers(ctx, "", Page{Number: 2, Size: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 1 || second[0].ID != "u1" {
		t.Fatalf("page 2: expected [u1], got %v", second)
	}

	beyond, err := svc.SearchUsers(ctx, "", Page{Number: 5, Size: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(beyond) != 0 {
		t.Fatalf("past-the-end page must be empty, got %d", len(beyond))
	}
}

func TestSearchChallenges(t *testing.T) {
	dir := directory.NewMemory()
	seedSearchData(t, dir)
	svc := NewService(dir)

	got, err := svc.SearchChallenges(context.Background(), "cook", Page{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "c2" {
		t.Fatalf("expected [c2], got %v", got)
	}
	if got[0].Title != "Recipe Week" || got[0].Category != "food" {
		t.Fatalf("unexpected challenge fields: %+v", got[0])
	}
}

func TestSearchSubmissions_JoinsCreatorAndChallenge(t *testing.T) {
	dir := directory.NewMemory()
	seedSearchData(t, dir)
	svc := NewService(dir)

	got, err := svc.SearchSubmissions(context.Background(), "dance", Page{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(got))
	}
	// Newest first: s2 then s1.
	if got[0].ID != "s2" || got[1].ID != "s1" {
		t.Fatalf("expected [s2 s1], got [%s %s]", got[0].ID, got[1].ID)
	}

	entry := got[1]
	if entry.Creator.ID != "u1" || entry.Creator.Username != "dancequeen" {
		t.Fatalf("expected creator dancequeen, got %+v", entry.Creator)
	}
	if entry.Challenge.ID != "c1" || entry.Challenge.Title != "30 Day Dance" {
		t.Fatalf("expected challenge '30 Day Dance', got %+v", entry.Challenge)
	}
}

func TestSearchSubmissions_MissingJoinRowsTolerated(t *testing.T) {
	dir := directory.NewMemory()
	svc := NewService(dir)
	ctx := context.Background()

	_, err := dir.Insert(ctx, "submissions", []directory.Row{{
		"id": "orphan", "title": "lost tape", "description": "",
		"user_id": "ghost", "challenge_id": "gone",
		"created_at": time.Now().UTC(),
	}})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.SearchSubmissions(ctx, "lost", Page{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(got))
	}
	if got[0].Creator.ID != "" || got[0].Challenge.ID != "" {
		t.Fatalf("expected empty joined slices, got creator=%+v challenge=%+v",
			got[0].Creator, got[0].Challenge)
	}
}
