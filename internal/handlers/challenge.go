package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nvdoan/wavelink-backend/internal/directory"
	"github.com/nvdoan/wavelink-backend/internal/social"
)

// ListChallenges is GET /api/challenges?q=&page=&limit=. Without a query
// it returns the newest challenges.
func ListChallenges(w http.ResponseWriter, r *http.Request) {
	page := social.Page{Number: queryInt(r, "page"), Size: queryInt(r, "limit")}
	results, err := socialService.SearchChallenges(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"challenges": results})
}

// JoinChallengeHandler is POST /api/challenges/{id}/join.
func JoinChallengeHandler(w http.ResponseWriter, r *http.Request) {
	actorID := authenticatedUser(r)
	challengeID := chi.URLParam(r, "id")

	if err := socialService.JoinChallenge(r.Context(), actorID, challengeID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Challenge joined"})
}

// ListJoinedChallenges is GET /api/challenges/joined for the signed-in user.
func ListJoinedChallenges(w http.ResponseWriter, r *http.Request) {
	actorID := authenticatedUser(r)
	if actorID == "" {
		writeError(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	ids, err := socialService.JoinedChallenges(r.Context(), actorID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"challenge_ids": ids})
}

// ListSubmissions is GET /api/submissions?q=&page=&limit= with creator and
// challenge joined in.
func ListSubmissions(w http.ResponseWriter, r *http.Request) {
	page := social.Page{Number: queryInt(r, "page"), Size: queryInt(r, "limit")}
	results, err := socialService.SearchSubmissions(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"submissions": results})
}

type CreateSubmissionRequest struct {
	ChallengeID string `json:"challenge_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
}

// CreateSubmission is POST /api/submissions: a challenge entry, typically
// with a video uploaded through /api/media/upload first.
func CreateSubmission(w http.ResponseWriter, r *http.Request) {
	actorID := authenticatedUser(r)
	if actorID == "" {
		writeError(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var req CreateSubmissionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ChallengeID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "challenge_id and title are required")
		return
	}

	row := directory.Row{
		"id":           uuid.New().String(),
		"user_id":      actorID,
		"challenge_id": req.ChallengeID,
		"title":        req.Title,
		"description":  req.Description,
		"video_url":    req.VideoURL,
		"created_at":   time.Now().UTC(),
	}
	inserted, err := dir.Insert(r.Context(), "submissions", []directory.Row{row})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create submission")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Submission created",
		"submission": inserted[0],
	})
}

// LikeSubmission is POST /api/submissions/{id}/like. Liking twice reports
// already-liked with the current count, matching the join/follow behavior.
func LikeSubmission(w http.ResponseWriter, r *http.Request) {
	actorID := authenticatedUser(r)
	targetID := chi.URLParam(r, "id")

	if err := socialService.Like(r.Context(), actorID, targetID); err != nil {
		writeAppError(w, err)
		return
	}
	count, _, err := socialService.LikeStatus(r.Context(), actorID, targetID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Liked", "likes": count})
}

// GetSubmissionLikes is GET /api/submissions/{id}/likes. The liked flag
// reflects the caller when a session token is presented.
func GetSubmissionLikes(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")

	count, liked, err := socialService.LikeStatus(r.Context(), authenticatedUser(r), targetID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"likes": count, "liked": liked})
}
