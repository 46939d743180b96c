package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// FollowUser is POST /api/auth/users/{id}/follow. The actor comes from the
// session; the target from the URL.
func FollowUser(w http.ResponseWriter, r *http.Request) {
	actorID := authenticatedUser(r)
	targetID := chi.URLParam(r, "id")

	if err := socialService.Follow(r.Context(), actorID, targetID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Now following"})
}

// ListFollowers is GET /api/auth/users/{id}/followers.
func ListFollowers(w http.ResponseWriter, r *http.Request) {
	ids, err := socialService.Followers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"followers": ids})
}

// ListFollowing is GET /api/auth/users/{id}/following.
func ListFollowing(w http.ResponseWriter, r *http.Request) {
	ids, err := socialService.Following(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"following": ids})
}

// ListFriends is GET /api/auth/users/{id}/friends: the mutual-follow view.
func ListFriends(w http.ResponseWriter, r *http.Request) {
	ids, err := socialService.Friends(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"friends": ids})
}
