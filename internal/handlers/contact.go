package handlers

import (
	"net/http"
	"strings"

	"github.com/lib/pq"

	"github.com/nvdoan/wavelink-backend/internal/directory"
	"github.com/nvdoan/wavelink-backend/internal/models"
	"github.com/nvdoan/wavelink-backend/pkg/utils"
)

type SyncContactsRequest struct {
	PhoneNumbers []string `json:"phone_numbers"`
}

// SyncContacts is POST /api/contacts/sync: given the device's address book
// numbers, return which of them are Wavelink users. Numbers the caller has
// blocked are filtered out of the result.
func SyncContacts(w http.ResponseWriter, r *http.Request) {
	actorID := authenticatedUser(r)
	if actorID == "" {
		writeError(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var req SyncContactsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.PhoneNumbers) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"contacts": []models.UserProfile{}})
		return
	}

	normalized := make([]interface{}, 0, len(req.PhoneNumbers))
	for _, p := range req.PhoneNumbers {
		if n := utils.NormalizePhone(p); n != "" {
			normalized = append(normalized, n)
		}
	}

	blocked, err := blockedContacts(r, actorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := dir.Select(r.Context(), "users", directory.Query{
		Filter:  directory.Filter{In: map[string][]interface{}{"phone_number": normalized}},
		OrderBy: "username",
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	contacts := []models.UserProfile{}
	for _, row := range rows {
		if row.String("id") == actorID {
			continue
		}
		if _, isBlocked := blocked[row.String("phone_number")]; isBlocked {
			continue
		}
		contacts = append(contacts, models.UserProfile{
			ID:                row.String("id"),
			Username:          row.String("username"),
			FirstName:         row.String("first_name"),
			LastName:          row.String("last_name"),
			ProfilePictureURL: row.String("profile_picture_url"),
			CreatedAt:         row.Time("created_at"),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"contacts": contacts})
}

type BlockContactRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// BlockContact is POST /api/contacts/block: adds the number to the
// caller's blocked list. Blocking an already blocked number is a no-op.
func BlockContact(w http.ResponseWriter, r *http.Request) {
	actorID := authenticatedUser(r)
	if actorID == "" {
		writeError(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var req BlockContactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	number := utils.NormalizePhone(req.PhoneNumber)
	if number == "" {
		writeError(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	blocked, err := blockedContacts(r, actorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if _, already := blocked[number]; already {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Contact already blocked"})
		return
	}

	list := make([]string, 0, len(blocked)+1)
	for n := range blocked {
		list = append(list, n)
	}
	list = append(list, number)

	_, err = dir.Update(r.Context(), "users",
		directory.Row{"blocked_contacts": pq.Array(list)},
		directory.Filter{Eq: map[string]interface{}{"id": actorID}},
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to block contact")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Contact blocked"})
}

// blockedContacts loads the caller's block list as a set of phone numbers.
func blockedContacts(r *http.Request, userID string) (map[string]struct{}, error) {
	rows, err := dir.Select(r.Context(), "users", directory.Query{
		Columns: []string{"blocked_contacts"},
		Filter:  directory.Filter{Eq: map[string]interface{}{"id": userID}},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{})
	if len(rows) == 0 {
		return set, nil
	}
	for _, n := range stringList(rows[0]["blocked_contacts"]) {
		set[n] = struct{}{}
	}
	return set, nil
}

// stringList tolerates the shapes a text[] column comes back in: a Go
// slice from the memory store, or the {a,b,c} literal from the driver.
func stringList(v interface{}) []string {
	switch val := v.(type) {
	case []string:
		return val
	case pq.StringArray:
		return val
	case *pq.StringArray:
		return *val
	case string:
		trimmed := strings.Trim(val, "{}")
		if trimmed == "" {
			return nil
		}
		parts := strings.Split(trimmed, ",")
		for i := range parts {
			parts[i] = strings.Trim(strings.TrimSpace(parts[i]), `"`)
		}
		return parts
	}
	return nil
}
