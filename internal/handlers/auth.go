package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nvdoan/wavelink-backend/internal/directory"
	"github.com/nvdoan/wavelink-backend/internal/models"
	"github.com/nvdoan/wavelink-backend/internal/social"
	"github.com/nvdoan/wavelink-backend/pkg/utils"
)

type SignupRequest struct {
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type LoginRequest struct {
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password,omitempty"`
}

type AuthResponse struct {
	Message         string       `json:"message"`
	User            *models.User `json:"user,omitempty"`
	Token           string       `json:"token,omitempty"`
	ReferralApplied bool         `json:"referral_applied,omitempty"`
}

// Signup handles account creation. A referral code is applied best-effort:
// an invalid code never fails the signup, only the reward is skipped.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Username = utils.NormalizeUsername(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.PhoneNumber = utils.NormalizePhone(req.PhoneNumber)

	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}
	if err := utils.ValidateUsername(req.Username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidatePhone(req.PhoneNumber); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	now := time.Now().UTC()
	userID := uuid.New().String()
	_, err = dir.Insert(r.Context(), "users", []directory.Row{{
		"id":                 userID,
		"username":           req.Username,
		"first_name":         req.FirstName,
		"last_name":          req.LastName,
		"email":              req.Email,
		"phone_number":       req.PhoneNumber,
		"password_hash":      hashed,
		"coins":              0,
		"total_coins_earned": 0,
		"created_at":         now,
		"updated_at":         now,
	}})
	if err != nil {
		if directory.IsConflict(err) {
			writeError(w, http.StatusConflict, "A user with this username, email or phone number already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	// Referral problems must never block account creation.
	referralApplied := false
	if req.ReferralCode != "" {
		applied, refErr := socialService.ApplyReferral(r.Context(), req.ReferralCode, userID)
		if refErr != nil {
			log.Printf("referral for new user %s not applied: %v", userID, refErr)
		}
		referralApplied = applied
	}

	sessionToken, err := createSession(userID)
	if err != nil {
		log.Printf("failed to create session for %s: %v", userID, err)
	}

	user := &models.User{
		ID:          userID,
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message:         "Account created successfully",
		User:            user,
		Token:           sessionToken,
		ReferralApplied: referralApplied,
	})
}

// Login authenticates either by phone number (the mobile client verifies
// the number with the SMS provider first) or by email plus password.
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var row directory.Row
	switch {
	case req.PhoneNumber != "":
		found, err := findUserBy(r, "phone_number", utils.NormalizePhone(req.PhoneNumber))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if found == nil {
			writeError(w, http.StatusUnauthorized, "No account found for this phone number")
			return
		}
		row = found

	case req.Email != "" && req.Password != "":
		found, err := findUserBy(r, "email", strings.TrimSpace(strings.ToLower(req.Email)))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if found == nil {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		valid, err := utils.VerifyPassword(req.Password, found.String("password_hash"))
		if err != nil || !valid {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		row = found

	default:
		writeError(w, http.StatusBadRequest, "Provide a phone number, or an email and password")
		return
	}

	user := userFromRow(row)
	sessionToken, err := createSession(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		User:    &user,
		Token:   sessionToken,
	})
}

// Logout invalidates the session and clears the caller's derived social
// views.
func Logout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token != "" {
		if err := invalidateSession(token); err != nil {
			log.Printf("failed to invalidate session: %v", err)
		}
	}
	socialService.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// CurrentUser looks a user up by ?email= or ?phone=, falling back to the
// session when neither is given.
func CurrentUser(w http.ResponseWriter, r *http.Request) {
	var (
		row directory.Row
		err error
	)

	switch {
	case r.URL.Query().Get("email") != "":
		row, err = findUserBy(r, "email", strings.TrimSpace(strings.ToLower(r.URL.Query().Get("email"))))
	case r.URL.Query().Get("phone") != "":
		row, err = findUserBy(r, "phone_number", utils.NormalizePhone(r.URL.Query().Get("phone")))
	default:
		userID := authenticatedUser(r)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "Not signed in")
			return
		}
		row, err = findUserBy(r, "id", userID)
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	user := userFromRow(row)
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// SearchUsersHandler is GET /api/auth/users?q=&page=&limit=.
func SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	page := social.Page{
		Number: queryInt(r, "page"),
		Size:   queryInt(r, "limit"),
	}
	results, err := socialService.SearchUsers(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": results})
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func findUserBy(r *http.Request, column, value string) (directory.Row, error) {
	rows, err := dir.Select(r.Context(), "users", directory.Query{
		Filter: directory.Filter{Eq: map[string]interface{}{column: value}},
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func userFromRow(row directory.Row) models.User {
	return models.User{
		ID:                row.String("id"),
		Username:          row.String("username"),
		FirstName:         row.String("first_name"),
		LastName:          row.String("last_name"),
		Email:             row.String("email"),
		PhoneNumber:       row.String("phone_number"),
		ProfilePictureURL: row.String("profile_picture_url"),
		Bio:               row.String("bio"),
		Location:          row.String("location"),
		Coins:             row.Int("coins"),
		TotalCoinsEarned:  row.Int("total_coins_earned"),
		CreatedAt:         row.Time("created_at"),
		UpdatedAt:         row.Time("updated_at"),
	}
}
