package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/nvdoan/wavelink-backend/internal/directory"
	"github.com/nvdoan/wavelink-backend/internal/token"
	"github.com/nvdoan/wavelink-backend/pkg/call"
)

// setup wires the handler package to an in-memory directory and stubbed
// sessions. sessions maps token -> userID.
func setup(t *testing.T, sessions map[string]string) *directory.Memory {
	t.Helper()

	mem := directory.NewMemory()
	issuer, err := token.NewIssuer("unit-test-secret-0123456789")
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	Init(mem, issuer)

	origValidate, origCreate, origInvalidate := validateSession, createSession, invalidateSession
	t.Cleanup(func() {
		validateSession, createSession, invalidateSession = origValidate, origCreate, origInvalidate
	})

	validateSession = func(tok string) (string, bool, error) {
		id, ok := sessions[tok]
		return id, ok, nil
	}
	createSession = func(userID string) (string, error) {
		tok := "session-" + userID
		sessions[tok] = userID
		return tok, nil
	}
	invalidateSession = func(tok string) error {
		delete(sessions, tok)
		return nil
	}

	return mem
}

func testRouter() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/auth/signup", Signup)
	r.Post("/api/auth/login", Login)
	r.Get("/api/auth/current-user", CurrentUser)
	r.Get("/api/auth/users", SearchUsersHandler)
	r.Post("/api/auth/users/{id}/follow", FollowUser)
	r.Get("/api/auth/users/{id}/followers", ListFollowers)
	r.Get("/api/auth/users/{id}/friends", ListFriends)
	r.Get("/api/challenges", ListChallenges)
	r.Post("/api/challenges/{id}/join", JoinChallengeHandler)
	r.Get("/api/submissions", ListSubmissions)
	r.Post("/api/submissions/{id}/like", LikeSubmission)
	r.Get("/api/submissions/{id}/likes", GetSubmissionLikes)
	r.Post("/api/contacts/sync", SyncContacts)
	r.Post("/api/contacts/block", BlockContact)
	r.Get("/api/media/{id}", GetMedia)
	r.Get("/api/token", CallToken)
	r.Get("/api/call/config", CallConfig)
	r.Get("/api/health", Health)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return out
}

func seedUserRow(t *testing.T, mem *directory.Memory, id, username, email, phone string) {
	t.Helper()
	_, err := mem.Insert(context.Background(), "users", []directory.Row{{
		"id":                 id,
		"username":           username,
		"email":              email,
		"phone_number":       phone,
		"password_hash":      "",
		"coins":              0,
		"total_coins_earned": 0,
	}})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestSignup_CreatesUserAndSession(t *testing.T) {
	sessions := map[string]string{}
	mem := setup(t, sessions)
	router := testRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", SignupRequest{
		Username:    "dana",
		FirstName:   "Dana",
		LastName:    "Reyes",
		Email:       "dana@example.com",
		PhoneNumber: "+1 (555) 010-2030",
		Password:    "s3cret-pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d body %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	if resp["token"] == "" {
		t.Fatal("expected a session token")
	}
	if n := mem.Count("users", directory.Filter{}); n != 1 {
		t.Fatalf("expected 1 user row, got %d", n)
	}

	user := resp["user"].(map[string]interface{})
	if user["phone_number"] != "+15550102030" {
		t.Fatalf("phone not normalized: %v", user["phone_number"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatal("password hash leaked in response")
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	mem := setup(t, map[string]string{})
	router := testRouter()
	seedUserRow(t, mem, "u1", "taken", "dana@example.com", "+15550100001")

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", SignupRequest{
		Username:    "newname",
		Email:       "dana@example.com",
		PhoneNumber: "+15550100002",
		Password:    "pw-123456",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if n := mem.Count("users", directory.Filter{}); n != 1 {
		t.Fatalf("conflict must not insert, got %d rows", n)
	}
}

func TestSignup_InvalidUsername(t *testing.T) {
	setup(t, map[string]string{})
	router := testRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", SignupRequest{
		Username:    "a",
		Email:       "a@example.com",
		PhoneNumber: "+15550100003",
		Password:    "pw-123456",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp["error"] == "" {
		t.Fatal("expected error field in body")
	}
}

func TestSignup_ReferralAppliedNonFatally(t *testing.T) {
	mem := setup(t, map[string]string{})
	router := testRouter()
	seedUserRow(t, mem, "referrer-1", "alice", "alice@example.com", "+15550100004")

	// Unknown code: signup still succeeds, reward skipped.
	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", SignupRequest{
		Username: "bob", Email: "bob@example.com", PhoneNumber: "+15550100005",
		Password: "pw-123456", ReferralCode: "does-not-exist",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup with bad code failed: %d", rec.Code)
	}
	if decodeResponse(t, rec)["referral_applied"] == true {
		t.Fatal("bad code must not apply a reward")
	}

	// Valid code: both sides credited.
	rec = doJSON(t, router, http.MethodPost, "/api/auth/signup", "", SignupRequest{
		Username: "carol", Email: "carol@example.com", PhoneNumber: "+15550100006",
		Password: "pw-123456", ReferralCode: "referrer-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup with valid code failed: %d", rec.Code)
	}
	if decodeResponse(t, rec)["referral_applied"] != true {
		t.Fatal("valid code was not applied")
	}
	if n := mem.Count("referrals", directory.Filter{}); n != 1 {
		t.Fatalf("expected 1 ledger row, got %d", n)
	}
}

func TestLogin_EmailPassword(t *testing.T) {
	sessions := map[string]string{}
	setup(t, sessions)
	router := testRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", SignupRequest{
		Username: "dana", Email: "dana@example.com", PhoneNumber: "+15550102030",
		Password: "s3cret-pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "dana@example.com", Password: "s3cret-pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "dana@example.com", Password: "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}
}

func TestLogin_Phone(t *testing.T) {
	mem := setup(t, map[string]string{})
	router := testRouter()
	seedUserRow(t, mem, "u1", "dana", "dana@example.com", "+15550102030")

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", "", LoginRequest{
		PhoneNumber: "+1 555 010 2030",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("phone login = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", LoginRequest{
		PhoneNumber: "+19999999999",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown phone: expected 401, got %d", rec.Code)
	}
}

func TestFollow_Endpoint(t *testing.T) {
	mem := setup(t, map[string]string{"tok-1": "u1"})
	router := testRouter()
	seedUserRow(t, mem, "u1", "alice", "a@example.com", "+15550100010")
	seedUserRow(t, mem, "u2", "bob", "b@example.com", "+15550100011")

	// No session: 401.
	rec := doJSON(t, router, http.MethodPost, "/api/auth/users/u2/follow", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated follow: %d", rec.Code)
	}

	// Follow self: 400.
	rec = doJSON(t, router, http.MethodPost, "/api/auth/users/u1/follow", "tok-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self follow: %d", rec.Code)
	}

	// Valid follow: 200.
	rec = doJSON(t, router, http.MethodPost, "/api/auth/users/u2/follow", "tok-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("follow: %d body %s", rec.Code, rec.Body.String())
	}

	// Duplicate: 200 informational, still one edge.
	rec = doJSON(t, router, http.MethodPost, "/api/auth/users/u2/follow", "tok-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate follow: %d", rec.Code)
	}
	if decodeResponse(t, rec)["already_exists"] != true {
		t.Fatal("duplicate follow must report already_exists")
	}

	rec = doJSON(t, router, http.MethodGet, "/api/auth/users/u2/followers", "", nil)
	followers := decodeResponse(t, rec)["followers"].([]interface{})
	if len(followers) != 1 || followers[0] != "u1" {
		t.Fatalf("followers = %v", followers)
	}
}

func TestJoinChallenge_Endpoint(t *testing.T) {
	setup(t, map[string]string{"tok-1": "u1"})
	router := testRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/challenges/c1/join", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated join: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/challenges/c1/join", "tok-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("join: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/challenges/c1/join", "tok-1", nil)
	if decodeResponse(t, rec)["already_exists"] != true {
		t.Fatal("second join must report already_exists")
	}
}

func TestLikeSubmission_Endpoint(t *testing.T) {
	setup(t, map[string]string{"tok-1": "u1", "tok-2": "u2"})
	router := testRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/submissions/sub1/like", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated like: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/submissions/sub1/like", "tok-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("like: %d", rec.Code)
	}
	if got := decodeResponse(t, rec)["likes"]; got != float64(1) {
		t.Fatalf("expected 1 like, got %v", got)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/submissions/sub1/like", "tok-1", nil)
	if decodeResponse(t, rec)["already_exists"] != true {
		t.Fatal("second like must report already_exists")
	}

	rec = doJSON(t, router, http.MethodGet, "/api/submissions/sub1/likes", "tok-2", nil)
	body := decodeResponse(t, rec)
	if body["likes"] != float64(1) || body["liked"] != false {
		t.Fatalf("expected likes=1 liked=false for non-liker, got %v", body)
	}
}

func TestSearchUsers_Endpoint(t *testing.T) {
	mem := setup(t, map[string]string{})
	router := testRouter()
	seedUserRow(t, mem, "u1", "dancequeen", "d@example.com", "+15550100020")

	rec := doJSON(t, router, http.MethodGet, "/api/auth/users?q=dance", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: %d", rec.Code)
	}
	users := decodeResponse(t, rec)["users"].([]interface{})
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}

	rec = doJSON(t, router, http.MethodGet, "/api/auth/users?q=zzz", "", nil)
	users = decodeResponse(t, rec)["users"].([]interface{})
	if len(users) != 0 {
		t.Fatalf("expected empty result, got %v", users)
	}
}

func TestContacts_SyncAndBlock(t *testing.T) {
	mem := setup(t, map[string]string{"tok-1": "u1"})
	router := testRouter()
	seedUserRow(t, mem, "u1", "me", "me@example.com", "+15550100030")
	seedUserRow(t, mem, "u2", "friend", "f@example.com", "+15550100031")
	seedUserRow(t, mem, "u3", "spam", "s@example.com", "+15550100032")

	rec := doJSON(t, router, http.MethodPost, "/api/contacts/sync", "tok-1", SyncContactsRequest{
		PhoneNumbers: []string{"+1 555 010 0031", "+15550100032", "+15550109999"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("sync: %d body %s", rec.Code, rec.Body.String())
	}
	contacts := decodeResponse(t, rec)["contacts"].([]interface{})
	if len(contacts) != 2 {
		t.Fatalf("expected 2 matched contacts, got %d", len(contacts))
	}

	rec = doJSON(t, router, http.MethodPost, "/api/contacts/block", "tok-1", BlockContactRequest{
		PhoneNumber: "+15550100032",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("block: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/contacts/sync", "tok-1", SyncContactsRequest{
		PhoneNumbers: []string{"+15550100031", "+15550100032"},
	})
	contacts = decodeResponse(t, rec)["contacts"].([]interface{})
	if len(contacts) != 1 {
		t.Fatalf("blocked contact still returned: %v", contacts)
	}
}

func TestGetMedia_NotFound(t *testing.T) {
	setup(t, map[string]string{})
	router := testRouter()

	rec := doJSON(t, router, http.MethodGet, "/api/media/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if decodeResponse(t, rec)["error"] == "" {
		t.Fatal("expected error body")
	}
}

func TestCallToken_Endpoint(t *testing.T) {
	setup(t, map[string]string{})
	router := testRouter()

	rec := doJSON(t, router, http.MethodGet, "/api/token?userID=u1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("token: %d", rec.Code)
	}
	if decodeResponse(t, rec)["token"] == "" {
		t.Fatal("expected token in body")
	}

	rec = doJSON(t, router, http.MethodGet, "/api/token", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing userID: expected 400, got %d", rec.Code)
	}
}

func TestCallConfig_Endpoint(t *testing.T) {
	setup(t, map[string]string{})
	router := testRouter()

	orig := engineConfig
	t.Cleanup(func() { SetEngineConfig(orig) })

	SetEngineConfig(call.EngineConfig{})
	rec := doJSON(t, router, http.MethodGet, "/api/call/config", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unconfigured binding: expected 503, got %d", rec.Code)
	}

	SetEngineConfig(call.EngineConfig{Binding: "room", AppID: "app-1", ServerSecret: "super-secret"})
	rec = doJSON(t, router, http.MethodGet, "/api/call/config", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("call config: %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	if body["binding"] != "room" || body["public_id"] != "app-1" {
		t.Fatalf("unexpected body: %v", body)
	}
	if strings.Contains(rec.Body.String(), "super-secret") {
		t.Fatal("server secret leaked in call config response")
	}
}

func TestHealth(t *testing.T) {
	setup(t, map[string]string{})
	router := testRouter()

	rec := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	if decodeResponse(t, rec)["status"] != "ok" {
		t.Fatal("expected status ok")
	}
}
