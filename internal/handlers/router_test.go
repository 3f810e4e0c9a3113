package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clinote/clinote-backend/internal/auth"
	"github.com/clinote/clinote-backend/internal/config"
	"github.com/clinote/clinote-backend/internal/middleware"
	"github.com/clinote/clinote-backend/internal/models"
	"github.com/clinote/clinote-backend/internal/repository"
	"github.com/clinote/clinote-backend/internal/services"
	"gorm.io/datatypes"
)

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, transcript string, visitType models.VisitType) (datatypes.JSON, error) {
	return datatypes.JSON(`{"mainProblem":"stub"}`), nil
}

func newTestServer(t *testing.T) (*httptest.Server, repository.Store) {
	t.Helper()

	cfg := &config.Config{
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
	}

	store := repository.NewMemoryStore()
	tokens, err := auth.NewTokenManager("test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	router := NewRouter(cfg, RouterDeps{
		Auth:       NewAuthHandler(services.NewAuthService(store, tokens)),
		Encounters: NewEncounterHandler(services.NewEncounterService(store)),
		AI:         NewAIHandler(services.NewNoteService(stubGenerator{}, nil, 0)),
		Health:     NewHealthHandler(store),
		Authn:      middleware.NewAuthenticator(tokens, store.Users()),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, store
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func registerAndLogin(t *testing.T, server *httptest.Server, email string) string {
	t.Helper()

	resp := doJSON(t, http.MethodPost, server.URL+"/auth/register", "", models.RegisterRequest{
		Email:    email,
		Name:     "Dr. Test",
		Password: "correct-horse",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/auth/login", "", models.LoginRequest{
		Email:    email,
		Password: "correct-horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	token := decode[models.TokenResponse](t, resp)
	if token.AccessToken == "" || token.TokenType != "bearer" {
		t.Fatalf("unexpected token response: %+v", token)
	}
	return token.AccessToken
}

func TestAuthFlow(t *testing.T) {
	server, _ := newTestServer(t)
	token := registerAndLogin(t, server, "alice@example.com")

	resp := doJSON(t, http.MethodGet, server.URL+"/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: status %d", resp.StatusCode)
	}
	me := decode[models.User](t, resp)
	if me.Email != "alice@example.com" {
		t.Errorf("me email = %s", me.Email)
	}

	// The password hash must never appear in a response body.
	if me.PasswordHash != "" {
		t.Error("password hash echoed to caller")
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/auth/login", "", models.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad login: status %d, want 401", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Error("bad login missing WWW-Authenticate header")
	}
}

func TestGuardRejectsWithoutToken(t *testing.T) {
	server, _ := newTestServer(t)

	for _, route := range []struct {
		method, path string
	}{
		{http.MethodGet, "/auth/me"},
		{http.MethodGet, "/encounters/"},
		{http.MethodPost, "/encounters/"},
		{http.MethodPost, "/ai/generate-note"},
	} {
		resp := doJSON(t, route.method, server.URL+route.path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status %d, want 401", route.method, route.path, resp.StatusCode)
		}
	}

	resp := doJSON(t, http.MethodGet, server.URL+"/encounters/", "not-a-real-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("garbage token: status %d, want 401", resp.StatusCode)
	}
}

func TestEncounterLifecycleOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	token := registerAndLogin(t, server, "alice@example.com")
	base := server.URL + "/encounters/"

	resp := doJSON(t, http.MethodPost, base, token, models.CreateEncounterRequest{
		Encounter: models.EncounterDetails{
			PatientName: "John Doe",
			PatientID:   "MRN-001",
			VisitType:   "Initial Consultation",
			Date:        "2026-08-12T09:30:00Z",
		},
		Transcript: "Patient presents with acute lower back pain.",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	created := decode[models.CreateEncounterResponse](t, resp)
	encURL := base + created.EncounterID.String()

	transcript := "Amended transcript after review."
	resp = doJSON(t, http.MethodPut, encURL, token, models.UpdateEncounterRequest{Transcript: &transcript})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, encURL+"/sign", token, models.SignNoteRequest{SignedBy: "Dr. Alice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign: status %d", resp.StatusCode)
	}
	signed := decode[models.SignNoteResponse](t, resp)
	if signed.Status != "SIGNED" || signed.SignedAt.IsZero() {
		t.Errorf("sign response = %+v", signed)
	}

	// Locked now.
	resp = doJSON(t, http.MethodPut, encURL, token, models.UpdateEncounterRequest{Transcript: &transcript})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("update after sign: status %d, want 400", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodDelete, encURL, token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("delete after sign: status %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, encURL+"/export", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: status %d", resp.StatusCode)
	}
	exported := decode[models.Encounter](t, resp)
	if exported.Status != models.StatusExported {
		t.Errorf("exported status = %s", exported.Status)
	}

	resp = doJSON(t, http.MethodGet, encURL+"/audit", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audit: status %d", resp.StatusCode)
	}
	trail := decode[[]models.AuditLog](t, resp)
	want := []models.AuditAction{models.ActionCreated, models.ActionUpdated, models.ActionSigned, models.ActionExported}
	if len(trail) != len(want) {
		t.Fatalf("audit trail has %d entries, want %d", len(trail), len(want))
	}
	for i, entry := range trail {
		if entry.Action != want[i] {
			t.Errorf("audit[%d] = %s, want %s", i, entry.Action, want[i])
		}
	}

	resp = doJSON(t, http.MethodGet, base+"?skip=0&limit=10", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	list := decode[[]models.Encounter](t, resp)
	if len(list) != 1 {
		t.Errorf("listed %d encounters, want 1", len(list))
	}
}

func TestForeignEncounterForbidden(t *testing.T) {
	server, _ := newTestServer(t)
	owner := registerAndLogin(t, server, "alice@example.com")
	intruder := registerAndLogin(t, server, "mallory@example.com")

	resp := doJSON(t, http.MethodPost, server.URL+"/encounters/", owner, models.CreateEncounterRequest{
		Encounter: models.EncounterDetails{
			PatientName: "John Doe",
			PatientID:   "MRN-001",
			VisitType:   "Follow-up",
			Date:        "2026-08-12",
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	created := decode[models.CreateEncounterResponse](t, resp)
	encURL := fmt.Sprintf("%s/encounters/%s", server.URL, created.EncounterID)

	resp = doJSON(t, http.MethodGet, encURL, intruder, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign get: status %d, want 403", resp.StatusCode)
	}

	// Foreign users never appear in each other's listings.
	resp = doJSON(t, http.MethodGet, server.URL+"/encounters/", intruder, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	list := decode[[]models.Encounter](t, resp)
	if len(list) != 0 {
		t.Errorf("intruder sees %d encounters, want 0", len(list))
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/encounters/not-a-uuid", owner, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed id: status %d, want 400", resp.StatusCode)
	}
}

func TestGenerateNoteOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	token := registerAndLogin(t, server, "alice@example.com")

	resp := doJSON(t, http.MethodPost, server.URL+"/ai/generate-note", token, models.GenerateNoteRequest{
		Transcript: "Patient presents with acute lower back pain.",
		VisitType:  "Initial Consultation",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate-note: status %d", resp.StatusCode)
	}
	note := decode[models.GenerateNoteResponse](t, resp)
	if !note.Success || len(note.Data) == 0 {
		t.Errorf("generate-note response = %+v", note)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/ai/generate-note", token, models.GenerateNoteRequest{
		Transcript: "short",
		VisitType:  "Initial Consultation",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("short transcript: status %d, want 400", resp.StatusCode)
	}
}

func TestHealthEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health: status %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, server.URL+"/ready", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready: status %d", resp.StatusCode)
	}
}
