package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func newTestManager(t *testing.T, secret string, ttl time.Duration) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(secret, "HS256", ttl)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	return m
}

func TestIssueAndVerifyRoundtrip(t *testing.T) {
	m := newTestManager(t, "test-secret", 30*time.Minute)
	subjectID := uuid.New()

	token, err := m.Issue(subjectID, "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.SubjectID != subjectID {
		t.Errorf("subject = %s, want %s", claims.SubjectID, subjectID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("email = %s, want alice@example.com", claims.Email)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	m := newTestManager(t, "test-secret", time.Nanosecond)

	token, err := m.Issue(uuid.New(), "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := m.Verify(token); err != ErrInvalidToken {
		t.Errorf("expired token: got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := newTestManager(t, "secret-one", 30*time.Minute)
	verifier := newTestManager(t, "secret-two", 30*time.Minute)

	token, err := issuer.Issue(uuid.New(), "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := verifier.Verify(token); err != ErrInvalidToken {
		t.Errorf("foreign-secret token: got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	m := newTestManager(t, "test-secret", 30*time.Minute)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(token); err != ErrInvalidToken {
			t.Errorf("Verify(%q): got %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestVerifyRejectsMissingClaims(t *testing.T) {
	m := newTestManager(t, "test-secret", 30*time.Minute)

	// Well-signed token without the email claim.
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := raw.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := m.Verify(token); err != ErrInvalidToken {
		t.Errorf("token without email claim: got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsForeignAlgorithm(t *testing.T) {
	m := newTestManager(t, "test-secret", 30*time.Minute)

	raw := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := raw.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := m.Verify(token); err != ErrInvalidToken {
		t.Errorf("HS512 token against HS256 manager: got %v, want ErrInvalidToken", err)
	}
}

func TestNewTokenManagerValidation(t *testing.T) {
	if _, err := NewTokenManager("", "HS256", time.Minute); err == nil {
		t.Error("empty secret accepted")
	}
	if _, err := NewTokenManager("secret", "RS256", time.Minute); err == nil {
		t.Error("asymmetric algorithm accepted")
	}
	if _, err := NewTokenManager("secret", "HS256", 0); err == nil {
		t.Error("zero ttl accepted")
	}
}
