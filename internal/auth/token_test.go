package auth

import (
	"errors"
	"testing"
	"time"
)

var secret = []byte("test-secret")

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken(secret, "user1", "Sanjay Sharma", "Admin", "", "jti-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "user1" || claims.Name != "Sanjay Sharma" || claims.Role != "Admin" || claims.ID != "jti-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.ClientID != "" {
		t.Errorf("expected empty clientId, got %q", claims.ClientID)
	}
}

func TestParseTokenCarriesClientID(t *testing.T) {
	token, err := IssueToken(secret, "user4", "John Doe", "Client", "cli1", "jti-2", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.ClientID != "cli1" {
		t.Errorf("clientId = %q, want cli1", claims.ClientID)
	}
}

func TestParseExpiredToken(t *testing.T) {
	token, err := IssueToken(secret, "user1", "Sanjay Sharma", "Admin", "", "jti-3", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken(secret, token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParseTamperedToken(t *testing.T) {
	token, err := IssueToken(secret, "user1", "Sanjay Sharma", "Admin", "", "jti-4", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken([]byte("other-secret"), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := ParseToken(secret, token+"x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}
