package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndVerifyRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateAccessToken(userID, "secret", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := VerifyToken(token, "secret")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(uuid.New(), "secret", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := VerifyToken(token, "other-secret"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, err := GenerateAccessToken(uuid.New(), "secret", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := VerifyToken(token, "secret"); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := VerifyToken("not-a-token", "secret"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
