package services_test

import (
	"testing"

	"casedrop-backend/internal/config"
	"casedrop-backend/internal/services"
)

func TestJWTRoundtrip(t *testing.T) {
	svc := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})

	token, err := svc.GenerateToken(123456789)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.PlayerID != 123456789 {
		t.Errorf("Expected player ID 123456789, got %d", claims.PlayerID)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := services.NewJWTService(&config.Config{JWTSecret: "secret-a"})
	verifier := services.NewJWTService(&config.Config{JWTSecret: "secret-b"})

	token, err := issuer.GenerateToken(1)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("Token signed with a different secret should be rejected")
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	svc := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})
	if _, err := svc.ValidateToken("not-a-token"); err == nil {
		t.Error("Malformed token should be rejected")
	}
}
