package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWTManagerGenerateAndValidate(t *testing.T) {
	manager := NewJWTManager(JWTConfig{
		SecretKey:           "test-secret-key",
		AccessTokenDuration: 15 * time.Minute,
		Issuer:              "test-issuer",
	})

	userID := uuid.New()

	token, err := manager.GenerateAccessToken(userID)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateAccessToken() returned empty token")
	}

	got, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if got != userID {
		t.Errorf("ValidateAccessToken() = %v, want %v", got, userID)
	}
}

func TestJWTManagerInvalidToken(t *testing.T) {
	manager := NewJWTManager(JWTConfig{SecretKey: "test-secret-key"})

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"random string", "not.a.valid.token"},
		{"malformed jwt", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.ValidateAccessToken(tt.token); err == nil {
				t.Error("ValidateAccessToken() should return error for invalid token")
			}
		})
	}
}

func TestJWTManagerWrongSecretKey(t *testing.T) {
	manager1 := NewJWTManager(JWTConfig{SecretKey: "secret-key-1"})
	manager2 := NewJWTManager(JWTConfig{SecretKey: "secret-key-2"})

	token, err := manager1.GenerateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := manager2.ValidateAccessToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken with different secret, got %v", err)
	}
}

func TestJWTManagerExpiredToken(t *testing.T) {
	manager := NewJWTManager(JWTConfig{
		SecretKey:           "test-secret-key",
		AccessTokenDuration: 1 * time.Millisecond,
	})

	token, err := manager.GenerateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := manager.ValidateAccessToken(token); err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}
