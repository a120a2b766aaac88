package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewTokenService(t *testing.T) {
	secret := "test-secret"
	tokenTTL := time.Hour

	service := NewTokenService(secret, tokenTTL)

	if service == nil {
		t.Fatal("NewTokenService() returned nil")
	}

	if string(service.secret) != secret {
		t.Errorf("TokenService.secret = %v, want %v", string(service.secret), secret)
	}

	if service.tokenTTL != tokenTTL {
		t.Errorf("TokenService.tokenTTL = %v, want %v", service.tokenTTL, tokenTTL)
	}
}

func TestGenerateToken(t *testing.T) {
	service := NewTokenService("test-secret-key", time.Hour)

	tests := []struct {
		name     string
		userID   string
		username string
	}{
		{
			name:     "generates token with all fields",
			userID:   "user-123",
			username: "alice",
		},
		{
			name:     "generates token with empty username",
			userID:   "user-456",
			username: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := service.GenerateToken(tt.userID, tt.username)
			if err != nil {
				t.Fatalf("GenerateToken() error = %v", err)
			}

			if token == "" {
				t.Fatal("GenerateToken() returned empty token")
			}

			// JWT tokens have three dot-separated segments
			if parts := strings.Split(token, "."); len(parts) != 3 {
				t.Errorf("GenerateToken() returned %d segments, want 3", len(parts))
			}
		})
	}
}

func TestValidateToken(t *testing.T) {
	service := NewTokenService("test-secret-key", time.Hour)

	token, err := service.GenerateToken("user-123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := service.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}

	if sub, _ := claims["sub"].(string); sub != "user-123" {
		t.Errorf("claims[sub] = %v, want user-123", claims["sub"])
	}

	if username, _ := claims["username"].(string); username != "alice" {
		t.Errorf("claims[username] = %v, want alice", claims["username"])
	}
}

func TestValidateTokenExpired(t *testing.T) {
	service := NewTokenService("test-secret-key", -time.Hour)

	token, err := service.GenerateToken("user-123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := service.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted expired token")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	service := NewTokenService("test-secret-key", time.Hour)
	other := NewTokenService("different-secret", time.Hour)

	token, err := service.GenerateToken("user-123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted token signed with different secret")
	}
}

func TestValidateTokenRejectsWrongAlgorithm(t *testing.T) {
	service := NewTokenService("test-secret-key", time.Hour)

	// Unsigned token claiming alg "none" must be rejected by the method
	// check, not just the signature check.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := service.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted token with alg=none")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	service := NewTokenService("test-secret-key", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty string", token: ""},
		{name: "not a token", token: "not-a-jwt"},
		{name: "truncated token", token: "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.ValidateToken(tt.token); err == nil {
				t.Error("ValidateToken() accepted malformed token")
			}
		})
	}
}

func TestUserFromClaims(t *testing.T) {
	tests := []struct {
		name         string
		claims       jwt.MapClaims
		wantUserID   string
		wantUsername string
		wantErr      bool
	}{
		{
			name:         "full claims",
			claims:       jwt.MapClaims{"sub": "user-123", "username": "alice"},
			wantUserID:   "user-123",
			wantUsername: "alice",
		},
		{
			name:       "missing username is tolerated",
			claims:     jwt.MapClaims{"sub": "user-123"},
			wantUserID: "user-123",
		},
		{
			name:    "missing subject",
			claims:  jwt.MapClaims{"username": "alice"},
			wantErr: true,
		},
		{
			name:    "empty subject",
			claims:  jwt.MapClaims{"sub": ""},
			wantErr: true,
		},
		{
			name:    "non-string subject",
			claims:  jwt.MapClaims{"sub": 42},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, username, err := UserFromClaims(tt.claims)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UserFromClaims() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if userID != tt.wantUserID {
				t.Errorf("userID = %v, want %v", userID, tt.wantUserID)
			}
			if username != tt.wantUsername {
				t.Errorf("username = %v, want %v", username, tt.wantUsername)
			}
		})
	}
}
