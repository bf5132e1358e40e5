package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestVerifyAppAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		envKeys  string
		disabled string
		expected bool
	}{
		{name: "valid key", apiKey: "test-key", envKeys: "test-key", expected: true},
		{name: "invalid key", apiKey: "invalid-key", envKeys: "test-key", expected: false},
		{name: "disabled auth", apiKey: "any-key", disabled: "true", expected: true},
		{name: "disabled with 1", apiKey: "", disabled: "1", expected: true},
		{name: "multiple valid keys", apiKey: "key2", envKeys: "key1, key2 ,key3", expected: true},
		{name: "no keys configured", apiKey: "key", expected: false},
		{name: "empty key never matches", apiKey: "", envKeys: "a,,b", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VALID_API_KEYS", tt.envKeys)
			t.Setenv("DISABLE_AUTH", tt.disabled)

			if got := VerifyAppAPIKey(tt.apiKey); got != tt.expected {
				t.Errorf("VerifyAppAPIKey(%q) = %v, want %v", tt.apiKey, got, tt.expected)
			}
		})
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "Bearer: abc", want: "abc"},
		{header: "abc", want: "abc"},
		{header: "  Bearer abc  ", want: "abc"},
		{header: "", want: ""},
	}

	for _, tt := range tests {
		if got := ExtractBearer(tt.header); got != tt.want {
			t.Errorf("ExtractBearer(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestCreateAndValidateToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := CreateToken("blender", secret)
	if err != nil {
		t.Fatalf("CreateToken() error = %v", err)
	}

	claims, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Client != "blender" {
		t.Errorf("Client = %q, want %q", claims.Client, "blender")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != TokenLifetime*time.Second {
		t.Errorf("token lifetime = %v, want %v", got, TokenLifetime*time.Second)
	}

	if _, err := ValidateToken(token, []byte("other-secret")); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() with wrong secret error = %v, want ErrInvalidToken", err)
	}
	if _, err := ValidateToken("not-a-jwt", secret); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() with garbage error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	past := time.Now().Add(-2 * time.Hour)
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(past),
		},
		Client: "blender",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := ValidateToken(token, secret); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	secret := []byte("test-secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, TokenClaims{Client: "x"}).SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := ValidateToken(token, secret); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthorize(t *testing.T) {
	t.Setenv("DISABLE_AUTH", "")
	t.Setenv("VALID_API_KEYS", "static-key")

	svc := NewServiceWithSecret([]byte("test-secret"))
	token, err := svc.IssueToken("blender")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	tests := []struct {
		name    string
		header  string
		client  string
		wantErr bool
	}{
		{name: "static key", header: "Bearer static-key", client: "api-key"},
		{name: "bridge token", header: "Bearer " + token, client: "blender"},
		{name: "bare token", header: token, client: "blender"},
		{name: "missing header", header: "", wantErr: true},
		{name: "unknown key", header: "Bearer nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := svc.Authorize(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Authorize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnauthorized) {
				t.Errorf("Authorize() error = %v, want ErrUnauthorized", err)
			}
			if client != tt.client {
				t.Errorf("Authorize() client = %q, want %q", client, tt.client)
			}
		})
	}
}

func TestAuthorizeDisabled(t *testing.T) {
	t.Setenv("DISABLE_AUTH", "true")

	svc := NewServiceWithSecret([]byte("test-secret"))
	if _, err := svc.Authorize(""); err != nil {
		t.Errorf("Authorize() with auth disabled error = %v", err)
	}
}

func TestRevoke(t *testing.T) {
	t.Setenv("DISABLE_AUTH", "")
	t.Setenv("VALID_API_KEYS", "")

	svc := NewServiceWithSecret([]byte("test-secret"))
	token, err := svc.IssueToken("blender")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	other, _ := svc.IssueToken("blender")

	if err := svc.Revoke(token); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, err := svc.Authorize(token); err == nil {
		t.Error("Authorize() accepted a revoked token")
	}
	if _, err := svc.Authorize(other); err != nil {
		t.Errorf("Authorize() rejected an unrelated token: %v", err)
	}
	if err := svc.Revoke("garbage"); err == nil {
		t.Error("Revoke() accepted an invalid token")
	}
}

func TestNewServiceGeneratesSecret(t *testing.T) {
	t.Setenv("BRIDGE_SECRET", "")

	a, b := NewService(), NewService()
	token, err := a.IssueToken("x")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := ValidateToken(token, b.secret); err == nil {
		t.Error("services without BRIDGE_SECRET should not share a secret")
	}
}

func TestRandomToken(t *testing.T) {
	token1 := RandomToken()
	token2 := RandomToken()

	if token1 == "" {
		t.Error("RandomToken() returned empty string")
	}
	if token1 == token2 {
		t.Error("RandomToken() returned same token twice")
	}
}

func TestHashToken(t *testing.T) {
	hash := HashToken("test-token")

	if !strings.HasPrefix(hash, "$sha256$") {
		t.Error("HashToken() hash doesn't have correct prefix")
	}
	if hash != HashToken("test-token") {
		t.Error("HashToken() not deterministic")
	}
	if hash == HashToken("different-token") {
		t.Error("HashToken() produced same hash for different input")
	}
}
