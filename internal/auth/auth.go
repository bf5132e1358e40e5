// Package auth guards the local bridge. Callers present either a static key
// from VALID_API_KEYS or a short-lived bridge token signed with BRIDGE_SECRET.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrUnauthorized is returned by Authorize when no credential is accepted.
var ErrUnauthorized = errors.New("unauthorized")

// Service issues and checks bridge tokens.
type Service struct {
	secret  []byte
	revoked map[string]time.Time
	mutex   sync.RWMutex
}

// NewService creates a Service signing with BRIDGE_SECRET. Without one a
// random secret is generated, so tokens do not survive a restart.
func NewService() *Service {
	secret := os.Getenv("BRIDGE_SECRET")
	if secret == "" {
		log.Println("auth: BRIDGE_SECRET not set, using a per-process secret")
		secret = RandomToken()
	}
	return NewServiceWithSecret([]byte(secret))
}

// NewServiceWithSecret creates a Service with an explicit signing secret.
func NewServiceWithSecret(secret []byte) *Service {
	return &Service{
		secret:  secret,
		revoked: make(map[string]time.Time),
	}
}

// AuthDisabled reports whether DISABLE_AUTH is "true" or "1".
func AuthDisabled() bool {
	disableAuth := os.Getenv("DISABLE_AUTH")
	return disableAuth == "true" || disableAuth == "1"
}

// VerifyAppAPIKey checks if the provided API key is valid for accessing the bridge.
// Keys are compared against the comma-separated VALID_API_KEYS environment variable.
// Every key is accepted when DISABLE_AUTH is set.
func VerifyAppAPIKey(apiKey string) bool {
	if AuthDisabled() {
		return true
	}

	validKeys := os.Getenv("VALID_API_KEYS")
	if validKeys == "" || apiKey == "" {
		return false
	}

	for _, key := range strings.Split(validKeys, ",") {
		if apiKey == strings.TrimSpace(key) {
			return true
		}
	}

	return false
}

// ExtractBearer pulls the credential out of an Authorization header value.
// "Bearer x", "Bearer: x" and a bare "x" are accepted.
func ExtractBearer(header string) string {
	header = strings.TrimSpace(header)
	switch {
	case strings.HasPrefix(header, "Bearer: "):
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer: "))
	case strings.HasPrefix(header, "Bearer "):
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return header
}

// IssueToken creates a bridge token for client.
func (s *Service) IssueToken(client string) (string, error) {
	return CreateToken(client, s.secret)
}

// Revoke invalidates a previously issued token before it expires.
func (s *Service) Revoke(token string) error {
	claims, err := ValidateToken(token, s.secret)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	now := time.Now()
	for hash, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, hash)
		}
	}
	s.revoked[HashToken(claims.ID)] = claims.ExpiresAt.Time
	return nil
}

// Authorize checks an Authorization header value. It returns the client name
// for bridge tokens and "api-key" for static keys.
func (s *Service) Authorize(header string) (string, error) {
	if AuthDisabled() {
		return "anonymous", nil
	}

	credential := ExtractBearer(header)
	if credential == "" {
		return "", ErrUnauthorized
	}
	if VerifyAppAPIKey(credential) {
		return "api-key", nil
	}

	claims, err := ValidateToken(credential, s.secret)
	if err != nil {
		return "", ErrUnauthorized
	}

	s.mutex.RLock()
	_, revoked := s.revoked[HashToken(claims.ID)]
	s.mutex.RUnlock()
	if revoked {
		return "", ErrUnauthorized
	}
	return claims.Client, nil
}

// RandomToken generates a random URL-safe secret.
func RandomToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// HashToken hashes a token identifier using SHA-256.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return "$sha256$" + base64.URLEncoding.EncodeToString(hash[:])
}
