// Package utils provides small helpers shared by the bridge, the probe CLI and
// the completion client: environment lookups, token masking, request IDs and
// configuration file locations.
package utils

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// GetEnvWithDefault retrieves an environment variable or returns a default value if not set.
//
// Parameters:
//   - name: The name of the environment variable
//   - defaultValue: The default value to return if the environment variable is not set
//
// Returns the value of the environment variable, or the default value if not set.
func GetEnvWithDefault(name, defaultValue string) string {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	return value
}

// FirstNonEmpty returns the first argument that is not empty after trimming
// surrounding whitespace, or "" when all of them are empty.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// MaskToken masks a token for display by showing only the first and last few characters.
// Empty tokens are reported as such so log lines stay readable.
func MaskToken(token string) string {
	if token == "" {
		return "[empty]"
	}
	if len(token) < 10 {
		return "***" // Too short to safely show anything
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// NewRequestID returns a unique identifier suitable for the X-Request-ID header.
func NewRequestID() string {
	return uuid.New().String()
}

// LoadEnvFile loads environment variables from a .env file if present.
// It attempts to load from the current directory and parent directories
// up to the root directory. Variables already set in the environment win.
func LoadEnvFile() {
	// Try current directory first
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment variables from .env file in current directory")
		return
	}

	workDir, err := os.Getwd()
	if err != nil {
		log.Printf("Warning: Could not determine current directory: %v", err)
		return
	}

	for dir := workDir; ; dir = filepath.Dir(dir) {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err == nil {
				log.Printf("Loaded environment variables from %s", envPath)
				return
			}
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}

	log.Println("No .env file found. Using existing environment variables.")
}
