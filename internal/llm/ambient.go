package llm

import (
	"os"
	"sync"
)

// Credentials is a base URL and API key pair for an OpenAI-compatible client.
// An empty BaseURL means the client library's default endpoint.
type Credentials struct {
	BaseURL string
	APIKey  string
}

// CredentialsFromEnv reads OPENAI_API_BASE and OPENAI_API_KEY.
func CredentialsFromEnv() Credentials {
	return Credentials{
		BaseURL: os.Getenv("OPENAI_API_BASE"),
		APIKey:  os.Getenv("OPENAI_API_KEY"),
	}
}

// Ambient holds the process-wide default credentials used by the default-sdk
// strategy. Scoped overrides hold the lock for their whole duration, so they
// must not be nested.
type Ambient struct {
	mu    sync.Mutex
	creds Credentials
}

// NewAmbient returns an Ambient initialised with creds.
func NewAmbient(creds Credentials) *Ambient {
	return &Ambient{creds: creds}
}

// Snapshot returns the current credentials.
func (a *Ambient) Snapshot() Credentials {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.creds
}

// Set replaces the ambient credentials.
func (a *Ambient) Set(creds Credentials) {
	a.mu.Lock()
	a.creds = creds
	a.mu.Unlock()
}

// Scoped installs creds, runs fn with them and restores the previous value
// before returning, also when fn panics.
func (a *Ambient) Scoped(creds Credentials, fn func(active Credentials)) {
	a.mu.Lock()
	prev := a.creds
	a.creds = creds
	defer func() {
		a.creds = prev
		a.mu.Unlock()
	}()
	fn(a.creds)
}
