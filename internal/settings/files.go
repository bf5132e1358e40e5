package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"copilot-codegen/pkg/utils"
)

// File names inside utils.ConfigDir and the variables that override them.
const (
	PreferencesFileName = "preferences.toml"
	SessionFileName     = "session.json"

	EnvPreferencesFile = "COPILOT_PREFERENCES_FILE"
	EnvSessionFile     = "COPILOT_SESSION_FILE"
)

// DefaultPreferences returns the values written into a fresh preferences file.
func DefaultPreferences() *Fields {
	return &Fields{
		IP:     "localhost",
		Port:   "9898",
		Models: "gpt-4.1,gpt-5-mini,gpt-5,grok-code-fast-1",
	}
}

// LoadPreferences decodes the TOML preferences file at path.
// A missing file yields empty fields and no error.
func LoadPreferences(path string) (*Fields, error) {
	f := &Fields{}
	if _, err := toml.DecodeFile(path, f); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Fields{}, nil
		}
		return &Fields{}, fmt.Errorf("failed to parse preferences %s: %w", path, err)
	}
	return f, nil
}

// SavePreferences writes f to path as TOML, creating parent directories.
// The file may hold an API key, so it is only readable by the owner.
func SavePreferences(path string, f *Fields) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open preferences: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(f); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	return nil
}

// LoadSession decodes the JSON session fallback file at path.
// A missing file yields empty fields and no error.
func LoadSession(path string) (*Fields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Fields{}, nil
		}
		return &Fields{}, err
	}

	f := &Fields{}
	if err := json.Unmarshal(data, f); err != nil {
		return &Fields{}, fmt.Errorf("failed to parse session %s: %w", path, err)
	}
	return f, nil
}

// Loader reads both file layers from disk on every call.
type Loader struct {
	PreferencesPath string
	SessionPath     string
	Env             Lookup
	// Secrets fills the preferences API key when the file names a host but
	// no key. May be nil.
	Secrets SecretStore
}

// NewLoader returns a Loader using the default file locations.
func NewLoader() *Loader {
	l := &Loader{Env: os.Getenv}
	if p, err := utils.ConfigFile(EnvPreferencesFile, PreferencesFileName); err == nil {
		l.PreferencesPath = p
	} else {
		log.Printf("settings: cannot locate preferences file: %v", err)
	}
	if p, err := utils.ConfigFile(EnvSessionFile, SessionFileName); err == nil {
		l.SessionPath = p
	} else {
		log.Printf("settings: cannot locate session file: %v", err)
	}
	if v := os.Getenv(EnvDisableKeyring); v != "true" && v != "1" {
		l.Secrets = NewKeyringStore()
	}
	return l
}

// Resolve re-reads the files and returns the merged configuration.
// Unreadable files are logged and treated as empty layers.
func (l *Loader) Resolve() ProxyConfig {
	return Resolve(l.Preferences(), l.load(l.SessionPath, LoadSession), l.Env)
}

// Preferences returns the installation-level layer alone, with the API key
// taken from Secrets when the file has none.
func (l *Loader) Preferences() *Fields {
	prefs := l.load(l.PreferencesPath, LoadPreferences)
	if l.Secrets == nil || prefs.IP == "" || prefs.Key != "" {
		return prefs
	}
	key, err := l.Secrets.ProxyAPIKey()
	if err != nil {
		log.Printf("settings: %v", err)
		return prefs
	}
	prefs.Key = key
	return prefs
}

func (l *Loader) load(path string, read func(string) (*Fields, error)) *Fields {
	if path == "" {
		return &Fields{}
	}
	f, err := read(path)
	if err != nil {
		log.Printf("settings: ignoring %s: %v", path, err)
	}
	return f
}
