package utils

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the configuration directory shared by the bridge and the probe.
const AppName = "copilot-codegen"

// ConfigDir returns the directory holding the preferences and session files
// for the current platform:
//   - Windows: %APPDATA%\copilot-codegen
//   - macOS and Linux: ~/.config/copilot-codegen
//
// COPILOT_CONFIG_DIR overrides the platform default.
func ConfigDir() (string, error) {
	if dir := os.Getenv("COPILOT_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", errors.New("APPDATA environment variable not set")
		}
		return filepath.Join(appData, AppName), nil
	default: // macOS, Linux and other Unix-like systems
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
}

// ConfigFile returns the path of name inside ConfigDir unless the environment
// variable envName points somewhere else.
func ConfigFile(envName, name string) (string, error) {
	if p := os.Getenv(envName); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
