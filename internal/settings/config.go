// Package settings resolves the connection settings for the completion proxy.
//
// Settings come from three layers, tried in order:
//
//  1. installation-level preferences (a TOML file)
//  2. session-level fallback fields (a JSON file written by the host)
//  3. environment variables
//
// The first file source that names a proxy host wins entirely; the
// environment only fills fields that are still empty afterwards.
package settings

import (
	"os"
	"strings"

	"copilot-codegen/pkg/utils"
)

// Environment variables consulted after the file sources.
const (
	EnvProxyURL    = "COPILOT_PROXY_URL"
	EnvProxyAPIKey = "COPILOT_PROXY_API_KEY"
	EnvModel       = "COPILOT_MODEL"
	EnvProxyPath   = "COPILOT_PROXY_PATH"
	EnvModelList   = "COPILOT_MODEL_LIST"
	EnvStrategy    = "COPILOT_STRATEGY"

	// OpenAI-compatible names used as secondary fallbacks.
	EnvOpenAIBase = "OPENAI_API_BASE"
	EnvOpenAIKey  = "OPENAI_API_KEY"
)

// ProxyConfig is the resolved configuration for a single request.
// Every field is a string; the empty string means unset.
type ProxyConfig struct {
	BaseURL        string
	APIKey         string
	PathPrefix     string
	PreferredModel string
	// ModelList is the manual comma-separated model list used when the proxy
	// does not expose any models.
	ModelList string
	// Strategy selects the dispatch strategies, see llm.ParseStrategies.
	Strategy string
}

// Configured reports whether a proxy URL could be resolved.
func (c ProxyConfig) Configured() bool {
	return c.BaseURL != ""
}

// Source exposes the raw fields of one configuration layer.
type Source interface {
	ProxyIP() string
	ProxyPort() string
	APIKey() string
	PathPrefix() string
	PreferredModel() string
	ModelList() string
	Strategy() string
}

// Lookup reads an environment variable. os.Getenv satisfies it.
type Lookup func(key string) string

// Resolve merges prefs, session and the environment into a ProxyConfig.
// Either source may be nil. A nil env uses os.Getenv. Resolve never fails;
// an empty result means the proxy is not configured.
func Resolve(prefs, session Source, env Lookup) ProxyConfig {
	if env == nil {
		env = os.Getenv
	}

	var cfg ProxyConfig
	for _, src := range []Source{prefs, session} {
		if src == nil || strings.TrimSpace(src.ProxyIP()) == "" {
			continue
		}
		cfg = fromSource(src)
		break
	}

	cfg.BaseURL = utils.FirstNonEmpty(cfg.BaseURL, env(EnvProxyURL), env(EnvOpenAIBase))
	cfg.APIKey = utils.FirstNonEmpty(cfg.APIKey, env(EnvProxyAPIKey), env(EnvOpenAIKey))
	cfg.PreferredModel = utils.FirstNonEmpty(cfg.PreferredModel, env(EnvModel))
	cfg.PathPrefix = utils.FirstNonEmpty(cfg.PathPrefix, env(EnvProxyPath))
	cfg.ModelList = utils.FirstNonEmpty(cfg.ModelList, env(EnvModelList))
	cfg.Strategy = utils.FirstNonEmpty(cfg.Strategy, env(EnvStrategy))

	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.PathPrefix = strings.TrimSpace(cfg.PathPrefix)
	cfg.PreferredModel = strings.TrimSpace(cfg.PreferredModel)
	return cfg
}

func fromSource(src Source) ProxyConfig {
	return ProxyConfig{
		BaseURL:        ProxyURL(src.ProxyIP(), src.ProxyPort()),
		APIKey:         src.APIKey(),
		PathPrefix:     src.PathPrefix(),
		PreferredModel: src.PreferredModel(),
		ModelList:      src.ModelList(),
		Strategy:       src.Strategy(),
	}
}

// ProxyURL derives the proxy base URL from a host and an optional port.
// With a port, a missing scheme defaults to http://; without one the host is
// returned unchanged.
func ProxyURL(ip, port string) string {
	ip = strings.TrimSpace(ip)
	port = strings.TrimSpace(port)
	if ip == "" {
		return ""
	}
	if port == "" {
		return ip
	}
	if !strings.HasPrefix(ip, "http://") && !strings.HasPrefix(ip, "https://") {
		ip = "http://" + ip
	}
	return ip + ":" + port
}

// Fields is a plain Source backed by struct fields. It is the in-memory form
// of both the preferences and the session files.
type Fields struct {
	IP       string `toml:"proxy_ip" json:"proxy_ip"`
	Port     string `toml:"proxy_port" json:"proxy_port"`
	Key      string `toml:"proxy_api_key" json:"proxy_api_key"`
	Path     string `toml:"proxy_path" json:"proxy_path"`
	Model    string `toml:"model" json:"model"`
	Models   string `toml:"model_list" json:"model_list"`
	Dispatch string `toml:"strategy" json:"strategy"`
}

func (f *Fields) ProxyIP() string        { return f.IP }
func (f *Fields) ProxyPort() string      { return f.Port }
func (f *Fields) APIKey() string         { return f.Key }
func (f *Fields) PathPrefix() string     { return f.Path }
func (f *Fields) PreferredModel() string { return f.Model }
func (f *Fields) ModelList() string      { return f.Models }
func (f *Fields) Strategy() string       { return f.Dispatch }
