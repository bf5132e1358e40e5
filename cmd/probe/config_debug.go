package main

import (
	"fmt"
	"net/url"
	"strings"

	"copilot-codegen/internal/llm"
	"copilot-codegen/internal/settings"
	"copilot-codegen/pkg/utils"
)

// AnalyzeConfig checks a resolved configuration for common mistakes.
func AnalyzeConfig(cfg settings.ProxyConfig) string {
	if !cfg.Configured() {
		return "WARNING: No proxy URL resolved, the default-sdk strategy will be used\n"
	}

	var result string
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		result += fmt.Sprintf("ERROR: Proxy URL %q is not an absolute URL\n", cfg.BaseURL)
	} else {
		result += fmt.Sprintf("✓ Proxy host %s\n", u.Host)
	}

	if strings.HasPrefix(cfg.APIKey, "Bearer ") {
		result += "WARNING: API key starts with 'Bearer ' prefix, which should be added by the code\n"
	}
	if cfg.APIKey == "" {
		result += "WARNING: No API key, requests will be sent without Authorization\n"
	}

	if cfg.PathPrefix != "" && !strings.HasPrefix(cfg.PathPrefix, "/") {
		result += fmt.Sprintf("WARNING: Path prefix %q does not start with '/'\n", cfg.PathPrefix)
	}

	if models := llm.SplitModelList(cfg.ModelList); len(models) > 0 {
		result += fmt.Sprintf("✓ Manual model list has %d entries\n", len(models))
	}

	return result
}

// DisplayConfigAnalysis prints every configuration layer and the merged result.
func DisplayConfigAnalysis(loader *settings.Loader, cfg settings.ProxyConfig, ambient llm.Credentials) {
	fmt.Println("\n🔍 Config Analysis")
	fmt.Println("----------------------------")

	fmt.Printf("Preferences file: %s\n", getOrDefault(loader.PreferencesPath, "[unknown]"))
	prefs := loader.Preferences()
	fmt.Printf("- proxy: %s\n", getOrDefault(settings.ProxyURL(prefs.IP, prefs.Port), "[unset]"))
	fmt.Printf("- key: %s\n", utils.MaskToken(prefs.Key))

	fmt.Printf("Session file: %s\n", getOrDefault(loader.SessionPath, "[unknown]"))

	fmt.Println("\nAmbient credentials:")
	fmt.Printf("- base: %s\n", getOrDefault(ambient.BaseURL, "[library default]"))
	fmt.Printf("- key: %s\n", utils.MaskToken(ambient.APIKey))

	fmt.Println()
	fmt.Print(AnalyzeConfig(cfg))
	fmt.Println("----------------------------")
}
