package llm

import (
	"log"
	"strings"

	"copilot-codegen/internal/settings"
)

// Strategy names one way of delivering a completion request.
type Strategy string

const (
	StrategySDK        Strategy = "sdk"
	StrategyDirectHTTP Strategy = "direct-http"
	StrategyDefaultSDK Strategy = "default-sdk"

	// StrategyAuto picks a single strategy from the resolved configuration.
	StrategyAuto Strategy = "auto"
)

// ParseStrategies splits a comma-separated strategy list. Unknown names are
// logged and skipped. An empty list or "auto" yields nil.
func ParseStrategies(s string) []Strategy {
	var out []Strategy
	for _, part := range strings.Split(s, ",") {
		name := Strategy(strings.ToLower(strings.TrimSpace(part)))
		switch name {
		case "":
		case StrategyAuto:
			return nil
		case StrategySDK, StrategyDirectHTTP, StrategyDefaultSDK:
			out = append(out, name)
		default:
			log.Printf("llm: ignoring unknown strategy %q", part)
		}
	}
	return out
}

// SelectStrategies returns the strategies to try for cfg, in order.
//
// Without an explicit list the choice follows the configuration: a URL and a
// key select sdk, a URL alone selects direct-http and no URL selects
// default-sdk. Only one strategy is tried in that case.
func SelectStrategies(cfg settings.ProxyConfig) []Strategy {
	if explicit := ParseStrategies(cfg.Strategy); len(explicit) > 0 {
		return explicit
	}
	switch {
	case cfg.BaseURL != "" && cfg.APIKey != "":
		return []Strategy{StrategySDK}
	case cfg.BaseURL != "":
		return []Strategy{StrategyDirectHTTP}
	default:
		return []Strategy{StrategyDefaultSDK}
	}
}
