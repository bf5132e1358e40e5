package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"copilot-codegen/internal/settings"
	"copilot-codegen/pkg/utils"
)

// Provenance tells the caller which tier produced a model list.
type Provenance string

const (
	ProvenanceProxy    Provenance = "proxy"
	ProvenancePrefs    Provenance = "prefs"
	ProvenanceDefaults Provenance = "defaults"
)

const (
	// ModelsTimeout is the default per-probe timeout for model discovery.
	ModelsTimeout = 10 * time.Second

	// ConnectionTestTimeout is the shorter timeout used to test a proxy.
	ConnectionTestTimeout = 5 * time.Second
)

// DefaultModelIDs is the last-resort model list.
var DefaultModelIDs = []string{"gpt-5-mini", "grok-code", "gpt-4o-mini"}

// ModelList is an ordered, duplicate-free list of model ids.
type ModelList struct {
	Models     []string   `json:"models"`
	Provenance Provenance `json:"provenance"`
}

// modelTier is one step of the discovery pipeline. A nil or empty result
// hands over to the next tier.
type modelTier struct {
	provenance Provenance
	fetch      func() []string
}

// DiscoverModels lists the models available for cfg. The live proxy is asked
// first, then the manual list from the configuration, then DefaultModelIDs.
// No network call is made when cfg has no base URL. A non-positive timeout
// means ModelsTimeout.
func (s *Service) DiscoverModels(ctx context.Context, cfg settings.ProxyConfig, timeout time.Duration, rec Recorder) ModelList {
	if timeout <= 0 {
		timeout = ModelsTimeout
	}

	tiers := []modelTier{
		{ProvenanceProxy, func() []string { return s.probeModels(ctx, cfg, timeout, rec) }},
		{ProvenancePrefs, func() []string { return SplitModelList(cfg.ModelList) }},
		{ProvenanceDefaults, func() []string { return DefaultModelIDs }},
	}

	for _, tier := range tiers {
		if models := dedupe(tier.fetch()); len(models) > 0 {
			return ModelList{Models: models, Provenance: tier.provenance}
		}
	}
	return ModelList{Provenance: ProvenanceDefaults}
}

// modelURLs returns the listing endpoints to probe, prefixed variants first.
func modelURLs(cfg settings.ProxyConfig) []string {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil
	}

	prefix := strings.TrimSpace(cfg.PathPrefix)
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	prefix = strings.TrimRight(prefix, "/")

	var urls []string
	if prefix != "" {
		urls = append(urls, base+prefix+"/v1/models", base+prefix+"/models")
	}
	return append(urls, base+"/v1/models", base+"/models")
}

func (s *Service) probeModels(ctx context.Context, cfg settings.ProxyConfig, timeout time.Duration, rec Recorder) []string {
	for _, url := range modelURLs(cfg) {
		record(rec, ModeFetchModels, url, nil)
		models, err := s.fetchModels(ctx, url, cfg.APIKey, timeout)
		if err != nil {
			log.Printf("llm: model listing %s failed: %v", url, err)
			record(rec, ModeFetchModels, url, err)
			continue
		}
		return models
	}
	return nil
}

func (s *Service) fetchModels(ctx context.Context, url, apiKey string, timeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", utils.NewRequestID())
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Status: resp.StatusCode}
	}

	models := dedupe(ParseModelIDs(body))
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	return models, nil
}

// ParseModelIDs reads model ids from a listing response. Recognised shapes:
// {"data":[{"id":...}]}, {"models":[...]}, {"available_models":[...]} and a
// bare array, where elements are strings or objects with an id. A body that
// is not JSON is read as a literal list such as ['a', "b"].
func ParseModelIDs(body []byte) []string {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return parseLiteralList(string(body))
	}

	switch v := data.(type) {
	case map[string]any:
		if list, ok := v["data"].([]any); ok {
			var ids []string
			for _, item := range list {
				if obj, ok := item.(map[string]any); ok {
					if id := idOf(obj); id != "" {
						ids = append(ids, id)
					}
				}
			}
			if len(ids) > 0 {
				return ids
			}
		}
		for _, key := range []string{"models", "available_models"} {
			if list, ok := v[key].([]any); ok {
				return elementIDs(list)
			}
		}
	case []any:
		return elementIDs(v)
	}
	return nil
}

func elementIDs(list []any) []string {
	var ids []string
	for _, item := range list {
		var id string
		switch x := item.(type) {
		case string:
			id = x
		case map[string]any:
			id = idOf(x)
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func idOf(obj map[string]any) string {
	switch id := obj["id"].(type) {
	case string:
		return id
	case float64:
		return fmt.Sprint(id)
	}
	return ""
}

// parseLiteralList reads a bracketed list of quoted or bare strings.
func parseLiteralList(s string) []string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(s[1:len(s)-1], ",") {
		part = strings.TrimSpace(part)
		if len(part) >= 2 && (part[0] == '\'' || part[0] == '"') && part[len(part)-1] == part[0] {
			part = part[1 : len(part)-1]
		}
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

// SplitModelList parses a comma-separated model list, dropping blanks.
func SplitModelList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// dedupe removes repeated ids, keeping the first occurrence.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
