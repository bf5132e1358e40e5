package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"copilot-codegen/internal/settings"
	"copilot-codegen/pkg/utils"
)

// MaxResponseSize is the maximum response body read from the proxy.
const MaxResponseSize = 10 * 1024 * 1024

// completionPayload is the body POSTed by the direct-http strategy.
type completionPayload struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// candidatePaths lists the endpoints tried by the direct-http strategy, in order.
func candidatePaths(model string) []string {
	paths := []string{
		"/v1/chat/completions",
		"/chat/completions",
		"/v1/completions",
		"/completions",
	}
	if model != "" {
		paths = append(paths, "/"+model+"/chat/completions", "/"+model+"/completions")
	}
	return paths
}

// endpointURL joins base and path without doubling a /v1 segment.
func endpointURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") && strings.HasPrefix(path, "/v1/") {
		return base + strings.TrimPrefix(path, "/v1")
	}
	return base + path
}

// completeDirect POSTs the request to every candidate endpoint without an
// Authorization header and returns the first reply that contains code.
func (s *Service) completeDirect(ctx context.Context, cfg settings.ProxyConfig, model string, messages []ChatMessage, rec Recorder) (string, bool) {
	payload, err := json.Marshal(completionPayload{Model: model, Messages: messages, MaxTokens: MaxTokens})
	if err != nil {
		record(rec, ModeDirectHTTP, cfg.BaseURL, err)
		return "", false
	}

	var lastErr error
	tried := make(map[string]bool)
	for _, path := range candidatePaths(model) {
		url := endpointURL(cfg.BaseURL, path)
		if tried[url] {
			continue
		}
		tried[url] = true

		log.Printf("llm: trying proxy endpoint: %s", url)
		record(rec, ModeDirectHTTP, url, nil)

		text, err := s.post(ctx, url, payload)
		if err != nil {
			lastErr = err
			log.Printf("llm: endpoint %s failed: %v", url, err)
			record(rec, ModeDirectHTTP, url, err)
			continue
		}

		if code, ok := ExtractCode(text); ok {
			return code, true
		}
		log.Printf("llm: endpoint %s returned no code", url)
	}

	if lastErr != nil {
		log.Printf("llm: direct-http attempts failed; last error: %v", lastErr)
		record(rec, ModeDirectHTTP, strings.TrimRight(cfg.BaseURL, "/"), lastErr)
	}
	return "", false
}

func (s *Service) post(ctx context.Context, url string, payload []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, CompletionTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", utils.NewRequestID())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: url, Status: resp.StatusCode, Body: string(body)}
	}
	return responseText(body), nil
}

// responseText pulls the reply text out of the common completion shapes and
// falls back to the raw body.
func responseText(body []byte) string {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return string(body)
	}
	if text, ok := choiceText(data); ok {
		return text
	}
	for _, key := range []string{"output", "result", "text"} {
		if s, ok := data[key].(string); ok {
			return s
		}
	}
	return string(body)
}

// choiceText reads choices[0] (or result[0], outputs[0]) in chat or legacy
// completion form. ok is true whenever such a choice object is present, even
// when its content is null or not a string.
func choiceText(data map[string]any) (string, bool) {
	for _, key := range []string{"choices", "result", "outputs"} {
		list, ok := data[key].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		first, ok := list[0].(map[string]any)
		if !ok {
			return "", false
		}
		for _, field := range []string{"message", "delta", "output"} {
			msg, ok := first[field].(map[string]any)
			if !ok {
				continue
			}
			if content, ok := msg["content"].(string); ok {
				return content, true
			}
		}
		if text, ok := first["text"].(string); ok {
			return text, true
		}
		// A recognised choice without string content carries no text.
		return "", true
	}
	return "", false
}
