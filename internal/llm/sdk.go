package llm

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"copilot-codegen/internal/settings"
)

// ChatModelFactory builds a chat model bound to creds and modelName.
type ChatModelFactory func(ctx context.Context, creds Credentials, modelName string) (einomodel.BaseChatModel, error)

// newOpenAIChatModel returns a factory for eino-ext OpenAI chat models that
// share client.
func newOpenAIChatModel(client *http.Client) ChatModelFactory {
	return func(ctx context.Context, creds Credentials, modelName string) (einomodel.BaseChatModel, error) {
		maxTokens := MaxTokens
		cfg := &openai.ChatModelConfig{
			APIKey:     creds.APIKey,
			BaseURL:    creds.BaseURL,
			Model:      modelName,
			HTTPClient: client,
		}
		if reasoningModel(modelName) {
			cfg.MaxCompletionTokens = &maxTokens
		} else {
			cfg.MaxTokens = &maxTokens
		}
		chat, err := openai.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return chat, nil
	}
}

// reasoningModel reports whether modelName rejects max_tokens in favour of
// max_completion_tokens.
func reasoningModel(modelName string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(modelName, prefix) {
			return true
		}
	}
	return false
}

// completeSDK sends the request with the proxy credentials swapped into the
// ambient holder for the duration of the call.
func (s *Service) completeSDK(ctx context.Context, cfg settings.ProxyConfig, model string, messages []ChatMessage, rec Recorder) (code string, ok bool) {
	record(rec, ModeSDK, cfg.BaseURL, nil)
	s.ambient.Scoped(Credentials{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey}, func(active Credentials) {
		code, ok = s.generate(ctx, ModeSDK, active, model, messages, rec)
	})
	return code, ok
}

// completeDefaultSDK sends the request with whatever ambient credentials are set.
func (s *Service) completeDefaultSDK(ctx context.Context, model string, messages []ChatMessage, rec Recorder) (string, bool) {
	creds := s.ambient.Snapshot()
	record(rec, ModeDefaultSDK, creds.BaseURL, nil)
	return s.generate(ctx, ModeDefaultSDK, creds, model, messages, rec)
}

func (s *Service) generate(ctx context.Context, mode Mode, creds Credentials, model string, messages []ChatMessage, rec Recorder) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, CompletionTimeout)
	defer cancel()

	chat, err := s.newChatModel(ctx, creds, model)
	if err != nil {
		log.Printf("llm: failed to create %s chat model: %v", mode, err)
		record(rec, mode, creds.BaseURL, err)
		return "", false
	}

	reply, err := chat.Generate(ctx, toSchemaMessages(messages))
	if err != nil {
		log.Printf("llm: %s request failed: %v", mode, err)
		record(rec, mode, creds.BaseURL, err)
		return "", false
	}
	if reply == nil || reply.Content == "" {
		record(rec, mode, creds.BaseURL, ErrEmptyReply)
		return "", false
	}

	code, ok := ExtractCode(reply.Content)
	if !ok {
		record(rec, mode, creds.BaseURL, ErrNoCode)
	}
	return code, ok
}

func toSchemaMessages(messages []ChatMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, &schema.Message{Role: schema.RoleType(m.Role), Content: m.Content})
	}
	return out
}
