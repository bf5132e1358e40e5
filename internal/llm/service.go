package llm

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"copilot-codegen/internal/settings"
	"copilot-codegen/pkg/utils"
)

const (
	// MaxTokens caps every completion request.
	MaxTokens = 1500

	// DefaultModel is requested when neither the configuration nor the caller names one.
	DefaultModel = "gpt-5-mini"

	// CompletionTimeout bounds a single completion call.
	CompletionTimeout = 30 * time.Second

	// userAgent identifies this client to the proxy.
	userAgent = "copilot-codegen/1.0"
)

// Service dispatches completion and model discovery requests.
type Service struct {
	httpClient   *http.Client
	ambient      *Ambient
	newChatModel ChatModelFactory
	systemPrompt string
	defaultModel string
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient sets the client used for direct HTTP calls and SDK calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.httpClient = c }
}

// WithAmbient sets the ambient credentials used by the default-sdk strategy.
func WithAmbient(a *Ambient) Option {
	return func(s *Service) { s.ambient = a }
}

// WithChatModelFactory replaces the eino chat model constructor.
func WithChatModelFactory(f ChatModelFactory) Option {
	return func(s *Service) { s.newChatModel = f }
}

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(s *Service) { s.systemPrompt = prompt }
}

// WithDefaultModel replaces DefaultModel. An empty model disables the fallback.
func WithDefaultModel(model string) Option {
	return func(s *Service) { s.defaultModel = model }
}

// NewService creates a new completion service.
func NewService(opts ...Option) *Service {
	s := &Service{
		httpClient:   &http.Client{Timeout: CompletionTimeout},
		systemPrompt: DefaultSystemPrompt,
		defaultModel: DefaultModel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ambient == nil {
		s.ambient = NewAmbient(CredentialsFromEnv())
	}
	if s.newChatModel == nil {
		s.newChatModel = newOpenAIChatModel(s.httpClient)
	}
	return s
}

// Ambient returns the credentials holder used by the default-sdk strategy.
func (s *Service) Ambient() *Ambient {
	return s.ambient
}

// Request contains the data needed for a completion request.
type Request struct {
	Prompt  string
	History []ChatMessage
	Config  settings.ProxyConfig
	// Model is the caller's current model selection, used when the
	// configuration does not name one.
	Model string
	// Recorder receives diagnostics for every attempt. May be nil.
	Recorder Recorder
}

// Complete builds the message list, runs the selected strategies in order and
// returns the code extracted from the first usable reply. ok is false when no
// strategy produced any code.
func (s *Service) Complete(ctx context.Context, req Request) (code string, ok bool) {
	cfg := req.Config
	model := utils.FirstNonEmpty(cfg.PreferredModel, req.Model, s.defaultModel)
	messages := BuildMessages(s.systemPrompt, req.History, req.Prompt)

	log.Printf("llm: resolved proxy url=%q key=%s model=%q", cfg.BaseURL, utils.MaskToken(cfg.APIKey), model)

	for _, strategy := range SelectStrategies(cfg) {
		code, ok = s.run(ctx, strategy, cfg, model, messages, req.Recorder)
		if ok {
			return code, true
		}
	}
	return "", false
}

// run executes one strategy. A panic inside a strategy is reported as a
// failed attempt.
func (s *Service) run(ctx context.Context, strategy Strategy, cfg settings.ProxyConfig, model string, messages []ChatMessage, rec Recorder) (code string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("llm: %s strategy panicked: %v", strategy, r)
			record(rec, Mode(strategy), cfg.BaseURL, fmt.Errorf("panic: %v", r))
			code, ok = "", false
		}
	}()

	switch strategy {
	case StrategySDK:
		return s.completeSDK(ctx, cfg, model, messages, rec)
	case StrategyDirectHTTP:
		return s.completeDirect(ctx, cfg, model, messages, rec)
	case StrategyDefaultSDK:
		return s.completeDefaultSDK(ctx, model, messages, rec)
	}
	return "", false
}
