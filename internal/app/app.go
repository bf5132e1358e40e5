// Package app is the local HTTP bridge between the host add-on and the
// completion service.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"copilot-codegen/internal/auth"
	"copilot-codegen/internal/history"
	"copilot-codegen/internal/llm"
	"copilot-codegen/internal/settings"
)

// Bounds for the ?timeout= parameter of /models, in seconds.
const (
	minModelsTimeout = 5
	maxModelsTimeout = 30
)

// App represents the bridge with its router and the services behind it.
type App struct {
	Router      *http.ServeMux
	Auth        *auth.Service
	LLM         *llm.Service
	Settings    *settings.Loader
	History     *history.Store
	Diagnostics *llm.Diagnostics

	busy    atomic.Bool
	limiter *clientLimiter
}

// NewApp creates an App with the default settings locations and a completion
// service using ambient OpenAI credentials.
func NewApp() *App {
	return NewAppWith(llm.NewService(), settings.NewLoader())
}

// NewAppWith creates an App around an existing service and settings loader.
func NewAppWith(svc *llm.Service, loader *settings.Loader) *App {
	app := &App{
		Router:      http.NewServeMux(),
		Auth:        auth.NewService(),
		LLM:         svc,
		Settings:    loader,
		History:     history.NewStore(),
		Diagnostics: &llm.Diagnostics{},
		limiter:     limiterFromEnv(),
	}

	app.initializeRoutes()
	return app
}

func (a *App) initializeRoutes() {
	a.Router.HandleFunc("GET /status", a.handleStatus)
	a.Router.HandleFunc("GET /models", a.protect(a.handleModels))
	a.Router.HandleFunc("POST /generate", a.protect(a.handleGenerate))
	a.Router.HandleFunc("GET /history", a.protect(a.handleHistory))
	a.Router.HandleFunc("DELETE /history", a.protect(a.handleHistoryDelete))
	a.Router.HandleFunc("POST /history/clear", a.protect(a.handleHistoryClear))
	a.Router.HandleFunc("POST /token", a.protect(a.handleToken))
	a.Router.HandleFunc("POST /token/revoke", a.protect(a.handleTokenRevoke))
}

// ServeHTTP lets App be used directly as an http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Router.ServeHTTP(w, r)
}

// Busy reports whether a generation is in flight.
func (a *App) Busy() bool {
	return a.busy.Load()
}

func (a *App) protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := a.Auth.Authorize(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}
		if !a.limiter.Allow(client) {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

type statusResponse struct {
	Status     string `json:"status"`
	Busy       bool   `json:"busy"`
	Configured bool   `json:"configured"`
	llm.Attempt
}

func (a *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := a.Settings.Resolve()
	status := "ready"
	if !a.available(cfg) {
		status = "not configured"
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:     status,
		Busy:       a.Busy(),
		Configured: cfg.Configured(),
		Attempt:    a.Diagnostics.Last(),
	})
}

func (a *App) handleModels(w http.ResponseWriter, r *http.Request) {
	timeout := llm.ModelsTimeout
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid timeout", http.StatusBadRequest)
			return
		}
		secs = min(max(secs, minModelsTimeout), maxModelsTimeout)
		timeout = time.Duration(secs) * time.Second
	}

	list := a.LLM.DiscoverModels(r.Context(), a.Settings.Resolve(), timeout, a.Diagnostics)
	writeJSON(w, http.StatusOK, list)
}

type generateRequest struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
	Model     string `json:"model"`
}

type generateResponse struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

func (a *App) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, "Missing prompt", http.StatusBadRequest)
		return
	}

	if !a.busy.CompareAndSwap(false, true) {
		http.Error(w, "A generation is already running", http.StatusConflict)
		return
	}
	defer a.busy.Store(false)

	cfg := a.Settings.Resolve()
	if !a.available(cfg) {
		http.Error(w, "Proxy is not configured", http.StatusPreconditionFailed)
		return
	}

	id := a.History.Ensure(req.SessionID)
	past, _ := a.History.Last(id, llm.HistoryLimit)
	if err := a.History.Append(id, llm.ChatMessage{Role: llm.RoleUser, Content: req.Prompt}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// The request keeps running if the client goes away.
	code, ok := a.LLM.Complete(context.WithoutCancel(r.Context()), llm.Request{
		Prompt:   req.Prompt,
		History:  past,
		Config:   cfg,
		Model:    req.Model,
		Recorder: a.Diagnostics,
	})
	if !ok {
		log.Printf("app: no result for session %s", id)
		http.Error(w, "No code returned by the model", http.StatusBadGateway)
		return
	}

	if err := a.History.Append(id, llm.ChatMessage{Role: llm.RoleAssistant, Content: code}); err != nil {
		log.Printf("app: failed to store reply: %v", err)
	}
	writeJSON(w, http.StatusOK, generateResponse{SessionID: id, Code: code})
}

// available reports whether any strategy has something to talk to.
func (a *App) available(cfg settings.ProxyConfig) bool {
	return cfg.Configured() || a.LLM.Ambient().Snapshot().APIKey != ""
}

type historyResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []llm.ChatMessage `json:"messages"`
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	msgs, err := a.History.Messages(id)
	if err != nil {
		writeHistoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: id, Messages: msgs})
}

func (a *App) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		http.Error(w, "Invalid index", http.StatusBadRequest)
		return
	}
	if err := a.History.Delete(id, index); err != nil {
		writeHistoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if err := a.History.Clear(r.URL.Query().Get("session_id")); err != nil {
		writeHistoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tokenRequest struct {
	Client string `json:"client"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func (a *App) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Client == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	token, err := a.Auth.IssueToken(req.Client)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresIn: auth.TokenLifetime})
}

type revokeRequest struct {
	Token string `json:"token"`
}

func (a *App) handleTokenRevoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := a.Auth.Revoke(auth.ExtractBearer(req.Token)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeHistoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, history.ErrUnknownSession):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, history.ErrIndexOutOfRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("app: failed to write response: %v", err)
	}
}
