// Package main implements a CLI tool for checking a completion proxy setup.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"copilot-codegen/internal/llm"
	"copilot-codegen/internal/settings"
	"copilot-codegen/pkg/utils"
)

func main() {
	utils.LoadEnvFile()

	// Parse command line flags
	prompt := flag.String("prompt", "", "Prompt to send; models are only listed when empty")
	proxyURL := flag.String("proxy-url", "", "Proxy URL (overrides COPILOT_PROXY_URL)")
	apiKey := flag.String("api-key", "", "Proxy API key (overrides COPILOT_PROXY_API_KEY)")
	model := flag.String("model", "", "Model to request (overrides COPILOT_MODEL)")
	strategy := flag.String("strategy", "", "Comma-separated dispatch strategies, or auto")
	timeout := flag.Int("timeout", 0, "Model listing timeout in seconds")
	debugConfig := flag.Bool("debug-config", false, "Print configuration debugging information")
	color := flag.Bool("color", false, "Highlight the returned code")
	flag.Parse()

	// Set environment variables if provided
	setEnv(settings.EnvProxyURL, *proxyURL)
	setEnv(settings.EnvProxyAPIKey, *apiKey)
	setEnv(settings.EnvModel, *model)
	setEnv(settings.EnvStrategy, *strategy)

	loader := settings.NewLoader()
	cfg := loader.Resolve()
	service := llm.NewService()
	diag := &llm.Diagnostics{}

	fmt.Println("🚀 Completion Proxy Probe")
	fmt.Println("----------------------------")
	fmt.Printf("Proxy URL: %s\n", getOrDefault(cfg.BaseURL, "[not configured]"))
	fmt.Printf("API key: %s\n", utils.MaskToken(cfg.APIKey))
	fmt.Printf("Model: %s\n", getOrDefault(cfg.PreferredModel, llm.DefaultModel))
	fmt.Printf("Strategies: %v\n", llm.SelectStrategies(cfg))

	if *debugConfig {
		DisplayConfigAnalysis(loader, cfg, service.Ambient().Snapshot())
	}

	ctx := context.Background()
	list := service.DiscoverModels(ctx, cfg, time.Duration(*timeout)*time.Second, diag)
	fmt.Printf("\nModels (%s): %s\n", list.Provenance, strings.Join(list.Models, ", "))
	printAttempt(diag.Last())

	if *prompt == "" {
		return
	}

	fmt.Println("\nSending prompt...")
	code, ok := service.Complete(ctx, llm.Request{Prompt: *prompt, Config: cfg, Recorder: diag})
	if !ok {
		printAttempt(diag.Last())
		log.Fatal("Error: no code returned")
	}

	fmt.Println("Code received:")
	fmt.Println("----------------------------")
	if *color {
		code = highlightPython(code)
	}
	fmt.Println(code)
	fmt.Println("----------------------------")
}

func setEnv(name, value string) {
	if value != "" {
		os.Setenv(name, value)
	}
}

func printAttempt(a llm.Attempt) {
	if a.Mode == "" {
		return
	}
	fmt.Printf("Last request: %s %s\n", a.Mode, a.URL)
	if a.Error != "" {
		fmt.Printf("Last error: %s\n", a.Error)
	}
}

// getOrDefault returns the value if non-empty, otherwise returns the default value
func getOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
