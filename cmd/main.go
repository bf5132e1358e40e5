// Copilot codegen bridge
//
// This application serves the local HTTP bridge used by the Blender add-on.
// It resolves the proxy settings, forwards prompts to an OpenAI-compatible
// completion proxy and returns the extracted Python code.
//
// CLI Usage:
//
//	--addr=":8080"
//	  Address the bridge listens on. Defaults to BRIDGE_ADDR or :8080.
//
//	--disable-auth
//	  Disables API key authorization, allowing all bridge requests without validation.
//	  Example: ./codegen --disable-auth
//
//	--test-auth="api-key"
//	  Tests if an API key or bridge token is accepted.
//	  Example: ./codegen --test-auth="your-api-key"
//
//	--issue-token="client"
//	  Prints a bridge token for the named client.
//	  Example: ./codegen --issue-token="blender"
//
//	--init-prefs
//	  Writes the default preferences file if none exists.
//
//	--store-key="sk-..."
//	  Saves the proxy API key in the system keychain.
//
//	--delete-key
//	  Removes the proxy API key from the system keychain.
//
//	--system-prompt-file="prompt.txt"
//	  Replaces the built-in system instruction with the file contents.
//
// Environment Variables:
//   - VALID_API_KEYS: Comma-separated list of valid API keys for accessing the bridge
//   - DISABLE_AUTH: Set to "true" or "1" to disable API key verification
//   - BRIDGE_SECRET: Secret used to sign bridge tokens
//   - BRIDGE_ADDR: Listen address of the bridge
//   - BRIDGE_RATE_LIMIT: Requests per minute per client, 0 disables limiting
//   - COPILOT_DISABLE_KEYRING: Set to "true" or "1" to skip the keychain lookup
//   - COPILOT_PROXY_URL, COPILOT_PROXY_API_KEY: Proxy location and key
//   - COPILOT_MODEL, COPILOT_MODEL_LIST, COPILOT_PROXY_PATH, COPILOT_STRATEGY
//   - OPENAI_API_BASE, OPENAI_API_KEY: Ambient OpenAI credentials
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"copilot-codegen/internal/app"
	"copilot-codegen/internal/auth"
	"copilot-codegen/internal/llm"
	"copilot-codegen/internal/settings"
	"copilot-codegen/pkg/utils"
)

func initPreferences(loader *settings.Loader) {
	path := loader.PreferencesPath
	if path == "" {
		log.Fatal("Could not determine the preferences file location")
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Preferences already exist at %s\n", path)
		return
	}
	if err := settings.SavePreferences(path, settings.DefaultPreferences()); err != nil {
		log.Fatalf("Failed to write preferences: %v", err)
	}
	fmt.Printf("Wrote default preferences to %s\n", path)
}

func main() {
	// Load environment variables from .env file
	utils.LoadEnvFile()

	// Define CLI flags
	addr := flag.String("addr", utils.GetEnvWithDefault("BRIDGE_ADDR", ":8080"), "Address the bridge listens on")
	disableAuth := flag.Bool("disable-auth", false, "Disable API key authorization and accept all requests")
	testAuth := flag.String("test-auth", "", "Test an API key or bridge token")
	issueToken := flag.String("issue-token", "", "Print a bridge token for the named client")
	initPrefs := flag.Bool("init-prefs", false, "Write the default preferences file")
	storeKey := flag.String("store-key", "", "Save the proxy API key in the system keychain")
	deleteKey := flag.Bool("delete-key", false, "Remove the proxy API key from the system keychain")
	systemPromptFile := flag.String("system-prompt-file", "", "File whose contents replace the built-in system prompt")

	flag.Parse()

	// Set environment variable if disable-auth flag is set
	if *disableAuth {
		os.Setenv("DISABLE_AUTH", "true")
		log.Println("API authorization is disabled - all requests will be accepted")
	}

	// Initialize the app
	var opts []llm.Option
	if *systemPromptFile != "" {
		prompt, err := os.ReadFile(*systemPromptFile)
		if err != nil {
			log.Fatalf("Failed to read system prompt: %v", err)
		}
		opts = append(opts, llm.WithSystemPrompt(string(prompt)))
	}
	a := app.NewAppWith(llm.NewService(opts...), settings.NewLoader())

	if *initPrefs {
		initPreferences(a.Settings)
		os.Exit(0)
	}

	if *storeKey != "" {
		if err := settings.NewKeyringStore().StoreProxyAPIKey(*storeKey); err != nil {
			log.Fatalf("Failed to store API key: %v", err)
		}
		fmt.Println("Stored proxy API key in the system keychain")
		os.Exit(0)
	}

	if *deleteKey {
		if err := settings.NewKeyringStore().DeleteProxyAPIKey(); err != nil {
			log.Fatalf("Failed to delete API key: %v", err)
		}
		fmt.Println("Removed proxy API key from the system keychain")
		os.Exit(0)
	}

	if *issueToken != "" {
		token, err := a.Auth.IssueToken(*issueToken)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		if os.Getenv("BRIDGE_SECRET") == "" {
			log.Println("Warning: BRIDGE_SECRET is not set, this token is only valid for this process")
		}
		fmt.Println(token)
		os.Exit(0)
	}

	if *testAuth != "" {
		client, err := a.Auth.Authorize(*testAuth)
		if err != nil {
			log.Fatalf("❌ Invalid API key or token")
		}
		fmt.Printf("✅ Accepted (%s)\n", client)
		os.Exit(0)
	}

	// Print help message if no flags were used
	if flag.NFlag() == 0 {
		fmt.Println("Running in server mode. Use --help for CLI options.")
	}

	cfg := a.Settings.Resolve()
	if cfg.Configured() {
		log.Printf("Using proxy %s (key %s)", cfg.BaseURL, utils.MaskToken(cfg.APIKey))
	} else {
		log.Println("Warning: no proxy configured; requests will use the default OpenAI endpoint")
	}
	if !auth.AuthDisabled() && os.Getenv("VALID_API_KEYS") == "" {
		log.Println("Warning: VALID_API_KEYS is empty; only bridge tokens will be accepted")
	}

	// Create a context that will be canceled on program termination
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server with graceful shutdown
	server := &http.Server{
		Addr:    *addr,
		Handler: a,
	}

	// Start the server in a goroutine
	go func() {
		log.Printf("Starting bridge on %s...", *addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Println("Shutting down...")

	// Generation requests are not cancelled, so allow one to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	} else {
		log.Println("Server gracefully stopped")
	}
}
