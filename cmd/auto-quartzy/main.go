package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/TTTPOB/auto-quartzy/internal/order"
	"github.com/TTTPOB/auto-quartzy/internal/receipt"
	"github.com/TTTPOB/auto-quartzy/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Credentials usually live in a .env file next to the binary; a missing
	// file is fine when the environment is set directly.
	_ = godotenv.Load()

	fs := ff.NewFlagSet("auto-quartzy")
	var (
		port            = fs.IntLong("port", 8080, "HTTP server port")
		dbPath          = fs.StringLong("db", "auto-quartzy.db", "Archive database file path")
		storagePath     = fs.StringLong("storage", "./receipts", "Receipt image storage directory")
		extractorType   = fs.StringLong("extractor", "openrouter", "Extractor type: 'openrouter' or 'gemini'")
		openRouterKey   = fs.StringLong("openrouter-key", "", "OpenRouter API key (or set OPENROUTER_API_KEY env var)")
		openRouterModel = fs.StringLong("openrouter-model", "anthropic/claude-3-opus-20240229", "OpenRouter model name")
		openRouterBase  = fs.StringLong("openrouter-base", "", "OpenRouter API base URL (default https://openrouter.ai/api/v1)")
		geminiKey       = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		quartzyToken    = fs.StringLong("quartzy-token", "", "Quartzy API access token (or set QUARTZY_API_TOKEN env var)")
		quartzyBase     = fs.StringLong("quartzy-base", order.DefaultBaseURL, "Quartzy API base URL")
		labID           = fs.StringLong("lab-id", "", "Quartzy lab identifier for created order requests")
		typeID          = fs.StringLong("type-id", "", "Quartzy request type identifier for created order requests")
		currency        = fs.StringLong("currency", "CNY", "Currency code for order request prices")
		authUser        = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("AUTO_QUARTZY"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize archive database
	slog.Info("Initializing archive database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize extractor based on type
	var extractor scanning.Extractor
	switch *extractorType {
	case "openrouter":
		apiKey := *openRouterKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENROUTER_API_KEY")
		}
		if apiKey == "" {
			slog.Error("OpenRouter API key is required. Set --openrouter-key flag or OPENROUTER_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing OpenRouter extractor...", "model", *openRouterModel)
		extractor, err = scanning.NewOpenRouter(apiKey, *openRouterModel, *openRouterBase)
		if err != nil {
			slog.Error("Failed to initialize OpenRouter", "error", err)
			os.Exit(1)
		}
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		extractor, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid extractor type", "type", *extractorType, "valid", "openrouter or gemini")
		os.Exit(1)
	}
	defer extractor.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize ordering API client. A missing token is not rejected here;
	// it surfaces as an auth failure when a submission is attempted.
	token := *quartzyToken
	if token == "" {
		token = os.Getenv("QUARTZY_API_TOKEN")
	}
	quartzy := order.NewClient(token, *quartzyBase)

	orderCfg := order.Config{
		LabID:    *labID,
		TypeID:   *typeID,
		Currency: *currency,
	}

	// Initialize service
	service := receipt.NewService(db, extractor, store, quartzy, orderCfg)

	// Initialize server
	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(service, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
