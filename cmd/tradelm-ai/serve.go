package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tradelm/tradelm-ai/internal/backend"
	"github.com/tradelm/tradelm-ai/internal/chat"
	"github.com/tradelm/tradelm-ai/internal/config"
	"github.com/tradelm/tradelm-ai/internal/llm"
	"github.com/tradelm/tradelm-ai/internal/server"
	"github.com/tradelm/tradelm-ai/internal/tagging"
	"github.com/tradelm/tradelm-ai/internal/tools"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the AI microservice HTTP server",
	Long: `Start the HTTP server exposing the tagging and chat endpoints.

All routes except /health require the X-Microservice-Auth shared secret.

Examples:
  tradelm-ai serve
  tradelm-ai serve --port 9001`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Long-lived gateway client, shared by all requests.
	gateway := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
	if !gateway.Ready() {
		logger.Error("LLM client is not initialized; check the API key")
	}

	var fetcher backend.Client = backend.NewHTTPClient(cfg.Backend.BaseURL, cfg.Auth.Secret)
	if cfg.Backend.Mock {
		logger.Warn("backend mock mode enabled; serving canned trade summaries")
		fetcher = backend.MockClient{}
	}

	registry := tools.NewRegistry()
	if err := registry.Register(tools.TradeSummaryTool(fetcher)); err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}

	var persona *chat.Persona
	if cfg.Chat.PersonaFile != "" {
		persona, err = chat.LoadPersona(cfg.Chat.PersonaFile)
		if err != nil {
			return fmt.Errorf("loading persona: %w", err)
		}
	}

	tagger, err := tagging.New(gateway)
	if err != nil {
		return fmt.Errorf("initializing tagger: %w", err)
	}

	orch := chat.New(gateway, registry, persona)
	srv := server.New(cfg, orch, tagger, logger)

	port := cfg.Server.Port
	if portFlag > 0 {
		port = portFlag
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		srv.Shutdown(context.Background())
	}()

	return srv.Start(port)
}
