package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"

	"voxchat/internal/api"
	"voxchat/internal/config"
	"voxchat/internal/conversation"
	"voxchat/internal/llm"
	"voxchat/internal/logging"
	"voxchat/internal/proxy"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "", "Log level (overrides LOG_LEVEL)")
	addr := cli.StringP("addr", "a", "", "Listen address (overrides HTTP_ADDR)")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address (overrides SOCKS_PROXY)")
	cli.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logging.Setup(*logLevel)
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if cli.CommandLine.Changed("log") {
		cfg.LogLevel = *logLevel
	}
	if cli.CommandLine.Changed("addr") {
		cfg.HTTPAddr = *addr
	}
	if cli.CommandLine.Changed("proxy") {
		cfg.SocksProxy = *proxyAddr
	}
	logging.Setup(cfg.LogLevel)

	httpClient, err := proxy.NewClient(cfg.SocksProxy, proxy.DefaultTimeout)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", cfg.SocksProxy, "err", err)
		os.Exit(1)
	}

	client, err := llm.New(llm.Options{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.LLMBaseURL,
		Model:           cfg.Model,
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
		MaxOutputTokens: cfg.MaxOutputTokens,
		HTTPClient:      httpClient,
	})
	if err != nil {
		log.Error("Failed to init language model", "err", err)
		os.Exit(1)
	}

	manager := conversation.NewManager(client,
		conversation.WithPreamble(cfg.Preamble),
		conversation.WithLogger(log.Default()),
	)
	srv := api.New(manager, client.Model(), log.Default()).NewHTTPServer(cfg.HTTPAddr)

	banner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn("Graceful shutdown failed, forcing close", "err", err)
			_ = srv.Close()
		}
	}
}

func banner(cfg *config.Config) {
	line := strings.Repeat("=", 60)
	fmt.Println(line)
	fmt.Println("Starting Voice AI Assistant API Server")
	fmt.Println(line)
	fmt.Printf("Model: %s\n", cfg.Model)
	fmt.Printf("Temperature: %v\n", cfg.Temperature)
	fmt.Printf("Server: http://%s\n", cfg.HTTPAddr)
	fmt.Println(line)
}
