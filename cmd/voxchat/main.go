package main

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"voxchat/internal/assistant"
	"voxchat/internal/config"
	"voxchat/internal/conversation"
	"voxchat/internal/ipc"
	"voxchat/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	envFile := os.Getenv("VOXCHAT_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	banner()

	cfg, err := config.Load(envFile)
	if err != nil {
		logging.Setup("info")
		fmt.Printf("\nError during initialization: %v\n", err)
		fmt.Println("Please check your GOOGLE_API_KEY in .env file")
		return 1
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	fmt.Println("\nInitializing components...")
	parts, err := build(ctx, cfg)
	if err != nil {
		fmt.Printf("\nError during initialization: %v\n", err)
		return 1
	}
	defer parts.Close()
	fmt.Println("\nAll components ready!")

	ctl, err := ipc.StartServer(ctx, cfg.ControlSocket, func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case ipc.CmdReset:
			session := msg.SessionID
			if session == "" {
				session = conversation.DefaultSession
			}
			parts.manager.Reset(session)
			log.Info("Conversation reset via control socket", "session", session)
		case ipc.CmdQuit:
			log.Info("Quit requested via control socket")
			quit()
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	})
	if err != nil {
		log.Warn("Control socket disabled", "path", cfg.ControlSocket, "err", err)
	} else {
		defer ctl.Close()
	}

	instructions()

	opts := assistant.Options{
		SessionID:     conversation.DefaultSession,
		ListenTimeout: cfg.ListenTimeout,
		PhraseLimit:   cfg.PhraseLimit,
		RetryDelay:    retryDelay,
		Logger:        log.Default(),
	}
	if parts.earcon != nil {
		opts.Cue = parts.earcon
	}

	a := assistant.New(parts.listener, parts.speaker, parts.manager, opts)
	if err := a.Run(ctx); err != nil {
		log.Error("Assistant stopped", "err", err)
		return 1
	}
	return 0
}

func banner() {
	line := strings.Repeat("=", 60)
	fmt.Println(line)
	fmt.Println("I'm THE ENTITY (Powered by Google Gemini)")
	fmt.Println(line)
}

func instructions() {
	line := strings.Repeat("=", 60)
	fmt.Println("\n" + line)
	fmt.Println("Instructions:")
	fmt.Println("- Speak clearly into your microphone")
	fmt.Println("- Say 'quit', 'exit', or 'stop' to end the session")
	fmt.Println("- Say 'reset' to clear conversation history")
	fmt.Println(line)
	fmt.Println()
}
