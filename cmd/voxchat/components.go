package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"time"

	"voxchat/internal/audio"
	"voxchat/internal/config"
	"voxchat/internal/conversation"
	"voxchat/internal/failure"
	"voxchat/internal/listen"
	"voxchat/internal/llm"
	"voxchat/internal/notify"
	"voxchat/internal/proxy"
	"voxchat/internal/speech"
	"voxchat/internal/tts"
	"voxchat/pkg/stt"
)

const retryDelay = 500 * time.Millisecond

type components struct {
	listener *listen.Listener
	speaker  *speech.Speaker
	manager  *conversation.Manager
	earcon   *notify.Earcon

	closers []func()
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// build constructs the three collaborators of the loop. Any error is a
// startup failure; speech output alone degrades instead of failing.
func build(ctx context.Context, cfg *config.Config) (*components, error) {
	c := &components{}

	if err := cfg.ValidateListening(); err != nil {
		return nil, err
	}

	httpClient, err := proxy.NewClient(cfg.SocksProxy, proxy.DefaultTimeout)
	if err != nil {
		return nil, failure.New(failure.Startup, "proxy", err)
	}

	fmt.Println("- Initializing speech recognizer...")
	l, err := c.buildListener(ctx, cfg, httpClient)
	if err != nil {
		c.Close()
		return nil, failure.New(failure.Startup, "speech recognizer", err)
	}
	c.listener = l

	fmt.Println("- Initializing text-to-speech...")
	c.speaker = buildSpeaker(cfg)
	c.closers = append(c.closers, func() { _ = c.speaker.Close() })

	fmt.Println("- Initializing Gemini AI assistant...")
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
		c.Close()
		return nil, failure.New(failure.Startup, "language model", err)
	}
	c.manager = conversation.NewManager(client, conversation.WithPreamble(cfg.Preamble))

	if cfg.EarconPath != "" {
		e, err := notify.NewEarcon(cfg.EarconPath, log.Default())
		if err != nil {
			log.Warn("Listening cue disabled", "path", cfg.EarconPath, "err", err)
		} else {
			c.earcon = e
		}
	}

	return c, nil
}

func (c *components) buildListener(ctx context.Context, cfg *config.Config, httpClient *http.Client) (*listen.Listener, error) {
	var rec listen.Recognizer
	switch cfg.STTBackend {
	case "whisper":
		t, err := stt.NewTranscriber(cfg.WhisperModel)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() { _ = t.Close() })
		rec = t
	default:
		h, err := listen.NewHosted(listen.HostedOptions{
			APIKey:     cfg.STTAPIKey,
			BaseURL:    cfg.STTBaseURL,
			Model:      cfg.STTModel,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		rec = h
	}

	var capt listen.Capturer
	switch cfg.AudioSource {
	case "spool":
		s, err := listen.NewSpoolSource(cfg.SpoolDir, 0, log.Default())
		if err != nil {
			return nil, err
		}
		capt = s
	default:
		r := audio.NewRecorder()
		if err := r.Init(); err != nil {
			return nil, fmt.Errorf("init audio: %w", err)
		}
		c.closers = append(c.closers, r.Close)

		fmt.Println("  Calibrating for ambient noise...")
		threshold, err := r.Calibrate(cfg.Calibration)
		if err != nil {
			return nil, fmt.Errorf("calibrate: %w", err)
		}
		log.Debug("Calibrated", "threshold", threshold)
		capt = r
	}

	if ctx.Err() != nil {
		return nil, errors.Join(errors.New("interrupted during startup"), ctx.Err())
	}
	return listen.New(capt, rec, cfg.RecognitionLanguage(), log.Default()), nil
}

func buildSpeaker(cfg *config.Config) *speech.Speaker {
	var engine speech.Engine
	if e, err := tts.NewEspeak(); err != nil {
		log.Warn("Speech engine unavailable", "err", err)
	} else {
		engine = e
	}

	opts := speech.Options{
		Language: cfg.Language,
		Voice:    cfg.TTSVoice,
		Rate:     cfg.TTSRate,
		Volume:   cfg.TTSVolume,
	}
	if cfg.DuckOthers {
		opts.Ducker = speech.NewDucker([]string{"voxchat", "eSpeak", "espeak-ng"}, 0.3, 10, 200*time.Millisecond)
	}
	return speech.New(engine, opts, log.Default())
}
