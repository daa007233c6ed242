package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"voxchat/internal/failure"
)

const (
	DefaultModel         = "gemini-2.5-flash"
	DefaultLLMBaseURL    = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultLanguage      = "en-US"
	DefaultSTTModel      = "whisper-1"
	DefaultControlSocket = "/tmp/voxchat.sock"
	DefaultHTTPAddr      = "127.0.0.1:8000"
)

type Config struct {
	APIKey          string
	Model           string
	LLMBaseURL      string
	Temperature     float64
	TopP            float64
	MaxOutputTokens int64
	Preamble        string

	Language      string
	STTBackend    string
	STTAPIKey     string
	STTBaseURL    string
	STTModel      string
	WhisperModel  string
	AudioSource   string
	SpoolDir      string
	ListenTimeout time.Duration
	PhraseLimit   time.Duration
	Calibration   time.Duration

	TTSRate    int
	TTSVolume  float64
	TTSVoice   string
	EarconPath string
	DuckOthers bool

	SocksProxy    string
	ControlSocket string
	HTTPAddr      string
	LogLevel      string
}

// Load reads envFile (if it exists) into the process environment and then
// builds a Config from it. A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, failure.New(failure.Startup, "load env file", err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		APIKey:          p.str("GOOGLE_API_KEY", ""),
		Model:           p.str("MODEL_NAME", DefaultModel),
		LLMBaseURL:      p.str("LLM_BASE_URL", DefaultLLMBaseURL),
		Temperature:     p.float("TEMPERATURE", 0.7),
		TopP:            p.float("TOP_P", 0.95),
		MaxOutputTokens: int64(p.int("MAX_OUTPUT_TOKENS", 1024)),
		Preamble:        p.str("SYSTEM_PREAMBLE", ""),

		Language:      p.str("LANGUAGE", DefaultLanguage),
		STTBackend:    strings.ToLower(p.str("STT_BACKEND", "hosted")),
		STTAPIKey:     p.str("OPENAI_API_KEY", ""),
		STTBaseURL:    p.str("STT_BASE_URL", ""),
		STTModel:      p.str("STT_MODEL", DefaultSTTModel),
		WhisperModel:  p.str("WHISPER_MODEL", ""),
		AudioSource:   strings.ToLower(p.str("AUDIO_SOURCE", "microphone")),
		SpoolDir:      p.str("AUDIO_SPOOL_DIR", "audio"),
		ListenTimeout: p.duration("LISTEN_TIMEOUT", 5*time.Second),
		PhraseLimit:   p.duration("PHRASE_TIME_LIMIT", 10*time.Second),
		Calibration:   p.duration("AMBIENT_CALIBRATION", time.Second),

		TTSRate:    p.int("TTS_RATE", 160),
		TTSVolume:  p.float("TTS_VOLUME", 1.0),
		TTSVoice:   p.str("TTS_VOICE", ""),
		EarconPath: p.str("EARCON_PATH", ""),
		DuckOthers: p.bool("DUCK_OTHERS", false),

		SocksProxy:    p.str("SOCKS_PROXY", ""),
		ControlSocket: p.str("CONTROL_SOCKET", DefaultControlSocket),
		HTTPAddr:      p.str("HTTP_ADDR", DefaultHTTPAddr),
		LogLevel:      strings.ToLower(p.str("LOG_LEVEL", "info")),
	}

	if len(p.errs) > 0 {
		return nil, failure.New(failure.Startup, "parse config", errors.Join(p.errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that every binary depends on.
func (c *Config) Validate() error {
	var errs []error

	if c.APIKey == "" {
		errs = append(errs, errors.New("GOOGLE_API_KEY not set"))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("MODEL_NAME is empty"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("TEMPERATURE %v out of range [0,2]", c.Temperature))
	}
	if c.TopP <= 0 || c.TopP > 1 {
		errs = append(errs, fmt.Errorf("TOP_P %v out of range (0,1]", c.TopP))
	}
	if c.MaxOutputTokens <= 0 {
		errs = append(errs, fmt.Errorf("MAX_OUTPUT_TOKENS must be positive"))
	}
	switch c.STTBackend {
	case "hosted", "whisper":
	default:
		errs = append(errs, fmt.Errorf("STT_BACKEND %q unknown (hosted|whisper)", c.STTBackend))
	}
	switch c.AudioSource {
	case "microphone", "spool":
	default:
		errs = append(errs, fmt.Errorf("AUDIO_SOURCE %q unknown (microphone|spool)", c.AudioSource))
	}
	if c.ListenTimeout <= 0 || c.PhraseLimit <= 0 {
		errs = append(errs, errors.New("LISTEN_TIMEOUT and PHRASE_TIME_LIMIT must be positive"))
	}
	if c.TTSVolume < 0 || c.TTSVolume > 1 {
		errs = append(errs, fmt.Errorf("TTS_VOLUME %v out of range [0,1]", c.TTSVolume))
	}

	if len(errs) > 0 {
		return failure.New(failure.Startup, "validate config", errors.Join(errs...))
	}
	return nil
}

// ValidateListening checks the settings only the interactive loop needs.
func (c *Config) ValidateListening() error {
	switch {
	case c.STTBackend == "hosted" && c.STTAPIKey == "":
		return failure.New(failure.Startup, "validate config", errors.New("OPENAI_API_KEY not set for hosted recognition"))
	case c.STTBackend == "whisper" && c.WhisperModel == "":
		return failure.New(failure.Startup, "validate config", errors.New("WHISPER_MODEL not set"))
	}
	return nil
}

// RecognitionLanguage turns a tag like "en-US" into the bare language code
// expected by the recognition backends.
func (c *Config) RecognitionLanguage() string {
	lang, _, _ := strings.Cut(c.Language, "-")
	return strings.ToLower(lang)
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) float(key string, def float64) float64 {
	raw := strings.TrimSpace(p.getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) int(key string, def int) int {
	raw := strings.TrimSpace(p.getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) bool(key string, def bool) bool {
	raw := strings.TrimSpace(p.getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(p.getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}
