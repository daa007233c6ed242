// Package speech renders assistant replies as audio through a synthesis
// engine, degrading to log output when no engine is usable.
package speech

import (
	"context"
	log "log/slog"
	"strings"
	"sync"

	"voxchat/internal/failure"
)

type Voice struct {
	ID        string
	Name      string
	Languages []string
}

// Engine is a blocking text-to-speech backend.
type Engine interface {
	Voices() ([]Voice, error)
	SetVoice(id string) error
	SetRate(wordsPerMinute int) error
	SetVolume(v float64) error
	// Say returns once playback has finished.
	Say(text string) error
	Close() error
}

// Ducking lowers other audio while speaking.
type Ducking interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Options struct {
	Language string // e.g. "en-US"
	Voice    string // explicit voice name or id, optional
	Rate     int
	Volume   float64
	Ducker   Ducking
}

// Speaker is safe for concurrent use; utterances never overlap.
type Speaker struct {
	mu     sync.Mutex
	engine Engine
	voice  Voice
	ducker Ducking
	logger *log.Logger
}

// New configures engine according to opts. A nil engine, or one that
// cannot be configured, yields a Speaker that only logs.
func New(engine Engine, opts Options, logger *log.Logger) *Speaker {
	if logger == nil {
		logger = log.Default()
	}
	s := &Speaker{engine: engine, ducker: opts.Ducker, logger: logger}
	if engine == nil {
		logger.Warn("Speech output unavailable", "err", failure.ErrSynthesisUnavailable)
		return s
	}

	if err := s.configure(opts); err != nil {
		logger.Warn("Speech output unavailable", "err", failure.New(failure.SynthesisUnavailable, "configure", err))
		_ = engine.Close()
		s.engine = nil
	}
	return s
}

func (s *Speaker) configure(opts Options) error {
	if opts.Rate > 0 {
		if err := s.engine.SetRate(opts.Rate); err != nil {
			return err
		}
	}
	if err := s.engine.SetVolume(opts.Volume); err != nil {
		return err
	}

	voices, err := s.engine.Voices()
	if err != nil {
		s.logger.Warn("Could not list voices, using engine default", "err", err)
		return nil
	}

	v, ok := SelectVoice(voices, opts.Language, opts.Voice)
	if !ok {
		s.logger.Info("No voices reported, using engine default")
		return nil
	}
	if err := s.engine.SetVoice(v.ID); err != nil {
		s.logger.Warn("Could not set voice, using engine default", "voice", v.Name, "err", err)
		return nil
	}

	s.voice = v
	s.logger.Info("Using voice", "name", v.Name, "id", v.ID)
	return nil
}

// Available reports whether a synthesis engine is in use.
func (s *Speaker) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine != nil
}

func (s *Speaker) Voice() Voice { return s.voice }

// Speak renders text and blocks until playback ends. Blank text is ignored.
// Failures are logged, never returned.
func (s *Speaker) Speak(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Debug("Nothing to speak")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		s.logger.Warn("TTS not available", "text", text)
		return
	}

	if s.ducker != nil {
		if err := s.ducker.Duck(ctx); err != nil {
			s.logger.Debug("Duck failed", "err", err)
		}
		defer func() {
			if err := s.ducker.Restore(context.WithoutCancel(ctx)); err != nil {
				s.logger.Debug("Restore failed", "err", err)
			}
		}()
	}

	s.logger.Debug("Speaking", "chars", len(text))

	if err := s.engine.Say(text); err != nil {
		s.logger.Error("Failed to voice out", "err", err)
	}
}

func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return nil
	}
	err := s.engine.Close()
	s.engine = nil
	return err
}

// SelectVoice applies the voice policy: an explicit override naming an
// existing voice wins; then a voice matching the full language tag; then one
// matching its primary subtag; then the first voice labelled English; then
// the first voice. ok is false only when voices is empty.
func SelectVoice(voices []Voice, language, override string) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}

	if override != "" {
		for _, v := range voices {
			if strings.EqualFold(v.Name, override) || strings.EqualFold(v.ID, override) {
				return v, true
			}
		}
	}

	tag := normalizeTag(language)
	primary, _, _ := strings.Cut(tag, "-")

	for _, exact := range []bool{true, false} {
		for _, v := range voices {
			for _, l := range v.Languages {
				l = normalizeTag(l)
				lp, _, _ := strings.Cut(l, "-")
				if (exact && l == tag) || (!exact && lp == primary) {
					return v, true
				}
			}
		}
	}

	for _, v := range voices {
		if strings.Contains(strings.ToLower(v.Name), "english") {
			return v, true
		}
	}

	return voices[0], true
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
}
