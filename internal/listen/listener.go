// Package listen turns one captured utterance into text.
package listen

import (
	"context"
	"errors"
	log "log/slog"
	"regexp"
	"strings"
	"time"

	"voxchat/internal/failure"
	"voxchat/internal/vad"
)

// Capturer records a single utterance of mono 16 kHz PCM. It returns
// vad.ErrNoSpeech when nothing was said before timeout.
type Capturer interface {
	Capture(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error)
}

// Recognizer transcribes mono 16 kHz PCM.
type Recognizer interface {
	Recognize(ctx context.Context, pcm []float32, language string) (string, error)
}

type Listener struct {
	capture  Capturer
	rec      Recognizer
	language string
	logger   *log.Logger
}

func New(c Capturer, r Recognizer, language string, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{capture: c, rec: r, language: language, logger: logger}
}

// Listen captures and transcribes one utterance. "Nothing heard" is
// reported as failure.RecognitionTimeout or failure.RecognitionUnintelligible
// (see failure.NoTranscript); backend faults as failure.RecognitionService.
// Context cancellation is returned unwrapped. There is no retry.
func (l *Listener) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error) {
	l.logger.Debug("Listening", "timeout", timeout, "phrase_limit", phraseLimit)

	pcm, err := l.capture.Capture(ctx, timeout, phraseLimit)
	switch {
	case err == nil:
	case errors.Is(err, vad.ErrNoSpeech):
		return "", failure.New(failure.RecognitionTimeout, "capture", err)
	case ctx.Err() != nil:
		return "", ctx.Err()
	default:
		return "", failure.New(failure.RecognitionService, "capture", err)
	}

	if len(pcm) == 0 {
		return "", failure.New(failure.RecognitionUnintelligible, "capture", errors.New("empty utterance"))
	}

	l.logger.Debug("Recorded", "samples", len(pcm))

	text, err := l.rec.Recognize(ctx, pcm, l.language)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", failure.New(failure.RecognitionService, "recognize", err)
	}

	text = Clean(text)
	if text == "" {
		return "", failure.New(failure.RecognitionUnintelligible, "recognize", nil)
	}
	return text, nil
}

var markerRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

// Clean strips non-speech markers such as "[BLANK_AUDIO]" or "(music)"
// and collapses whitespace.
func Clean(text string) string {
	text = markerRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}
