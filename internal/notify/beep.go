// Package notify plays the short "listening" cue.
package notify

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Earcon is a preloaded sound clip. Play errors are logged, never fatal.
type Earcon struct {
	mu     sync.Mutex
	buf    *beep.Buffer
	logger *log.Logger
}

var speakerOnce sync.Once

// NewEarcon decodes an mp3 or wav file into memory and opens the
// output device at its sample rate.
func NewEarcon(path string, logger *log.Logger) (*Earcon, error) {
	if logger == nil {
		logger = log.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open earcon: %w", err)
	}
	defer f.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		return nil, fmt.Errorf("earcon: unsupported file %q", filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("decode earcon: %w", err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)

	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if initErr != nil {
		return nil, fmt.Errorf("init speaker: %w", initErr)
	}

	return &Earcon{buf: buf, logger: logger}, nil
}

// Play blocks until the clip finished or ctx is done.
func (e *Earcon) Play(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	done := make(chan struct{})
	speaker.Play(beep.Seq(e.buf.Streamer(0, e.buf.Len()), beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
	case <-ctx.Done():
		speaker.Clear()
		e.logger.Debug("Earcon interrupted")
	}
}
