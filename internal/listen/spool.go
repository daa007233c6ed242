package listen

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"voxchat/internal/vad"
	"voxchat/pkg/audioconv"
)

const processedSuffix = ".processed"

// SpoolSource treats every new audio file dropped into a directory as one
// utterance. Consumed files are renamed with a ".processed" suffix.
type SpoolSource struct {
	dir    string
	poll   time.Duration
	logger *log.Logger
}

func NewSpoolSource(dir string, poll time.Duration, logger *log.Logger) (*SpoolSource, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating spool dir: %w", err)
	}
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SpoolSource{dir: dir, poll: poll, logger: logger}, nil
}

func (s *SpoolSource) Capture(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	opt := audioconv.Options{MaxSamples: int(phraseLimit.Seconds() * audioconv.TargetRate)}

	for {
		path, err := s.next()
		if err != nil {
			return nil, err
		}
		if path != "" {
			return s.consume(ctx, path, opt)
		}

		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, vad.ErrNoSpeech
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *SpoolSource) next() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("reading spool dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if slices.Contains(audioconv.Extensions, ext) {
			return filepath.Join(s.dir, e.Name()), nil
		}
	}
	return "", nil
}

func (s *SpoolSource) consume(ctx context.Context, path string, opt audioconv.Options) ([]float32, error) {
	pcm, decodeErr := audioconv.ConvertFileToPCM16k(ctx, path, opt)

	if err := os.Rename(path, path+processedSuffix); err != nil {
		return nil, fmt.Errorf("marking %s processed: %w", path, err)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), decodeErr)
	}

	s.logger.Info("Spooled utterance", "file", filepath.Base(path), "samples", len(pcm))
	return pcm, nil
}
