package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"voxchat/internal/vad"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
)

// Recorder captures single utterances from the default input device.
type Recorder struct {
	mu        sync.Mutex
	threshold float64
	pause     time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{threshold: vad.DefaultThreshold, pause: vad.DefaultPause}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

func (r *Recorder) Threshold() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.threshold
}

// Calibrate listens to the room for d and sets the speech threshold from
// the ambient noise level.
func (r *Recorder) Calibrate(d time.Duration) (float64, error) {
	if d <= 0 {
		return r.Threshold(), nil
	}

	buf := make([]float32, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return 0, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return 0, fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	frames := int(d / (20 * time.Millisecond))
	if frames < 1 {
		frames = 1
	}

	var sum float64
	for i := 0; i < frames; i++ {
		if err := stream.Read(); err != nil {
			return 0, fmt.Errorf("read: %w", err)
		}
		sum += vad.RMS(buf)
	}

	th := vad.ThresholdFromAmbient(sum / float64(frames))

	r.mu.Lock()
	r.threshold = th
	r.mu.Unlock()

	return th, nil
}

// Capture records one utterance. It returns vad.ErrNoSpeech when nothing
// louder than the threshold started within timeout; phraseLimit caps the
// utterance length.
func (r *Recorder) Capture(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error) {
	seg := vad.NewSegmenter(vad.Config{
		SampleRate:  SampleRate,
		Threshold:   r.Threshold(),
		Timeout:     timeout,
		PhraseLimit: phraseLimit,
		Pause:       r.pause,
	})

	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}

		switch seg.Push(buf) {
		case vad.TimedOut:
			return nil, vad.ErrNoSpeech
		case vad.Done:
			return seg.Samples(), nil
		}
	}
}
