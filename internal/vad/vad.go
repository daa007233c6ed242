// Package vad finds one utterance in a stream of mono PCM frames using an
// energy threshold.
package vad

import (
	"errors"
	"math"
	"time"
)

// ErrNoSpeech is returned by capture sources when the wait for speech
// timed out.
var ErrNoSpeech = errors.New("no speech before timeout")

const (
	// MinThreshold keeps a silent room from producing a zero threshold.
	MinThreshold = 0.01
	// AmbientRatio scales ambient RMS into the speech threshold.
	AmbientRatio = 1.5
	// DefaultThreshold is used before calibration.
	DefaultThreshold = 0.015
	// DefaultPause ends a phrase after this much trailing silence.
	DefaultPause = 800 * time.Millisecond
)

type State int

const (
	Waiting State = iota
	Speaking
	Done
	TimedOut
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Speaking:
		return "speaking"
	case Done:
		return "done"
	case TimedOut:
		return "timed_out"
	}
	return "unknown"
}

type Config struct {
	SampleRate  int
	Threshold   float64
	Timeout     time.Duration // max wait for speech to start
	PhraseLimit time.Duration // max utterance length once started
	Pause       time.Duration // trailing silence that ends the utterance
}

// Segmenter consumes frames until an utterance is complete.
type Segmenter struct {
	cfg     Config
	state   State
	waited  time.Duration
	spoken  time.Duration
	silence time.Duration
	out     []float32
}

func NewSegmenter(cfg Config) *Segmenter {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Pause <= 0 {
		cfg.Pause = DefaultPause
	}
	return &Segmenter{cfg: cfg}
}

// Push feeds one frame and returns the resulting state. Frames pushed after
// Done or TimedOut are ignored.
func (s *Segmenter) Push(frame []float32) State {
	if s.state == Done || s.state == TimedOut || len(frame) == 0 {
		return s.state
	}

	dur := time.Duration(len(frame)) * time.Second / time.Duration(s.cfg.SampleRate)
	loud := RMS(frame) > s.cfg.Threshold

	switch s.state {
	case Waiting:
		if !loud {
			s.waited += dur
			if s.cfg.Timeout > 0 && s.waited >= s.cfg.Timeout {
				s.state = TimedOut
			}
			return s.state
		}
		s.state = Speaking
		fallthrough
	case Speaking:
		s.out = append(s.out, frame...)
		s.spoken += dur
		if loud {
			s.silence = 0
		} else {
			s.silence += dur
		}
		if s.silence >= s.cfg.Pause || (s.cfg.PhraseLimit > 0 && s.spoken >= s.cfg.PhraseLimit) {
			s.state = Done
		}
	}
	return s.state
}

func (s *Segmenter) State() State { return s.state }

// Samples returns the captured utterance.
func (s *Segmenter) Samples() []float32 { return s.out }

// Finish closes the segment when the source runs dry: a started utterance
// becomes Done, otherwise TimedOut.
func (s *Segmenter) Finish() State {
	switch s.state {
	case Speaking:
		s.state = Done
	case Waiting:
		s.state = TimedOut
	}
	return s.state
}

// RMS is the root mean square of frame.
func RMS(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, x := range frame {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// ThresholdFromAmbient derives the speech threshold from ambient noise RMS.
func ThresholdFromAmbient(ambient float64) float64 {
	return math.Max(MinThreshold, ambient*AmbientRatio)
}
