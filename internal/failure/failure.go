// Package failure defines the closed set of failure kinds surfaced by the
// voice pipeline so callers can branch on cause instead of message text.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindUnknown is reported for errors that carry no failure kind.
	KindUnknown Kind = iota
	// RecognitionTimeout means no speech started before the listen timeout.
	RecognitionTimeout
	// RecognitionUnintelligible means speech was captured but not transcribed.
	RecognitionUnintelligible
	// RecognitionService means the recognition backend itself failed.
	RecognitionService
	// Generation means the language model call failed.
	Generation
	// SynthesisUnavailable means no usable speech engine exists.
	SynthesisUnavailable
	// Startup means a component could not be constructed.
	Startup
)

var kindNames = map[Kind]string{
	KindUnknown:               "unknown",
	RecognitionTimeout:        "recognition_timeout",
	RecognitionUnintelligible: "recognition_unintelligible",
	RecognitionService:        "recognition_service",
	Generation:                "generation",
	SynthesisUnavailable:      "synthesis_unavailable",
	Startup:                   "startup",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a failure of a known kind raised by operation Op.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is. Only the kind is compared.
var (
	ErrRecognitionTimeout        = &Error{Kind: RecognitionTimeout}
	ErrRecognitionUnintelligible = &Error{Kind: RecognitionUnintelligible}
	ErrRecognitionService        = &Error{Kind: RecognitionService}
	ErrGeneration                = &Error{Kind: Generation}
	ErrSynthesisUnavailable      = &Error{Kind: SynthesisUnavailable}
	ErrStartup                   = &Error{Kind: Startup}
)

// New wraps err as a failure of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so sentinels match any error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// NoTranscript reports whether err means "nothing was heard" rather than a
// backend fault.
func NoTranscript(err error) bool {
	switch KindOf(err) {
	case RecognitionTimeout, RecognitionUnintelligible:
		return true
	}
	return false
}
