package listen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxchat/internal/failure"
	"voxchat/internal/vad"
)

type fakeCapturer struct {
	pcm []float32
	err error
}

func (f fakeCapturer) Capture(context.Context, time.Duration, time.Duration) ([]float32, error) {
	return f.pcm, f.err
}

type fakeRecognizer struct {
	text     string
	err      error
	language string
	calls    int
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []float32, language string) (string, error) {
	f.calls++
	f.language = language
	return f.text, f.err
}

func TestListenReturnsTranscript(t *testing.T) {
	rec := &fakeRecognizer{text: "  what is the weather  "}
	l := New(fakeCapturer{pcm: []float32{0.1, 0.2}}, rec, "en", nil)

	text, err := l.Listen(context.Background(), time.Second, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "what is the weather", text)
	assert.Equal(t, "en", rec.language)
}

func TestListenFailureKinds(t *testing.T) {
	cases := []struct {
		name string
		capt fakeCapturer
		rec  *fakeRecognizer
		kind failure.Kind
	}{
		{"silence", fakeCapturer{err: vad.ErrNoSpeech}, &fakeRecognizer{}, failure.RecognitionTimeout},
		{"device", fakeCapturer{err: errors.New("stream closed")}, &fakeRecognizer{}, failure.RecognitionService},
		{"empty capture", fakeCapturer{}, &fakeRecognizer{}, failure.RecognitionUnintelligible},
		{"service", fakeCapturer{pcm: []float32{1}}, &fakeRecognizer{err: errors.New("503")}, failure.RecognitionService},
		{"blank", fakeCapturer{pcm: []float32{1}}, &fakeRecognizer{text: "[BLANK_AUDIO]"}, failure.RecognitionUnintelligible},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.capt, tc.rec, "en", nil).Listen(context.Background(), time.Second, time.Second)
			require.Error(t, err)
			assert.Equal(t, tc.kind, failure.KindOf(err))
		})
	}
}

func TestListenNoTranscriptClassification(t *testing.T) {
	_, err := New(fakeCapturer{err: vad.ErrNoSpeech}, &fakeRecognizer{}, "en", nil).
		Listen(context.Background(), time.Second, time.Second)
	assert.True(t, failure.NoTranscript(err))

	_, err = New(fakeCapturer{pcm: []float32{1}}, &fakeRecognizer{err: errors.New("down")}, "en", nil).
		Listen(context.Background(), time.Second, time.Second)
	assert.False(t, failure.NoTranscript(err))
}

func TestListenSkipsRecognizerWhenNothingCaptured(t *testing.T) {
	rec := &fakeRecognizer{text: "hi"}
	_, err := New(fakeCapturer{err: vad.ErrNoSpeech}, rec, "en", nil).
		Listen(context.Background(), time.Second, time.Second)
	require.Error(t, err)
	assert.Zero(t, rec.calls)
}

func TestListenPassesCancellationThrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(fakeCapturer{err: context.Canceled}, &fakeRecognizer{}, "en", nil).
		Listen(ctx, time.Second, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, failure.KindUnknown, failure.KindOf(err))
}

func TestClean(t *testing.T) {
	assert.Equal(t, "", Clean(" [BLANK_AUDIO] "))
	assert.Equal(t, "hello there", Clean("(music) hello   there"))
	assert.Equal(t, "reset", Clean("reset"))
}
