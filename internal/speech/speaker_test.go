package speech

import (
	"context"
	"errors"
	"io"
	log "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	voices    []Voice
	voicesErr error
	rateErr   error
	said      []string
	voice     string
	rate      int
	volume    float64
	closed    bool
}

func (f *fakeEngine) Voices() ([]Voice, error) { return f.voices, f.voicesErr }
func (f *fakeEngine) SetVoice(id string) error  { f.voice = id; return nil }
func (f *fakeEngine) SetRate(r int) error        { f.rate = r; return f.rateErr }
func (f *fakeEngine) SetVolume(v float64) error  { f.volume = v; return nil }
func (f *fakeEngine) Say(text string) error      { f.said = append(f.said, text); return nil }
func (f *fakeEngine) Close() error               { f.closed = true; return nil }

type fakeDucker struct{ calls []string }

func (d *fakeDucker) Duck(context.Context) error    { d.calls = append(d.calls, "duck"); return nil }
func (d *fakeDucker) Restore(context.Context) error { d.calls = append(d.calls, "restore"); return nil }

func quiet() *log.Logger { return log.New(log.NewTextHandler(io.Discard, nil)) }

var voices = []Voice{
	{ID: "de", Name: "German", Languages: []string{"de"}},
	{ID: "gmw/en-US", Name: "English (America)", Languages: []string{"en-us", "en"}},
	{ID: "fr", Name: "French", Languages: []string{"fr-fr"}},
}

func TestBlankTextIsNoop(t *testing.T) {
	eng := &fakeEngine{voices: voices}
	duck := &fakeDucker{}
	s := New(eng, Options{Language: "en-US", Ducker: duck}, quiet())

	s.Speak(context.Background(), "")
	s.Speak(context.Background(), "   ")
	s.Speak(context.Background(), "\n\t")

	assert.Empty(t, eng.said)
	assert.Empty(t, duck.calls)
}

func TestBlankTextIsNoopWithoutEngine(t *testing.T) {
	s := New(nil, Options{}, quiet())
	assert.False(t, s.Available())
	s.Speak(context.Background(), "")
	s.Speak(context.Background(), "hello")
}

func TestSpeakTrimsAndDucks(t *testing.T) {
	eng := &fakeEngine{voices: voices}
	duck := &fakeDucker{}
	s := New(eng, Options{Language: "en-US", Rate: 160, Volume: 1, Ducker: duck}, quiet())

	require.True(t, s.Available())
	s.Speak(context.Background(), "  Hello there.  ")

	assert.Equal(t, []string{"Hello there."}, eng.said)
	assert.Equal(t, []string{"duck", "restore"}, duck.calls)
	assert.Equal(t, 160, eng.rate)
	assert.Equal(t, 1.0, eng.volume)
	assert.Equal(t, "gmw/en-US", eng.voice)
	assert.Equal(t, "English (America)", s.Voice().Name)
}

func TestConfigureFailureDegrades(t *testing.T) {
	eng := &fakeEngine{rateErr: errors.New("bad rate")}
	s := New(eng, Options{Rate: 999}, quiet())

	assert.False(t, s.Available())
	assert.True(t, eng.closed)

	s.Speak(context.Background(), "hello")
	assert.Empty(t, eng.said)
}

func TestVoiceListingFailureKeepsEngine(t *testing.T) {
	eng := &fakeEngine{voicesErr: errors.New("no voices dir")}
	s := New(eng, Options{Language: "en-US"}, quiet())

	require.True(t, s.Available())
	assert.Empty(t, eng.voice)
	s.Speak(context.Background(), "hi")
	assert.Equal(t, []string{"hi"}, eng.said)
}

func TestClose(t *testing.T) {
	eng := &fakeEngine{}
	s := New(eng, Options{}, quiet())
	require.NoError(t, s.Close())
	assert.True(t, eng.closed)
	assert.False(t, s.Available())
	require.NoError(t, s.Close())
}

func TestSelectVoice(t *testing.T) {
	tests := []struct {
		name     string
		voices   []Voice
		lang     string
		override string
		want     string
	}{
		{name: "empty", voices: nil, lang: "en-US"},
		{name: "language tag", voices: voices, lang: "en-US", want: "gmw/en-US"},
		{name: "primary subtag", voices: voices, lang: "fr_CA", want: "fr"},
		{name: "english label", voices: []Voice{{ID: "a", Name: "Other"}, {ID: "b", Name: "english-rp"}}, lang: "xx", want: "b"},
		{name: "fallback first", voices: voices[:1], lang: "ja-JP", want: "de"},
		{name: "override by name", voices: voices, lang: "en-US", override: "french", want: "fr"},
		{name: "unknown override ignored", voices: voices, lang: "de", override: "klingon", want: "de"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := SelectVoice(tc.voices, tc.lang, tc.override)
			if tc.voices == nil {
				assert.False(t, ok)
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tc.want, v.ID)
		})
	}
}
