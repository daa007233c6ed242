package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxchat/internal/failure"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"GOOGLE_API_KEY": "key"}))
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 0.95, cfg.TopP)
	assert.Equal(t, int64(1024), cfg.MaxOutputTokens)
	assert.Equal(t, "en-US", cfg.Language)
	assert.Equal(t, "en", cfg.RecognitionLanguage())
	assert.Equal(t, "hosted", cfg.STTBackend)
	assert.Equal(t, "microphone", cfg.AudioSource)
	assert.Equal(t, 5*time.Second, cfg.ListenTimeout)
	assert.Equal(t, 10*time.Second, cfg.PhraseLimit)
	assert.Equal(t, 160, cfg.TTSRate)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.False(t, cfg.DuckOthers)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"GOOGLE_API_KEY":    "key",
		"MODEL_NAME":        "gemini-2.0-flash",
		"TEMPERATURE":       "0.2",
		"LANGUAGE":          "de-DE",
		"PHRASE_TIME_LIMIT": "3s",
		"DUCK_OTHERS":       "true",
		"STT_BACKEND":       "WHISPER",
	}))
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, "de", cfg.RecognitionLanguage())
	assert.Equal(t, 3*time.Second, cfg.PhraseLimit)
	assert.True(t, cfg.DuckOthers)
	assert.Equal(t, "whisper", cfg.STTBackend)
}

func TestFromEnvMissingKeyIsStartupFailure(t *testing.T) {
	_, err := FromEnv(env(nil))
	require.ErrorIs(t, err, failure.ErrStartup)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
}

func TestFromEnvBadNumbers(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		"GOOGLE_API_KEY": "key",
		"TEMPERATURE":    "warm",
		"LISTEN_TIMEOUT": "soon",
	}))
	require.ErrorIs(t, err, failure.ErrStartup)
	assert.Contains(t, err.Error(), "TEMPERATURE")
	assert.Contains(t, err.Error(), "LISTEN_TIMEOUT")
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"temperature", map[string]string{"TEMPERATURE": "3"}},
		{"top p", map[string]string{"TOP_P": "0"}},
		{"backend", map[string]string{"STT_BACKEND": "vosk"}},
		{"source", map[string]string{"AUDIO_SOURCE": "bluetooth"}},
		{"volume", map[string]string{"TTS_VOLUME": "1.5"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.vars["GOOGLE_API_KEY"] = "key"
			_, err := FromEnv(env(tc.vars))
			require.ErrorIs(t, err, failure.ErrStartup)
		})
	}
}

func TestValidateListening(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"GOOGLE_API_KEY": "key"}))
	require.NoError(t, err)
	require.ErrorIs(t, cfg.ValidateListening(), failure.ErrStartup)

	cfg.STTAPIKey = "sk"
	require.NoError(t, cfg.ValidateListening())

	cfg.STTBackend = "whisper"
	require.Error(t, cfg.ValidateListening())
	cfg.WhisperModel = "models/ggml-base.en.bin"
	require.NoError(t, cfg.ValidateListening())
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GOOGLE_API_KEY=from-file\nMODEL_NAME=file-model\n"), 0o600))

	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("MODEL_NAME", "")
	require.NoError(t, os.Unsetenv("GOOGLE_API_KEY"))
	require.NoError(t, os.Unsetenv("MODEL_NAME"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "file-model", cfg.Model)
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIKey)
}
