package audioconv

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, rate int, freq float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	in := sine(1600, TargetRate, 440)

	data, err := EncodeWAV(in, TargetRate)
	require.NoError(t, err)
	require.Equal(t, "RIFF", string(data[:4]))
	require.Equal(t, "WAVE", string(data[8:12]))

	out, err := Decode(bytes.NewReader(data), ".wav", Options{})
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.InDelta(t, in[i], out[i], 1e-3)
	}
}

func TestDecodeSniffsWAVAndLimits(t *testing.T) {
	data, err := EncodeWAV(sine(1600, TargetRate, 220), TargetRate)
	require.NoError(t, err)

	out, err := Decode(bytes.NewReader(data), "", Options{MaxSamples: 100})
	require.NoError(t, err)
	assert.Len(t, out, 100)
}

func TestDecodeResamples(t *testing.T) {
	data, err := EncodeWAV(sine(8000, 8000, 220), 8000)
	require.NoError(t, err)

	out, err := Decode(bytes.NewReader(data), ".wav", Options{})
	require.NoError(t, err)
	assert.Len(t, out, 16000)
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("hello world")), ".txt", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestConvertFileToPCM16k(t *testing.T) {
	data, err := EncodeWAV(sine(3200, TargetRate, 330), TargetRate)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "utterance.wav")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err := ConvertFileToPCM16k(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Len(t, out, 3200)
}

func TestEncodeWAVRejectsBadRate(t *testing.T) {
	_, err := EncodeWAV([]float32{0}, 0)
	require.Error(t, err)
}

func TestDownmixAndResample(t *testing.T) {
	assert.Equal(t, []float32{0.5, 0}, downmixInterleaved([]float32{1, 0, 0.5, -0.5}, 2))
	assert.Len(t, resampleLinear(make([]float32, 4), 8000, 16000), 8)
	assert.Equal(t, []float32{1, 2}, resampleLinear([]float32{1, 2}, 16000, 16000))
}
