package audioconv

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// TargetRate is the sample rate every decoder resamples to.
const TargetRate = 16000

type Options struct {
	MaxSamples int // 0 = no limit
}

// Extensions lists the file suffixes Decode understands.
var Extensions = []string{".wav", ".mp3", ".ogg", ".oga", ".opus"}

// ConvertFileToPCM16k decodes an audio file into mono float32 PCM at 16 kHz.
func ConvertFileToPCM16k(_ context.Context, path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f, filepath.Ext(path), opt)
}

// Decode picks a decoder from ext, sniffing the header when ext is unknown.
func Decode(r io.ReadSeeker, ext string, opt Options) ([]float32, error) {
	switch strings.ToLower(ext) {
	case ".wav":
		return decodeWAVTo16k(r, opt)
	case ".mp3":
		return decodeMP3To16k(r, opt)
	case ".ogg", ".oga", ".opus":
		return decodeOgg(r, opt)
	}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	switch string(magic) {
	case "RIFF":
		return decodeWAVTo16k(r, opt)
	case "OggS":
		return decodeOgg(r, opt)
	}
	if magic[0] == 0xFF || string(magic[:3]) == "ID3" {
		return decodeMP3To16k(r, opt)
	}
	return nil, fmt.Errorf("unsupported format: %q (supported: wav/mp3/ogg-vorbis/opus)", ext)
}

func decodeOgg(r io.ReadSeeker, opt Options) ([]float32, error) {
	s, err := decodeOggVorbisTo16k(r, opt)
	if err == nil {
		return s, nil
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	s, opusErr := decodeOggOpusTo16k(r, opt)
	if opusErr != nil {
		return nil, fmt.Errorf("cannot decode Ogg as Vorbis (%v) or Opus: %w", err, opusErr)
	}
	return s, nil
}

func decodeWAVTo16k(r io.ReadSeeker, opt Options) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav")
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil || pb == nil || pb.Data == nil {
		if err == nil {
			err = errors.New("empty wav")
		}
		return nil, err
	}

	bd := int(dec.BitDepth)
	if bd == 0 {
		bd = 16
	}
	x := intSliceToFloat32(pb.Data, bd)

	ch := 1
	sr := 44100
	if pb.Format != nil {
		if pb.Format.NumChannels > 0 {
			ch = pb.Format.NumChannels
		}
		if pb.Format.SampleRate > 0 {
			sr = pb.Format.SampleRate
		}
	}
	if ch > 1 {
		x = downmixInterleaved(x, ch)
	}
	if sr != TargetRate {
		x = resampleLinear(x, sr, TargetRate)
	}
	return opt.limit(x), nil
}

func decodeMP3To16k(r io.Reader, opt Options) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, err
	}
	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(bytes.NewReader(raw.Bytes()), binary.LittleEndian, &ints); err != nil {
		return nil, err
	}
	x := int16SliceToFloat32(ints)
	x = downmixInterleaved(x, 2) // mp3 decoder outputs stereo

	sr := dec.SampleRate()
	if sr <= 0 {
		sr = 44100
	}
	if sr != TargetRate {
		x = resampleLinear(x, sr, TargetRate)
	}
	return opt.limit(x), nil
}

func decodeOggVorbisTo16k(r io.Reader, opt Options) ([]float32, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, errors.New("invalid ogg/vorbis stream")
	}
	var x []float32
	if format.Channels == 1 {
		x = pcm
	} else {
		x = downmixInterleaved(pcm, format.Channels)
	}
	if format.SampleRate != TargetRate {
		x = resampleLinear(x, format.SampleRate, TargetRate)
	}
	return opt.limit(x), nil
}

func (o Options) limit(x []float32) []float32 {
	if o.MaxSamples > 0 && len(x) > o.MaxSamples {
		return x[:o.MaxSamples]
	}
	return x
}

func intSliceToFloat32(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(clamp(float64(v)*scale, -1.0, 1.0))
	}
	return out
}

func int16SliceToFloat32(data []int16) []float32 {
	out := make([]float32, len(data))
	const scale = 1.0 / 32768.0
	for i, v := range data {
		out[i] = float32(float64(v) * scale)
	}
	return out
}

func downmixInterleaved(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	nFrames := len(in) / channels
	out := make([]float32, nFrames)
	for i := 0; i < nFrames; i++ {
		sum := 0.0
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += float64(in[base+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

func resampleLinear(in []float32, inSR, outSR int) []float32 {
	if inSR == outSR || len(in) == 0 {
		return in
	}
	ratio := float64(outSR) / float64(inSR)
	outN := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, outN)
	for i := 0; i < outN; i++ {
		src := float64(i) / ratio
		i0 := int(math.Floor(src))
		i1 := i0 + 1
		if i0 >= len(in) {
			out[i] = in[len(in)-1]
			continue
		}
		if i1 >= len(in) {
			out[i] = in[i0]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i1]*a
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
