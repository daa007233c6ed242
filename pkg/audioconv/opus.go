//go:build opus

package audioconv

import (
	"bytes"
	"io"

	popus "github.com/pekim/opus"
)

func decodeOggOpusTo16k(r io.Reader, opt Options) ([]float32, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		rs = bytes.NewReader(b)
	}

	dec, err := popus.NewDecoder(rs)
	if err != nil {
		return nil, err
	}
	defer dec.Destroy()

	ch := dec.ChannelCount()
	if ch <= 0 {
		ch = 1
	}

	const opusRate = 48000

	var pcm []float32
	buf := make([]int16, opusRate*ch/2)
	for {
		n, err := dec.Read(buf) // samples per channel
		if n > 0 {
			pcm = append(pcm, int16SliceToFloat32(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if ch > 1 {
		pcm = downmixInterleaved(pcm, ch)
	}
	return opt.limit(resampleLinear(pcm, opusRate, TargetRate)), nil
}
