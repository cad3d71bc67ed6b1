package ingest

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/wav"
)

// decodeWAV reads an entire WAV stream into planar float32 samples in
// [-1, 1], along with the stream's native sample rate. Channels are
// returned in source order; callers truncate or duplicate to the target
// channel count.
func decodeWAV(r io.Reader) (planes [][]float32, sampleRate int, err error) {
	ra, ok := r.(io.ReadSeeker)
	if !ok {
		return nil, 0, fmt.Errorf("%w: WAV decoding requires a seekable reader", ErrUnsupportedFormat)
	}

	decoder := wav.NewDecoder(ra)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: not a valid WAV file", ErrDecodeFailed)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	numChannels := buf.Format.NumChannels
	if numChannels < 1 {
		return nil, 0, fmt.Errorf("%w: zero channels reported", ErrDecodeFailed)
	}

	frames := len(buf.Data) / numChannels
	planes = make([][]float32, numChannels)
	for ch := range planes {
		planes[ch] = make([]float32, frames)
	}

	peak := fullScale(decoder.SampleBitDepth())

	for i, v := range buf.Data {
		ch := i % numChannels
		frame := i / numChannels
		planes[ch][frame] = float32(float64(v) / peak)
	}

	return planes, int(decoder.SampleRate), nil
}

// fullScale returns the magnitude of the most negative value representable
// at the given PCM bit depth, used to normalize integer samples to
// [-1, 1]. Falls back to 16-bit full scale for an unreported depth.
func fullScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return math.Exp2(float64(bitDepth - 1))
}
