package dsp

import (
	"fmt"
	"math"
	"testing"
)

// fftSizesUnderTest covers the FFT sizes a real-world engine actually hits:
// F = 4B for small blocks (B <= 128) and F = 2B for larger ones, spanning
// the host block sizes a plugin is likely to be driven with.
var fftSizesUnderTest = []int{128, 256, 512, 1024, 2048, 4096, 8192, 16384}

func BenchmarkFFTForward(b *testing.B) {
	for _, size := range fftSizesUnderTest {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			f, err := NewFFT(size)
			if err != nil {
				b.Fatalf("NewFFT: %v", err)
			}

			in := make([]float32, size)
			out := make([]complex64, f.SpectrumLen())
			for i := range in {
				in[i] = float32(math.Sin(float64(i) * 0.1))
			}

			b.SetBytes(int64(size * 4))
			b.ResetTimer()

			for range b.N {
				f.Forward(in, out)
			}
		})
	}
}

func BenchmarkFFTInverse(b *testing.B) {
	for _, size := range fftSizesUnderTest {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			f, err := NewFFT(size)
			if err != nil {
				b.Fatalf("NewFFT: %v", err)
			}

			in := make([]complex64, f.SpectrumLen())
			out := make([]float32, size)
			for i := range in {
				in[i] = complex(float32(i), 0)
			}

			b.SetBytes(int64(size * 4))
			b.ResetTimer()

			for range b.N {
				f.Inverse(in, out)
			}
		})
	}
}

// BenchmarkFFTPartitionCycle measures one partition's worth of work as the
// engine actually performs it: forward transform, spectral
// multiply-accumulate against a partition, inverse transform.
func BenchmarkFFTPartitionCycle(b *testing.B) {
	for _, size := range fftSizesUnderTest {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			f, err := NewFFT(size)
			if err != nil {
				b.Fatalf("NewFFT: %v", err)
			}

			spectrumLen := f.SpectrumLen()
			inputTime := make([]float32, size)
			spectrum := make([]complex64, spectrumLen)
			partition := make([]complex64, spectrumLen)
			accum := make([]complex64, spectrumLen)
			outputTime := make([]float32, size)

			for i := range inputTime {
				inputTime[i] = float32(math.Sin(float64(i) * 0.1))
			}
			for i := range partition {
				partition[i] = complex(float32(0.5*math.Exp(-float64(i)/100.0)), 0)
			}

			b.SetBytes(int64(size * 8))
			b.ResetTimer()

			for range b.N {
				f.Forward(inputTime, spectrum)
				clear(accum)
				multiplyAccumulate(accum, spectrum, partition)
				f.Inverse(accum, outputTime)
			}
		})
	}
}
