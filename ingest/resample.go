package ingest

import "math"

// resampler performs sample rate conversion using windowed sinc
// interpolation with a Blackman window, adapted from the teacher's
// pkg/resampler for use inside the ingest worker rather than the core
// convolution math (which never resamples; see §1's Non-goals).
type resampler struct {
	sincLobes int
}

// newResampler returns a resampler with a quality/speed tradeoff typical of
// offline IR preparation: more lobes than a real-time resampler would use,
// since this runs once per IR load, off the audio thread.
func newResampler() *resampler {
	return &resampler{sincLobes: 16}
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-10 {
		return 1.0
	}
	pix := math.Pi * x
	return math.Sin(pix) / pix
}

// blackmanWindow evaluates the Blackman window at x in [-1, 1]; 0 outside.
func blackmanWindow(x float64) float64 {
	if x < -1.0 || x > 1.0 {
		return 0.0
	}
	t := (x + 1.0) / 2.0
	return 0.42 - 0.5*math.Cos(2*math.Pi*t) + 0.08*math.Cos(4*math.Pi*t)
}

// resample converts data from srcRate to dstRate. A rate match is a no-op
// copy.
func (r *resampler) resample(data []float32, srcRate, dstRate float64) []float32 {
	if len(data) == 0 {
		return nil
	}

	if srcRate == dstRate {
		out := make([]float32, len(data))
		copy(out, data)
		return out
	}

	ratio := dstRate / srcRate
	inputLen := len(data)
	outputLen := int(math.Round(float64(inputLen) * ratio))
	if outputLen == 0 {
		return nil
	}

	output := make([]float32, outputLen)

	filterRatio := 1.0
	if ratio < 1.0 {
		filterRatio = ratio
	}
	windowRadius := float64(r.sincLobes) / filterRatio

	for i := range output {
		inputPos := float64(i) / ratio

		startIdx := int(math.Floor(inputPos - windowRadius))
		endIdx := int(math.Ceil(inputPos + windowRadius))
		if startIdx < 0 {
			startIdx = 0
		}
		if endIdx >= inputLen {
			endIdx = inputLen - 1
		}

		var sum, weightSum float64
		for j := startIdx; j <= endIdx; j++ {
			d := inputPos - float64(j)
			weight := sinc(d*filterRatio) * blackmanWindow(d/windowRadius)
			sum += float64(data[j]) * weight
			weightSum += weight
		}

		if weightSum > 0 {
			output[i] = float32(sum / weightSum)
		}
	}

	return output
}

// resampleChannels resamples every plane from srcRate to dstRate.
func (r *resampler) resampleChannels(planes [][]float32, srcRate, dstRate float64) [][]float32 {
	out := make([][]float32, len(planes))
	for ch, plane := range planes {
		out[ch] = r.resample(plane, srcRate, dstRate)
	}
	return out
}
