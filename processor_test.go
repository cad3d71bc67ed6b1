package convengine

import (
	"math"
	"testing"

	"convengine/dsp"
)

func TestProcessorWritesSilenceBeforeInstall(t *testing.T) {
	t.Parallel()

	p, err := NewProcessor(64, 1, 48000, 4)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	defer p.Close()

	in := []float32{1, 2, 3, 4}
	out := []float32{9, 9, 9, 9}
	p.Process([][]float32{in}, [][]float32{out})

	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silence at index %d before any install, got %g", i, v)
		}
	}
}

func TestProcessorInstallsBeforeFirstCallbackUsesIt(t *testing.T) {
	t.Parallel()

	p, err := NewProcessor(64, 1, 48000, 4)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	defer p.Close()

	ir := make([]float32, 128)
	ir[0] = 1
	mc, err := dsp.NewMultiChannel([][]float32{ir}, 64)
	if err != nil {
		t.Fatalf("dsp.NewMultiChannel: %v", err)
	}
	p.Plane().Publish(mc)

	in := make([]float32, 256)
	for i := range in {
		in[i] = float32(i % 3)
	}
	out := make([]float32, len(in))
	p.Process([][]float32{in}, [][]float32{out})

	if rms := rmsErrorForTest(t, out, in); rms > 1e-6 {
		t.Errorf("delta-IR processing diverged from input, RMS error %g", rms)
	}
}

func TestProcessorChannelCountMismatchConstruction(t *testing.T) {
	t.Parallel()

	if _, err := NewProcessor(64, 0, 48000, 4); err != dsp.ErrChannelCountMismatch {
		t.Errorf("expected ErrChannelCountMismatch, got %v", err)
	}
	if _, err := NewProcessor(0, 1, 48000, 4); err != dsp.ErrInvalidBlockSize {
		t.Errorf("expected ErrInvalidBlockSize, got %v", err)
	}
}

func TestProcessorZeroesUnfilledOutputChannels(t *testing.T) {
	t.Parallel()

	p, err := NewProcessor(64, 2, 48000, 4)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	defer p.Close()

	ir := make([]float32, 64)
	ir[0] = 1
	mc, err := dsp.NewMultiChannel([][]float32{ir}, 64) // one engine only, even though Processor expects 2
	if err != nil {
		t.Fatalf("dsp.NewMultiChannel: %v", err)
	}
	p.Plane().Publish(mc)

	in0 := []float32{1, 2, 3, 4}
	in1 := []float32{5, 6, 7, 8}
	out0 := make([]float32, 4)
	out1 := []float32{9, 9, 9, 9}
	p.Process([][]float32{in0, in1}, [][]float32{out0, out1})

	for i, v := range out1 {
		if v != 0 {
			t.Fatalf("expected channel 1 zeroed (no engine for it), got %g at index %d", v, i)
		}
	}
}

func rmsErrorForTest(t *testing.T, got, want []float32) float64 {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("rmsErrorForTest: length mismatch got=%d want=%d", len(got), len(want))
	}
	var sum float64
	for i := range got {
		d := float64(got[i]) - float64(want[i])
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(got)))
}
