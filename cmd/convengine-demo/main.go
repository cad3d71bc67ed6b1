// Command convengine-demo is a host/editor adapter demo: it drives the
// convolution engine over a WAV file exactly as a plugin host would drive
// it over a live audio callback, in fixed-size blocks, then writes the
// result to a WAV file. It exists to exercise §6's contracts end to end
// without a real plugin host or audio hardware.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"convengine"
	"convengine/ingest"
)

func main() {
	irPath := flag.String("ir", "", "Path to impulse response WAV file")
	inPath := flag.String("in", "", "Path to dry input WAV file")
	outPath := flag.String("out", "out.wav", "Path to write the wet output WAV file")
	blockSize := flag.Int("block", 512, "Host callback block size in samples")
	queueCapacity := flag.Int("queue", 4, "Hot-swap queue capacity")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *irPath == "" || *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: convengine-demo -ir <ir.wav> -in <dry.wav> [-out out.wav] [-block 512]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	dry, sampleRate, err := readWAV(*inPath)
	if err != nil {
		slog.Error("failed to read dry input", "path", *inPath, "error", err)
		os.Exit(1)
	}

	channels := len(dry)
	slog.Info("loaded dry input", "path", *inPath, "channels", channels, "sampleRate", sampleRate, "frames", len(dry[0]))

	proc, err := convengine.NewProcessor(*blockSize, channels, sampleRate, *queueCapacity)
	if err != nil {
		slog.Error("failed to construct processor", "error", err)
		os.Exit(1)
	}
	defer proc.Close()

	irBytes, err := os.ReadFile(*irPath)
	if err != nil {
		slog.Error("failed to read impulse response file", "path", *irPath, "error", err)
		os.Exit(1)
	}

	cfg := ingest.Config{
		MaxBlockSize:     *blockSize,
		TargetSampleRate: sampleRate,
		TargetChannels:   channels,
	}
	if err := ingest.LoadAndPublish(irBytes, cfg, proc.Plane(), logger); err != nil {
		slog.Error("failed to build convolver from impulse response", "path", *irPath, "error", err)
		os.Exit(1)
	}

	wet := make([][]float32, channels)
	for ch := range wet {
		wet[ch] = make([]float32, len(dry[ch]))
	}

	processInBlocks(proc, dry, wet, *blockSize)

	if err := writeWAV(*outPath, wet, sampleRate); err != nil {
		slog.Error("failed to write wet output", "path", *outPath, "error", err)
		os.Exit(1)
	}

	slog.Info("wrote wet output", "path", *outPath, "frames", len(wet[0]))
}

// processInBlocks drives proc.Process in fixed-size blocks, matching how a
// plugin host delivers audio one callback at a time.
func processInBlocks(proc *convengine.Processor, dry, wet [][]float32, blockSize int) {
	total := len(dry[0])
	channels := len(dry)

	for pos := 0; pos < total; pos += blockSize {
		n := min(blockSize, total-pos)

		inputs := make([][]float32, channels)
		outputs := make([][]float32, channels)
		for ch := range channels {
			inputs[ch] = dry[ch][pos : pos+n]
			outputs[ch] = wet[ch][pos : pos+n]
		}

		proc.Process(inputs, outputs)
	}
}

// readWAV reads an entire WAV file into planar float32 samples.
func readWAV(path string) (planes [][]float32, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}

	numChannels := buf.Format.NumChannels
	frames := len(buf.Data) / numChannels
	planes = make([][]float32, numChannels)
	for ch := range planes {
		planes[ch] = make([]float32, frames)
	}

	bitDepth := decoder.SampleBitDepth()
	if bitDepth <= 0 {
		bitDepth = 16
	}
	peak := math.Exp2(float64(bitDepth - 1))

	for i, v := range buf.Data {
		planes[i%numChannels][i/numChannels] = float32(float64(v) / peak)
	}

	return planes, int(decoder.SampleRate), nil
}

// writeWAV writes planar float32 samples to a 16-bit PCM WAV file.
func writeWAV(path string, planes [][]float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	channels := len(planes)
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	frames := len(planes[0])
	ints := make([]int, frames*channels)
	for i := range frames {
		for ch, plane := range planes {
			s := plane[i]
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			ints[i*channels+ch] = int(math.Round(float64(s) * 32767))
		}
	}

	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}); err != nil {
		return err
	}

	return enc.Close()
}
