// Package ingest implements the off-thread IR ingest worker of §4.5: given
// raw audio file bytes, it decodes, resamples to the target rate if
// needed, conforms the channel count, and builds a dsp.MultiChannel ready
// to publish through a hotswap.Plane. Nothing in this package runs on the
// audio thread.
package ingest

import (
	"bytes"
	"fmt"
	"log/slog"

	"convengine/dsp"
	"convengine/hotswap"
)

// Config carries the parameters needed to turn raw IR bytes into a
// dsp.MultiChannel. TargetSampleRate of 0 skips resampling (the decoded
// rate is used as-is). TargetChannels of 0 uses the source's channel count,
// capped at 2; a nonzero value conforms to exactly that many channels,
// duplicating the first decoded channel to fill any it's short of (see
// SUPPLEMENTED FEATURES).
type Config struct {
	MaxBlockSize     int
	TargetSampleRate int
	TargetChannels   int
}

// Build decodes raw WAV bytes into a ready-to-install dsp.MultiChannel. It
// performs decoding, resampling, channel conforming, and per-channel FFT
// planning — all allocation-heavy, off-thread work. Build never touches
// the audio thread's state directly; the caller publishes the result.
func Build(data []byte, cfg Config) (*dsp.MultiChannel, error) {
	planes, srcRate, err := decodeWAV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if len(planes) == 0 || len(planes[0]) == 0 {
		return nil, ErrEmptyImpulseResponse
	}

	if cfg.TargetSampleRate > 0 && cfg.TargetSampleRate != srcRate {
		planes = newResampler().resampleChannels(planes, float64(srcRate), float64(cfg.TargetSampleRate))
	}

	planes = conformChannels(planes, cfg.TargetChannels)

	mc, err := dsp.NewMultiChannel(planes, cfg.MaxBlockSize)
	if err != nil {
		return nil, fmt.Errorf("ingest: building convolver: %w", err)
	}

	return mc, nil
}

// conformChannels truncates to at most 2 channels per §3, then — if target
// is positive — pads by duplicating the first channel until the plane
// count reaches target, or truncates down to it. A target of 0 leaves the
// source's (capped) channel count untouched.
func conformChannels(planes [][]float32, target int) [][]float32 {
	if len(planes) > 2 {
		planes = planes[:2]
	}

	if target <= 0 {
		return planes
	}
	if target > 2 {
		target = 2
	}

	for len(planes) < target {
		planes = append(planes, planes[0])
	}
	if len(planes) > target {
		planes = planes[:target]
	}

	return planes
}

// LoadAndPublish runs Build and, on success, publishes the result to plane.
// Decode and construction failures are logged and returned to the caller
// (the editor, in host/editor-adapter terms) — they never reach the audio
// thread, per §7.
func LoadAndPublish(data []byte, cfg Config, plane *hotswap.Plane, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	mc, err := Build(data, cfg)
	if err != nil {
		logger.Error("ingest: failed to build convolver from IR", "error", err)
		return err
	}

	logger.Info("ingest: built convolver", "channels", mc.Channels(), "latency_samples", mc.Latency())
	plane.Publish(mc)

	return nil
}
