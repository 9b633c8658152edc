package audio

import (
	"errors"
	"fmt"

	"github.com/thywilljoshua/study-docs/internal/apperr"
)

// FrameSamples is the number of samples per channel fed to the encoder at a time.
const FrameSamples = 1152

// DefaultBitrateKbps is the MP3 bitrate used when none is configured.
const DefaultBitrateKbps = 128

// ErrEncoderUnavailable is returned before any encoding work when no MP3
// encoder can be created for the requested parameters.
var ErrEncoderUnavailable = errors.New("mp3 encoder unavailable")

// FrameEncoder is a streaming MP3 encoder. Encode is called once per block
// of at most FrameSamples samples per channel, in order; Flush once at the end.
type FrameEncoder interface {
	Encode(block []int16) ([]byte, error)
	Flush() ([]byte, error)
}

// FrameEncoderFactory creates an encoder for the given stream parameters.
type FrameEncoderFactory func(sampleRate, channels, bitrateKbps int) (FrameEncoder, error)

// MP3Options configures EncodeMP3.
type MP3Options struct {
	SampleRate  int
	Channels    int
	BitrateKbps int
	NewEncoder  FrameEncoderFactory
}

// EncodeMP3 re-encodes 16-bit little-endian PCM into an MP3 frame stream.
// Odd input lengths are padded with one zero byte.
func EncodeMP3(pcm []byte, opts MP3Options) ([]byte, error) {
	const op = "audio.EncodeMP3"

	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultFormat.SampleRate
	}
	if opts.Channels <= 0 {
		opts.Channels = DefaultFormat.Channels
	}
	if opts.BitrateKbps <= 0 {
		opts.BitrateKbps = DefaultBitrateKbps
	}
	if opts.NewEncoder == nil {
		return nil, apperr.E(apperr.KindEncoderUnavailable, op, ErrEncoderUnavailable)
	}
	enc, err := opts.NewEncoder(opts.SampleRate, opts.Channels, opts.BitrateKbps)
	if err != nil {
		return nil, apperr.E(apperr.KindEncoderUnavailable, op, fmt.Errorf("%w: %v", ErrEncoderUnavailable, err))
	}
	if enc == nil {
		return nil, apperr.E(apperr.KindEncoderUnavailable, op, ErrEncoderUnavailable)
	}

	samples := PCM16(pcm)
	block := FrameSamples * opts.Channels
	out := make([]byte, 0, len(pcm)/4)

	for start := 0; start < len(samples); start += block {
		end := min(start+block, len(samples))
		chunk, err := enc.Encode(samples[start:end])
		if err != nil {
			return nil, fmt.Errorf("encoding block at sample %d: %w", start, err)
		}
		out = append(out, chunk...)
	}

	tail, err := enc.Flush()
	if err != nil {
		return nil, fmt.Errorf("flushing encoder: %w", err)
	}
	return append(out, tail...), nil
}
