package audio

import (
	"bytes"
	"fmt"

	"github.com/braheezy/shine-mp3/pkg/mp3"
)

// shineSampleRates are the MPEG-1 and MPEG-2 rates the shine encoder handles.
var shineSampleRates = map[int]bool{
	16000: true, 22050: true, 24000: true,
	32000: true, 44100: true, 48000: true,
}

// shineFrameSamples is the number of samples per channel in one MP3 frame:
// two granules for MPEG-1 rates, one for MPEG-2 rates.
func shineFrameSamples(sampleRate int) int {
	if sampleRate >= 32000 {
		return 1152
	}
	return 576
}

// shineEncoder hands shine exactly one frame of interleaved samples per
// Write call; shine steps over input in fixed strides and reads a full
// frame even when the slice is shorter.
type shineEncoder struct {
	enc     *mp3.Encoder
	frame   int
	pending []int16
}

// ShineEncoder is a FrameEncoderFactory backed by the pure Go shine port.
// Shine encodes at a fixed 128 kbps, so other bitrates are refused.
func ShineEncoder(sampleRate, channels, bitrateKbps int) (FrameEncoder, error) {
	if bitrateKbps != DefaultBitrateKbps {
		return nil, fmt.Errorf("shine: unsupported bitrate %d kbps", bitrateKbps)
	}
	if !shineSampleRates[sampleRate] {
		return nil, fmt.Errorf("shine: unsupported sample rate %d Hz", sampleRate)
	}
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("shine: unsupported channel count %d", channels)
	}
	frame := shineFrameSamples(sampleRate) * channels
	return &shineEncoder{
		enc:     mp3.NewEncoder(sampleRate, channels),
		frame:   frame,
		pending: make([]int16, 0, 2*frame),
	}, nil
}

func (s *shineEncoder) Encode(block []int16) ([]byte, error) {
	s.pending = append(s.pending, block...)

	var buf bytes.Buffer
	off := 0
	for len(s.pending)-off >= s.frame {
		if err := s.enc.Write(&buf, s.pending[off:off+s.frame]); err != nil {
			return nil, err
		}
		off += s.frame
	}
	n := copy(s.pending, s.pending[off:])
	s.pending = s.pending[:n]
	return buf.Bytes(), nil
}

// Flush encodes the remaining samples as one zero-padded frame.
func (s *shineEncoder) Flush() ([]byte, error) {
	if len(s.pending) == 0 {
		return nil, nil
	}
	last := make([]int16, s.frame)
	copy(last, s.pending)
	s.pending = s.pending[:0]

	var buf bytes.Buffer
	if err := s.enc.Write(&buf, last); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
