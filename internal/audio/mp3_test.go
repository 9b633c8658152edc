package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thywilljoshua/study-docs/internal/apperr"
)

// recordingEncoder emits one marker byte per block and remembers what it saw.
type recordingEncoder struct {
	blocks  [][]int16
	flushed bool
	failAt  int
}

func (r *recordingEncoder) Encode(block []int16) ([]byte, error) {
	if r.failAt > 0 && len(r.blocks)+1 == r.failAt {
		return nil, errors.New("encoder exploded")
	}
	r.blocks = append(r.blocks, append([]int16(nil), block...))
	return []byte{byte(len(r.blocks))}, nil
}

func (r *recordingEncoder) Flush() ([]byte, error) {
	r.flushed = true
	return []byte{0xff}, nil
}

func factoryFor(enc *recordingEncoder, got *[3]int) FrameEncoderFactory {
	return func(sampleRate, channels, bitrate int) (FrameEncoder, error) {
		if got != nil {
			*got = [3]int{sampleRate, channels, bitrate}
		}
		return enc, nil
	}
}

func TestEncodeMP3Blocks(t *testing.T) {
	enc := &recordingEncoder{}
	var params [3]int
	// 2.5 blocks of mono samples
	pcm := make([]byte, (FrameSamples*2+FrameSamples/2)*2)

	out, err := EncodeMP3(pcm, MP3Options{NewEncoder: factoryFor(enc, &params)})
	require.NoError(t, err)

	assert.Equal(t, [3]int{24000, 1, 128}, params)
	require.Len(t, enc.blocks, 3)
	assert.Len(t, enc.blocks[0], FrameSamples)
	assert.Len(t, enc.blocks[1], FrameSamples)
	assert.Len(t, enc.blocks[2], FrameSamples/2)
	assert.True(t, enc.flushed)
	assert.Equal(t, []byte{1, 2, 3, 0xff}, out)
}

func TestEncodeMP3StereoBlockSize(t *testing.T) {
	enc := &recordingEncoder{}
	pcm := make([]byte, FrameSamples*2*2*2) // two stereo blocks

	_, err := EncodeMP3(pcm, MP3Options{SampleRate: 44100, Channels: 2, NewEncoder: factoryFor(enc, nil)})
	require.NoError(t, err)
	require.Len(t, enc.blocks, 2)
	assert.Len(t, enc.blocks[0], FrameSamples*2)
}

func TestEncodeMP3OddLengthPads(t *testing.T) {
	enc := &recordingEncoder{}

	out, err := EncodeMP3([]byte{0x10, 0x00, 0x05}, MP3Options{NewEncoder: factoryFor(enc, nil)})
	require.NoError(t, err)
	require.Len(t, enc.blocks, 1)
	assert.Equal(t, []int16{0x0010, 0x0005}, enc.blocks[0])
	assert.Equal(t, []byte{1, 0xff}, out)
}

func TestEncodeMP3EmptyInputOnlyFlushes(t *testing.T) {
	enc := &recordingEncoder{}

	out, err := EncodeMP3(nil, MP3Options{NewEncoder: factoryFor(enc, nil)})
	require.NoError(t, err)
	assert.Empty(t, enc.blocks)
	assert.Equal(t, []byte{0xff}, out)
}

func TestEncodeMP3EncoderUnavailable(t *testing.T) {
	out, err := EncodeMP3([]byte{1, 2}, MP3Options{})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrEncoderUnavailable)
	assert.Equal(t, apperr.KindEncoderUnavailable, apperr.KindOf(err))

	failing := func(int, int, int) (FrameEncoder, error) { return nil, errors.New("no codec") }
	out, err = EncodeMP3([]byte{1, 2}, MP3Options{NewEncoder: failing})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrEncoderUnavailable)
	assert.Contains(t, err.Error(), "no codec")
}

func TestEncodeMP3EncoderFailure(t *testing.T) {
	enc := &recordingEncoder{failAt: 2}

	out, err := EncodeMP3(make([]byte, FrameSamples*2*2), MP3Options{NewEncoder: factoryFor(enc, nil)})
	assert.Nil(t, out)
	assert.ErrorContains(t, err, "encoder exploded")
	assert.False(t, enc.flushed)
}

func TestShineEncoderPreconditions(t *testing.T) {
	_, err := ShineEncoder(24000, 1, 192)
	assert.ErrorContains(t, err, "bitrate")

	_, err = ShineEncoder(11025, 1, 128)
	assert.ErrorContains(t, err, "sample rate")

	_, err = ShineEncoder(24000, 3, 128)
	assert.ErrorContains(t, err, "channel")

	_, err = EncodeMP3([]byte{0, 0}, MP3Options{BitrateKbps: 320, NewEncoder: ShineEncoder})
	assert.ErrorIs(t, err, ErrEncoderUnavailable)
}
