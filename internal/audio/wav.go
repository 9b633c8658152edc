package audio

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size of the canonical PCM WAV header.
const HeaderSize = 44

// Format describes interleaved little-endian PCM samples.
type Format struct {
	SampleRate    int `json:"sampleRate"`
	Channels      int `json:"channels"`
	BitsPerSample int `json:"bitsPerSample"`
}

// DefaultFormat is what the speech backend returns: 24 kHz mono 16-bit.
var DefaultFormat = Format{SampleRate: 24000, Channels: 1, BitsPerSample: 16}

func (f Format) withDefaults() Format {
	if f.SampleRate <= 0 {
		f.SampleRate = DefaultFormat.SampleRate
	}
	if f.Channels <= 0 {
		f.Channels = DefaultFormat.Channels
	}
	if f.BitsPerSample <= 0 {
		f.BitsPerSample = DefaultFormat.BitsPerSample
	}
	return f
}

// ByteRate is SampleRate * Channels * BitsPerSample / 8.
func (f Format) ByteRate() int {
	return f.SampleRate * f.Channels * f.BitsPerSample / 8
}

// BlockAlign is Channels * BitsPerSample / 8.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// WrapPCM prefixes pcm with a WAV header describing f. Zero fields of f fall
// back to DefaultFormat. The sample bytes are copied verbatim, so an odd
// length stays odd.
func WrapPCM(pcm []byte, f Format) []byte {
	f = f.withDefaults()
	dataSize := uint32(len(pcm))

	out := make([]byte, HeaderSize+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], 36+dataSize)
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // linear PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(f.ByteRate()))
	binary.LittleEndian.PutUint16(out[32:34], uint16(f.BlockAlign()))
	binary.LittleEndian.PutUint16(out[34:36], uint16(f.BitsPerSample))
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], dataSize)
	copy(out[HeaderSize:], pcm)

	return out
}

// Info is the metadata carried by a canonical WAV header.
type Info struct {
	RIFFSize      uint32  `json:"riffSize"`
	AudioFormat   uint16  `json:"audioFormat"`
	Channels      uint16  `json:"channels"`
	SampleRate    uint32  `json:"sampleRate"`
	ByteRate      uint32  `json:"byteRate"`
	BlockAlign    uint16  `json:"blockAlign"`
	BitsPerSample uint16  `json:"bitsPerSample"`
	DataSize      uint32  `json:"dataSize"`
	NumSamples    uint32  `json:"numSamples"`
	Duration      float64 `json:"durationSeconds"`
}

// ReadInfo validates a canonical 44-byte PCM header and returns its fields.
func ReadInfo(data []byte) (*Info, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", HeaderSize, len(data))
	}
	if string(data[0:4]) != "RIFF" {
		return nil, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("invalid WAV file: missing WAVE format")
	}
	if string(data[12:16]) != "fmt " {
		return nil, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	if string(data[36:40]) != "data" {
		return nil, fmt.Errorf("invalid WAV file: missing data chunk")
	}

	info := &Info{
		RIFFSize:      binary.LittleEndian.Uint32(data[4:8]),
		AudioFormat:   binary.LittleEndian.Uint16(data[20:22]),
		Channels:      binary.LittleEndian.Uint16(data[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(data[24:28]),
		ByteRate:      binary.LittleEndian.Uint32(data[28:32]),
		BlockAlign:    binary.LittleEndian.Uint16(data[32:34]),
		BitsPerSample: binary.LittleEndian.Uint16(data[34:36]),
		DataSize:      binary.LittleEndian.Uint32(data[40:44]),
	}
	if info.AudioFormat != 1 {
		return nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", info.AudioFormat)
	}
	if info.BlockAlign > 0 {
		info.NumSamples = info.DataSize / uint32(info.BlockAlign)
	}
	if info.SampleRate > 0 {
		info.Duration = float64(info.NumSamples) / float64(info.SampleRate)
	}
	return info, nil
}
