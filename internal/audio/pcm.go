package audio

import "encoding/binary"

// PCM16 reinterprets little-endian bytes as signed 16-bit samples. An odd
// trailing byte is treated as if a zero byte followed it.
func PCM16(pcm []byte) []int16 {
	n := (len(pcm) + 1) / 2
	samples := make([]int16, n)
	even := len(pcm) &^ 1
	for i := 0; i < even; i += 2 {
		samples[i/2] = int16(binary.LittleEndian.Uint16(pcm[i:]))
	}
	if len(pcm)%2 == 1 {
		samples[n-1] = int16(uint16(pcm[len(pcm)-1]))
	}
	return samples
}

// Duration returns the playback length in seconds of pcm in format f.
func Duration(pcm []byte, f Format) float64 {
	f = f.withDefaults()
	if f.ByteRate() == 0 {
		return 0
	}
	return float64(len(pcm)) / float64(f.ByteRate())
}
