// Package audio turns raw 16-bit PCM returned by the speech backend into
// playable containers: a canonical 44-byte-header WAV file and an MP3 frame
// stream produced by a pluggable block encoder.
package audio
