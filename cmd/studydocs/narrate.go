package main

import (
	"github.com/spf13/cobra"
	"github.com/thywilljoshua/study-docs/internal/audio"
)

func narrateCmd(a *app) *cobra.Command {
	var wavPath string
	var mp3Path string
	var transcriptPath string

	cmd := &cobra.Command{
		Use:   "narrate <file>...",
		Short: "Read documents aloud into an audio file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.localSession(cmd.Context(), args)
			if err != nil {
				return err
			}
			narration, err := s.Narrate(cmd.Context())
			if err != nil {
				return err
			}

			if err := writeFile(wavPath, narration.WAV); err != nil {
				return err
			}
			info, err := audio.ReadInfo(narration.WAV)
			if err != nil {
				return err
			}
			a.logger.Info("narration written",
				"path", wavPath,
				"seconds", info.Duration,
				"sample_rate", info.SampleRate,
				"truncated", narration.Truncated)

			if mp3Path != "" {
				data, err := s.MP3()
				if err != nil {
					return err
				}
				if err := writeFile(mp3Path, data); err != nil {
					return err
				}
				a.logger.Info("mp3 written", "path", mp3Path, "bytes", len(data))
			}
			if transcriptPath != "" {
				if err := writeFile(transcriptPath, []byte(narration.Transcript)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&wavPath, "wav", "study-narration.wav", "output WAV file")
	cmd.Flags().StringVar(&mp3Path, "mp3", "", "also encode the narration to this MP3 file")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "write the narrated transcript to this file")
	return cmd
}
