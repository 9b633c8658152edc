package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/thywilljoshua/study-docs/internal/ai"
	"github.com/thywilljoshua/study-docs/internal/audio"
	"github.com/thywilljoshua/study-docs/internal/document"
	"github.com/thywilljoshua/study-docs/internal/metrics"
	"github.com/thywilljoshua/study-docs/internal/session"
)

func (a *app) newAssistant(ctx context.Context) (*ai.Gemini, error) {
	c := a.cfg.AI
	g, err := ai.NewGemini(ctx, c.APIKey,
		ai.WithAnalysisModel(c.AnalysisModel),
		ai.WithSpeechModel(c.SpeechModel),
		ai.WithVoice(c.Voice),
		ai.WithLanguage(c.Language),
		ai.WithTranscriptLimit(c.TranscriptLimit),
		ai.WithLogger(a.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("set GEMINI_API_KEY or ai.api_key: %w", err)
	}
	return g, nil
}

func (a *app) mp3Options() audio.MP3Options {
	opts := audio.MP3Options{BitrateKbps: a.cfg.Audio.MP3BitrateKbps}
	if a.cfg.Audio.MP3Enabled {
		opts.NewEncoder = audio.ShineEncoder
	}
	return opts
}

func (a *app) sessionDeps(assistant ai.Assistant, m *metrics.Metrics) session.Deps {
	return session.Deps{
		Assistant:   assistant,
		Metrics:     m,
		Logger:      a.logger,
		Limits:      document.Limits{MaxFileBytes: a.cfg.Uploads.MaxFileBytes()},
		MaxFiles:    a.cfg.Uploads.MaxFilesPerSession,
		MP3:         a.mp3Options(),
		CallTimeout: a.cfg.AI.GetRequestTimeout(),
	}
}

// localSession loads files from disk into a fresh session backed by Gemini.
func (a *app) localSession(ctx context.Context, paths []string) (*session.Session, error) {
	assistant, err := a.newAssistant(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := readSources(paths)
	if err != nil {
		return nil, err
	}

	s := session.New(uuid.New().String(), a.sessionDeps(assistant, nil))
	accepted, rejected, err := s.AddFiles(ctx, sources)
	if err != nil {
		return nil, err
	}
	for _, r := range rejected {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", r.Name, r.Reason)
	}
	if len(accepted) == 0 {
		return nil, fmt.Errorf("none of the %d files can be studied", len(paths))
	}
	return s, nil
}

func readSources(paths []string) ([]document.Source, error) {
	sources := make([]document.Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		sources = append(sources, document.Source{Name: filepath.Base(p), Data: data})
	}
	return sources, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
