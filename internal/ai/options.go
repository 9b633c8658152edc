package ai

import "log/slog"

const (
	DefaultAnalysisModel = "gemini-2.5-pro"
	DefaultSpeechModel   = "gemini-2.5-flash-preview-tts"
	DefaultVoice         = "Kore"
	DefaultLanguage      = "English"
)

type Option func(*Options)

type Options struct {
	AnalysisModel   string
	SpeechModel     string
	Voice           string
	Language        string
	TranscriptLimit int
	Logger          *slog.Logger
}

func WithAnalysisModel(model string) Option {
	return func(o *Options) {
		if model != "" {
			o.AnalysisModel = model
		}
	}
}

func WithSpeechModel(model string) Option {
	return func(o *Options) {
		if model != "" {
			o.SpeechModel = model
		}
	}
}

func WithVoice(voice string) Option {
	return func(o *Options) {
		if voice != "" {
			o.Voice = voice
		}
	}
}

// WithLanguage sets the language the analysis is written in.
func WithLanguage(lang string) Option {
	return func(o *Options) {
		if lang != "" {
			o.Language = lang
		}
	}
}

// WithTranscriptLimit sets the character cap applied before synthesis.
func WithTranscriptLimit(n int) Option {
	return func(o *Options) {
		o.TranscriptLimit = n
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		AnalysisModel:   DefaultAnalysisModel,
		SpeechModel:     DefaultSpeechModel,
		Voice:           DefaultVoice,
		Language:        DefaultLanguage,
		TranscriptLimit: DefaultTranscriptLimit,
		Logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
