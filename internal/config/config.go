package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	AI       AIConfig       `yaml:"ai"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Audio    AudioConfig    `yaml:"audio"`
	Sessions SessionsConfig `yaml:"sessions"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP API server configuration
type ServerConfig struct {
	Address         string `yaml:"address"`
	Port            int    `yaml:"port"`
	BodyLimit       string `yaml:"body_limit"`
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // seconds
}

// AIConfig contains generation backend configuration
type AIConfig struct {
	APIKey          string `yaml:"api_key"`
	AnalysisModel   string `yaml:"analysis_model"`
	SpeechModel     string `yaml:"speech_model"`
	Voice           string `yaml:"voice"`
	Language        string `yaml:"language"`
	TranscriptLimit int    `yaml:"transcript_limit"` // characters
	RequestTimeout  int    `yaml:"request_timeout"`  // seconds
}

// UploadsConfig bounds accepted documents
type UploadsConfig struct {
	MaxFileMB          int `yaml:"max_file_mb"`
	MaxFilesPerSession int `yaml:"max_files_per_session"`
}

// AudioConfig contains narration export parameters
type AudioConfig struct {
	MP3Enabled     bool `yaml:"mp3_enabled"`
	MP3BitrateKbps int  `yaml:"mp3_bitrate_kbps"`
}

// SessionsConfig controls the in-memory session store
type SessionsConfig struct {
	MaxSessions     int `yaml:"max_sessions"`
	IdleTimeout     int `yaml:"idle_timeout"`     // minutes
	CleanupInterval int `yaml:"cleanup_interval"` // minutes
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         "127.0.0.1",
			Port:            8080,
			BodyLimit:       "100M",
			ShutdownTimeout: 15,
		},
		AI: AIConfig{
			AnalysisModel:   "gemini-2.5-pro",
			SpeechModel:     "gemini-2.5-flash-preview-tts",
			Voice:           "Kore",
			Language:        "English",
			TranscriptLimit: 20000,
			RequestTimeout:  300,
		},
		Uploads: UploadsConfig{
			MaxFileMB:          20,
			MaxFilesPerSession: 20,
		},
		Audio: AudioConfig{
			MP3Enabled:     true,
			MP3BitrateKbps: 128,
		},
		Sessions: SessionsConfig{
			MaxSessions:     100,
			IdleTimeout:     60,
			CleanupInterval: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads the configuration file at path over the defaults. An empty
// path yields the defaults. Environment overrides are applied before
// validation.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.applyEnv(os.Getenv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if c.AI.APIKey == "" {
		for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
			if v := strings.TrimSpace(getenv(name)); v != "" {
				c.AI.APIKey = v
				break
			}
		}
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("ai config: %w", err)
	}
	if err := c.Uploads.Validate(); err != nil {
		return fmt.Errorf("uploads config: %w", err)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Sessions.Validate(); err != nil {
		return fmt.Errorf("sessions config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.BodyLimit == "" {
		return errors.New("body_limit cannot be empty")
	}
	if s.ShutdownTimeout < 1 {
		return fmt.Errorf("shutdown_timeout must be at least 1 second, got %d", s.ShutdownTimeout)
	}
	return nil
}

// Validate validates generation backend configuration. A missing API key
// is not an error here: offline commands do not need one.
func (a *AIConfig) Validate() error {
	if a.AnalysisModel == "" {
		return errors.New("analysis_model cannot be empty")
	}
	if a.SpeechModel == "" {
		return errors.New("speech_model cannot be empty")
	}
	if a.Voice == "" {
		return errors.New("voice cannot be empty")
	}
	if a.TranscriptLimit < 1 {
		return fmt.Errorf("transcript_limit must be at least 1 character, got %d", a.TranscriptLimit)
	}
	if a.RequestTimeout < 1 {
		return fmt.Errorf("request_timeout must be at least 1 second, got %d", a.RequestTimeout)
	}
	return nil
}

// Validate validates upload limits
func (u *UploadsConfig) Validate() error {
	if u.MaxFileMB < 1 || u.MaxFileMB > 512 {
		return fmt.Errorf("max_file_mb must be between 1 and 512, got %d", u.MaxFileMB)
	}
	if u.MaxFilesPerSession < 1 {
		return fmt.Errorf("max_files_per_session must be at least 1, got %d", u.MaxFilesPerSession)
	}
	return nil
}

var mp3Bitrates = map[int]bool{
	32: true, 40: true, 48: true, 56: true, 64: true, 80: true, 96: true,
	112: true, 128: true, 160: true, 192: true, 224: true, 256: true, 320: true,
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if !mp3Bitrates[a.MP3BitrateKbps] {
		return fmt.Errorf("mp3_bitrate_kbps must be a standard MPEG bitrate, got %d", a.MP3BitrateKbps)
	}
	return nil
}

// Validate validates session store configuration
func (s *SessionsConfig) Validate() error {
	if s.MaxSessions < 1 {
		return fmt.Errorf("max_sessions must be at least 1, got %d", s.MaxSessions)
	}
	if s.IdleTimeout < 1 {
		return fmt.Errorf("idle_timeout must be at least 1 minute, got %d", s.IdleTimeout)
	}
	if s.CleanupInterval < 1 {
		return fmt.Errorf("cleanup_interval must be at least 1 minute, got %d", s.CleanupInterval)
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	if l.Output == "" {
		return errors.New("output cannot be empty; use stdout, stderr or a file path")
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// GetShutdownTimeout returns the shutdown grace period as a time.Duration
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// GetRequestTimeout returns the per-call backend timeout as a time.Duration
func (a *AIConfig) GetRequestTimeout() time.Duration {
	return time.Duration(a.RequestTimeout) * time.Second
}

// MaxFileBytes returns the per-file ceiling in bytes
func (u *UploadsConfig) MaxFileBytes() int64 {
	return int64(u.MaxFileMB) << 20
}

// GetIdleTimeout returns the session idle timeout as a time.Duration
func (s *SessionsConfig) GetIdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeout) * time.Minute
}

// GetCleanupInterval returns the janitor interval as a time.Duration
func (s *SessionsConfig) GetCleanupInterval() time.Duration {
	return time.Duration(s.CleanupInterval) * time.Minute
}
