package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration shared by every channel.
type Paths struct {
	OutputDir   string `toml:"output_dir"`
	LogDir      string `toml:"log_dir"`
	JournalPath string `toml:"journal_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Recognizer contains connection settings for the realtime speech service.
type Recognizer struct {
	APIKey     string `toml:"api_key"`
	Model      string `toml:"model"`
	Endpoint   string `toml:"endpoint"`
	SampleRate int    `toml:"sample_rate"`
}

// Capture contains settings for the audio capture and probe subprocesses.
type Capture struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Live contains settings for the live-status platform API.
type Live struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Session contains tunables for the per-channel transcription loop.
type Session struct {
	ReconnectBackoffSeconds int `toml:"reconnect_backoff_seconds"`
	ResyncThresholdSeconds  int `toml:"resync_threshold_seconds"`
	ResyncIntervalSeconds   int `toml:"resync_interval_seconds"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Channel describes one monitored live room.
type Channel struct {
	Name                string   `toml:"name"`
	RoomID              int64    `toml:"room_id"`
	PollIntervalSeconds int      `toml:"poll_interval"`
	OutputDir           string   `toml:"output_dir"`
	AvoidHosts          []string `toml:"avoid_hosts"`
}

// PollInterval returns the channel poll cadence as a duration.
func (c Channel) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Config encapsulates all configuration values for livescribe.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	Recognizer    Recognizer    `toml:"recognizer"`
	Capture       Capture       `toml:"capture"`
	Live          Live          `toml:"live"`
	Session       Session       `toml:"session"`
	Notifications Notifications `toml:"notifications"`
	Channels      []Channel     `toml:"channel"`
}

// ReconnectBackoff returns the delay between transcription attempts.
func (c *Config) ReconnectBackoff() time.Duration {
	return time.Duration(c.Session.ReconnectBackoffSeconds) * time.Second
}

// ResyncThreshold returns the maximum accepted probe delta jump.
func (c *Config) ResyncThreshold() time.Duration {
	return time.Duration(c.Session.ResyncThresholdSeconds) * time.Second
}

// ResyncInterval returns how often the probe refreshes the time delta.
func (c *Config) ResyncInterval() time.Duration {
	return time.Duration(c.Session.ResyncIntervalSeconds) * time.Second
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/livescribe/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// ExpandPath resolves ~ and relative segments in a user-supplied path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and defaults applied.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}
	if !exists {
		return nil, resolvedPath, fmt.Errorf("config file %s not found", resolvedPath)
	}

	file, err := os.Open(resolvedPath)
	if err != nil {
		return nil, "", fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, "", fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("livescribe.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}
