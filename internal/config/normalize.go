package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// normalize expands paths and fills per-channel fallbacks so later code can
// rely on absolute directories and positive intervals.
func (c *Config) normalize() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("log_dir: %w", err)
	}

	if strings.TrimSpace(c.Paths.JournalPath) == "" {
		c.Paths.JournalPath = filepath.Join(c.Paths.LogDir, "journal.db")
	} else if c.Paths.JournalPath, err = expandPath(c.Paths.JournalPath); err != nil {
		return fmt.Errorf("journal_path: %w", err)
	}

	if c.Recognizer.SampleRate <= 0 {
		c.Recognizer.SampleRate = defaultSampleRate
	}
	if c.Session.ReconnectBackoffSeconds <= 0 {
		c.Session.ReconnectBackoffSeconds = defaultReconnectBackoff
	}
	if c.Session.ResyncThresholdSeconds <= 0 {
		c.Session.ResyncThresholdSeconds = defaultResyncThreshold
	}
	if c.Session.ResyncIntervalSeconds <= 0 {
		c.Session.ResyncIntervalSeconds = defaultResyncInterval
	}

	for i := range c.Channels {
		ch := &c.Channels[i]
		ch.Name = strings.TrimSpace(ch.Name)
		if ch.Name == "" {
			ch.Name = fmt.Sprintf("room-%d", ch.RoomID)
		}
		if ch.PollIntervalSeconds <= 0 {
			ch.PollIntervalSeconds = defaultPollInterval
		}
		if strings.TrimSpace(ch.OutputDir) == "" {
			ch.OutputDir = c.Paths.OutputDir
		} else if ch.OutputDir, err = expandPath(ch.OutputDir); err != nil {
			return fmt.Errorf("channel %s output_dir: %w", ch.Name, err)
		}
	}

	return nil
}

// EnsureDirectories creates output and log directories ahead of use.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir, c.Paths.LogDir, filepath.Dir(c.Paths.JournalPath)}
	for _, ch := range c.Channels {
		dirs = append(dirs, ch.OutputDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
