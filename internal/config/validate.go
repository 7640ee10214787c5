package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports configuration errors that must abort startup. Per-channel
// runtime failures degrade and retry; bad configuration does not.
func (c *Config) Validate() error {
	var problems []string

	if len(c.Channels) == 0 {
		problems = append(problems, "at least one [[channel]] is required")
	}

	seen := map[string]struct{}{}
	for _, ch := range c.Channels {
		if ch.RoomID <= 0 {
			problems = append(problems, fmt.Sprintf("channel %q: room_id must be positive", ch.Name))
		}
		if _, dup := seen[ch.Name]; dup {
			problems = append(problems, fmt.Sprintf("channel name %q is not unique", ch.Name))
		}
		seen[ch.Name] = struct{}{}
	}

	if strings.TrimSpace(c.Recognizer.APIKey) == "" {
		problems = append(problems, "recognizer.api_key is required")
	}
	if strings.TrimSpace(c.Recognizer.Endpoint) == "" {
		problems = append(problems, "recognizer.endpoint is required")
	}
	if c.Recognizer.SampleRate <= 0 {
		problems = append(problems, "recognizer.sample_rate must be positive")
	}
	if strings.TrimSpace(c.Live.BaseURL) == "" {
		problems = append(problems, "live.base_url is required")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
