package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ProbeResult is the parsed ffprobe report for a live stream.
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
}

// ProbeStream carries the per-stream fields used for resync. ffprobe emits
// numeric values as strings.
type ProbeStream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	StartTime string `json:"start_time"`
}

// Probe executes ffprobe against the live stream URL and decodes the JSON
// stream report.
func Probe(ctx context.Context, binary, url string) (ProbeResult, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(url) == "" {
		return ProbeResult{}, ErrNoSource
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_streams", "-of", "json", url)
	output, err := cmd.Output()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe %s: %w", url, err)
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// StartPTS returns the stream's starting presentation timestamp: the elapsed
// broadcast time at which this capture attaches. The first stream reporting
// a usable start_time wins.
func (r ProbeResult) StartPTS() (time.Duration, error) {
	for _, stream := range r.Streams {
		seconds, err := strconv.ParseFloat(strings.TrimSpace(stream.StartTime), 64)
		if err != nil || math.IsNaN(seconds) || seconds < 0 {
			continue
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
	return 0, errors.New("ffprobe: no stream reported a start timestamp")
}
