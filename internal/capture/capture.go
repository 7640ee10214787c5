package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoSource reports an empty stream URL; a precondition failure the caller
// turns into a backoff-and-retry, never a crash.
var ErrNoSource = errors.New("capture: no stream source")

// Options configures the capture subprocess.
type Options struct {
	FFmpegBinary string
	SampleRate   int
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.FFmpegBinary) == "" {
		o.FFmpegBinary = "ffmpeg"
	}
	if o.SampleRate <= 0 {
		o.SampleRate = 16000
	}
	return o
}

// Stream is a running ffmpeg capture. Reader delivers the WAV byte stream.
type Stream struct {
	Reader io.ReadCloser
	cmd    *exec.Cmd
}

// Start launches ffmpeg reading the source URL and writing mono 16-bit PCM
// WAV to stdout. The subprocess is bound to ctx and killed on cancellation.
func Start(ctx context.Context, opts Options, url string) (*Stream, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrNoSource
	}
	opts = opts.withDefaults()

	return startRaw(ctx, opts.FFmpegBinary, commandArgs(opts, url)...)
}

func startRaw(ctx context.Context, binary string, args ...string) (*Stream, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}
	return &Stream{Reader: stdout, cmd: cmd}, nil
}

// commandArgs builds the ffmpeg argument list: strip video, downmix to one
// channel, resample, and emit a WAV container on stdout.
func commandArgs(opts Options, url string) []string {
	return []string{
		"-loglevel", "quiet", "-hide_banner",
		"-i", url,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(opts.SampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav", "pipe:1",
	}
}

// Wait reaps the subprocess after Reader is exhausted.
func (s *Stream) Wait() error {
	return s.cmd.Wait()
}

// Terminate kills the subprocess if still running, closes the reader, and
// reaps the process. Safe on every exit path, including after Wait.
func (s *Stream) Terminate() {
	if s == nil {
		return
	}
	if s.cmd.Process != nil && s.cmd.ProcessState == nil {
		_ = s.cmd.Process.Kill()
	}
	if s.Reader != nil {
		_ = s.Reader.Close()
	}
	if s.cmd.ProcessState == nil {
		_ = s.cmd.Wait()
	}
}
