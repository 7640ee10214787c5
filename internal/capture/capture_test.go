package capture

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestStartRejectsEmptyURL(t *testing.T) {
	_, err := Start(context.Background(), Options{}, "  ")
	if !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestCommandArgs(t *testing.T) {
	args := commandArgs(Options{SampleRate: 16000}.withDefaults(), "https://cdn.example/live.flv")
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-i https://cdn.example/live.flv",
		"-vn",
		"-ac 1",
		"-ar 16000",
		"-acodec pcm_s16le",
		"-f wav pipe:1",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	if opts.FFmpegBinary != "ffmpeg" {
		t.Fatalf("binary default = %q", opts.FFmpegBinary)
	}
	if opts.SampleRate != 16000 {
		t.Fatalf("sample rate default = %d", opts.SampleRate)
	}
}

// Use a shell as a stand-in transcoder so the pipeline plumbing can be
// exercised without ffmpeg installed.
func TestStreamReadsSubprocessOutput(t *testing.T) {
	ctx := context.Background()
	opts := Options{FFmpegBinary: "sh"}.withDefaults()

	stream, err := startRaw(ctx, opts.FFmpegBinary, "-c", "printf audio-bytes")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer stream.Terminate()

	data, err := io.ReadAll(stream.Reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Fatalf("read %q", data)
	}
	if err := stream.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	stream.Terminate() // second call must be safe
}

func TestTerminateKillsRunningProcess(t *testing.T) {
	stream, err := startRaw(context.Background(), "sh", "-c", "sleep 60")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	stream.Terminate()
	if _, err := io.ReadAll(stream.Reader); err == nil {
		// Reader is closed by Terminate; a nil error just means EOF
		// after the kill, which is fine.
		_ = err
	}
}
