package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "livescribe/0.1"

// Service defines the notification surface exposed to channel runtimes.
type Service interface {
	NotifyLiveStarted(ctx context.Context, channel, title string) error
	NotifyLiveEnded(ctx context.Context, channel string, duration time.Duration, sentences int64) error
	NotifyChannelError(ctx context.Context, channel string, err error) error
	TestNotification(ctx context.Context) error
}

// Config carries the ntfy settings.
type Config struct {
	NtfyTopic      string
	RequestTimeout time.Duration
}

// NewService builds a notification service backed by ntfy when configured.
// When no topic is configured a noop implementation is returned.
func NewService(cfg Config) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyLiveStarted(ctx context.Context, channel, title string) error {
	message := fmt.Sprintf("%s went live", channel)
	if title = strings.TrimSpace(title); title != "" {
		message = fmt.Sprintf("%s went live: %s", channel, title)
	}
	data := payload{
		title:   "Livescribe - Live",
		message: message,
		tags:    []string{"livescribe", "live", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyLiveEnded(ctx context.Context, channel string, duration time.Duration, sentences int64) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	data := payload{
		title:   "Livescribe - Offline",
		message: fmt.Sprintf("%s went offline after %s (%d sentences transcribed)", channel, duration, sentences),
		tags:    []string{"livescribe", "live", "ended"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyChannelError(ctx context.Context, channel string, err error) error {
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "Livescribe - Error",
		message:  fmt.Sprintf("channel %s: %s", channel, detail),
		tags:     []string{"livescribe", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Livescribe - Test",
		message:  "Notification system test",
		tags:     []string{"livescribe", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyLiveStarted(context.Context, string, string) error { return nil }
func (noopService) NotifyLiveEnded(context.Context, string, time.Duration, int64) error {
	return nil
}
func (noopService) NotifyChannelError(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
