package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"livescribe/internal/asr"
	"livescribe/internal/capture"
	"livescribe/internal/channel"
	"livescribe/internal/config"
	"livescribe/internal/journal"
	"livescribe/internal/live"
	"livescribe/internal/logging"
	"livescribe/internal/notifications"
)

// Daemon coordinates the per-channel runtimes and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *journal.Store
	notifier notifications.Service
	logPath  string

	lockPath string
	lock     *flock.Flock

	running  atomic.Bool
	runtimes []runningChannel
	ctx      context.Context
	cancel   context.CancelFunc
}

// runningChannel pairs a started runtime with the config entry it serves.
type runningChannel struct {
	cfg config.Channel
	rt  *channel.Runtime
}

// ChannelStatus is the per-channel slice of a Status report.
type ChannelStatus struct {
	Name   string
	RoomID int64
	Tasks  int
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Channels      []ChannelStatus
	JournalDBPath string
	LockFilePath  string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *journal.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, journal store, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "livescribed.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		notifier: notifications.NewService(notificationConfig(cfg)),
		logPath:  filepath.Join(cfg.Paths.LogDir, "livescribe.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

func notificationConfig(cfg *config.Config) notifications.Config {
	return notifications.Config{
		NtfyTopic:      cfg.Notifications.NtfyTopic,
		RequestTimeout: time.Duration(cfg.Notifications.RequestTimeout) * time.Second,
	}
}

// Start acquires the daemon lock and launches one runtime per configured
// channel. A channel that fails to start is logged and skipped so one bad
// room never takes down its siblings; only a total wipeout is an error.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another livescribe daemon instance is already running")
	}

	liveClient, err := live.NewHTTPClient(live.HTTPConfig{
		BaseURL:        d.cfg.Live.BaseURL,
		RequestTimeout: time.Duration(d.cfg.Live.RequestTimeout) * time.Second,
	})
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("build live client: %w", err)
	}
	dialer, err := asr.NewWebsocketDialer(asr.Config{
		APIKey:     d.cfg.Recognizer.APIKey,
		Model:      d.cfg.Recognizer.Model,
		Endpoint:   d.cfg.Recognizer.Endpoint,
		SampleRate: d.cfg.Recognizer.SampleRate,
	})
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("build recognizer dialer: %w", err)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	var started []runningChannel
	for _, ch := range d.cfg.Channels {
		rt, err := d.startChannel(d.ctx, ch, liveClient, dialer)
		if err != nil {
			d.logger.Error("channel failed to start",
				logging.String(logging.FieldChannel, ch.Name),
				logging.Int64(logging.FieldRoomID, ch.RoomID),
				logging.Error(err))
			d.notifyStartupFailure(ch.Name, err)
			continue
		}
		started = append(started, runningChannel{cfg: ch, rt: rt})
	}
	if len(started) == 0 {
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		_ = d.lock.Unlock()
		return errors.New("no channel could be started")
	}

	d.runtimes = started
	d.running.Store(true)
	d.logger.Info("livescribe daemon started",
		logging.Int("channels", len(started)),
		logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) startChannel(ctx context.Context, ch config.Channel, liveClient live.Client, dialer asr.Dialer) (*channel.Runtime, error) {
	outputDir := ch.OutputDir
	if strings.TrimSpace(outputDir) == "" {
		outputDir = d.cfg.Paths.OutputDir
	}

	transcriber, err := channel.NewTranscriber(channel.TranscriberConfig{
		RoomID:       ch.RoomID,
		OutputDir:    outputDir,
		PollInterval: ch.PollInterval(),
		ProbeBinary:  d.cfg.Capture.FFprobeBinary,
		Capture: capture.Options{
			FFmpegBinary: d.cfg.Capture.FFmpegBinary,
			SampleRate:   d.cfg.Recognizer.SampleRate,
		},
		Live:        liveClient,
		Policy:      live.OrderPolicy{AvoidHosts: ch.AvoidHosts},
		Dialer:      dialer,
		Journal:     d.store,
		Notifier:    d.notifier,
		Backoff:     d.cfg.ReconnectBackoff(),
		ResyncEvery: d.cfg.ResyncInterval(),
		ResyncLimit: d.cfg.ResyncThreshold(),
	})
	if err != nil {
		return nil, err
	}

	rt := channel.NewRuntime(ch.Name, d.logger, transcriber)
	if err := rt.Start(ctx); err != nil {
		return nil, err
	}
	return rt, nil
}

func (d *Daemon) notifyStartupFailure(name string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.notifier.NotifyChannelError(ctx, name, cause); err != nil {
		d.logger.Warn("startup failure notification failed", logging.Error(err))
	}
}

// Stop shuts down every channel runtime and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	for _, rc := range d.runtimes {
		rc.rt.Stop()
	}
	d.runtimes = nil
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("livescribe daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Sessions returns the journal contents, newest first.
func (d *Daemon) Sessions(ctx context.Context) ([]*journal.Session, error) {
	if d.store == nil {
		return nil, errors.New("journal store unavailable")
	}
	return d.store.List(ctx)
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:       d.running.Load(),
		JournalDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
	}
	for _, rc := range d.runtimes {
		status.Channels = append(status.Channels, ChannelStatus{
			Name:   rc.rt.Name(),
			RoomID: rc.cfg.RoomID,
			Tasks:  rc.rt.TaskCount(),
		})
	}
	return status
}
