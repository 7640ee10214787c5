package channel

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"livescribe/internal/asr"
	"livescribe/internal/capture"
	"livescribe/internal/clock"
	"livescribe/internal/journal"
	"livescribe/internal/live"
	"livescribe/internal/logging"
	"livescribe/internal/notifications"
	"livescribe/internal/subtitle"
)

const (
	defaultPollInterval     = 60 * time.Second
	defaultReconnectBackoff = 5 * time.Second
	defaultResyncInterval   = 5 * time.Minute
	pollRequestTimeout      = 30 * time.Second
)

// TranscriberConfig wires one room's transcription pipeline.
type TranscriberConfig struct {
	RoomID        int64
	OutputDir     string
	PollInterval  time.Duration
	ProbeBinary   string
	Capture       capture.Options
	Live          live.Client
	Policy        live.SourcePolicy
	Dialer        asr.Dialer
	Journal       *journal.Store
	Notifier      notifications.Service
	Backoff       time.Duration
	ResyncEvery   time.Duration
	ResyncLimit   time.Duration
	Now           func() time.Time
}

func (c TranscriberConfig) withDefaults() TranscriberConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.Backoff <= 0 {
		c.Backoff = defaultReconnectBackoff
	}
	if c.ResyncEvery <= 0 {
		c.ResyncEvery = defaultResyncInterval
	}
	if c.Notifier == nil {
		c.Notifier = notifications.NewService(notifications.Config{})
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// liveSession is the state of one online period. Only the runtime goroutine
// touches it after construction, except for the reconciler which is safe for
// concurrent use.
type liveSession struct {
	journalID  int64
	startedAt  time.Time
	counter    int
	reconciler *clock.Reconciler
	writer     *subtitle.Writer
	cancel     context.CancelFunc
}

// Transcriber is the capability that monitors one room's live status and,
// while it is online, feeds captured audio through the recognizer into an
// SRT transcript.
type Transcriber struct {
	cfg TranscriberConfig

	// Mutated only by jobs on the runtime goroutine (or in Shutdown, after
	// every task has unwound).
	rt      *Runtime
	online  bool
	session *liveSession
}

// NewTranscriber builds the capability for one configured channel.
func NewTranscriber(cfg TranscriberConfig) (*Transcriber, error) {
	if cfg.RoomID <= 0 {
		return nil, fmt.Errorf("transcriber: room id %d invalid", cfg.RoomID)
	}
	if cfg.Live == nil || cfg.Policy == nil || cfg.Dialer == nil {
		return nil, fmt.Errorf("transcriber: live client, source policy, and recognizer dialer are required")
	}
	return &Transcriber{cfg: cfg.withDefaults()}, nil
}

// Name implements Capability.
func (t *Transcriber) Name() string { return "transcribe" }

// Attach implements Capability: it starts the poll cadence and runs one
// immediate status check so a room already live is picked up without waiting
// a full interval.
func (t *Transcriber) Attach(ctx context.Context, rt *Runtime) error {
	t.rt = rt
	rt.Schedule("poll", t.cfg.PollInterval, t.checkOnline)
	rt.Submit(t.checkOnline)
	return nil
}

// Shutdown implements Capability. It runs after the runtime's job loop has
// drained and every background task has unwound, so touching session state
// directly is safe here.
func (t *Transcriber) Shutdown(rt *Runtime) {
	if t.session == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	t.closeSession(ctx, rt.Logger())
}

// checkOnline is the poll job: query the room state and drive the
// offline/online edge transitions. A failed poll keeps the previous state so
// a transient API error never tears down a running session.
func (t *Transcriber) checkOnline(ctx context.Context) {
	logger := t.rt.Logger()

	pollCtx, cancel := context.WithTimeout(ctx, pollRequestTimeout)
	info, err := t.cfg.Live.RoomInfo(pollCtx, t.cfg.RoomID)
	cancel()
	if err != nil {
		logger.Warn("live status poll failed",
			logging.Int64(logging.FieldRoomID, t.cfg.RoomID),
			logging.Error(err))
		return
	}

	switch {
	case info.Online() && !t.online:
		if err := t.beginSession(ctx, info); err != nil {
			logger.Error("failed to start session", logging.Error(err))
			t.notifyAsync(func(nctx context.Context) error {
				return t.cfg.Notifier.NotifyChannelError(nctx, t.rt.Name(), err)
			})
		}
	case !info.Online() && t.online:
		t.endSession(ctx)
	}
}

// beginSession opens the transcript, records the session in the journal, and
// launches the transcription loop. On any error the room stays marked
// offline so the next poll retries from scratch.
func (t *Transcriber) beginSession(ctx context.Context, info live.RoomInfo) error {
	logger := t.rt.Logger()
	now := t.cfg.Now()

	// Keying the transcript on the broadcast start keeps the name stable
	// across daemon restarts inside one online period, so the append-mode
	// writer resumes the same file instead of fragmenting the session.
	startedAt := info.StartTime()
	if startedAt.IsZero() || startedAt.After(now) {
		startedAt = now
	}

	path := filepath.Join(t.cfg.OutputDir, subtitle.SessionFileName(t.cfg.RoomID, startedAt))
	writer, err := subtitle.NewWriter(path)
	if err != nil {
		return err
	}

	var journalID int64
	if t.cfg.Journal != nil {
		journalID, err = t.cfg.Journal.StartSession(ctx, t.rt.Name(), t.cfg.RoomID, startedAt, path)
		if err != nil {
			logger.Warn("journal insert failed", logging.Error(err))
		}
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	session := &liveSession{
		journalID:  journalID,
		startedAt:  startedAt,
		reconciler: clock.NewReconciler(startedAt, now, t.cfg.ResyncLimit),
		writer:     writer,
		cancel:     cancel,
	}
	t.session = session
	t.online = true

	logger.Info("room went live",
		logging.Int64(logging.FieldRoomID, t.cfg.RoomID),
		logging.String("title", info.Title),
		logging.String("transcript", path))

	t.rt.SpawnTask("transcribe", func(context.Context) {
		t.runLoop(sessionCtx, session)
	})
	t.notifyAsync(func(nctx context.Context) error {
		return t.cfg.Notifier.NotifyLiveStarted(nctx, t.rt.Name(), info.Title)
	})
	return nil
}

// endSession tears down the current session after the room goes offline.
func (t *Transcriber) endSession(ctx context.Context) {
	logger := t.rt.Logger()
	session := t.session
	if session == nil {
		t.online = false
		return
	}

	duration := t.cfg.Now().Sub(session.startedAt)
	sentences := int64(session.counter)
	t.closeSession(ctx, logger)

	logger.Info("room went offline",
		logging.Int64(logging.FieldRoomID, t.cfg.RoomID),
		logging.Duration("session_duration", duration),
		logging.Int64("sentences", sentences))

	t.notifyAsync(func(nctx context.Context) error {
		return t.cfg.Notifier.NotifyLiveEnded(nctx, t.rt.Name(), duration, sentences)
	})
}

// closeSession cancels the transcription loop, closes the transcript, and
// finalizes the journal row.
func (t *Transcriber) closeSession(ctx context.Context, logger *slog.Logger) {
	session := t.session
	t.session = nil
	t.online = false
	if session == nil {
		return
	}

	session.cancel()
	if err := session.writer.Close(); err != nil {
		logger.Warn("transcript close failed", logging.Error(err))
	}
	if t.cfg.Journal != nil && session.journalID > 0 {
		if err := t.cfg.Journal.FinishSession(ctx, session.journalID, t.cfg.Now(), int64(session.counter)); err != nil {
			logger.Warn("journal finish failed", logging.Error(err))
		}
	}
}

// notifyAsync fires a notification without blocking the runtime goroutine.
// Delivery is best effort; failures are logged and dropped.
func (t *Transcriber) notifyAsync(send func(context.Context) error) {
	logger := t.rt.Logger()
	t.rt.SpawnTask("notify", func(ctx context.Context) {
		nctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := send(nctx); err != nil {
			logger.Warn("notification failed", logging.Error(err))
		}
	})
}
