package channel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"livescribe/internal/asr"
	"livescribe/internal/capture"
	"livescribe/internal/logging"
	"livescribe/internal/subtitle"
)

const (
	audioFrameSize     = 4096
	recognizerStopWait = 5 * time.Second
)

// runLoop keeps a recognition attempt alive for the whole online period.
// Each attempt resolves a fresh stream URL, so a single failure (stream host
// rotation, recognizer disconnect, capture exit) costs one backoff and the
// session resumes where the counter left off.
func (t *Transcriber) runLoop(ctx context.Context, session *liveSession) {
	logger := t.rt.Logger()
	for {
		if ctx.Err() != nil {
			return
		}
		err := t.runAttempt(ctx, session)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn("transcription attempt ended",
				logging.Int64(logging.FieldRoomID, t.cfg.RoomID),
				logging.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.cfg.Backoff):
		}
	}
}

// runAttempt performs one capture-and-recognize cycle: resolve a playback
// URL, start ffmpeg, open the recognizer connection, and pump audio frames
// until either side fails or the session is cancelled.
func (t *Transcriber) runAttempt(ctx context.Context, session *liveSession) error {
	logger := t.rt.Logger()

	candidates, err := t.cfg.Live.PlayURLs(ctx, t.cfg.RoomID)
	if err != nil {
		return err
	}
	source, err := t.cfg.Policy.Select(candidates)
	if err != nil {
		return err
	}

	// Recognizer offsets restart at zero on every connection, so the delta
	// must be re-seeded per attempt; carrying the previous attempt's delta
	// would stamp every sentence near session start after a reconnect.
	session.reconciler.Reset(t.cfg.Now().Sub(session.startedAt))

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := capture.Start(attemptCtx, t.cfg.Capture, source.URL)
	if err != nil {
		return err
	}
	defer stream.Terminate()

	t.startResync(attemptCtx, session, source.URL)

	adapter := &recognitionAdapter{
		transcriber: t,
		session:     session,
		abort:       cancel,
	}
	conn, err := t.cfg.Dialer.Dial(attemptCtx, adapter)
	if err != nil {
		return err
	}
	if err := conn.Start(attemptCtx); err != nil {
		return err
	}

	logger.Info("transcription attempt started",
		logging.Int64(logging.FieldRoomID, t.cfg.RoomID))

	pumpErr := pumpFrames(stream.Reader, conn)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), recognizerStopWait)
	if err := conn.Stop(stopCtx); err != nil {
		logger.Debug("recognizer stop", logging.Error(err))
	}
	stopCancel()

	if pumpErr != nil && !errors.Is(pumpErr, io.EOF) && !errors.Is(pumpErr, context.Canceled) {
		return pumpErr
	}
	if attemptCtx.Err() != nil && ctx.Err() == nil {
		return errors.New("attempt aborted by recognizer")
	}
	return errors.New("audio stream ended")
}

// pumpFrames copies fixed-size audio frames from the capture pipe into the
// recognizer connection until either side closes.
func pumpFrames(reader io.Reader, conn asr.Connection) error {
	buf := make([]byte, audioFrameSize)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			if sendErr := conn.SendFrame(buf[:n]); sendErr != nil {
				return sendErr
			}
		}
		if err != nil {
			return err
		}
	}
}

// startResync launches the probe task for one attempt: an immediate probe to
// correct the wall-clock delta estimate, then periodic refreshes for drift.
// Results are marshalled through Submit and dropped when the session they
// were measured for is no longer current.
func (t *Transcriber) startResync(ctx context.Context, session *liveSession, url string) {
	logger := t.rt.Logger()
	t.rt.SpawnTask("resync", func(context.Context) {
		ticker := time.NewTicker(t.cfg.ResyncEvery)
		defer ticker.Stop()
		for {
			t.probeOnce(ctx, session, url, logger)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	})
}

func (t *Transcriber) probeOnce(ctx context.Context, session *liveSession, url string, logger *slog.Logger) {
	result, err := capture.Probe(ctx, t.cfg.ProbeBinary, url)
	if err != nil {
		if ctx.Err() == nil {
			logger.Debug("stream probe failed", logging.Error(err))
		}
		return
	}
	pts, err := result.StartPTS()
	if err != nil {
		logger.Debug("stream probe unusable", logging.Error(err))
		return
	}
	t.rt.Submit(func(context.Context) {
		if t.session != session {
			return
		}
		if session.reconciler.Resync(pts) {
			logger.Debug("timeline resynced", logging.Duration("delta", pts))
		} else {
			logger.Warn("probe delta rejected",
				logging.Duration("probe_delta", pts),
				logging.Duration("current_delta", session.reconciler.Delta()))
		}
	})
}

// recognitionAdapter receives recognizer events on the websocket read
// goroutine and marshals the ones that mutate session state onto the runtime
// goroutine.
type recognitionAdapter struct {
	transcriber *Transcriber
	session     *liveSession
	abort       context.CancelFunc
}

// OnEvent implements asr.Handler.
func (a *recognitionAdapter) OnEvent(event asr.Event) {
	t := a.transcriber
	logger := t.rt.Logger()
	switch event.Kind {
	case asr.KindFinal:
		session := a.session
		t.rt.Submit(func(ctx context.Context) {
			t.appendFinal(ctx, session, event)
		})
	case asr.KindPartial:
		logger.Debug("partial transcript", logging.String("text", event.Text))
	case asr.KindError:
		logger.Error("recognizer failed",
			logging.String("code", event.Code),
			logging.String("message", event.Message))
		a.abort()
	case asr.KindComplete:
		logger.Info("recognizer task completed")
	}
}

// appendFinal runs on the runtime goroutine: assign the next index, position
// the sentence on the broadcast timeline, and persist it. A stale session
// pointer means the room went offline while the event was in flight; the
// sentence is dropped rather than written into the next session's file.
func (t *Transcriber) appendFinal(ctx context.Context, session *liveSession, event asr.Event) {
	if t.session != session {
		return
	}
	logger := t.rt.Logger()

	session.counter++
	record := subtitle.NewRecord(
		session.counter,
		session.reconciler.Absolute(event.BeginMS),
		session.reconciler.Absolute(event.EndMS),
		event.Text,
	)
	if err := session.writer.Append(record); err != nil {
		logger.Error("transcript append failed",
			logging.Int("index", record.Index),
			logging.Error(err))
		return
	}
	logger.Debug("sentence written",
		logging.Int("index", record.Index),
		logging.Duration("start", record.Start))

	if t.cfg.Journal != nil && session.journalID > 0 {
		if err := t.cfg.Journal.SetSentences(ctx, session.journalID, int64(session.counter)); err != nil {
			logger.Warn("journal sentence count update failed", logging.Error(err))
		}
	}
}
