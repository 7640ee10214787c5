package asr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	actionRunTask    = "run-task"
	actionFinishTask = "finish-task"

	eventTaskStarted     = "task-started"
	eventResultGenerated = "result-generated"
	eventTaskFinished    = "task-finished"
	eventTaskFailed      = "task-failed"

	startAckTimeout = 10 * time.Second
	stopAckTimeout  = 5 * time.Second
)

// message is the websocket envelope shared by client actions and server
// events.
type message struct {
	Header  msgHeader  `json:"header"`
	Payload msgPayload `json:"payload,omitempty"`
}

type msgHeader struct {
	Action       string `json:"action,omitempty"`
	TaskID       string `json:"task_id,omitempty"`
	Event        string `json:"event,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Streaming    string `json:"streaming,omitempty"`
}

type msgPayload struct {
	TaskGroup  string         `json:"task_group,omitempty"`
	Task       string         `json:"task,omitempty"`
	Function   string         `json:"function,omitempty"`
	Model      string         `json:"model,omitempty"`
	Parameters *taskParams    `json:"parameters,omitempty"`
	Input      map[string]any `json:"input,omitempty"`
	Output     *taskOutput    `json:"output,omitempty"`
}

type taskParams struct {
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
}

type taskOutput struct {
	Sentence *sentence `json:"sentence,omitempty"`
}

type sentence struct {
	Text        string `json:"text"`
	BeginTime   int64  `json:"begin_time"`
	EndTime     int64  `json:"end_time"`
	SentenceEnd bool   `json:"sentence_end"`
}

// WebsocketDialer opens realtime recognition connections against a
// DashScope-style inference endpoint.
type WebsocketDialer struct {
	cfg    Config
	dialer *websocket.Dialer
}

// NewWebsocketDialer builds a dialer from the recognizer config.
func NewWebsocketDialer(cfg Config) (*WebsocketDialer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("recognizer api key is required")
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("recognizer endpoint is required")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if strings.TrimSpace(cfg.Format) == "" {
		cfg.Format = "wav"
	}
	return &WebsocketDialer{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}, nil
}

// Dial opens the websocket and returns an unstarted connection.
func (d *WebsocketDialer) Dial(ctx context.Context, handler Handler) (Connection, error) {
	if handler == nil {
		return nil, errors.New("recognizer handler is required")
	}

	header := http.Header{}
	header.Set("Authorization", "bearer "+d.cfg.APIKey)

	conn, _, err := d.dialer.DialContext(ctx, d.cfg.Endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("dial recognizer: %w", err)
	}

	return &wsConnection{
		cfg:      d.cfg,
		conn:     conn,
		handler:  handler,
		taskID:   uuid.NewString(),
		started:  make(chan struct{}),
		finished: make(chan struct{}),
	}, nil
}

// wsConnection drives one recognition task over an open websocket.
type wsConnection struct {
	cfg     Config
	conn    *websocket.Conn
	handler Handler
	taskID  string

	writeMu sync.Mutex

	startOnce sync.Once
	closeOnce sync.Once
	started   chan struct{}
	finished  chan struct{}
}

// Start submits the recognition task and waits for the server's start ack.
func (c *wsConnection) Start(ctx context.Context) error {
	var startErr error
	c.startOnce.Do(func() {
		run := message{
			Header: msgHeader{
				Action:    actionRunTask,
				TaskID:    c.taskID,
				Streaming: "duplex",
			},
			Payload: msgPayload{
				TaskGroup: "audio",
				Task:      "asr",
				Function:  "recognition",
				Model:     c.cfg.Model,
				Parameters: &taskParams{
					Format:     c.cfg.Format,
					SampleRate: c.cfg.SampleRate,
				},
				Input: map[string]any{},
			},
		}
		if startErr = c.writeJSON(run); startErr != nil {
			c.close()
			return
		}

		go c.readLoop()

		waitCtx, cancel := context.WithTimeout(ctx, startAckTimeout)
		defer cancel()
		select {
		case <-c.started:
		case <-c.finished:
			startErr = errors.New("recognizer closed before task start")
		case <-waitCtx.Done():
			startErr = fmt.Errorf("wait for task start: %w", waitCtx.Err())
		}
		// A failed start must not leak the socket or its read goroutine;
		// closing unblocks readLoop.
		if startErr != nil {
			c.close()
		}
	})
	return startErr
}

// SendFrame pushes one chunk of raw audio.
func (c *wsConnection) SendFrame(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("send audio frame: %w", err)
	}
	return nil
}

// Stop requests a clean finish, waits briefly for the ack, and closes the
// socket. Best effort: errors are returned but the socket always ends up
// closed.
func (c *wsConnection) Stop(ctx context.Context) error {
	finish := message{
		Header: msgHeader{Action: actionFinishTask, TaskID: c.taskID, Streaming: "duplex"},
		Payload: msgPayload{
			Input: map[string]any{},
		},
	}
	err := c.writeJSON(finish)
	if err == nil {
		waitCtx, cancel := context.WithTimeout(ctx, stopAckTimeout)
		defer cancel()
		select {
		case <-c.finished:
		case <-waitCtx.Done():
			err = fmt.Errorf("wait for task finish: %w", waitCtx.Err())
		}
	}
	c.close()
	return err
}

func (c *wsConnection) writeJSON(msg message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Header.Action, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s: %w", msg.Header.Action, err)
	}
	return nil
}

func (c *wsConnection) close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}

// readLoop pumps server events to the handler until the task ends or the
// socket drops. Runs on its own goroutine; this is the foreign callback
// thread the rest of the system marshals away from.
func (c *wsConnection) readLoop() {
	defer close(c.finished)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.started:
				c.handler.OnEvent(Failure("connection", err.Error()))
			default:
				// Never started; Start reports the failure.
			}
			return
		}

		name, event, ok := parseServerMessage(data)
		if !ok {
			continue
		}
		switch name {
		case eventTaskStarted:
			select {
			case <-c.started:
			default:
				close(c.started)
			}
		case eventResultGenerated:
			c.handler.OnEvent(event)
		case eventTaskFailed:
			c.handler.OnEvent(event)
			return
		case eventTaskFinished:
			c.handler.OnEvent(event)
			return
		}
	}
}

// parseServerMessage decodes one server frame into its event name and, when
// it carries recognizer output, an Event. Empty sentences are dropped.
func parseServerMessage(data []byte) (string, Event, bool) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", Event{}, false
	}

	switch msg.Header.Event {
	case eventTaskStarted:
		return eventTaskStarted, Event{}, true
	case eventTaskFinished:
		return eventTaskFinished, Completed(), true
	case eventTaskFailed:
		return eventTaskFailed, Failure(msg.Header.ErrorCode, msg.Header.ErrorMessage), true
	case eventResultGenerated:
		if msg.Payload.Output == nil || msg.Payload.Output.Sentence == nil {
			return "", Event{}, false
		}
		s := msg.Payload.Output.Sentence
		if strings.TrimSpace(s.Text) == "" {
			return "", Event{}, false
		}
		if s.SentenceEnd {
			return eventResultGenerated, Final(s.Text, s.BeginTime, s.EndTime), true
		}
		return eventResultGenerated, Partial(s.Text), true
	default:
		return "", Event{}, false
	}
}
