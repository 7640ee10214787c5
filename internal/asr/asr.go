package asr

import (
	"context"
	"fmt"
)

// EventKind discriminates recognizer events.
type EventKind int

const (
	// KindPartial is an in-progress, non-durable transcript fragment.
	KindPartial EventKind = iota
	// KindFinal is a confirmed sentence with begin/end offsets.
	KindFinal
	// KindError is a recognizer failure, fatal to the current attempt.
	KindError
	// KindComplete signals the recognizer finished the task cleanly.
	KindComplete
)

func (k EventKind) String() string {
	switch k {
	case KindPartial:
		return "partial"
	case KindFinal:
		return "final"
	case KindError:
		return "error"
	case KindComplete:
		return "complete"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one recognizer callback. Begin/End offsets are milliseconds
// relative to the start of the audio fed into the connection.
type Event struct {
	Kind    EventKind
	Text    string
	BeginMS int64
	EndMS   int64
	Code    string
	Message string
}

// Partial builds an in-progress fragment event.
func Partial(text string) Event {
	return Event{Kind: KindPartial, Text: text}
}

// Final builds a confirmed sentence event.
func Final(text string, beginMS, endMS int64) Event {
	return Event{Kind: KindFinal, Text: text, BeginMS: beginMS, EndMS: endMS}
}

// Failure builds a recognizer error event.
func Failure(code, message string) Event {
	return Event{Kind: KindError, Code: code, Message: message}
}

// Completed builds a clean-finish event.
func Completed() Event {
	return Event{Kind: KindComplete}
}

// Err converts an error event into a Go error.
func (e Event) Err() error {
	if e.Kind != KindError {
		return nil
	}
	return fmt.Errorf("recognizer error %s: %s", e.Code, e.Message)
}

// Handler receives recognizer events. Called from a goroutine the
// recognizer owns; implementations must be goroutine safe.
type Handler interface {
	OnEvent(Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Event)

// OnEvent implements Handler.
func (f HandlerFunc) OnEvent(event Event) { f(event) }

// Connection is one live recognition stream. Start and Stop bracket the
// connection; SendFrame pushes raw audio between them.
type Connection interface {
	Start(ctx context.Context) error
	SendFrame(frame []byte) error
	Stop(ctx context.Context) error
}

// Dialer opens recognizer connections wired to a Handler.
type Dialer interface {
	Dial(ctx context.Context, handler Handler) (Connection, error)
}

// Config carries the recognizer connection settings.
type Config struct {
	APIKey     string
	Model      string
	Endpoint   string
	SampleRate int
	Format     string
}
