package asr

import (
	"testing"
)

func TestParseServerMessageFinalSentence(t *testing.T) {
	data := []byte(`{
		"header": {"event": "result-generated", "task_id": "t1"},
		"payload": {"output": {"sentence": {
			"text": "hello there",
			"begin_time": 500,
			"end_time": 1200,
			"sentence_end": true
		}}}
	}`)

	name, event, ok := parseServerMessage(data)
	if !ok || name != eventResultGenerated {
		t.Fatalf("parse failed: ok=%v name=%q", ok, name)
	}
	if event.Kind != KindFinal {
		t.Fatalf("kind = %v, want final", event.Kind)
	}
	if event.Text != "hello there" || event.BeginMS != 500 || event.EndMS != 1200 {
		t.Fatalf("event = %+v", event)
	}
}

func TestParseServerMessagePartialSentence(t *testing.T) {
	data := []byte(`{
		"header": {"event": "result-generated"},
		"payload": {"output": {"sentence": {"text": "hel", "sentence_end": false}}}
	}`)

	_, event, ok := parseServerMessage(data)
	if !ok {
		t.Fatal("parse failed")
	}
	if event.Kind != KindPartial || event.Text != "hel" {
		t.Fatalf("event = %+v", event)
	}
}

func TestParseServerMessageDropsEmptySentence(t *testing.T) {
	data := []byte(`{
		"header": {"event": "result-generated"},
		"payload": {"output": {"sentence": {"text": "  ", "sentence_end": true}}}
	}`)
	if _, _, ok := parseServerMessage(data); ok {
		t.Fatal("empty sentence should be dropped")
	}
}

func TestParseServerMessageTaskFailed(t *testing.T) {
	data := []byte(`{
		"header": {"event": "task-failed", "error_code": "401", "error_message": "bad key"}
	}`)

	name, event, ok := parseServerMessage(data)
	if !ok || name != eventTaskFailed {
		t.Fatalf("parse failed: ok=%v name=%q", ok, name)
	}
	if event.Kind != KindError || event.Code != "401" {
		t.Fatalf("event = %+v", event)
	}
	if event.Err() == nil {
		t.Fatal("error event should convert to error")
	}
}

func TestParseServerMessageTaskFinished(t *testing.T) {
	name, event, ok := parseServerMessage([]byte(`{"header": {"event": "task-finished"}}`))
	if !ok || name != eventTaskFinished || event.Kind != KindComplete {
		t.Fatalf("ok=%v name=%q event=%+v", ok, name, event)
	}
}

func TestParseServerMessageIgnoresUnknown(t *testing.T) {
	if _, _, ok := parseServerMessage([]byte(`{"header": {"event": "heartbeat"}}`)); ok {
		t.Fatal("unknown event should be ignored")
	}
	if _, _, ok := parseServerMessage([]byte(`not json`)); ok {
		t.Fatal("bad json should be ignored")
	}
}

func TestNewWebsocketDialerValidation(t *testing.T) {
	if _, err := NewWebsocketDialer(Config{Endpoint: "wss://x"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewWebsocketDialer(Config{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing endpoint")
	}

	dialer, err := NewWebsocketDialer(Config{APIKey: "k", Endpoint: "wss://x"})
	if err != nil {
		t.Fatalf("dialer: %v", err)
	}
	if dialer.cfg.SampleRate != 16000 || dialer.cfg.Format != "wav" {
		t.Fatalf("defaults not applied: %+v", dialer.cfg)
	}
}
