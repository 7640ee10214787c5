package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"livescribe/internal/config"
	"livescribe/internal/journal"
	"livescribe/internal/logging"
)

func offlinePlatform(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"message":"ok","data":{"live_status":0,"live_time":0,"title":""}}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = dir
	cfg.Paths.LogDir = dir
	cfg.Paths.JournalPath = filepath.Join(dir, "journal.db")
	cfg.Recognizer.APIKey = "sk-test"
	cfg.Live.BaseURL = baseURL
	cfg.Channels = []config.Channel{
		{Name: "alice", RoomID: 42, PollIntervalSeconds: 3600},
	}
	return &cfg
}

func newTestDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()
	store, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	server := offlinePlatform(t)
	cfg := testConfig(t, server.URL)
	d := newTestDaemon(t, cfg)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	status := d.Status()
	if !status.Running {
		t.Fatal("daemon should report running")
	}
	if len(status.Channels) != 1 || status.Channels[0].Name != "alice" || status.Channels[0].RoomID != 42 {
		t.Fatalf("status channels = %+v", status.Channels)
	}

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second start should fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("daemon should report stopped")
	}
	// Stop twice is a no-op.
	d.Stop()
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	server := offlinePlatform(t)
	cfg := testConfig(t, server.URL)

	first := newTestDaemon(t, cfg)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("start first: %v", err)
	}
	defer first.Stop()

	second := newTestDaemon(t, cfg)
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance should fail to acquire the lock")
	}
}

func TestDaemonStartFailsWithoutRecognizerKey(t *testing.T) {
	server := offlinePlatform(t)
	cfg := testConfig(t, server.URL)
	cfg.Recognizer.APIKey = ""

	d := newTestDaemon(t, cfg)
	if err := d.Start(context.Background()); err == nil {
		d.Stop()
		t.Fatal("start should fail without a recognizer api key")
	}
}

func TestDaemonSessionsReadsJournal(t *testing.T) {
	server := offlinePlatform(t)
	cfg := testConfig(t, server.URL)
	d := newTestDaemon(t, cfg)

	sessions, err := d.Sessions(context.Background())
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected empty journal, got %d sessions", len(sessions))
	}
}
