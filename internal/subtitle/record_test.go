package subtitle

import (
	"testing"
	"time"
)

func TestFormatTimecode(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00,000"},
		{2500 * time.Millisecond, "00:00:02,500"},
		{3200 * time.Millisecond, "00:00:03,200"},
		{time.Hour + 2*time.Minute + 3*time.Second + 45*time.Millisecond, "01:02:03,045"},
		{-time.Second, "00:00:00,000"},
		{26 * time.Hour, "26:00:00,000"},
	}
	for _, tc := range cases {
		if got := FormatTimecode(tc.in); got != tc.want {
			t.Fatalf("FormatTimecode(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTimecodeRoundTrip(t *testing.T) {
	values := []time.Duration{
		0,
		time.Millisecond,
		999 * time.Millisecond,
		42*time.Minute + 7*time.Second + 123*time.Millisecond,
		9*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond,
	}
	for _, want := range values {
		got, err := ParseTimecode(FormatTimecode(want))
		if err != nil {
			t.Fatalf("parse %v: %v", want, err)
		}
		diff := got - want
		if diff < 0 {
			diff = -diff
		}
		if diff > time.Millisecond {
			t.Fatalf("round trip drift %v for %v", diff, want)
		}
	}
}

func TestParseTimecodeRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "12:34", "aa:bb:cc,ddd", "00:00:00.123", "00:00:00,1234"} {
		if _, err := ParseTimecode(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestBlockRoundTrip(t *testing.T) {
	record := NewRecord(7, 2500*time.Millisecond, 3200*time.Millisecond, "  hello world ")
	block := record.Block()

	want := "7\n00:00:02,500 --> 00:00:03,200\nhello world\n\n"
	if block != want {
		t.Fatalf("block = %q, want %q", block, want)
	}

	parsed, err := ParseBlock(block)
	if err != nil {
		t.Fatalf("parse block: %v", err)
	}
	if parsed.Index != 7 || parsed.Text != "hello world" {
		t.Fatalf("parsed = %+v", parsed)
	}
	if parsed.Start != record.Start || parsed.End != record.End {
		t.Fatalf("timing mismatch: %v-%v vs %v-%v", parsed.Start, parsed.End, record.Start, record.End)
	}
}

func TestNewRecordClampsEnd(t *testing.T) {
	record := NewRecord(1, 5*time.Second, 4*time.Second, "x")
	if record.End != record.Start {
		t.Fatalf("end not clamped: %v < %v", record.End, record.Start)
	}
}

func TestSessionFileName(t *testing.T) {
	start := time.Unix(1700000000, 0)
	if got := SessionFileName(42, start); got != "42_1700000000.srt" {
		t.Fatalf("file name = %q", got)
	}
}
