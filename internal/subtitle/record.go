package subtitle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Record is one finalized sentence positioned on the broadcast timeline.
// Index is 1-based and strictly increases within a session; End is never
// before Start.
type Record struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// NewRecord builds a record, normalizing text and clamping End to Start so
// the End >= Start invariant holds even for degenerate recognizer output.
func NewRecord(index int, start, end time.Duration, text string) Record {
	if end < start {
		end = start
	}
	return Record{
		Index: index,
		Start: start,
		End:   end,
		Text:  CleanText(text),
	}
}

// CleanText trims whitespace and NFC-normalizes recognizer output.
func CleanText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// Block renders the record as an SRT block terminated by a blank line.
func (r Record) Block() string {
	return fmt.Sprintf("%d\n%s --> %s\n%s\n\n",
		r.Index, FormatTimecode(r.Start), FormatTimecode(r.End), r.Text)
}

// FormatTimecode renders a duration as HH:MM:SS,mmm. Negative durations are
// clamped to zero; hours may exceed two digits for marathon sessions.
func FormatTimecode(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Millisecond)
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	millis := (d - seconds*time.Second) / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// ParseTimecode parses an HH:MM:SS,mmm timecode.
func ParseTimecode(s string) (time.Duration, error) {
	main, msPart, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return 0, fmt.Errorf("timecode %q: missing millisecond separator", s)
	}
	parts := strings.Split(main, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("timecode %q: want HH:MM:SS,mmm", s)
	}
	var total time.Duration
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("timecode %q: bad segment %q", s, part)
		}
		total = total*60 + time.Duration(v)*time.Second
	}
	ms, err := strconv.Atoi(msPart)
	if err != nil || ms < 0 || ms > 999 {
		return 0, fmt.Errorf("timecode %q: bad milliseconds %q", s, msPart)
	}
	return total + time.Duration(ms)*time.Millisecond, nil
}

// ParseBlock parses a single SRT block back into a Record.
func ParseBlock(block string) (Record, error) {
	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")
	if len(lines) < 3 {
		return Record{}, fmt.Errorf("block has %d lines, want at least 3", len(lines))
	}
	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Record{}, fmt.Errorf("parse index: %w", err)
	}
	startStr, endStr, ok := strings.Cut(lines[1], "-->")
	if !ok {
		return Record{}, fmt.Errorf("timing line %q: missing separator", lines[1])
	}
	start, err := ParseTimecode(startStr)
	if err != nil {
		return Record{}, err
	}
	end, err := ParseTimecode(endStr)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Index: index,
		Start: start,
		End:   end,
		Text:  strings.Join(lines[2:], "\n"),
	}, nil
}

// SessionFileName derives the transcript name for one online period from the
// room identifier and the session start time.
func SessionFileName(roomID int64, start time.Time) string {
	return fmt.Sprintf("%d_%d.srt", roomID, start.Unix())
}
