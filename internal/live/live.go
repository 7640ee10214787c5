package live

import (
	"context"
	"errors"
	"time"
)

// ErrNoSource reports that no usable playback URL could be resolved.
var ErrNoSource = errors.New("live: no playable stream source")

// RoomInfo is the polled state of one live room.
type RoomInfo struct {
	LiveStatus int
	LiveTime   int64
	Title      string
}

// Online reports whether the room is broadcasting. The platform uses
// distinct codes for offline and looping replays; only an actual live
// broadcast counts.
func (r RoomInfo) Online() bool {
	return r.LiveStatus == 1
}

// StartTime returns the reported broadcast start, or the zero time when the
// platform omitted it.
func (r RoomInfo) StartTime() time.Time {
	if r.LiveTime <= 0 {
		return time.Time{}
	}
	return time.Unix(r.LiveTime, 0)
}

// PlayURL is one candidate playback URL with the platform's ordering hint.
type PlayURL struct {
	URL   string
	Order int
}

// StreamSource is the resolved URL handed to the capture pipeline.
type StreamSource struct {
	URL string
}

// Client queries the live platform for one room's state and stream URLs.
type Client interface {
	RoomInfo(ctx context.Context, roomID int64) (RoomInfo, error)
	PlayURLs(ctx context.Context, roomID int64) ([]PlayURL, error)
}

// SourcePolicy selects one StreamSource among the candidates a room offers.
type SourcePolicy interface {
	Select(candidates []PlayURL) (StreamSource, error)
}
