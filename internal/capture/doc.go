// Package capture runs the external media subprocesses: ffmpeg converting a
// live stream URL into a mono 16-bit PCM WAV byte stream on stdout, and
// ffprobe reporting the stream's starting presentation timestamp for time
// delta resync.
//
// Callers own the Stream lifecycle: read from Reader until it ends, then
// Terminate on every exit path so no ffmpeg process outlives its session.
package capture
