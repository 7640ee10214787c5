// Package channel owns the per-channel concurrency runtime and the realtime
// transcription pipeline that runs inside it.
//
// Each monitored room gets one Runtime: a dedicated goroutine draining a
// serialized job queue. Everything that touches session state (online flag,
// sentence counter, sink handle) executes as a job on that goroutine; other
// goroutines — the poll ticker, the transcription loop, the recognizer's
// websocket read loop, the resync probe — reach it only through Submit.
// Behaviors are attached as capabilities: the transcription capability wires
// the live-state monitor, the reconnect loop, and the recognition event
// adapter together. Failures inside a runtime degrade to retry-after-backoff
// and never escape to sibling channels.
package channel
