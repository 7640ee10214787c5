// Package asr defines the boundary to the external realtime speech
// recognizer and ships a websocket client for DashScope-style endpoints.
//
// The recognizer pushes events from a goroutine it owns (the websocket read
// loop). Handler implementations must therefore be safe to call from any
// goroutine; the channel runtime marshals them onto its own loop before
// touching session state.
package asr
