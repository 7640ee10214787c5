// Package clock reconciles recognizer-relative timestamps with true elapsed
// broadcast time.
//
// Recognizer offsets are measured from the moment audio started flowing, not
// from the moment the broadcast went live. The Reconciler holds the delta
// between the two and lets the stream probe refine it, rejecting probe
// results that jump further than the configured threshold since those are
// usually buffering or transcoding jitter rather than real drift.
package clock
