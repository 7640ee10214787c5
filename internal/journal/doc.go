// Package journal persists a record of every live session the daemon
// transcribed: which channel, when it started and ended, where the
// transcript landed, and how many sentences were written.
//
// The journal is bookkeeping, not a source of truth for transcripts; every
// write failure is logged by callers and never interrupts a session.
package journal
