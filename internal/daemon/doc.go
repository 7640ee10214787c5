// Package daemon composes the configured channel runtimes, the session
// journal, and the notification service into a single lifecycle with
// flock-based locking to prevent multiple daemon instances.
package daemon
