// Package notifications sends ntfy push notifications for channel lifecycle
// events: a room going live, a session ending, and channel startup failures.
//
// When no topic is configured a noop service is returned so callers never
// branch on notification availability.
package notifications
