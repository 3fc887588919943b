// Package overlay implements the notification overlay renderer: a
// single-threaded state machine (idle, displaying, fading) driven by a poll
// heartbeat and fade timers on a cooperative scheduler. It has no toolkit
// dependency; the window and the scheduler are supplied by the caller.
package overlay
