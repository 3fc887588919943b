// Package daemon provides process-level support for npcd: configuration
// hot reload, the single-instance lock and service manager readiness.
package daemon
