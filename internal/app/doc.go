// Package app wires the feature pipeline server together: configuration,
// logging, OpenTelemetry, the WebSocket hub, the operation manager, and
// the chi router with all HTTP handlers.
package app
