// Package http contains the chi HTTP handlers for the feature pipeline:
// health probes, dataset listings, and operation lifecycle endpoints.
// Handlers render JSON with go-chi/render and report failures as
// APIError responses.
package http
