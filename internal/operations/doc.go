// Package operations orchestrates the feature-engineering pipeline as a
// sequence of steps with per-step state, retries, and progress broadcasting.
//
// A pipeline run (an "operation") executes four steps in dependency order:
// loading raw observations, engineering features, summarizing per object,
// and exporting the output snapshots. Steps communicate through the shared
// operation context rather than direct references.
package operations
