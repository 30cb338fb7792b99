// Package config implements the harvester's Configuration component
// (spec.md §3, §6): a process-global snapshot of shared parameters plus one
// declarative definition per pipeline.
//
// # Layout
//
// Two kinds of persisted state live under the module directory:
//
//	<moduleDir>/config.json          global parameters (GlobalConfig)
//	<moduleDir>/pipelines/<name>.yaml  one file per pipeline (PipelineConfig)
//
// The global snapshot is JSON because spec.md names it with a .json
// extension; pipeline definitions are YAML, matching the teacher's
// per-entity Storage idiom this package adapts.
//
// # Manager
//
// Manager holds the current Config as an atomic.Value so reads never block
// on a writer (spec.md §5: "reads are lock-free, values are immutable
// snapshots"). Every write persists to disk first, then swaps in a new
// snapshot and publishes events.ConfigChanged. The ETL Registry and the
// Harvest Time Keeper do not subscribe to that event.
package config
