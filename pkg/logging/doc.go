// Package logging provides the harvester's structured logging: leveled,
// per-subsystem messages written through slog, plus an in-memory ring
// buffer GET /log queries against.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//	logging.Info("bootstrap", "starting harvester for %s", dataProvider)
//	logging.Warn("etl", "pipeline %s: %v", name, err)
//	logging.Error("restserver", err, "server error")
//
// # Subsystems
//
// Log calls are tagged with a subsystem string (e.g. "bootstrap", "etl",
// "restserver", "scheduler") rather than a fixed enum, matching the teacher's
// free-form subsystem identifiers. GET /log's "class" filter matches this
// string.
//
// # Ring buffer
//
// Every call to Debug/Info/Warn/Error records an Entry into a fixed-size
// ring buffer regardless of the configured filter level, so GET /log can
// retrieve entries the active level would otherwise have dropped from
// output. Query filters by minimum level, a since timestamp, and a set of
// subsystem names.
package logging
