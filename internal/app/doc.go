// Package app is the harvester's Main Context: it bootstraps and owns the
// process-lifetime instances of every core component (spec.md §2) and
// drives the process's only execution mode, a long-running service.
//
// Bootstrap (bootstrap.go) follows a two-phase pattern: NewApplication
// constructs every component via InitializeServices (services.go), then
// starts the state machine and time keeper and publishes ServiceInitialized
// so the state machine can leave its initialization state. Run
// (bootstrap.go) blocks in runService (modes.go) on SIGINT/SIGTERM;
// runService then stops the time keeper and state machine and closes the
// event bus, after which Run stops the REST server, the Scheduler and the
// config watcher. This is not the reverse of construction order.
//
// InitializeServices wires components in the order they depend on each
// other: event bus, configuration manager, ETL registry (one pipeline per
// loaded definition, using internal/collaborator's built-in extractor set
// where the configured extractorType resolves to one), time keeper, state
// machine (with harvest/save/submit drivers), control facade. It also
// installs the autoSave/autoSubmit event-driven chaining spec.md §6's
// configuration enumeration describes.
package app
