// Package config holds the harvester's configuration model (spec.md §6
// Configuration): a process-global snapshot of shared parameters plus one
// declarative definition per pipeline, loaded from YAML the way the
// teacher persists its service definitions (internal/services/persistence.go).
package config

// GlobalConfig holds the parameters shared across every pipeline.
type GlobalConfig struct {
	// Concurrent fans processPipelines out in parallel when true,
	// sequential in registration order otherwise. Default false.
	Concurrent bool `yaml:"concurrent"`
	// AutoSave starts a save automatically after a successful harvest.
	AutoSave bool `yaml:"autoSave"`
	// AutoSubmit starts a submit automatically after a successful save.
	AutoSubmit bool `yaml:"autoSubmit"`
	// ReadHTTPFromDisk serves extractor HTTP requests from the on-disk
	// response cache when available.
	ReadHTTPFromDisk bool `yaml:"readHttpFromDisk"`
	// WriteHTTPToDisk persists extractor HTTP responses to the on-disk
	// cache as they are received.
	WriteHTTPToDisk bool `yaml:"writeHttpToDisk"`
	// HarvestSchedule is a standard cron expression on which the Scheduler
	// collaborator emits StartHarvestEvent. Empty disables scheduled
	// harvesting; the operator drives harvests manually via POST /.
	HarvestSchedule string `yaml:"harvestSchedule,omitempty"`
}

// PipelineConfig is one pipeline's declarative definition, persisted at
// <moduleName>/pipelines/<name>.yaml (SPEC_FULL.md §3).
type PipelineConfig struct {
	Name          string `yaml:"name"`
	ExtractorType string `yaml:"extractorType"`
	// Enabled includes the pipeline in a harvest. Default true.
	Enabled bool `yaml:"enabled"`
	// ForceHarvest bypasses the outdatedness check. Default false.
	ForceHarvest bool `yaml:"forceHarvest"`
	// StartIndex and EndIndex bound the harvest range [a,b). EndIndex -1
	// means unbounded, the YAML spelling of the nil *int sentinel
	// internal/etl.Config.EndIndex uses in memory (REDESIGN FLAG, §9).
	StartIndex int `yaml:"startIndex"`
	EndIndex   int `yaml:"endIndex"`

	SubmissionURL      string `yaml:"submissionUrl,omitempty"`
	SubmissionUserName string `yaml:"submissionUserName,omitempty"`
	SubmissionPassword string `yaml:"submissionPassword,omitempty"`
	SubmissionSize     int    `yaml:"submissionSize,omitempty"`
}

// EndIndexUnbounded is the YAML/JSON sentinel meaning "until end of
// source", matching spec.md's legacy MAX_INT convention without carrying
// MAX_INT itself into the in-memory representation.
const EndIndexUnbounded = -1

// EndIndexPtr converts the persisted sentinel into internal/etl's nil-means-
// unbounded representation.
func (p PipelineConfig) EndIndexPtr() *int {
	if p.EndIndex == EndIndexUnbounded {
		return nil
	}
	end := p.EndIndex
	return &end
}

// Config is the full configuration snapshot: global parameters plus one
// definition per registered pipeline, keyed by name.
type Config struct {
	Global    GlobalConfig
	Pipelines map[string]PipelineConfig
}

// Clone returns a deep copy, so a caller can mutate it without racing a
// concurrent reader of the original (spec.md §5: configuration reads are
// lock-free immutable snapshots).
func (c Config) Clone() Config {
	clone := Config{Global: c.Global, Pipelines: make(map[string]PipelineConfig, len(c.Pipelines))}
	for name, p := range c.Pipelines {
		clone.Pipelines[name] = p
	}
	return clone
}
