package config

// DefaultGlobalConfig returns the shared parameters' zero-touch defaults
// (spec.md §6 Configuration): everything false, so a freshly bootstrapped
// harvester runs sequentially and does nothing automatically until an
// operator opts in.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{}
}

// DefaultPipelineConfig returns a pipeline's defaults for every field the
// operator did not set explicitly: enabled, unbounded range, no forced
// harvest.
func DefaultPipelineConfig(name, extractorType string) PipelineConfig {
	return PipelineConfig{
		Name:          name,
		ExtractorType: extractorType,
		Enabled:       true,
		ForceHarvest:  false,
		StartIndex:    0,
		EndIndex:      EndIndexUnbounded,
	}
}
