package collaborator

import "harvester/internal/etl"

// PassthroughTransformer forwards each extracted document unchanged. It is
// the default transformer for pipelines that do not need field mapping or
// filtering.
type PassthroughTransformer struct{}

func (PassthroughTransformer) Init(pipeline *etl.Pipeline) error { return nil }

func (PassthroughTransformer) Transform(input interface{}) (interface{}, error) {
	return input, nil
}
