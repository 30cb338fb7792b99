package collaborator

import (
	"fmt"

	"harvester/internal/document"
	"harvester/internal/etl"
)

// CacheLoader writes each transformed element into the owning pipeline's
// Harvester Cache. It is the default loader: every pipeline needs its
// documents recorded in the cache regardless of source, so this is not an
// "external collaborator" the way an Extractor is.
type CacheLoader struct {
	pipeline *etl.Pipeline
}

func (l *CacheLoader) Init(pipeline *etl.Pipeline) error {
	l.pipeline = pipeline
	return nil
}

func (l *CacheLoader) Load(element interface{}, isLast bool) error {
	doc, ok := element.(document.Document)
	if !ok {
		return fmt.Errorf("cache loader: expected document.Document, got %T", element)
	}
	return l.pipeline.Cache().CacheDocument(doc, false)
}
