// Package etl implements the ETL Pipeline and ETL Registry (spec.md §4.6,
// §4.7): per-source extract→transform→load pipelines driven concurrently
// or sequentially by a registry that aggregates their status, health, and
// hash.
package etl

import "context"

// Iterator is a single-pass, lazy, finite sequence of items. The pipeline
// never restarts it.
type Iterator interface {
	// HasNext reports whether another item is available without consuming
	// it.
	HasNext() bool
	// Next returns the next item. It must only be called when HasNext is
	// true.
	Next() (interface{}, error)
}

// Extractor produces the raw input sequence for one pipeline. Concrete
// implementations (HTTP/OAI-PMH clients, file readers, etc.) are external
// collaborators; the core only depends on this contract.
type Extractor interface {
	Init(ctx context.Context) error
	Extract(ctx context.Context) (Iterator, error)
	// UniqueVersionString identifies the data provider's current version,
	// e.g. a manifest hash. An empty string means "unknown".
	UniqueVersionString() string
	// Size returns the number of items the extractor expects to produce,
	// or -1 if unknown.
	Size() int
}

// Transformer maps one extracted item onto zero or one output elements. A
// nil output is skipped and not counted.
type Transformer interface {
	Init(pipeline *Pipeline) error
	Transform(input interface{}) (interface{}, error)
}

// Loader accepts each transformed element. isLast is true for the final
// element of the harvest, so the loader can flush. Loaders must tolerate
// duplicate keys (idempotent upsert).
type Loader interface {
	Init(pipeline *Pipeline) error
	Load(element interface{}, isLast bool) error
}

// ExtractorFactory, TransformerFactory, and LoaderFactory late-bind a
// pipeline's collaborators: spec.md §4.6 constructs them inside update()/
// prepareHarvest() rather than at pipeline construction time.
type (
	ExtractorFactory   func() Extractor
	TransformerFactory func() Transformer
	LoaderFactory      func() Loader
)
