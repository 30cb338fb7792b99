package collaborator

import (
	"fmt"

	"harvester/internal/etl"
)

// DirectoryExtractorType is the only extractorType the built-in collaborator
// factory resolves. Any other value names a production collaborator
// (HTTP/OAI-PMH client, message queue reader, etc.) that must be supplied
// externally — spec.md treats Extractor as a collaborator contract, not a
// fixed implementation set.
const DirectoryExtractorType = "directory"

// NewFactories returns the three pipeline factories for extractorType, or an
// error if extractorType has no built-in implementation. sourceDir is the
// root a "directory" extractor reads from.
func NewFactories(extractorType, sourceDir string) (etl.ExtractorFactory, etl.TransformerFactory, etl.LoaderFactory, error) {
	if extractorType != DirectoryExtractorType {
		return nil, nil, nil, fmt.Errorf("collaborator: no built-in extractor for type %q, supply one externally", extractorType)
	}

	ef := func() etl.Extractor { return &DirectoryExtractor{Root: sourceDir} }
	tf := func() etl.Transformer { return PassthroughTransformer{} }
	lf := func() etl.Loader { return &CacheLoader{} }
	return ef, tf, lf, nil
}
