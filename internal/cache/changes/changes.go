// Package changes implements the Document Changes Cache (spec.md §4.3): a
// persistent map from document-id to serialized document body, co-
// partitioned with the Versions Cache.
package changes

import "harvester/internal/cache/face"

const faceName = "changes"

// Cache is the Changes face of one pipeline's Harvester Cache.
type Cache struct {
	face *face.Face
}

// New returns a Cache rooted at pipelineCacheDir/changes(_wip).
func New(pipelineCacheDir string) *Cache {
	return &Cache{face: face.New(pipelineCacheDir, faceName)}
}

func (c *Cache) Init(sourceFingerprint *string) error { return c.face.Init(sourceFingerprint) }

// Put stores the serialized body for documentID in the WIP partition.
func (c *Cache) Put(documentID string, body []byte) error {
	return c.face.PutFile(documentID, body)
}

func (c *Cache) Remove(documentID string) error { return c.face.RemoveFile(documentID) }

// Get returns the stable serialized body for documentID, if present.
func (c *Cache) Get(documentID string) ([]byte, bool, error) {
	return c.face.GetFileContent(documentID)
}

// Size returns the number of WIP entries; it drives progress accounting
// during a harvest.
func (c *Cache) Size() (int, error) { return c.face.Size() }

func (c *Cache) ApplyChanges() error       { return c.face.ApplyChanges() }
func (c *Cache) DeleteEmptyFiles() error   { return c.face.DeleteEmptyFiles() }
func (c *Cache) IsOutdated() (bool, error) { return c.face.IsOutdated() }

// EmptyWIPIDs returns the document-ids marked as deleted (zero-length WIP
// payload) without deleting anything.
func (c *Cache) EmptyWIPIDs() ([]string, error) { return c.face.EmptyWIPIDs() }

// ForEach iterates the stable partition. The visitor receives the stored
// body for each document-id.
func (c *Cache) ForEach(visit func(documentID string, body []byte) bool) error {
	return c.face.ForEach(visit)
}
