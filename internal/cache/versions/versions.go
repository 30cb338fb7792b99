// Package versions implements the Document Versions Cache (spec.md §4.3): a
// persistent map from document-id to content hash, partitioned into a
// work-in-progress and a stable face.
package versions

import "harvester/internal/cache/face"

const faceName = "versions"

// Cache is the Versions face of one pipeline's Harvester Cache.
type Cache struct {
	face *face.Face
}

// New returns a Cache rooted at pipelineCacheDir/versions(_wip).
func New(pipelineCacheDir string) *Cache {
	return &Cache{face: face.New(pipelineCacheDir, faceName)}
}

func (c *Cache) Init(sourceFingerprint *string) error { return c.face.Init(sourceFingerprint) }

// Put records contentHash as the current hash for documentID in the WIP
// partition.
func (c *Cache) Put(documentID, contentHash string) error {
	return c.face.PutFile(documentID, []byte(contentHash))
}

func (c *Cache) Remove(documentID string) error { return c.face.RemoveFile(documentID) }

// Get returns the stable content hash for documentID, if present.
func (c *Cache) Get(documentID string) (string, bool, error) {
	data, ok, err := c.face.GetFileContent(documentID)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(data), true, nil
}

func (c *Cache) ApplyChanges() error     { return c.face.ApplyChanges() }
func (c *Cache) DeleteEmptyFiles() error { return c.face.DeleteEmptyFiles() }
func (c *Cache) IsOutdated() (bool, error) { return c.face.IsOutdated() }

// DeleteStableEntry removes documentID's stable entry. Used by the
// Harvester Cache to propagate a deletion detected via the Changes face's
// empty markers onto the co-partitioned Versions face.
func (c *Cache) DeleteStableEntry(documentID string) error {
	return c.face.DeleteStableEntry(documentID)
}

// ForEach iterates the stable partition. The visitor receives the stored
// content hash for each document-id.
func (c *Cache) ForEach(visit func(documentID, contentHash string) bool) error {
	return c.face.ForEach(func(id string, payload []byte) bool {
		return visit(id, string(payload))
	})
}
