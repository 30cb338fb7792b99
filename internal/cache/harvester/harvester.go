// Package harvester implements the Harvester Cache (spec.md §4.4): it joins
// the Document Versions and Document Changes caches into one incremental-
// harvest primitive with change detection, promotion, and deletion
// propagation for a single pipeline.
package harvester

import (
	"fmt"
	"strconv"

	"harvester/internal/cache/changes"
	"harvester/internal/cache/versions"
	"harvester/internal/document"
)

// Range bounds the portion of the source a pipeline is responsible for.
// EndIndex is nil for "until the end of source", replacing the Java
// MAX_INT sentinel per spec.md §9.
type Range struct {
	Start    int
	EndIndex *int
}

func (r Range) fingerprintSuffix() string {
	end := "unbounded"
	if r.EndIndex != nil {
		end = strconv.Itoa(*r.EndIndex)
	}
	return strconv.Itoa(r.Start) + ":" + end
}

// Cache joins a pipeline's Versions and Changes faces into one incremental-
// harvest primitive. It exclusively owns both partitions on disk; the disk
// layout is not shared with any other Cache instance.
type Cache struct {
	versions *versions.Cache
	changes  *changes.Cache
}

// New returns a Cache rooted at pipelineCacheDir, which must not be shared
// with any other pipeline.
func New(pipelineCacheDir string) *Cache {
	return &Cache{
		versions: versions.New(pipelineCacheDir),
		changes:  changes.New(pipelineCacheDir),
	}
}

// Init derives a composite fingerprint from sourceFingerprint and rng (so a
// range change invalidates prior output), initializes both faces with it,
// and primes the Changes face's WIP partition with an empty marker for
// every document-id already present in the stable Versions face — the
// "not yet seen this harvest" bookkeeping that DeleteEmptyFiles later acts
// on.
func (c *Cache) Init(sourceFingerprint string, rng Range) error {
	composite := sourceFingerprint + "|" + rng.fingerprintSuffix()

	if err := c.versions.Init(&composite); err != nil {
		return fmt.Errorf("harvester cache: init versions face: %w", err)
	}
	if err := c.changes.Init(&composite); err != nil {
		return fmt.Errorf("harvester cache: init changes face: %w", err)
	}

	var primeErr error
	err := c.versions.ForEach(func(documentID, _ string) bool {
		if primeErr = c.changes.Put(documentID, nil); primeErr != nil {
			return false
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("harvester cache: iterate stable versions: %w", err)
	}
	if primeErr != nil {
		return fmt.Errorf("harvester cache: prime changes wip: %w", primeErr)
	}
	return nil
}

// CacheDocument records doc in the WIP partitions. If forced is false and
// the document's content hash is unchanged from the stable Versions face,
// the write is skipped: the Changes face's "not yet seen" marker is removed
// (the document is confirmed still present) but the Versions WIP entry is
// not rewritten.
func (c *Cache) CacheDocument(doc document.Document, forced bool) error {
	id := document.ID(doc.SourceID)
	newHash := document.ContentHash(doc.Body)

	if !forced {
		existing, ok, err := c.versions.Get(id)
		if err != nil {
			return fmt.Errorf("harvester cache: read existing version for %s: %w", id, err)
		}
		if ok && existing == newHash {
			if err := c.changes.Remove(id); err != nil {
				return fmt.Errorf("harvester cache: clear unchanged marker for %s: %w", id, err)
			}
			return nil
		}
	}

	if err := c.versions.Put(id, newHash); err != nil {
		return fmt.Errorf("harvester cache: write version for %s: %w", id, err)
	}
	if err := c.changes.Put(id, doc.Body); err != nil {
		return fmt.Errorf("harvester cache: write change for %s: %w", id, err)
	}
	return nil
}

// ApplyChanges promotes both faces' WIP partitions into stable. When the
// harvest succeeded cleanly, empty (deletion-marker) entries are purged
// first, so documents no longer present at the source disappear from
// stable. On abort or failure, promotion still runs (so partial progress is
// retained) but deletions are skipped, since an interrupted harvest did not
// observe the full source and cannot distinguish "deleted" from "not yet
// reached".
func (c *Cache) ApplyChanges(harvestSucceeded, harvestAborted bool) error {
	if harvestSucceeded && !harvestAborted {
		// Deletion markers only ever live in the Changes face's WIP
		// partition (Init primes them there, never into Versions' WIP), so
		// the deleted id set is derived from Changes and propagated onto
		// the co-partitioned Versions face explicitly.
		deletedIDs, err := c.changes.EmptyWIPIDs()
		if err != nil {
			return fmt.Errorf("harvester cache: find deleted documents: %w", err)
		}
		for _, id := range deletedIDs {
			if err := c.versions.DeleteStableEntry(id); err != nil {
				return fmt.Errorf("harvester cache: delete stable version for %s: %w", id, err)
			}
		}
		if err := c.changes.DeleteEmptyFiles(); err != nil {
			return fmt.Errorf("harvester cache: delete empty changes: %w", err)
		}
	} else {
		// Ids this run never reached still carry their primed empty marker;
		// drop it so promotion leaves their stable body in place.
		unreachedIDs, err := c.changes.EmptyWIPIDs()
		if err != nil {
			return fmt.Errorf("harvester cache: find unreached documents: %w", err)
		}
		for _, id := range unreachedIDs {
			if err := c.changes.Remove(id); err != nil {
				return fmt.Errorf("harvester cache: clear unreached marker for %s: %w", id, err)
			}
		}
	}

	if err := c.versions.ApplyChanges(); err != nil {
		return fmt.Errorf("harvester cache: promote versions: %w", err)
	}
	if err := c.changes.ApplyChanges(); err != nil {
		return fmt.Errorf("harvester cache: promote changes: %w", err)
	}
	return nil
}

// SkipAllDocuments clears both WIP partitions; used when a pipeline's
// precondition fails and no harvest ran.
func (c *Cache) SkipAllDocuments() error {
	empty := ""
	if err := c.versions.Init(&empty); err != nil {
		return fmt.Errorf("harvester cache: clear versions wip: %w", err)
	}
	if err := c.changes.Init(&empty); err != nil {
		return fmt.Errorf("harvester cache: clear changes wip: %w", err)
	}
	return nil
}

// IsOutdated delegates to the Versions face: the stable cache's recorded
// source fingerprint differs from (or is absent compared to) the current
// WIP fingerprint.
func (c *Cache) IsOutdated() (bool, error) {
	return c.versions.IsOutdated()
}

// Size returns the number of documents that will be published by the next
// ApplyChanges.
func (c *Cache) Size() (int, error) {
	return c.changes.Size()
}

// GetDocument returns the stable content for a document-id already derived
// via document.ID, if present.
func (c *Cache) GetDocument(documentID string) ([]byte, bool, error) {
	return c.changes.Get(documentID)
}

// ForEachDocument iterates the stable Changes face.
func (c *Cache) ForEachDocument(visit func(documentID string, body []byte) bool) error {
	return c.changes.ForEach(visit)
}
