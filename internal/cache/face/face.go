// Package face implements the shared layout and operations of the Document
// Versions and Document Changes caches (spec.md §4.3): a two-level directory
// fan-out with a work-in-progress partition and a stable partition, promoted
// atomically via internal/diskutil.
package face

import (
	"fmt"
	"os"
	"path/filepath"

	"harvester/internal/diskutil"
)

const sourceFingerprintFile = "_source"

// Face is one partitioned fan-out directory pair (wip + stable) for either
// the versions or the changes cache. Name is "versions" or "changes"; it
// appears in error messages and New derives both directory names from it.
type Face struct {
	Name     string
	stableDir string
	wipDir    string
}

// New returns a Face rooted at pipelineCacheDir/<name> (stable) and
// pipelineCacheDir/<name>_wip (work-in-progress).
func New(pipelineCacheDir, name string) *Face {
	return &Face{
		Name:      name,
		stableDir: filepath.Join(pipelineCacheDir, name),
		wipDir:    filepath.Join(pipelineCacheDir, name+"_wip"),
	}
}

func entryPath(root, documentID string) (string, error) {
	if len(documentID) < 2 {
		return "", fmt.Errorf("face: document id %q is too short for fan-out", documentID)
	}
	return filepath.Join(root, documentID[:2], documentID[2:]), nil
}

// Init empties the WIP partition and, if sourceFingerprint is non-nil,
// records it at <wip>/_source. The stable partition is untouched.
func (f *Face) Init(sourceFingerprint *string) error {
	if err := diskutil.DeleteFile(f.wipDir); err != nil {
		return fmt.Errorf("face %s: clear wip: %w", f.Name, err)
	}
	if err := os.MkdirAll(f.wipDir, 0o755); err != nil {
		return fmt.Errorf("face %s: create wip: %w", f.Name, err)
	}
	if sourceFingerprint != nil {
		path := filepath.Join(f.wipDir, sourceFingerprintFile)
		if err := os.WriteFile(path, []byte(*sourceFingerprint), 0o644); err != nil {
			return fmt.Errorf("face %s: write source fingerprint: %w", f.Name, err)
		}
	}
	return nil
}

// PutFile writes payload for documentID into the WIP partition. A second
// write for the same id within a harvest keeps only the last payload.
func (f *Face) PutFile(documentID string, payload []byte) error {
	path, err := entryPath(f.wipDir, documentID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("face %s: create entry dir for %s: %w", f.Name, documentID, err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("face %s: write entry %s: %w", f.Name, documentID, err)
	}
	return nil
}

// RemoveFile deletes the WIP entry for documentID. Idempotent.
func (f *Face) RemoveFile(documentID string) error {
	path, err := entryPath(f.wipDir, documentID)
	if err != nil {
		return err
	}
	return diskutil.DeleteFile(path)
}

// GetFileContent reads documentID from the stable partition. The WIP
// partition is never exposed to readers.
func (f *Face) GetFileContent(documentID string) ([]byte, bool, error) {
	path, err := entryPath(f.stableDir, documentID)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("face %s: read entry %s: %w", f.Name, documentID, err)
	}
	return data, true, nil
}

// Size returns the count of WIP entries, excluding the source-fingerprint
// marker file.
func (f *Face) Size() (int, error) {
	count := 0
	err := f.walkEntries(f.wipDir, func(id string, info os.FileInfo) error {
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Visitor is called once per stable entry during ForEach. Returning false
// aborts iteration.
type Visitor func(documentID string, payload []byte) bool

// ForEach iterates the stable partition in lexical fan-out order. A visitor
// returning false aborts iteration immediately.
func (f *Face) ForEach(visit Visitor) error {
	aborted := false
	err := f.walkEntries(f.stableDir, func(id string, info os.FileInfo) error {
		if aborted {
			return nil
		}
		path, perr := entryPath(f.stableDir, id)
		if perr != nil {
			return perr
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return fmt.Errorf("face %s: read entry %s: %w", f.Name, id, rerr)
		}
		if !visit(id, data) {
			aborted = true
		}
		return nil
	})
	return err
}

// walkEntries visits every non-marker file under root, two directory levels
// deep (the <xx>/<rest> fan-out), reconstructing the document id.
func (f *Face) walkEntries(root string, fn func(id string, info os.FileInfo) error) error {
	prefixes, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("face %s: read %s: %w", f.Name, root, err)
	}

	for _, prefix := range prefixes {
		if !prefix.IsDir() {
			continue
		}
		prefixPath := filepath.Join(root, prefix.Name())
		entries, err := os.ReadDir(prefixPath)
		if err != nil {
			return fmt.Errorf("face %s: read %s: %w", f.Name, prefixPath, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return fmt.Errorf("face %s: stat %s: %w", f.Name, entry.Name(), err)
			}
			id := prefix.Name() + entry.Name()
			if err := fn(id, info); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplyChanges atomically promotes the WIP partition into the stable
// partition via diskutil.IntegrateDirectory(replaceExisting=true). If
// interrupted mid-promotion, re-running ApplyChanges completes the merge.
func (f *Face) ApplyChanges() error {
	if err := os.MkdirAll(f.stableDir, 0o755); err != nil {
		return fmt.Errorf("face %s: create stable dir: %w", f.Name, err)
	}
	if err := diskutil.IntegrateDirectory(f.wipDir, f.stableDir, true); err != nil {
		return fmt.Errorf("face %s: apply changes: %w", f.Name, err)
	}
	return nil
}

// EmptyWIPIDs returns the document-ids whose WIP payload has zero length,
// without deleting anything. A zero-length WIP entry encodes "the source no
// longer contains this document".
func (f *Face) EmptyWIPIDs() ([]string, error) {
	var ids []string
	err := f.walkEntries(f.wipDir, func(id string, info os.FileInfo) error {
		if info.Size() == 0 {
			ids = append(ids, id)
		}
		return nil
	})
	return ids, err
}

// DeleteStableEntry removes documentID's entry from the stable partition.
// Idempotent.
func (f *Face) DeleteStableEntry(documentID string) error {
	path, err := entryPath(f.stableDir, documentID)
	if err != nil {
		return err
	}
	if err := diskutil.DeleteFile(path); err != nil {
		return fmt.Errorf("face %s: delete stable entry %s: %w", f.Name, documentID, err)
	}
	return nil
}

// DeleteEmptyFiles removes, from both stable and WIP, every entry whose WIP
// payload has zero length. A zero-length WIP entry encodes "the source no
// longer contains this document".
func (f *Face) DeleteEmptyFiles() error {
	toDelete, err := f.EmptyWIPIDs()
	if err != nil {
		return err
	}

	for _, id := range toDelete {
		if err := f.DeleteStableEntry(id); err != nil {
			return err
		}
		if err := f.RemoveFile(id); err != nil {
			return fmt.Errorf("face %s: delete wip entry %s: %w", f.Name, id, err)
		}
	}
	return nil
}

// IsOutdated reports whether the stable partition's recorded source
// fingerprint differs from (or is absent compared to) the WIP partition's.
func (f *Face) IsOutdated() (bool, error) {
	stable, stableOK, err := f.readFingerprint(f.stableDir)
	if err != nil {
		return false, err
	}
	if !stableOK {
		return true, nil
	}
	wip, _, err := f.readFingerprint(f.wipDir)
	if err != nil {
		return false, err
	}
	return stable != wip, nil
}

func (f *Face) readFingerprint(dir string) (string, bool, error) {
	path := filepath.Join(dir, sourceFingerprintFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("face %s: read fingerprint %s: %w", f.Name, path, err)
	}
	return string(data), true, nil
}
