// Package collaborator provides the minimal built-in Extractor, Transformer,
// and Loader implementations that make a freshly configured pipeline
// runnable out of the box. Production sources (HTTP/OAI-PMH endpoints,
// message queues, etc.) are external collaborators against the same
// contracts (internal/etl.Extractor/Transformer/Loader) and are not part of
// this package.
package collaborator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"harvester/internal/document"
	"harvester/internal/etl"
)

// DirectoryExtractor walks a directory tree and emits one document per
// regular file, keyed by its path relative to Root. It is grounded on the
// same "list a directory, read each entry" idiom internal/config/storage.go
// uses for pipeline definitions.
type DirectoryExtractor struct {
	Root string

	files   []documentFile
	version string
}

type documentFile struct {
	relPath string
	absPath string
}

func (e *DirectoryExtractor) Init(ctx context.Context) error {
	entries, err := walkRegularFiles(e.Root)
	if err != nil {
		return fmt.Errorf("directory extractor: walk %s: %w", e.Root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].relPath < entries[j].relPath })

	e.files = entries
	e.version = fingerprint(entries)
	return nil
}

func (e *DirectoryExtractor) Extract(ctx context.Context) (etl.Iterator, error) {
	return &directoryIterator{files: e.files}, nil
}

func (e *DirectoryExtractor) UniqueVersionString() string { return e.version }

func (e *DirectoryExtractor) Size() int { return len(e.files) }

type directoryIterator struct {
	files []documentFile
	pos   int
}

func (it *directoryIterator) HasNext() bool { return it.pos < len(it.files) }

func (it *directoryIterator) Next() (interface{}, error) {
	f := it.files[it.pos]
	it.pos++

	body, err := os.ReadFile(f.absPath)
	if err != nil {
		return nil, fmt.Errorf("directory extractor: read %s: %w", f.absPath, err)
	}
	return document.Document{SourceID: f.relPath, Body: body}, nil
}

func walkRegularFiles(root string) ([]documentFile, error) {
	var files []documentFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, documentFile{relPath: rel, absPath: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func fingerprint(files []documentFile) string {
	h := document.ContentHash([]byte(fingerprintSeed(files)))
	return h
}

func fingerprintSeed(files []documentFile) string {
	seed := ""
	for _, f := range files {
		info, err := os.Stat(f.absPath)
		if err != nil {
			continue
		}
		seed += f.relPath + ":" + info.ModTime().String() + ";"
	}
	return seed
}
