package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"harvester/pkg/logging"
)

// Storage persists one YAML file per pipeline definition under
// <moduleName>/pipelines/ (SPEC_FULL.md §3 Pipeline definition persistence).
type Storage struct {
	mu   sync.RWMutex
	root string // <moduleName>/pipelines
}

// NewStorage opens pipeline-definition storage rooted at dir.
func NewStorage(dir string) *Storage {
	return &Storage{root: dir}
}

// Save writes a pipeline definition to <root>/<name>.yaml.
func (s *Storage) Save(name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("config: pipeline name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("config: create pipelines directory %s: %w", s.root, err)
	}

	path := filepath.Join(s.root, sanitizeFilename(name)+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write pipeline definition %s: %w", path, err)
	}

	logging.Info("config-storage", "saved pipeline definition %s to %s", name, path)
	return nil
}

// Load reads a pipeline definition by name.
func (s *Storage) Load(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("config: pipeline name cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.root, sanitizeFilename(name)+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config: pipeline definition %s not found", name)
		}
		return nil, fmt.Errorf("config: read pipeline definition %s: %w", path, err)
	}
	return data, nil
}

// Delete removes a pipeline definition by name.
func (s *Storage) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("config: pipeline name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.root, sanitizeFilename(name)+".yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config: pipeline definition %s not found", name)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("config: delete pipeline definition %s: %w", path, err)
	}

	logging.Info("config-storage", "deleted pipeline definition %s", name)
	return nil
}

// List returns every pipeline name with a definition on disk.
func (s *Storage) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return nil, nil
	}

	yamlFiles, err := filepath.Glob(filepath.Join(s.root, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("config: glob pipeline definitions: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(s.root, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("config: glob pipeline definitions: %w", err)
	}

	var names []string
	for _, path := range append(yamlFiles, ymlFiles...) {
		base := filepath.Base(path)
		names = append(names, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	return names, nil
}

// sanitizeFilename strips characters that would be unsafe as a path
// component, so a pipeline name can never escape the pipelines directory.
func sanitizeFilename(name string) string {
	sanitized := name
	for _, c := range []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", ".", " "} {
		sanitized = strings.ReplaceAll(sanitized, c, "_")
	}
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "unnamed"
	}
	return sanitized
}
