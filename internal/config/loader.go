package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

const (
	snapshotFileName = "config.json"
	pipelinesDirName = "pipelines"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// LoadGlobal reads the global configuration snapshot from
// <moduleName>/config.json (spec.md §6 Persisted State), returning
// DefaultGlobalConfig if the file does not exist yet.
func LoadGlobal(moduleDir string) (GlobalConfig, error) {
	path := filepath.Join(moduleDir, snapshotFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultGlobalConfig(), nil
		}
		return GlobalConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	global := DefaultGlobalConfig()
	if err := jsonAPI.Unmarshal(data, &global); err != nil {
		return GlobalConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return global, nil
}

// SaveGlobal writes the global configuration snapshot as JSON, the one file
// spec.md names with a .json extension rather than YAML.
func SaveGlobal(moduleDir string, global GlobalConfig) error {
	data, err := jsonAPI.MarshalIndent(global, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode global config: %w", err)
	}
	path := filepath.Join(moduleDir, snapshotFileName)
	if err := os.MkdirAll(moduleDir, 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", moduleDir, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// LoadPipelines reads every pipeline definition YAML file from
// <moduleDir>/pipelines/. A malformed or invalid file is skipped and
// recorded in the returned ErrorCollection rather than aborting the whole
// load, so one bad definition never blocks every other pipeline from
// starting.
func LoadPipelines(moduleDir string) (map[string]PipelineConfig, ErrorCollection) {
	storage := NewStorage(filepath.Join(moduleDir, pipelinesDirName))
	var errs ErrorCollection

	names, err := storage.List()
	if err != nil {
		errs.Add(NewPipelineConfigError(moduleDir, "", "io", err.Error()))
		return nil, errs
	}

	pipelines := make(map[string]PipelineConfig, len(names))
	for _, name := range names {
		data, err := storage.Load(name)
		if err != nil {
			errs.Add(NewPipelineConfigError(name, name, "io", err.Error()))
			continue
		}

		p := DefaultPipelineConfig(name, "")
		if err := yaml.Unmarshal(data, &p); err != nil {
			errs.Add(NewPipelineConfigError(name, name, "parse", err.Error()))
			continue
		}
		if p.Name == "" {
			p.Name = name
		}
		if err := ValidatePipeline(p); err != nil {
			errs.Add(NewPipelineConfigError(name, p.Name, "validation", err.Error()))
			continue
		}
		pipelines[p.Name] = p
	}

	return pipelines, errs
}

// SavePipeline persists a single pipeline definition as YAML.
func SavePipeline(moduleDir string, p PipelineConfig) error {
	if err := ValidatePipeline(p); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("config: encode pipeline %s: %w", p.Name, err)
	}
	return NewStorage(filepath.Join(moduleDir, pipelinesDirName)).Save(p.Name, data)
}

// Load reads both the global snapshot and every pipeline definition,
// assembling a full Config. Per-pipeline load errors are returned alongside
// a best-effort Config rather than failing the whole load.
func Load(moduleDir string) (Config, ErrorCollection) {
	global, err := LoadGlobal(moduleDir)
	var errs ErrorCollection
	if err != nil {
		errs.Add(NewPipelineConfigError(moduleDir, "", "io", err.Error()))
	}

	pipelines, loadErrs := LoadPipelines(moduleDir)
	errs.Errors = append(errs.Errors, loadErrs.Errors...)

	return Config{Global: global, Pipelines: pipelines}, errs
}
