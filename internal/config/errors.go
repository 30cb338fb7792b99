package config

import (
	"fmt"
	"strings"
)

// PipelineConfigError is a structured error raised while loading or
// validating a pipeline definition file.
type PipelineConfigError struct {
	FilePath    string   // where the error arose: a pipeline definition's name or the module directory
	Pipeline    string   // pipeline name, if known
	ErrorType   string   // "parse", "validation", "io"
	Message     string   // human-readable message
	Suggestions []string // actionable suggestions
}

// Error implements the error interface.
func (e PipelineConfigError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.ErrorType, e.FilePath, e.Message)
}

// DetailedError returns a multi-line message including suggestions, for CLI
// and log output where more context is useful than a one-liner.
func (e PipelineConfigError) DetailedError() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("configuration error in %s", e.FilePath))
	if e.Pipeline != "" {
		parts = append(parts, fmt.Sprintf("  pipeline: %s", e.Pipeline))
	}
	parts = append(parts, fmt.Sprintf("  type: %s", e.ErrorType))
	parts = append(parts, fmt.Sprintf("  error: %s", e.Message))
	if len(e.Suggestions) > 0 {
		parts = append(parts, "  suggestions:")
		for _, s := range e.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", s))
		}
	}
	return strings.Join(parts, "\n")
}

// NewPipelineConfigError builds a basic PipelineConfigError.
func NewPipelineConfigError(filePath, pipeline, errorType, message string) PipelineConfigError {
	return PipelineConfigError{FilePath: filePath, Pipeline: pipeline, ErrorType: errorType, Message: message}
}

// ErrorCollection accumulates errors across a directory load so one bad file
// does not hide problems in the rest (spec.md §6: config loading is
// best-effort per file).
type ErrorCollection struct {
	Errors []PipelineConfigError
}

// Add appends err to the collection.
func (c *ErrorCollection) Add(err PipelineConfigError) {
	c.Errors = append(c.Errors, err)
}

// HasErrors reports whether any error was recorded.
func (c *ErrorCollection) HasErrors() bool {
	return len(c.Errors) > 0
}

// Error implements the error interface, summarizing the whole collection.
func (c ErrorCollection) Error() string {
	if len(c.Errors) == 0 {
		return "no configuration errors"
	}
	if len(c.Errors) == 1 {
		return c.Errors[0].Error()
	}
	return fmt.Sprintf("%d configuration errors: %s (and %d more)", len(c.Errors), c.Errors[0].Error(), len(c.Errors)-1)
}
